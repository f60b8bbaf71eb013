package batch

import (
	"math"

	"github.com/dotcommander/shs/internal/shs"
)

// Range is the mean, minimum and maximum of a series.
type Range struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
}

// ScoreStats extends Range with the population standard deviation.
type ScoreStats struct {
	Range `yaml:",inline"`
	Std   float64 `json:"std" yaml:"std"`
}

// DimensionStats summarizes one dimension across a batch.
type DimensionStats struct {
	Key             string  `json:"dimension_key" yaml:"dimension_key"`
	Slug            string  `json:"slug" yaml:"slug"`
	Score           Range   `json:"score" yaml:"score"`
	MeanConsistency float64 `json:"mean_abs_consistency" yaml:"mean_abs_consistency"`
}

// Statistics aggregates the successful results of a batch. Failed records
// are never part of it.
type Statistics struct {
	N                  int              `json:"n_evaluations" yaml:"n_evaluations"`
	OverallScore       ScoreStats       `json:"overall_score" yaml:"overall_score"`
	OverallConsistency Range            `json:"overall_abs_consistency" yaml:"overall_abs_consistency"`
	Dimensions         []DimensionStats `json:"dimensions" yaml:"dimensions"`
	Bands              map[string]int   `json:"bands" yaml:"bands"`
	ConsistencyLevels  map[string]int   `json:"consistency_levels" yaml:"consistency_levels"`
	NeedsReview        int              `json:"needs_review" yaml:"needs_review"`
}

// ComputeStatistics aggregates results. With no results every field is
// zero and the histograms are empty.
func ComputeStatistics(results []shs.Result) Statistics {
	stats := Statistics{
		N:                 len(results),
		Bands:             make(map[string]int),
		ConsistencyLevels: make(map[string]int),
	}
	dims := shs.Dimensions()
	stats.Dimensions = make([]DimensionStats, len(dims))
	for i, d := range dims {
		stats.Dimensions[i] = DimensionStats{Key: d.Key, Slug: d.Slug}
	}
	if len(results) == 0 {
		return stats
	}

	scores := make([]float64, len(results))
	consistencies := make([]float64, len(results))
	dimScores := make([][]float64, len(dims))
	dimConsistency := make([]float64, len(dims))

	for i, res := range results {
		scores[i] = res.OverallScore
		consistencies[i] = math.Abs(res.OverallConsistency)

		stats.Bands[res.Band().ID]++
		summary := res.ConsistencySummary()
		stats.ConsistencyLevels[string(summary.Level)]++
		if summary.NeedsReview {
			stats.NeedsReview++
		}

		for j, d := range res.Dimensions {
			dimScores[j] = append(dimScores[j], d.Score)
			dimConsistency[j] += math.Abs(d.Consistency)
		}
	}

	stats.OverallScore = ScoreStats{Range: rangeOf(scores), Std: populationStd(scores)}
	stats.OverallConsistency = rangeOf(consistencies)
	n := float64(len(results))
	for j := range dims {
		stats.Dimensions[j].Score = rangeOf(dimScores[j])
		stats.Dimensions[j].MeanConsistency = dimConsistency[j] / n
	}
	return stats
}

func rangeOf(values []float64) Range {
	r := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range values {
		sum += v
		r.Min = math.Min(r.Min, v)
		r.Max = math.Max(r.Max, v)
	}
	r.Mean = sum / float64(len(values))
	return r
}

func populationStd(values []float64) float64 {
	mean := rangeOf(values).Mean
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(values)))
}
