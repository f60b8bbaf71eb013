package shs

import (
	"github.com/dotcommander/shs/internal/locale"
)

// DimensionResult is the outcome for one question pair.
type DimensionResult struct {
	Dimension   Dimension
	Label       string // localized dimension name
	ResponseA   int
	ResponseB   int
	Score       float64 // (a - b) / 4, in [-1, 1]
	Consistency float64 // (a + b) / 4, in [-1, 1]
	Level       ConsistencyLevel
}

// Result is the full evaluation of one ResponseSet. It is a value: it is
// never mutated after Calculate returns and compares with ==.
type Result struct {
	OverallScore       float64
	OverallConsistency float64
	Dimensions         [NumDimensions]DimensionResult
	Responses          ResponseSet
	Language           locale.Language
}

// Calculate scores a validated ResponseSet. lang only selects labels.
//
// No rounding is applied; the overall values are plain means of the exact
// dimension values.
func Calculate(rs ResponseSet, lang locale.Language) Result {
	res := Result{
		Responses: rs,
		Language:  lang,
	}

	var scoreSum, consistencySum float64
	for i, dim := range dimensionTable {
		a := rs.mustGet(dim.QuestionA)
		b := rs.mustGet(dim.QuestionB)

		score := DimensionScore(a, b)
		consistency := DimensionConsistency(a, b)

		res.Dimensions[i] = DimensionResult{
			Dimension:   dim,
			Label:       locale.DimensionLabel(lang, dim.Key),
			ResponseA:   a,
			ResponseB:   b,
			Score:       score,
			Consistency: consistency,
			Level:       ClassifyConsistency(consistency),
		}
		scoreSum += score
		consistencySum += consistency
	}

	res.OverallScore = scoreSum / NumDimensions
	res.OverallConsistency = consistencySum / NumDimensions
	return res
}

// CalculateMap validates a keyed input and scores it.
func CalculateMap(responses map[string]int, lang locale.Language) (Result, error) {
	rs, err := FromMap(responses)
	if err != nil {
		return Result{}, err
	}
	return Calculate(rs, lang), nil
}

// CalculateList validates an ordered input and scores it.
func CalculateList(responses []int, lang locale.Language) (Result, error) {
	rs, err := FromList(responses)
	if err != nil {
		return Result{}, err
	}
	return Calculate(rs, lang), nil
}

// DimensionScore is the normalized difference of a pair.
func DimensionScore(a, b int) float64 {
	return float64(a-b) / 4.0
}

// DimensionConsistency is the normalized sum of a pair.
func DimensionConsistency(a, b int) float64 {
	return float64(a+b) / 4.0
}

// Band classifies the overall score.
func (r Result) Band() Band {
	return Classify(r.OverallScore)
}

// ConsistencySummary grades the overall consistency and flags outlier dimensions.
func (r Result) ConsistencySummary() ConsistencySummary {
	return SummarizeConsistency(r.OverallConsistency, r.DimensionConsistencies())
}

// DimensionScores returns the five dimension scores in table order.
func (r Result) DimensionScores() []float64 {
	out := make([]float64, NumDimensions)
	for i, d := range r.Dimensions {
		out[i] = d.Score
	}
	return out
}

// DimensionConsistencies returns the five consistency values in table order.
func (r Result) DimensionConsistencies() []float64 {
	out := make([]float64, NumDimensions)
	for i, d := range r.Dimensions {
		out[i] = d.Consistency
	}
	return out
}
