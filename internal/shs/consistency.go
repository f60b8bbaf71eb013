package shs

import "math"

// ConsistencyLevel grades how compatible the two answers of a pair are.
type ConsistencyLevel string

const (
	ConsistencyVeryGood     ConsistencyLevel = "very_good"
	ConsistencyGood         ConsistencyLevel = "good"
	ConsistencyInconsistent ConsistencyLevel = "inconsistent"
)

// Consistency thresholds on |consistency|. Both edges are inclusive on the
// better side: 0.1 is very_good and 0.5 is good.
const (
	VeryGoodThreshold = 0.1
	GoodThreshold     = 0.5
)

// ClassifyConsistency grades a dimension or overall consistency value.
// NaN grades as inconsistent.
func ClassifyConsistency(consistency float64) ConsistencyLevel {
	abs := math.Abs(consistency)
	switch {
	case abs <= VeryGoodThreshold:
		return ConsistencyVeryGood
	case abs <= GoodThreshold:
		return ConsistencyGood
	default:
		return ConsistencyInconsistent
	}
}

// ConsistencySummary combines the overall grade with a per-dimension
// outlier check, so a good average can still carry a review flag.
type ConsistencySummary struct {
	Level       ConsistencyLevel `json:"level" yaml:"level"`
	Outliers    []int            `json:"outliers,omitempty" yaml:"outliers,omitempty"` // indices of inconsistent dimensions
	NeedsReview bool             `json:"needs_review" yaml:"needs_review"`
}

// SummarizeConsistency grades overall and flags every dimension whose
// consistency is beyond GoodThreshold, regardless of the overall grade.
func SummarizeConsistency(overall float64, dimensions []float64) ConsistencySummary {
	summary := ConsistencySummary{Level: ClassifyConsistency(overall)}
	for i, c := range dimensions {
		if ClassifyConsistency(c) == ConsistencyInconsistent {
			summary.Outliers = append(summary.Outliers, i)
		}
	}
	summary.NeedsReview = summary.Level == ConsistencyInconsistent || len(summary.Outliers) > 0
	return summary
}

// MessageKey names the localized message for the summary. A passing
// overall grade with outliers gets the review message instead.
func (s ConsistencySummary) MessageKey() string {
	if s.NeedsReview && s.Level != ConsistencyInconsistent {
		return "consistency.review"
	}
	return "consistency." + string(s.Level)
}
