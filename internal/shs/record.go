package shs

import (
	"fmt"

	"github.com/dotcommander/shs/internal/locale"
)

// Record is the interchange shape of a Result used by every exporter.
type Record struct {
	OverallScore       float64           `json:"overall_score" yaml:"overall_score"`
	OverallConsistency float64           `json:"overall_consistency" yaml:"overall_consistency"`
	OverallBand        string            `json:"overall_band" yaml:"overall_band"`
	Language           string            `json:"language" yaml:"language"`
	Dimensions         []DimensionRecord `json:"dimensions" yaml:"dimensions"`
	Responses          map[string]int    `json:"responses" yaml:"responses"`
}

// DimensionRecord is one entry of Record.Dimensions.
type DimensionRecord struct {
	DimensionKey     string  `json:"dimension_key" yaml:"dimension_key"`
	DimensionLabel   string  `json:"dimension_label" yaml:"dimension_label"`
	QuestionA        string  `json:"question_a" yaml:"question_a"`
	QuestionB        string  `json:"question_b" yaml:"question_b"`
	QuestionAText    string  `json:"question_a_text,omitempty" yaml:"question_a_text,omitempty"`
	QuestionBText    string  `json:"question_b_text,omitempty" yaml:"question_b_text,omitempty"`
	ResponseA        int     `json:"response_a" yaml:"response_a"`
	ResponseB        int     `json:"response_b" yaml:"response_b"`
	Score            float64 `json:"score" yaml:"score"`
	Consistency      float64 `json:"consistency" yaml:"consistency"`
	ConsistencyLevel string  `json:"consistency_level" yaml:"consistency_level"`
}

// ToSerializable flattens a Result into its interchange record.
func ToSerializable(r Result) Record {
	rec := Record{
		OverallScore:       r.OverallScore,
		OverallConsistency: r.OverallConsistency,
		OverallBand:        r.Band().ID,
		Language:           string(r.Language),
		Dimensions:         make([]DimensionRecord, 0, NumDimensions),
		Responses:          r.Responses.Map(),
	}
	for _, d := range r.Dimensions {
		rec.Dimensions = append(rec.Dimensions, DimensionRecord{
			DimensionKey:     d.Dimension.Key,
			DimensionLabel:   d.Label,
			QuestionA:        string(d.Dimension.QuestionA),
			QuestionB:        string(d.Dimension.QuestionB),
			QuestionAText:    locale.QuestionText(r.Language, string(d.Dimension.QuestionA)),
			QuestionBText:    locale.QuestionText(r.Language, string(d.Dimension.QuestionB)),
			ResponseA:        d.ResponseA,
			ResponseB:        d.ResponseB,
			Score:            d.Score,
			Consistency:      d.Consistency,
			ConsistencyLevel: string(d.Level),
		})
	}
	return rec
}

// Reconstruct recomputes a Result from the raw responses of a record.
// Derived fields of the record are ignored; an unknown or empty language
// falls back to the default.
func (rec Record) Reconstruct() (Result, error) {
	lang, err := locale.ParseLanguage(rec.Language)
	if err != nil {
		lang = locale.Default
	}
	res, err := CalculateMap(rec.Responses, lang)
	if err != nil {
		return Result{}, fmt.Errorf("reconstruct record: %w", err)
	}
	return res, nil
}
