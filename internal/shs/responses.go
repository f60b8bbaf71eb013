// Package shs implements the System Hallucination Scale scoring engine.
//
// The engine turns the ten ordinal questionnaire answers into five dimension
// scores, their consistency indicators, an aggregate score and an 11-band
// classification. It performs no I/O and holds no mutable state; every
// function here is safe for concurrent use.
package shs

import (
	"sort"
)

// QuestionID identifies one of the ten questionnaire items (q1..q10).
type QuestionID string

// Questionnaire shape.
const (
	NumQuestions = 10
	MinResponse  = -2
	MaxResponse  = 2
)

var questionIDs = [NumQuestions]QuestionID{
	"q1", "q2", "q3", "q4", "q5", "q6", "q7", "q8", "q9", "q10",
}

// QuestionIDs returns the question ids in canonical order.
func QuestionIDs() []QuestionID {
	ids := questionIDs
	return ids[:]
}

// IsQuestionID reports whether id is one of q1..q10.
func IsQuestionID(id string) bool {
	_, ok := questionIndex(QuestionID(id))
	return ok
}

func questionIndex(id QuestionID) (int, bool) {
	for i, q := range questionIDs {
		if q == id {
			return i, true
		}
	}
	return 0, false
}

// ResponseSet is a validated, immutable set of ten answers.
// Build one with FromMap or FromList.
type ResponseSet struct {
	values [NumQuestions]int
}

// FromMap validates a keyed mapping of q1..q10 to answers.
//
// Missing ids are reported before unknown ids, which are reported before
// out-of-range values. Within each class the first offending id wins:
// canonical order for missing and out-of-range, lexical order for unknown.
func FromMap(responses map[string]int) (ResponseSet, error) {
	var rs ResponseSet

	for _, id := range questionIDs {
		if _, ok := responses[string(id)]; !ok {
			return ResponseSet{}, &MissingQuestionError{ID: id}
		}
	}

	if len(responses) != NumQuestions {
		var unknown []string
		for key := range responses {
			if !IsQuestionID(key) {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		return ResponseSet{}, &UnknownQuestionError{ID: QuestionID(unknown[0])}
	}

	for i, id := range questionIDs {
		v := responses[string(id)]
		if !inRange(v) {
			return ResponseSet{}, &OutOfRangeError{ID: id, Value: v}
		}
		rs.values[i] = v
	}
	return rs, nil
}

// Validate is FromMap under the name used by callers that only check input.
func Validate(responses map[string]int) (ResponseSet, error) {
	return FromMap(responses)
}

// FromList validates an ordered sequence of exactly ten answers in q1..q10 order.
func FromList(responses []int) (ResponseSet, error) {
	if len(responses) != NumQuestions {
		return ResponseSet{}, &WrongLengthError{Expected: NumQuestions, Actual: len(responses)}
	}

	var rs ResponseSet
	for i, v := range responses {
		if !inRange(v) {
			return ResponseSet{}, &OutOfRangeError{ID: questionIDs[i], Value: v}
		}
		rs.values[i] = v
	}
	return rs, nil
}

func inRange(v int) bool {
	return v >= MinResponse && v <= MaxResponse
}

// Get returns the answer for id. Unknown ids return false.
func (rs ResponseSet) Get(id QuestionID) (int, bool) {
	i, ok := questionIndex(id)
	if !ok {
		return 0, false
	}
	return rs.values[i], true
}

func (rs ResponseSet) mustGet(id QuestionID) int {
	v, _ := rs.Get(id)
	return v
}

// Values returns the answers in canonical q1..q10 order.
func (rs ResponseSet) Values() [NumQuestions]int {
	return rs.values
}

// Map returns a fresh keyed copy of the answers.
func (rs ResponseSet) Map() map[string]int {
	m := make(map[string]int, NumQuestions)
	for i, id := range questionIDs {
		m[string(id)] = rs.values[i]
	}
	return m
}
