package shs

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. Every typed validation error unwraps
// to exactly one of these.
var (
	ErrMissingQuestion = errors.New("missing question")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrWrongLength     = errors.New("wrong number of responses")
	ErrOutOfRange      = errors.New("response out of range")
)

// MissingQuestionError reports a question id absent from a keyed input.
type MissingQuestionError struct {
	ID QuestionID
}

func (e *MissingQuestionError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingQuestion, e.ID)
}

func (e *MissingQuestionError) Unwrap() error { return ErrMissingQuestion }

// UnknownQuestionError reports a key that is not one of q1..q10.
type UnknownQuestionError struct {
	ID QuestionID
}

func (e *UnknownQuestionError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnknownQuestion, e.ID)
}

func (e *UnknownQuestionError) Unwrap() error { return ErrUnknownQuestion }

// WrongLengthError reports a list input that does not hold exactly ten answers.
type WrongLengthError struct {
	Expected int
	Actual   int
}

func (e *WrongLengthError) Error() string {
	return fmt.Sprintf("%v: expected %d, got %d", ErrWrongLength, e.Expected, e.Actual)
}

func (e *WrongLengthError) Unwrap() error { return ErrWrongLength }

// OutOfRangeError reports an answer outside [-2, 2].
type OutOfRangeError struct {
	ID    QuestionID
	Value int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%v: %s=%d (want %d..%d)", ErrOutOfRange, e.ID, e.Value, MinResponse, MaxResponse)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }
