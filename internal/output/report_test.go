package output

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dotcommander/shs/internal/baseline"
	"github.com/dotcommander/shs/internal/batch"
	"github.com/dotcommander/shs/internal/locale"
	"github.com/dotcommander/shs/internal/shs"
)

// Response lists used across the formatter tests.
var (
	// every pair agrees on "no hallucination": score 1, consistency 0
	cleanAnswers = []int{2, -2, 2, -2, 2, -2, 2, -2, 2, -2}
	// score 0.6, consistency 0
	mixedAnswers = []int{2, -2, 1, -1, 0, 0, 1, -1, 2, -2}
	// good overall consistency with one inconsistent pair (index 4)
	outlierAnswers = []int{2, -2, 2, -2, 2, -2, 2, -2, 2, 2}
)

func mustResult(t *testing.T, answers []int, lang locale.Language) *shs.Result {
	t.Helper()
	res, err := shs.CalculateList(answers, lang)
	if err != nil {
		t.Fatalf("CalculateList(%v) error = %v", answers, err)
	}
	return &res
}

// batchReport builds a report with two scored records and one failure.
func batchReport(t *testing.T) *Report {
	t.Helper()
	return &Report{
		RunID:     "run-1",
		Language:  locale.English,
		StartTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  1500 * time.Microsecond,
		Entries: []Entry{
			{Source: "a.json", Index: 0, Metadata: map[string]any{"model": "m1"}, Result: mustResult(t, mixedAnswers, locale.English)},
			{Source: "a.json", Index: 1, Err: errors.New("q3: value 5 is outside [-2, 2]")},
			{Source: "b.csv", Index: 0, Metadata: map[string]any{"rater": "r2"}, Result: mustResult(t, outlierAnswers, locale.English)},
		},
		FileErrors: []batch.FileError{{Path: "broken.yaml", Err: errors.New("parse error")}},
	}
}

func TestNewSingleReport(t *testing.T) {
	res := mustResult(t, cleanAnswers, locale.German)
	report := NewSingleReport(*res)

	if report.IsBatch() {
		t.Error("single report should not be a batch")
	}
	if report.Language != locale.German {
		t.Errorf("Language = %q, want %q", report.Language, locale.German)
	}
	if report.Succeeded() != 1 || report.Failed() != 0 {
		t.Errorf("Succeeded/Failed = %d/%d, want 1/0", report.Succeeded(), report.Failed())
	}
	if got := report.Entries[0].Label(); got != "evaluation" {
		t.Errorf("Label() = %q, want %q", got, "evaluation")
	}
}

func TestNewBatchReport(t *testing.T) {
	res := mustResult(t, mixedAnswers, locale.English)
	summary := &batch.Summary{
		RunID:    "abc",
		Language: locale.English,
		Outcomes: []batch.Outcome{
			{Item: batch.Item{Source: "x.json", Index: 2}, Result: res},
			{Item: batch.Item{Source: "x.json", Index: 3}, Err: shs.ErrMissingQuestion},
		},
	}

	report := NewBatchReport(summary)
	if !report.IsBatch() {
		t.Error("batch report should be a batch")
	}
	if len(report.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(report.Entries))
	}
	if got := report.Entries[0].Label(); got != "x.json#2" {
		t.Errorf("Label() = %q, want %q", got, "x.json#2")
	}
	if report.Succeeded() != 1 || report.Failed() != 1 {
		t.Errorf("Succeeded/Failed = %d/%d, want 1/1", report.Succeeded(), report.Failed())
	}
}

func TestMetadataKeys(t *testing.T) {
	entries := []Entry{
		{Metadata: map[string]any{"model": 1, "rater": 2}},
		{},
		{Metadata: map[string]any{"batch": 3, "model": 4}},
	}
	got := metadataKeys(entries)
	want := []string{"batch", "model", "rater"}
	if len(got) != len(want) {
		t.Fatalf("metadataKeys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("metadataKeys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEmit_WriteToFileError(t *testing.T) {
	dir := t.TempDir()
	// a directory cannot be written as a file
	err := emit(nil, dir, []byte("x"))
	if err == nil {
		t.Fatal("emit() should fail when the output path is a directory")
	}
}

func TestEmit_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := emit(nil, path, []byte("hello")); err != nil {
		t.Fatalf("emit() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("file content = %q, want %q", data, "hello")
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{0.6, "0.60"},
		{-1, "-1.00"},
		{1.0 / 3, "0.33"},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// comparison returns a baseline comparison with one regression.
func comparison() *baseline.Comparison {
	return &baseline.Comparison{
		SameInputs:  true,
		Tolerance:   0.05,
		Regressions: 1,
		Deltas: []baseline.Delta{
			{Metric: "overall_score.mean", Baseline: 0.8, Current: 0.6, Change: -0.2, Regression: true},
			{Metric: "overall_abs_consistency.mean", Baseline: 0.1, Current: 0.1, Change: 0},
		},
	}
}
