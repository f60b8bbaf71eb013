package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotcommander/shs/internal/batch"
	"github.com/dotcommander/shs/internal/locale"
)

func TestMarkdownFormatter_Format(t *testing.T) {
	tests := []struct {
		name           string
		report         func(t *testing.T) *Report
		verbose        bool
		wantContains   []string
		wantNotContain []string
	}{
		{
			name: "single evaluation",
			report: func(t *testing.T) *Report {
				return NewSingleReport(*mustResult(t, mixedAnswers, locale.English))
			},
			wantContains: []string{
				"# SHS Report",
				"**Language:** English",
				"## Summary",
				"| evaluation | 0.60 | Very low hallucination | 0.00 (very good) | ✅ |",
				"## Detailed Results",
				"### evaluation",
				"| Factual Accuracy | 1.00 | 0.00 | very good |",
			},
			wantNotContain: []string{"**Run:**", "**Duration:**", "## Errors", "| Question |"},
		},
		{
			name: "verbose question table",
			report: func(t *testing.T) *Report {
				return NewSingleReport(*mustResult(t, mixedAnswers, locale.English))
			},
			verbose: true,
			wantContains: []string{
				"| Question | Statement | Answer |",
				"| q1 | The response was factually reliable. | +2 |",
				"| q6 | The LLM's reasoning contained unfounded or illogical steps. | +0 |",
			},
		},
		{
			name: "review note",
			report: func(t *testing.T) *Report {
				return NewSingleReport(*mustResult(t, outlierAnswers, locale.English))
			},
			wantContains: []string{
				"| ⚠️ |",
				"> At least one question pair was answered inconsistently; please review it.",
			},
		},
		{
			name:   "batch with errors",
			report: batchReport,
			wantContains: []string{
				"**Run:** `run-1`",
				"**Duration:** 2ms",
				"| a.json#0 |",
				"### b.csv#0",
				"## Errors",
				"- **broken.yaml** - parse error",
				"- **a.json#1** - q3: value 5 is outside [-2, 2]",
			},
		},
		{
			name: "nothing scored",
			report: func(t *testing.T) *Report {
				r := batchReport(t)
				r.Entries = r.Entries[1:2]
				return r
			},
			wantContains:   []string{"*No evaluations were scored.*"},
			wantNotContain: []string{"## Detailed Results"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewMarkdownFormatter(&buf, tt.verbose, "").Format(tt.report(t)); err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			out := buf.String()
			for _, want := range tt.wantContains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q\n%s", want, out)
				}
			}
			for _, unwanted := range tt.wantNotContain {
				if strings.Contains(out, unwanted) {
					t.Errorf("output should not contain %q", unwanted)
				}
			}
		})
	}
}

func TestMarkdownFormatter_StatisticsAndBaseline(t *testing.T) {
	report := batchReport(t)
	stats := batch.ComputeStatistics(report.Results())
	report.Stats = &stats
	report.Comparison = comparison()

	var buf bytes.Buffer
	if err := NewMarkdownFormatter(&buf, false, "").Format(report); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"## Statistics",
		"| Overall score | 0.70 | 0.60 | 0.80 |",
		"| \\|Overall consistency\\| | 0.10 | 0.00 | 0.20 |",
		"Standard deviation of the overall score: 0.10",
		"## Baseline Comparison",
		"| overall_score.mean | 0.80 | 0.60 | -0.20 ❌ |",
		"| overall_abs_consistency.mean | 0.10 | 0.10 | +0.00 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestMarkdownFormatter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	var buf bytes.Buffer
	f := NewMarkdownFormatter(&buf, false, path)
	if err := f.Format(NewSingleReport(*mustResult(t, cleanAnswers, locale.English))); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# SHS Report") {
		t.Errorf("file should start with the report title, got %q", data[:20])
	}
	if buf.Len() != 0 {
		t.Error("writer should stay empty when writing to a file")
	}
}

func TestMarkdownFormatter_HelperFunctions(t *testing.T) {
	if got := reviewMark(true); got != "⚠️" {
		t.Errorf("reviewMark(true) = %q", got)
	}
	if got := reviewMark(false); got != "✅" {
		t.Errorf("reviewMark(false) = %q", got)
	}
	if got := escapeCell("a|b"); got != `a\|b` {
		t.Errorf("escapeCell() = %q, want %q", got, `a\|b`)
	}
}
