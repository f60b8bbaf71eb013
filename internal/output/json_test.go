package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotcommander/shs/internal/locale"
)

func TestJSONFormatter_Format(t *testing.T) {
	tests := []struct {
		name     string
		report   func(t *testing.T) *Report
		indent   bool
		validate func(t *testing.T, report JSONReport, raw string)
	}{
		{
			name: "single evaluation compact",
			report: func(t *testing.T) *Report {
				return NewSingleReport(*mustResult(t, mixedAnswers, locale.English))
			},
			validate: func(t *testing.T, report JSONReport, raw string) {
				if report.Header.Tool != "shs" {
					t.Errorf("Tool = %q, want %q", report.Header.Tool, "shs")
				}
				if report.Header.RunID != "" {
					t.Errorf("RunID = %q, want empty", report.Header.RunID)
				}
				if len(report.Results) != 1 {
					t.Fatalf("len(Results) = %d, want 1", len(report.Results))
				}
				r := report.Results[0]
				if r.OverallScore != 0.6 {
					t.Errorf("OverallScore = %v, want 0.6", r.OverallScore)
				}
				if r.OverallBand != "very_low" {
					t.Errorf("OverallBand = %q, want %q", r.OverallBand, "very_low")
				}
				if len(r.Dimensions) != 5 {
					t.Errorf("len(Dimensions) = %d, want 5", len(r.Dimensions))
				}
				if r.Responses["q10"] != -2 {
					t.Errorf("Responses[q10] = %d, want -2", r.Responses["q10"])
				}
				if strings.Contains(raw, "\n  ") {
					t.Error("compact output should not be indented")
				}
				if strings.Contains(raw, `"errors"`) {
					t.Error("errors should be omitted when empty")
				}
			},
		},
		{
			name:   "batch with failures indented",
			report: batchReport,
			indent: true,
			validate: func(t *testing.T, report JSONReport, raw string) {
				if report.Header.RunID != "run-1" {
					t.Errorf("RunID = %q, want %q", report.Header.RunID, "run-1")
				}
				if report.Summary.Total != 3 || report.Summary.Succeeded != 2 || report.Summary.Failed != 1 {
					t.Errorf("Summary = %+v, want 3 total, 2 succeeded, 1 failed", report.Summary)
				}
				if report.Summary.FileErrors != 1 {
					t.Errorf("FileErrors = %d, want 1", report.Summary.FileErrors)
				}
				if report.Summary.Duration != "2ms" {
					t.Errorf("Duration = %q, want %q", report.Summary.Duration, "2ms")
				}
				if len(report.Errors) != 2 {
					t.Fatalf("len(Errors) = %d, want 2", len(report.Errors))
				}
				if report.Errors[0].Index != nil {
					t.Error("file errors carry no record index")
				}
				if report.Errors[1].Index == nil || *report.Errors[1].Index != 1 {
					t.Errorf("record error index = %v, want 1", report.Errors[1].Index)
				}
				if report.Results[0].Metadata["model"] != "m1" {
					t.Errorf("Metadata = %v, want model=m1", report.Results[0].Metadata)
				}
				if report.Results[1].Source != "b.csv" {
					t.Errorf("Source = %q, want %q", report.Results[1].Source, "b.csv")
				}
				if !strings.Contains(raw, "\n  \"header\"") {
					t.Error("indented output expected")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := NewJSONFormatter(&buf, tt.indent, "")
			if err := f.Format(tt.report(t)); err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			var report JSONReport
			if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
				t.Fatalf("Failed to parse JSON: %v\n%s", err, buf.String())
			}
			tt.validate(t, report, buf.String())
		})
	}
}

func TestJSONFormatter_UnroundedValues(t *testing.T) {
	// q1=1,q2=0 gives a dimension score of 0.25 and an overall score of 0.05
	res := mustResult(t, []int{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}, locale.English)
	var buf bytes.Buffer
	if err := NewJSONFormatter(&buf, false, "").Format(NewSingleReport(*res)); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"overall_score":0.05`) {
		t.Errorf("expected unrounded overall score in %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"score":0.25`) {
		t.Errorf("expected unrounded dimension score in %s", buf.String())
	}
}

func TestJSONFormatter_StatisticsAndBaseline(t *testing.T) {
	report := batchReport(t)
	report.Comparison = comparison()

	var buf bytes.Buffer
	if err := NewJSONFormatter(&buf, false, "").Format(report); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	var decoded JSONReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if decoded.Statistics != nil {
		t.Error("statistics should be omitted when not computed")
	}
	if decoded.Baseline == nil || decoded.Baseline.Regressions != 1 {
		t.Errorf("Baseline = %+v, want one regression", decoded.Baseline)
	}
}

func TestJSONFormatter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf, true, path)
	if err := f.Format(NewSingleReport(*mustResult(t, cleanAnswers, locale.English))); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written to the writer when a file is configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var report JSONReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("file is not valid JSON: %v", err)
	}
	if report.Results[0].OverallBand != "negligible" {
		t.Errorf("OverallBand = %q, want %q", report.Results[0].OverallBand, "negligible")
	}
}
