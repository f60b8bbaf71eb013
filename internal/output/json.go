package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dotcommander/shs/internal/baseline"
	"github.com/dotcommander/shs/internal/batch"
	"github.com/dotcommander/shs/internal/shs"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	w          io.Writer
	indent     bool
	outputFile string
}

// NewJSONFormatter creates a new JSONFormatter
func NewJSONFormatter(w io.Writer, indent bool, outputFile string) *JSONFormatter {
	return &JSONFormatter{
		w:          w,
		indent:     indent,
		outputFile: outputFile,
	}
}

// JSONReport represents the complete JSON report structure
type JSONReport struct {
	Header     JSONHeader           `json:"header"`
	Summary    JSONSummary          `json:"summary"`
	Results    []JSONResult         `json:"results"`
	Errors     []JSONError          `json:"errors,omitempty"`
	Statistics *batch.Statistics    `json:"statistics,omitempty"`
	Baseline   *baseline.Comparison `json:"baseline,omitempty"`
}

// JSONHeader contains report metadata
type JSONHeader struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	RunID     string `json:"run_id,omitempty"`
	Language  string `json:"language"`
}

// JSONSummary contains summary statistics
type JSONSummary struct {
	Total      int    `json:"total"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	FileErrors int    `json:"file_errors"`
	Duration   string `json:"duration"`
}

// JSONResult is one scored evaluation: the serializable record plus where it
// came from.
type JSONResult struct {
	Source   string         `json:"source,omitempty"`
	Index    int            `json:"index"`
	Metadata map[string]any `json:"metadata,omitempty"`
	shs.Record
}

// JSONError is one record or file that could not be scored.
type JSONError struct {
	Source string `json:"source"`
	Index  *int   `json:"index,omitempty"`
	Error  string `json:"error"`
}

// Format formats the report as JSON
func (f *JSONFormatter) Format(report *Report) error {
	out := JSONReport{
		Header: JSONHeader{
			Tool:      Tool,
			Version:   Version,
			Timestamp: report.StartTime.Format(time.RFC3339),
			RunID:     report.RunID,
			Language:  string(report.Language),
		},
		Summary: JSONSummary{
			Total:      len(report.Entries),
			Succeeded:  report.Succeeded(),
			Failed:     report.Failed(),
			FileErrors: len(report.FileErrors),
			Duration:   report.Duration.Round(time.Millisecond).String(),
		},
		Results:    make([]JSONResult, 0, report.Succeeded()),
		Statistics: report.Stats,
		Baseline:   report.Comparison,
	}

	for _, fe := range report.FileErrors {
		out.Errors = append(out.Errors, JSONError{Source: fe.Path, Error: fe.Err.Error()})
	}
	for _, e := range report.Entries {
		if e.Err != nil {
			idx := e.Index
			out.Errors = append(out.Errors, JSONError{Source: e.Source, Index: &idx, Error: e.Err.Error()})
			continue
		}
		out.Results = append(out.Results, JSONResult{
			Source:   e.Source,
			Index:    e.Index,
			Metadata: e.Metadata,
			Record:   shs.ToSerializable(*e.Result),
		})
	}

	var (
		jsonBytes []byte
		err       error
	)
	if f.indent {
		jsonBytes, err = json.MarshalIndent(out, "", "  ")
	} else {
		jsonBytes, err = json.Marshal(out)
	}
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	return emit(f.w, f.outputFile, append(jsonBytes, '\n'))
}
