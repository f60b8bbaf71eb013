package output

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/shs/internal/baseline"
	"github.com/dotcommander/shs/internal/batch"
	"github.com/dotcommander/shs/internal/shs"
)

// YAMLFormatter writes the serializable records as a YAML document.
type YAMLFormatter struct {
	w          io.Writer
	outputFile string
}

// NewYAMLFormatter creates a new YAMLFormatter
func NewYAMLFormatter(w io.Writer, outputFile string) *YAMLFormatter {
	return &YAMLFormatter{w: w, outputFile: outputFile}
}

type yamlResult struct {
	Source     string         `yaml:"source,omitempty"`
	Index      int            `yaml:"index"`
	Metadata   map[string]any `yaml:"metadata,omitempty"`
	shs.Record `yaml:",inline"`
}

type yamlError struct {
	Source string `yaml:"source"`
	Index  *int   `yaml:"index,omitempty"`
	Error  string `yaml:"error"`
}

type yamlReport struct {
	RunID      string               `yaml:"run_id,omitempty"`
	Language   string               `yaml:"language"`
	Results    []yamlResult         `yaml:"results"`
	Errors     []yamlError          `yaml:"errors,omitempty"`
	Statistics *batch.Statistics    `yaml:"statistics,omitempty"`
	Baseline   *baseline.Comparison `yaml:"baseline,omitempty"`
}

// Format formats the report as YAML
func (f *YAMLFormatter) Format(report *Report) error {
	out := yamlReport{
		RunID:      report.RunID,
		Language:   string(report.Language),
		Results:    make([]yamlResult, 0, report.Succeeded()),
		Statistics: report.Stats,
		Baseline:   report.Comparison,
	}
	for _, fe := range report.FileErrors {
		out.Errors = append(out.Errors, yamlError{Source: fe.Path, Error: fe.Err.Error()})
	}
	for _, e := range report.Entries {
		if e.Err != nil {
			idx := e.Index
			out.Errors = append(out.Errors, yamlError{Source: e.Source, Index: &idx, Error: e.Err.Error()})
			continue
		}
		out.Results = append(out.Results, yamlResult{
			Source:   e.Source,
			Index:    e.Index,
			Metadata: e.Metadata,
			Record:   shs.ToSerializable(*e.Result),
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("error marshaling YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("error marshaling YAML: %w", err)
	}
	return emit(f.w, f.outputFile, buf.Bytes())
}
