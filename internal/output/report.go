package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dotcommander/shs/internal/baseline"
	"github.com/dotcommander/shs/internal/batch"
	"github.com/dotcommander/shs/internal/locale"
	"github.com/dotcommander/shs/internal/shs"
)

// Tool is the name written into report headers.
const Tool = "shs"

// Version is stamped by the build through cmd.SetVersionInfo.
var Version = "dev"

// Entry is one evaluation in a report. Exactly one of Result and Err is set.
type Entry struct {
	Source   string
	Index    int
	Metadata map[string]any
	Result   *shs.Result
	Err      error
}

// Report is what every formatter renders: one or more evaluations plus
// optional batch context.
type Report struct {
	RunID      string
	Language   locale.Language
	StartTime  time.Time
	Duration   time.Duration
	Entries    []Entry
	FileErrors []batch.FileError
	Stats      *batch.Statistics
	Comparison *baseline.Comparison
}

// NewSingleReport wraps one result, as produced by "shs score".
func NewSingleReport(res shs.Result) *Report {
	return &Report{
		Language:  res.Language,
		StartTime: time.Now(),
		Entries:   []Entry{{Result: &res}},
	}
}

// NewBatchReport converts a batch summary into a report.
func NewBatchReport(s *batch.Summary) *Report {
	r := &Report{
		RunID:      s.RunID,
		Language:   s.Language,
		StartTime:  s.StartTime,
		Duration:   s.Duration,
		FileErrors: s.FileErrors,
		Entries:    make([]Entry, len(s.Outcomes)),
	}
	for i, o := range s.Outcomes {
		r.Entries[i] = Entry{
			Source:   o.Item.Source,
			Index:    o.Item.Index,
			Metadata: o.Item.Metadata,
			Result:   o.Result,
			Err:      o.Err,
		}
	}
	return r
}

// Succeeded counts entries with a result.
func (r *Report) Succeeded() int {
	n := 0
	for _, e := range r.Entries {
		if e.Result != nil {
			n++
		}
	}
	return n
}

// Failed counts entries with an error.
func (r *Report) Failed() int {
	return len(r.Entries) - r.Succeeded()
}

// Results returns the scored results in entry order.
func (r *Report) Results() []shs.Result {
	out := make([]shs.Result, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.Result != nil {
			out = append(out, *e.Result)
		}
	}
	return out
}

// IsBatch reports whether the report came from a batch run.
func (r *Report) IsBatch() bool {
	return r.RunID != ""
}

// Label names an entry for humans: "file.json#3" in a batch, "evaluation"
// otherwise.
func (e Entry) Label() string {
	if e.Source == "" {
		return "evaluation"
	}
	return fmt.Sprintf("%s#%d", e.Source, e.Index)
}

// metadataKeys returns the union of metadata keys over all entries, sorted.
func metadataKeys(entries []Entry) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, e := range entries {
		for k := range e.Metadata {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// emit writes content to outputFile, or to w when no file is configured.
func emit(w io.Writer, outputFile string, content []byte) error {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, content, 0644); err != nil {
			return fmt.Errorf("error writing to file %s: %w", outputFile, err)
		}
		return nil
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("error writing output: %w", err)
	}
	return nil
}

func round2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
