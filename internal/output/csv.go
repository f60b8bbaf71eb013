package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dotcommander/shs/internal/shs"
)

// CSVFormatter writes one row per evaluation. Failed records and
// unreadable files get a row with only source, record_index and error
// filled. The column values are not rounded.
type CSVFormatter struct {
	w          io.Writer
	outputFile string
}

// NewCSVFormatter creates a new CSVFormatter
func NewCSVFormatter(w io.Writer, outputFile string) *CSVFormatter {
	return &CSVFormatter{w: w, outputFile: outputFile}
}

// CSVHeader returns the fixed columns: evaluation id, overall values, a
// score and consistency column per dimension, then the raw answers.
func CSVHeader() []string {
	header := []string{"evaluation_id", "overall_score", "overall_consistency"}
	for _, d := range shs.Dimensions() {
		header = append(header, "dim_"+d.Slug+"_score", "dim_"+d.Slug+"_consistency")
	}
	for _, id := range shs.QuestionIDs() {
		header = append(header, string(id))
	}
	return header
}

// Format formats the report as CSV. Band, source, error and passthrough
// metadata columns follow the fixed columns.
func (f *CSVFormatter) Format(report *Report) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	meta := metadataKeys(report.Entries)
	fixed := len(CSVHeader())
	header := append(CSVHeader(), "overall_band", "source", "record_index", "error")
	for _, k := range meta {
		header = append(header, "meta_"+k)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}

	id := 0
	for _, e := range report.Entries {
		if e.Result == nil {
			row := make([]string, fixed, len(header))
			row = append(row, "", e.Source, strconv.Itoa(e.Index), errorText(e.Err))
			for _, k := range meta {
				row = append(row, metadataCell(e.Metadata[k]))
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("error writing CSV: %w", err)
			}
			continue
		}
		res := e.Result
		row := []string{strconv.Itoa(id), formatFloat(res.OverallScore), formatFloat(res.OverallConsistency)}
		for _, d := range res.Dimensions {
			row = append(row, formatFloat(d.Score), formatFloat(d.Consistency))
		}
		for _, v := range res.Responses.Values() {
			row = append(row, strconv.Itoa(v))
		}
		row = append(row, res.Band().ID, e.Source, strconv.Itoa(e.Index), "")
		for _, k := range meta {
			row = append(row, metadataCell(e.Metadata[k]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("error writing CSV: %w", err)
		}
		id++
	}

	for _, fe := range report.FileErrors {
		row := make([]string, fixed, len(header))
		row = append(row, "", fe.Path, "", errorText(fe.Err))
		row = append(row, make([]string, len(meta))...)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("error writing CSV: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}
	return emit(f.w, f.outputFile, buf.Bytes())
}

func errorText(err error) string {
	if err == nil {
		return "not scored"
	}
	return err.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func metadataCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatFloat(x)
	default:
		return fmt.Sprint(x)
	}
}
