package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dotcommander/shs/internal/locale"
	"github.com/dotcommander/shs/internal/shs"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct {
	w          io.Writer
	verbose    bool
	outputFile string
}

// NewMarkdownFormatter creates a new MarkdownFormatter
func NewMarkdownFormatter(w io.Writer, verbose bool, outputFile string) *MarkdownFormatter {
	return &MarkdownFormatter{
		w:          w,
		verbose:    verbose,
		outputFile: outputFile,
	}
}

// Format formats the report as Markdown
func (f *MarkdownFormatter) Format(report *Report) error {
	var builder strings.Builder
	lang := report.Language

	// Header
	builder.WriteString("# SHS Report\n\n")
	builder.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.StartTime.Format("2006-01-02 15:04:05")))
	if report.RunID != "" {
		builder.WriteString(fmt.Sprintf("**Run:** `%s`\n\n", report.RunID))
	}
	builder.WriteString(fmt.Sprintf("**Language:** %s\n\n", locale.Lookup(lang).Name))
	if report.IsBatch() {
		builder.WriteString(fmt.Sprintf("**Duration:** %v\n\n", report.Duration.Round(time.Millisecond)))
	}

	// Summary Table
	builder.WriteString("## Summary\n\n")
	builder.WriteString("| Evaluation | Score | Band | Consistency | Review |\n")
	builder.WriteString("|------------|-------|------|-------------|--------|\n")
	for _, e := range report.Entries {
		if e.Result == nil {
			continue
		}
		res := e.Result
		summary := res.ConsistencySummary()
		builder.WriteString(fmt.Sprintf("| %s | %s | %s | %s (%s) | %s |\n",
			escapeCell(e.Label()),
			round2(res.OverallScore),
			locale.BandLabel(lang, res.Band().ID),
			round2(res.OverallConsistency),
			locale.ConsistencyLabel(lang, string(summary.Level)),
			reviewMark(summary.NeedsReview)))
	}
	if report.Succeeded() == 0 {
		builder.WriteString("\n*No evaluations were scored.*\n")
	}
	builder.WriteString("\n")

	// Detailed Results
	if report.Succeeded() > 0 {
		builder.WriteString("## Detailed Results\n\n")
		for _, e := range report.Entries {
			if e.Result == nil {
				continue
			}
			f.writeEvaluation(&builder, e, lang)
		}
	}

	if report.Failed() > 0 || len(report.FileErrors) > 0 {
		builder.WriteString("## Errors\n\n")
		for _, fe := range report.FileErrors {
			builder.WriteString(fmt.Sprintf("- **%s** - %s\n", fe.Path, fe.Err))
		}
		for _, e := range report.Entries {
			if e.Err != nil {
				builder.WriteString(fmt.Sprintf("- **%s** - %s\n", e.Label(), e.Err))
			}
		}
		builder.WriteString("\n")
	}

	if st := report.Stats; st != nil && st.N > 0 {
		builder.WriteString("## Statistics\n\n")
		builder.WriteString("| Metric | Mean | Min | Max |\n")
		builder.WriteString("|--------|------|-----|-----|\n")
		builder.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", locale.Message(lang, "overall_score"),
			round2(st.OverallScore.Mean), round2(st.OverallScore.Min), round2(st.OverallScore.Max)))
		builder.WriteString(fmt.Sprintf("| \\|%s\\| | %s | %s | %s |\n", locale.Message(lang, "overall_consistency"),
			round2(st.OverallConsistency.Mean), round2(st.OverallConsistency.Min), round2(st.OverallConsistency.Max)))
		for _, d := range st.Dimensions {
			builder.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", locale.DimensionLabel(lang, d.Key),
				round2(d.Score.Mean), round2(d.Score.Min), round2(d.Score.Max)))
		}
		builder.WriteString(fmt.Sprintf("\nStandard deviation of the overall score: %s\n\n", round2(st.OverallScore.Std)))
	}

	if c := report.Comparison; c != nil {
		builder.WriteString("## Baseline Comparison\n\n")
		builder.WriteString("| Metric | Baseline | Current | Change |\n")
		builder.WriteString("|--------|----------|---------|--------|\n")
		for _, d := range c.Deltas {
			change := fmt.Sprintf("%+.2f", d.Change)
			if d.Regression {
				change += " ❌"
			}
			builder.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", d.Metric, round2(d.Baseline), round2(d.Current), change))
		}
		builder.WriteString("\n")
	}

	return emit(f.w, f.outputFile, []byte(builder.String()))
}

func (f *MarkdownFormatter) writeEvaluation(builder *strings.Builder, e Entry, lang locale.Language) {
	res := e.Result
	summary := res.ConsistencySummary()

	builder.WriteString(fmt.Sprintf("### %s\n\n", e.Label()))
	builder.WriteString(fmt.Sprintf("%s: **%s** (%s)\n\n", locale.Message(lang, "overall_score"),
		round2(res.OverallScore), locale.BandLabel(lang, res.Band().ID)))
	builder.WriteString("| Dimension | Score | Consistency | Level |\n")
	builder.WriteString("|-----------|-------|-------------|-------|\n")
	for _, d := range res.Dimensions {
		builder.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", d.Label,
			round2(d.Score), round2(d.Consistency), locale.ConsistencyLabel(lang, string(d.Level))))
	}
	builder.WriteString("\n")

	if f.verbose {
		builder.WriteString("| Question | Statement | Answer |\n")
		builder.WriteString("|----------|-----------|--------|\n")
		for _, id := range shs.QuestionIDs() {
			v, _ := res.Responses.Get(id)
			builder.WriteString(fmt.Sprintf("| %s | %s | %+d |\n", id,
				escapeCell(locale.QuestionText(lang, string(id))), v))
		}
		builder.WriteString("\n")
	}

	if summary.NeedsReview {
		builder.WriteString(fmt.Sprintf("> %s\n\n", locale.Message(lang, summary.MessageKey())))
	}
}

// reviewMark returns a marker for the review column
func reviewMark(needsReview bool) string {
	if needsReview {
		return "⚠️"
	}
	return "✅"
}

// escapeCell keeps pipes from breaking a table row
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
