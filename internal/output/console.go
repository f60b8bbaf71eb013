package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"github.com/dotcommander/shs/internal/batch"
	"github.com/dotcommander/shs/internal/locale"
	"github.com/dotcommander/shs/internal/shs"
)

// ConsoleFormatter formats output for console display
type ConsoleFormatter struct {
	w        io.Writer
	quiet    bool
	verbose  bool
	colorize bool
	width    int
}

// NewConsoleFormatter creates a new ConsoleFormatter writing to w. Colour
// is used only when w is a terminal.
func NewConsoleFormatter(w io.Writer, quiet, verbose bool) *ConsoleFormatter {
	return &ConsoleFormatter{
		w:        w,
		quiet:    quiet,
		verbose:  verbose,
		colorize: isTTY(w),
		width:    GaugeWidth,
	}
}

// isTTY returns true if w is a terminal
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

var (
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boldStyle = lipgloss.NewStyle().Bold(true)
	redStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func (f *ConsoleFormatter) style(s lipgloss.Style) lipgloss.Style {
	if !f.colorize {
		return lipgloss.NewStyle()
	}
	return s
}

// Format renders the report. In quiet mode only failures are printed.
func (f *ConsoleFormatter) Format(report *Report) error {
	var b strings.Builder

	if !f.quiet {
		for i, e := range report.Entries {
			if e.Result == nil {
				continue
			}
			if i > 0 {
				b.WriteString("\n")
			}
			f.writeEvaluation(&b, e, report.Language)
		}
	}

	f.writeFailures(&b, report)

	if !f.quiet && report.Stats != nil {
		f.writeStatistics(&b, *report.Stats, report.Language)
	}
	if !f.quiet && report.Comparison != nil {
		f.writeComparison(&b, report)
	}
	if !f.quiet && report.IsBatch() {
		fmt.Fprintf(&b, "\n%d/%d scored, %d failed (%v)\n",
			report.Succeeded(), len(report.Entries), report.Failed(),
			report.Duration.Round(time.Millisecond))
	}

	_, err := io.WriteString(f.w, b.String())
	return err
}

func (f *ConsoleFormatter) writeEvaluation(b *strings.Builder, e Entry, lang locale.Language) {
	res := e.Result
	band := res.Band()
	summary := res.ConsistencySummary()
	bs := bandStyle(band.Index, f.colorize)

	if e.Source != "" {
		fmt.Fprintf(b, "%s\n", f.style(boldStyle).Render(e.Label()))
	}
	fmt.Fprintf(b, "%s: %s  %s\n",
		locale.Message(lang, "overall_score"),
		bs.Render(round2(res.OverallScore)),
		bs.Render(locale.BandLabel(lang, band.ID)))
	fmt.Fprintf(b, "%s\n", RenderGauge(res.OverallScore, f.width, f.colorize))
	fmt.Fprintf(b, "%s: %s  (%s)\n",
		locale.Message(lang, "overall_consistency"),
		round2(res.OverallConsistency),
		locale.ConsistencyLabel(lang, string(summary.Level)))

	labelWidth := 0
	for _, d := range res.Dimensions {
		labelWidth = max(labelWidth, lipgloss.Width(d.Label))
	}
	for i, d := range res.Dimensions {
		marker := " "
		if contains(summary.Outliers, i) {
			marker = f.style(warnStyle).Render("!")
		}
		fmt.Fprintf(b, " %s %s  %6s  %6s  %s\n",
			marker,
			d.Label+strings.Repeat(" ", labelWidth-lipgloss.Width(d.Label)),
			round2(d.Score),
			round2(d.Consistency),
			f.style(dimStyle).Render(locale.ConsistencyLabel(lang, string(d.Level))))
		if f.verbose {
			fmt.Fprintf(b, "      %s=%+d  %s\n", d.Dimension.QuestionA, d.ResponseA,
				f.style(dimStyle).Render(locale.QuestionText(lang, string(d.Dimension.QuestionA))))
			fmt.Fprintf(b, "      %s=%+d  %s\n", d.Dimension.QuestionB, d.ResponseB,
				f.style(dimStyle).Render(locale.QuestionText(lang, string(d.Dimension.QuestionB))))
		}
	}

	msg := locale.Message(lang, summary.MessageKey())
	if summary.NeedsReview {
		fmt.Fprintf(b, "%s\n", f.style(warnStyle).Render(msg))
	} else {
		fmt.Fprintf(b, "%s\n", f.style(dimStyle).Render(msg))
	}
}

func (f *ConsoleFormatter) writeFailures(b *strings.Builder, report *Report) {
	if report.Failed() == 0 && len(report.FileErrors) == 0 {
		return
	}
	b.WriteString("\n")
	for _, fe := range report.FileErrors {
		fmt.Fprintf(b, "%s %s\n", f.style(redStyle).Render("✘"), fe.Error())
	}
	for _, e := range report.Entries {
		if e.Err != nil {
			fmt.Fprintf(b, "%s %s: %v\n", f.style(redStyle).Render("✘"), e.Label(), e.Err)
		}
	}
}

func (f *ConsoleFormatter) writeStatistics(b *strings.Builder, st batch.Statistics, lang locale.Language) {
	fmt.Fprintf(b, "\n%s\n", f.style(boldStyle).Render(fmt.Sprintf("Statistics (n=%d)", st.N)))
	if st.N == 0 {
		return
	}
	fmt.Fprintf(b, "  %s: mean %s  min %s  max %s  std %s\n",
		locale.Message(lang, "overall_score"),
		round2(st.OverallScore.Mean), round2(st.OverallScore.Min),
		round2(st.OverallScore.Max), round2(st.OverallScore.Std))
	fmt.Fprintf(b, "  |%s|: mean %s  min %s  max %s\n",
		locale.Message(lang, "overall_consistency"),
		round2(st.OverallConsistency.Mean), round2(st.OverallConsistency.Min),
		round2(st.OverallConsistency.Max))
	for _, d := range st.Dimensions {
		fmt.Fprintf(b, "  %s: mean %s  min %s  max %s  |c| %s\n",
			locale.DimensionLabel(lang, d.Key),
			round2(d.Score.Mean), round2(d.Score.Min), round2(d.Score.Max),
			round2(d.MeanConsistency))
	}
	for _, band := range shs.Bands() {
		if n := st.Bands[band.ID]; n > 0 {
			fmt.Fprintf(b, "  %s %s: %d\n",
				bandStyle(band.Index, f.colorize).Render("■"),
				locale.BandLabel(lang, band.ID), n)
		}
	}
	if st.NeedsReview > 0 {
		fmt.Fprintf(b, "  %s\n", f.style(warnStyle).Render(
			fmt.Sprintf("%d evaluation(s) need review", st.NeedsReview)))
	}
}

func (f *ConsoleFormatter) writeComparison(b *strings.Builder, report *Report) {
	c := report.Comparison
	fmt.Fprintf(b, "\n%s\n", f.style(boldStyle).Render("Baseline comparison"))
	if !c.SameInputs {
		fmt.Fprintf(b, "  %s\n", f.style(dimStyle).Render("inputs differ from the baseline run"))
	}
	for _, d := range c.Deltas {
		line := fmt.Sprintf("  %-36s %s -> %s (%+.2f)", d.Metric, round2(d.Baseline), round2(d.Current), d.Change)
		if d.Regression {
			line = f.style(redStyle).Render(line + " regression")
		}
		b.WriteString(line + "\n")
	}
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
