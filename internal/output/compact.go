package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dotcommander/shs/internal/locale"
)

// CompactFormatter prints one aligned line per evaluation followed by a
// summary line. It suits large batches where the full console layout is
// too long to scan.
type CompactFormatter struct {
	w        io.Writer
	quiet    bool
	colorize bool
	animate  bool
}

// NewCompactFormatter creates a new CompactFormatter writing to w.
func NewCompactFormatter(w io.Writer, quiet bool) *CompactFormatter {
	tty := isTTY(w)
	return &CompactFormatter{
		w:        w,
		quiet:    quiet,
		colorize: tty,
		animate:  tty,
	}
}

// compactRow is one rendered line before alignment.
type compactRow struct {
	label   string
	score   string
	band    int
	bandID  string
	level   string
	review  bool
	failure string
}

// Format renders the report in compact style.
func (f *CompactFormatter) Format(report *Report) error {
	if f.quiet && report.Failed() == 0 && len(report.FileErrors) == 0 {
		return nil
	}

	redStyle := f.pick(lipgloss.NewStyle().Foreground(lipgloss.Color("9")))
	greenStyle := f.pick(lipgloss.NewStyle().Foreground(lipgloss.Color("10")))
	dimStyle := f.pick(lipgloss.NewStyle().Foreground(lipgloss.Color("8")))
	warnStyle := f.pick(lipgloss.NewStyle().Foreground(lipgloss.Color("3")))

	rows, reviews := compactRows(report)
	labelLen := 0
	for _, r := range rows {
		labelLen = max(labelLen, lipgloss.Width(r.label))
	}

	var b strings.Builder
	for _, fe := range report.FileErrors {
		fmt.Fprintf(&b, "%s %s\n", redStyle.Render("✘"), fe.Error())
	}
	for _, r := range rows {
		padding := strings.Repeat(" ", labelLen-lipgloss.Width(r.label))
		if r.failure != "" {
			fmt.Fprintf(&b, "%s %s%s  %s\n", redStyle.Render("✘"), r.label, padding, redStyle.Render(r.failure))
			continue
		}
		if f.quiet {
			continue
		}
		icon := greenStyle.Render("✓")
		if r.review {
			icon = warnStyle.Render("!")
		}
		fmt.Fprintf(&b, "%s %s%s  %6s  %s  %s\n", icon, r.label, padding,
			bandStyle(r.band, f.colorize).Render(r.score),
			bandStyle(r.band, f.colorize).Render(locale.BandLabel(report.Language, r.bandID)),
			dimStyle.Render(r.level))
	}

	summary := summaryText(report, reviews)
	perfect := report.Failed() == 0 && len(report.FileErrors) == 0 && reviews == 0
	if _, err := io.WriteString(f.w, b.String()); err != nil {
		return err
	}

	switch {
	case f.animate && perfect && report.Succeeded() > 0:
		printCelebration(f.w, sweepFrames(meanScore(report), summary, sweepSteps), sweepDelay)
		return nil
	case report.Failed() > 0 || len(report.FileErrors) > 0:
		summary = redStyle.Render(summary)
	default:
		summary = greenStyle.Render(summary)
	}
	_, err := fmt.Fprintf(f.w, "\n%s\n", summary)
	return err
}

func (f *CompactFormatter) pick(s lipgloss.Style) lipgloss.Style {
	if !f.colorize {
		return lipgloss.NewStyle()
	}
	return s
}

// compactRows builds the rows and counts scored evaluations needing review.
func compactRows(report *Report) ([]compactRow, int) {
	rows := make([]compactRow, 0, len(report.Entries))
	reviews := 0
	for _, e := range report.Entries {
		row := compactRow{label: e.Label()}
		if e.Err != nil {
			row.failure = e.Err.Error()
			rows = append(rows, row)
			continue
		}
		band := e.Result.Band()
		summary := e.Result.ConsistencySummary()
		row.score = round2(e.Result.OverallScore)
		row.band = band.Index
		row.bandID = band.ID
		row.level = locale.ConsistencyLabel(report.Language, string(summary.Level))
		row.review = summary.NeedsReview
		if row.review {
			reviews++
		}
		rows = append(rows, row)
	}
	return rows, reviews
}

// summaryText is the closing line, e.g. "9/10 scored, 1 failure, 2 to review (15ms)".
func summaryText(report *Report, reviews int) string {
	text := fmt.Sprintf("%d/%d scored", report.Succeeded(), len(report.Entries))
	if n := report.Failed() + len(report.FileErrors); n > 0 {
		text += fmt.Sprintf(", %d %s", n, pluralizeCount("failure", n))
	}
	if reviews > 0 {
		text += fmt.Sprintf(", %d to review", reviews)
	}
	return text + fmt.Sprintf(" (%s)", formatDuration(report.Duration))
}

// pluralizeCount returns singular or plural form based on count.
func pluralizeCount(s string, count int) string {
	if count == 1 {
		return s
	}
	return s + "s"
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
