package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dotcommander/shs/internal/shs"
)

const (
	sweepWidth = 2 * shs.NumBands
	sweepSteps = 4
	sweepDelay = 120 * time.Millisecond
)

// sweepFrames fills a band-coloured gauge from -1 up to value, one frame per
// step. The final frame appends msg in the colour of value's band.
func sweepFrames(value float64, msg string, steps int) []string {
	bands, marker := gaugeCells(value, sweepWidth)
	frames := make([]string, 0, steps+1)
	for s := 1; s <= steps; s++ {
		frames = append(frames, fillBar(bands, (marker+1)*s/steps))
	}
	final := fillBar(bands, marker+1) + "  " + bandStyle(shs.Classify(value).Index, true).Render(msg)
	return append(frames, final)
}

func fillBar(bands []int, filled int) string {
	var b strings.Builder
	for i, band := range bands {
		if i < filled {
			b.WriteString(lipgloss.NewStyle().Foreground(bandColors[band]).Render("█"))
		} else {
			b.WriteString(dimStyle.Render("░"))
		}
	}
	return b.String()
}

// printCelebration plays frames on one terminal line. Callers only use it
// on a terminal.
func printCelebration(w io.Writer, frames []string, delay time.Duration) {
	fmt.Fprintln(w)
	for i, frame := range frames {
		if i > 0 {
			fmt.Fprint(w, "\r\033[K")
		}
		fmt.Fprint(w, frame)
		if i < len(frames)-1 {
			time.Sleep(delay)
		}
	}
	fmt.Fprintln(w)
}

// meanScore is the mean overall score of the scored entries.
func meanScore(report *Report) float64 {
	results := report.Results()
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.OverallScore
	}
	return sum / float64(len(results))
}
