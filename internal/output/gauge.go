package output

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dotcommander/shs/internal/shs"
)

// GaugeWidth is the default number of cells of the score gauge. Each band
// gets an equal share.
const GaugeWidth = 44

// bandColors runs from red (extreme) through gray (neutral) to green.
var bandColors = [shs.NumBands]lipgloss.Color{
	"160", "196", "202", "208", "214", "250", "148", "112", "76", "40", "34",
}

// gaugeCells returns, for every cell, the band it belongs to, plus the cell
// that holds the marker for value.
func gaugeCells(value float64, width int) (bands []int, marker int) {
	if width < shs.NumBands {
		width = shs.NumBands
	}
	bands = make([]int, width)
	for i := range bands {
		// cell centre mapped back onto [-1, 1]
		centre := -1 + (float64(i)+0.5)*2/float64(width)
		bands[i] = shs.Classify(centre).Index
	}

	if math.IsNaN(value) {
		value = 0
	}
	value = math.Max(-1, math.Min(1, value))
	marker = int(math.Round((value + 1) / 2 * float64(width-1)))
	return bands, marker
}

// RenderGauge draws value on a band-coloured bar. Without colour the bands
// alternate between two fill characters so they stay distinguishable.
func RenderGauge(value float64, width int, colorize bool) string {
	bands, marker := gaugeCells(value, width)

	var bar, pointer strings.Builder
	for i, b := range bands {
		cell := "█"
		if !colorize && b%2 == 1 {
			cell = "▒"
		}
		if colorize {
			cell = lipgloss.NewStyle().Foreground(bandColors[b]).Render(cell)
		}
		bar.WriteString(cell)

		if i == marker {
			pointer.WriteString("▲")
		} else {
			pointer.WriteString(" ")
		}
	}
	return "-1 " + bar.String() + " +1\n   " + strings.TrimRight(pointer.String(), " ")
}

// bandStyle colours text in the colour of band index b.
func bandStyle(b int, colorize bool) lipgloss.Style {
	if !colorize || b < 0 || b >= shs.NumBands {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(bandColors[b]).Bold(true)
}
