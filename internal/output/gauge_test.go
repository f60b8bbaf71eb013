package output

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dotcommander/shs/internal/shs"
)

func TestGaugeCells_EqualShares(t *testing.T) {
	bands, _ := gaugeCells(0, GaugeWidth)
	if len(bands) != GaugeWidth {
		t.Fatalf("len(bands) = %d, want %d", len(bands), GaugeWidth)
	}

	counts := make([]int, shs.NumBands)
	for i, b := range bands {
		counts[b]++
		if i > 0 && b < bands[i-1] {
			t.Errorf("cell %d band %d is below previous band %d", i, b, bands[i-1])
		}
	}
	for b, n := range counts {
		if n != GaugeWidth/shs.NumBands {
			t.Errorf("band %d has %d cells, want %d", b, n, GaugeWidth/shs.NumBands)
		}
	}
}

func TestGaugeCells_Marker(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  int
	}{
		{"lowest", -1, 0},
		{"highest", 1, GaugeWidth - 1},
		{"centre", 0, 22},
		{"nan is centre", math.NaN(), 22},
		{"clamped high", 5, GaugeWidth - 1},
		{"clamped low", -5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, marker := gaugeCells(tt.value, GaugeWidth)
			if marker != tt.want {
				t.Errorf("marker = %d, want %d", marker, tt.want)
			}
		})
	}
}

func TestGaugeCells_MinimumWidth(t *testing.T) {
	bands, marker := gaugeCells(1, 3)
	if len(bands) != shs.NumBands {
		t.Errorf("len(bands) = %d, want %d", len(bands), shs.NumBands)
	}
	if marker != shs.NumBands-1 {
		t.Errorf("marker = %d, want %d", marker, shs.NumBands-1)
	}
}

func TestRenderGauge_Plain(t *testing.T) {
	out := RenderGauge(1, GaugeWidth, false)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("RenderGauge() has %d lines, want 2", len(lines))
	}

	bar := lines[0]
	if !strings.HasPrefix(bar, "-1 ████▒▒▒▒") {
		t.Errorf("bar should start with alternating fills, got %q", bar)
	}
	if !strings.HasSuffix(bar, " +1") {
		t.Errorf("bar should end with +1, got %q", bar)
	}
	if n := utf8.RuneCountInString(bar); n != GaugeWidth+6 {
		t.Errorf("bar has %d runes, want %d", n, GaugeWidth+6)
	}

	pointer := lines[1]
	if utf8.RuneCountInString(pointer) != 3+GaugeWidth {
		t.Errorf("pointer should sit under the last cell, got %q", pointer)
	}
	if !strings.HasSuffix(pointer, "▲") {
		t.Errorf("pointer line should end with the marker, got %q", pointer)
	}
}

func TestBandStyle_NoColour(t *testing.T) {
	if got := bandStyle(3, false).Render("x"); got != "x" {
		t.Errorf("bandStyle without colour rendered %q, want %q", got, "x")
	}
	if got := bandStyle(-1, true).Render("x"); got != "x" {
		t.Errorf("bandStyle with invalid index rendered %q, want %q", got, "x")
	}
}
