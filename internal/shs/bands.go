package shs

import "math"

// NumBands is the number of equal-width classification bands over [-1, 1].
const NumBands = 11

// Band is one interpretive segment of the score range.
//
// Every band is closed on Lower and open on Upper, except the top band
// which is closed on both ends so that 1.0 has a home.
type Band struct {
	Index int     `json:"index" yaml:"index"`
	ID    string  `json:"id" yaml:"id"`
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// Band ids from the highest hallucination risk to the lowest.
var bandIDs = [NumBands]string{
	"extreme",
	"severe",
	"very_high",
	"high",
	"elevated",
	"neutral",
	"limited",
	"low",
	"very_low",
	"minimal",
	"negligible",
}

// NeutralBand is the index of the middle band containing 0.
const NeutralBand = NumBands / 2

var bandTable = buildBands()

func buildBands() [NumBands]Band {
	var bands [NumBands]Band
	width := 2.0 / NumBands
	for i := range bands {
		bands[i] = Band{
			Index: i,
			ID:    bandIDs[i],
			Lower: -1 + float64(i)*width,
			Upper: -1 + float64(i+1)*width,
		}
	}
	bands[0].Lower = -1
	bands[NumBands-1].Upper = 1
	return bands
}

// Bands returns the classification table from lowest to highest.
func Bands() []Band {
	bands := bandTable
	return bands[:]
}

// Classify returns the band containing value. Values outside [-1, 1] are
// clamped; NaN falls in the neutral band.
func Classify(value float64) Band {
	if math.IsNaN(value) {
		return bandTable[NeutralBand]
	}
	value = clamp(value, -1, 1)
	for i := NumBands - 1; i > 0; i-- {
		if value >= bandTable[i].Lower {
			return bandTable[i]
		}
	}
	return bandTable[0]
}

// Contains reports whether value lies in the band under the
// closed-lower/open-upper rule.
func (b Band) Contains(value float64) bool {
	if b.Index == NumBands-1 {
		return value >= b.Lower && value <= b.Upper
	}
	return value >= b.Lower && value < b.Upper
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
