package market

import (
	"math"
	"time"
)

// Bar is one trading day for a ticker with its precomputed indicators.
// Bars are supplied by the data layer and never mutated by the engine.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	ATR       float64 // 20-bar average true range
	VWAP      float64
	SwingLow  float64
	SwingHigh float64
	CMF       float64 // Chaikin money flow
	CMFZ      float64 // CMF z-score
	ATRZ      float64 // ATR z-score, drives the vol-regime stop
}

// Valid reports whether the bar traded. Bars with a zero or NaN price are
// gaps: the engine skips them and defers any pending fill.
func (b Bar) Valid() bool {
	for _, p := range [...]float64{b.Open, b.High, b.Low, b.Close} {
		if !finite(p) || p <= 0 {
			return false
		}
	}
	return true
}

// HasStopFeatures reports whether the indicator columns needed to place an
// initial stop are present (they are NaN during indicator warmup).
func (b Bar) HasStopFeatures() bool {
	return finite(b.ATR) && b.ATR > 0 && finite(b.VWAP) && finite(b.SwingLow)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Signal carries the entry/exit flags evaluated at a bar's close.
type Signal struct {
	Entry bool
	Exit  bool
}
