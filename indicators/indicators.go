// Package indicators computes the per-bar features the stop strategies and
// exit rules read: ATR, VWAP, swing levels, CMF and their z-scores.
package indicators

import (
	"math"

	"github.com/rustyeddy/swingtrader/market"
)

// Indicator computes a single streaming value from bars.
// It is deterministic and safe to use in replay and backtests.
type Indicator interface {
	// Name returns a stable identifier like "ATR(20)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value returns the current value, or NaN before warmup completes.
	Value() float64
}

// Params are the lookbacks used by Enrich.
type Params struct {
	ATRPeriod   int
	VWAPPeriod  int
	SwingPeriod int
	CMFPeriod   int
	ZPeriod     int
}

func DefaultParams() Params {
	return Params{
		ATRPeriod:   20,
		VWAPPeriod:  20,
		SwingPeriod: 10,
		CMFPeriod:   20,
		ZPeriod:     20,
	}
}

// Enrich returns a copy of bars with every indicator column recomputed.
// Gap bars are skipped by the indicators and keep NaN features, as do bars
// inside an indicator's warmup.
func Enrich(bars []market.Bar, p Params) []market.Bar {
	atr := NewATR(p.ATRPeriod)
	vwap := NewVWAP(p.VWAPPeriod)
	swing := NewSwing(p.SwingPeriod)
	cmf := NewCMF(p.CMFPeriod)
	cmfZ := NewZScore(p.ZPeriod)
	atrZ := NewZScore(p.ZPeriod)

	out := make([]market.Bar, len(bars))
	for i, b := range bars {
		nan := math.NaN()
		b.ATR, b.VWAP, b.SwingLow, b.SwingHigh = nan, nan, nan, nan
		b.CMF, b.CMFZ, b.ATRZ = nan, nan, nan

		if b.Valid() {
			atr.Update(b)
			vwap.Update(b)
			swing.Update(b)
			cmf.Update(b)

			b.ATR = atr.Value()
			b.VWAP = vwap.Value()
			b.SwingLow = swing.Low()
			b.SwingHigh = swing.High()
			b.CMF = cmf.Value()

			if cmf.Ready() {
				cmfZ.Push(b.CMF)
				b.CMFZ = cmfZ.Value()
			}
			if atr.Ready() {
				atrZ.Push(b.ATR)
				b.ATRZ = atrZ.Value()
			}
		}
		out[i] = b
	}
	return out
}

// window is a fixed-size ring of the most recent values.
type window struct {
	vals []float64
	next int
	full bool
}

func newWindow(n int) *window {
	if n < 1 {
		n = 1
	}
	return &window{vals: make([]float64, n)}
}

func (w *window) push(v float64) (old float64, evicted bool) {
	old, evicted = w.vals[w.next], w.full
	w.vals[w.next] = v
	w.next++
	if w.next == len(w.vals) {
		w.next = 0
		w.full = true
	}
	return old, evicted
}

func (w *window) len() int {
	if w.full {
		return len(w.vals)
	}
	return w.next
}

func (w *window) each(fn func(v float64)) {
	for i := 0; i < w.len(); i++ {
		fn(w.vals[i])
	}
}

func (w *window) reset() {
	w.next = 0
	w.full = false
}
