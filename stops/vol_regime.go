package stops

import (
	"math"

	"github.com/rustyeddy/swingtrader/market"
)

// VolRegimeStop picks the ATR multiple from the current bar's ATR z-score:
// calm markets get a tight stop, volatile ones a wide one. The distance is
// measured from the entry price, so a loosening candidate is absorbed by
// the ratchet.
type VolRegimeStop struct {
	p VolRegimeParams
}

func (s *VolRegimeStop) Kind() Kind { return VolRegime }

func (s *VolRegimeStop) mult(z float64) float64 {
	switch {
	case z < -s.p.ZThreshold:
		return s.p.LowMult
	case z > s.p.ZThreshold:
		return s.p.HighMult
	default:
		return s.p.NormalMult
	}
}

func (s *VolRegimeStop) Initial(signal market.Bar, entry float64) float64 {
	z := signal.ATRZ
	if math.IsNaN(z) {
		z = 0
	}
	return entry - s.mult(z)*signal.ATR
}

func (s *VolRegimeStop) Compute(st State, bar market.Bar) float64 {
	if math.IsNaN(bar.ATRZ) {
		return st.CurrentStop
	}
	return st.EntryPrice - s.mult(bar.ATRZ)*st.EntryATR
}

var _ Strategy = (*VolRegimeStop)(nil)
