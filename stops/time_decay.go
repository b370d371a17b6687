package stops

import "github.com/rustyeddy/swingtrader/market"

// TimeDecayStop tightens on a schedule keyed by bars held. The initial stop
// comes from the same schedule at bar zero; a tighter initial stop would
// leave the ratchet no room to ever apply the later buckets.
type TimeDecayStop struct {
	p TimeDecayParams
}

func (s *TimeDecayStop) Kind() Kind { return TimeDecay }

func (s *TimeDecayStop) mult(barsHeld int) float64 {
	switch {
	case barsHeld <= s.p.EarlyBars:
		return s.p.EarlyMult
	case barsHeld <= s.p.MidBars:
		return s.p.MidMult
	default:
		return s.p.LateMult
	}
}

func (s *TimeDecayStop) Initial(signal market.Bar, entry float64) float64 {
	return entry - s.mult(0)*signal.ATR
}

func (s *TimeDecayStop) Compute(st State, _ market.Bar) float64 {
	return st.EntryPrice - s.mult(st.BarsHeld)*st.EntryATR
}

var _ Strategy = (*TimeDecayStop)(nil)
