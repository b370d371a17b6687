package stops

import "github.com/rustyeddy/swingtrader/market"

// PctTrailStop trails the highest high since entry by a fixed percentage.
// It wins far less often than the ATR based stops and is never the default.
type PctTrailStop struct {
	p PctTrailParams
}

func (s *PctTrailStop) Kind() Kind { return PctTrail }

func (s *PctTrailStop) Initial(_ market.Bar, entry float64) float64 {
	return entry * (1 - s.p.TrailPct)
}

func (s *PctTrailStop) Compute(st State, _ market.Bar) float64 {
	return st.PeakPrice * (1 - s.p.TrailPct)
}

var _ Strategy = (*PctTrailStop)(nil)
