package stops

import (
	"math"

	"github.com/rustyeddy/swingtrader/market"
)

// AtrDynamicStop recomputes Mult x current ATR every bar, clamped to
// [MinMult, MaxMult] x entry ATR, below the entry price.
type AtrDynamicStop struct {
	p AtrDynamicParams
}

func (s *AtrDynamicStop) Kind() Kind { return AtrDynamic }

func (s *AtrDynamicStop) distance(atr, entryATR float64) float64 {
	d := s.p.Mult * atr
	lo := s.p.MinMult * entryATR
	hi := s.p.MaxMult * entryATR
	return math.Min(math.Max(d, lo), hi)
}

func (s *AtrDynamicStop) Initial(signal market.Bar, entry float64) float64 {
	return entry - s.distance(signal.ATR, signal.ATR)
}

func (s *AtrDynamicStop) Compute(st State, bar market.Bar) float64 {
	if math.IsNaN(bar.ATR) || bar.ATR <= 0 {
		return st.CurrentStop
	}
	return st.EntryPrice - s.distance(bar.ATR, st.EntryATR)
}

var _ Strategy = (*AtrDynamicStop)(nil)
