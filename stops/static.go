package stops

import (
	"math"

	"github.com/rustyeddy/swingtrader/market"
)

// StaticStop is fixed at entry below the swing low and VWAP, whichever is
// lower, and never moves afterwards.
type StaticStop struct {
	p StaticParams
}

func (s *StaticStop) Kind() Kind { return Static }

func (s *StaticStop) Initial(signal market.Bar, _ float64) float64 {
	swing := signal.SwingLow - s.p.SwingATRMult*signal.ATR
	vwap := signal.VWAP - s.p.VWAPATRMult*signal.ATR
	return math.Min(swing, vwap)
}

func (s *StaticStop) Compute(st State, _ market.Bar) float64 {
	return st.CurrentStop
}

var _ Strategy = (*StaticStop)(nil)
