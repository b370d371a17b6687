package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/swingtrader/market"
)

// VWAP is a rolling volume-weighted average of the typical price
// (high+low+close)/3 over the last period bars.
type VWAP struct {
	period int
	pv     *window
	vol    *window
	sumPV  float64
	sumVol float64
}

func NewVWAP(period int) *VWAP {
	return &VWAP{period: period, pv: newWindow(period), vol: newWindow(period)}
}

func (v *VWAP) Name() string { return fmt.Sprintf("VWAP(%d)", v.period) }

func (v *VWAP) Warmup() int { return v.period }

func (v *VWAP) Reset() {
	v.pv.reset()
	v.vol.reset()
	v.sumPV, v.sumVol = 0, 0
}

func (v *VWAP) Update(b market.Bar) {
	typical := (b.High + b.Low + b.Close) / 3
	if old, ok := v.pv.push(typical * b.Volume); ok {
		v.sumPV -= old
	}
	if old, ok := v.vol.push(b.Volume); ok {
		v.sumVol -= old
	}
	v.sumPV += typical * b.Volume
	v.sumVol += b.Volume
}

func (v *VWAP) Ready() bool { return v.vol.len() >= v.Warmup() }

func (v *VWAP) Value() float64 {
	if !v.Ready() || v.sumVol <= 0 {
		return math.NaN()
	}
	return v.sumPV / v.sumVol
}

var _ Indicator = (*VWAP)(nil)
