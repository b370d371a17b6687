package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/swingtrader/market"
)

// CMF is Chaikin Money Flow: the sum of money-flow volume over the sum of
// volume for the last period bars. It lies in [-1, 1].
type CMF struct {
	period int
	mfv    *window
	vol    *window
	sumMFV float64
	sumVol float64
}

func NewCMF(period int) *CMF {
	return &CMF{period: period, mfv: newWindow(period), vol: newWindow(period)}
}

func (c *CMF) Name() string { return fmt.Sprintf("CMF(%d)", c.period) }

func (c *CMF) Warmup() int { return c.period }

func (c *CMF) Reset() {
	c.mfv.reset()
	c.vol.reset()
	c.sumMFV, c.sumVol = 0, 0
}

func (c *CMF) Update(b market.Bar) {
	mfv := moneyFlowMultiplier(b) * b.Volume
	if old, ok := c.mfv.push(mfv); ok {
		c.sumMFV -= old
	}
	if old, ok := c.vol.push(b.Volume); ok {
		c.sumVol -= old
	}
	c.sumMFV += mfv
	c.sumVol += b.Volume
}

func (c *CMF) Ready() bool { return c.vol.len() >= c.Warmup() }

func (c *CMF) Value() float64 {
	if !c.Ready() || c.sumVol <= 0 {
		return math.NaN()
	}
	return c.sumMFV / c.sumVol
}

// moneyFlowMultiplier is ((close-low) - (high-close)) / (high-low); zero
// for a bar with no range.
func moneyFlowMultiplier(b market.Bar) float64 {
	rng := b.High - b.Low
	if rng <= 0 {
		return 0
	}
	return ((b.Close - b.Low) - (b.High - b.Close)) / rng
}

var _ Indicator = (*CMF)(nil)
