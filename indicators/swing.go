package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/swingtrader/market"
)

// Swing tracks the lowest low and highest high of the last period bars.
// Value is the swing low; High returns the swing high.
type Swing struct {
	period int
	lows   *window
	highs  *window
}

func NewSwing(period int) *Swing {
	return &Swing{period: period, lows: newWindow(period), highs: newWindow(period)}
}

func (s *Swing) Name() string { return fmt.Sprintf("SWING(%d)", s.period) }

func (s *Swing) Warmup() int { return s.period }

func (s *Swing) Reset() {
	s.lows.reset()
	s.highs.reset()
}

func (s *Swing) Update(b market.Bar) {
	s.lows.push(b.Low)
	s.highs.push(b.High)
}

func (s *Swing) Ready() bool { return s.lows.len() >= s.Warmup() }

func (s *Swing) Value() float64 { return s.Low() }

func (s *Swing) Low() float64 {
	if !s.Ready() {
		return math.NaN()
	}
	low := math.Inf(1)
	s.lows.each(func(v float64) { low = math.Min(low, v) })
	return low
}

func (s *Swing) High() float64 {
	if !s.Ready() {
		return math.NaN()
	}
	high := math.Inf(-1)
	s.highs.each(func(v float64) { high = math.Max(high, v) })
	return high
}

var _ Indicator = (*Swing)(nil)
