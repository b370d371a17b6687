package indicators

import (
	"fmt"
	"math"
)

// ZScore is the rolling z-score of the latest pushed value against the
// last period values (population standard deviation).
type ZScore struct {
	period int
	vals   *window
	last   float64
}

func NewZScore(period int) *ZScore {
	return &ZScore{period: period, vals: newWindow(period)}
}

func (z *ZScore) Name() string { return fmt.Sprintf("Z(%d)", z.period) }

func (z *ZScore) Warmup() int { return z.period }

func (z *ZScore) Reset() { z.vals.reset() }

// Push adds the next value of the underlying series.
func (z *ZScore) Push(v float64) {
	z.vals.push(v)
	z.last = v
}

func (z *ZScore) Ready() bool { return z.vals.len() >= z.Warmup() }

// Value is NaN before warmup and 0 for a flat window.
func (z *ZScore) Value() float64 {
	if !z.Ready() {
		return math.NaN()
	}
	n := float64(z.vals.len())
	var sum float64
	z.vals.each(func(v float64) { sum += v })
	mean := sum / n

	var ss float64
	z.vals.each(func(v float64) { ss += (v - mean) * (v - mean) })
	sd := math.Sqrt(ss / n)
	if sd == 0 {
		return 0
	}
	return (z.last - mean) / sd
}
