package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	MinRiskPct = 0.1
	MaxRiskPct = 5.0
)

var (
	ErrStopNotBelowEntry = errors.New("stop at or above entry")
	ErrPositionTooSmall  = errors.New("risk budget buys zero shares")
	ErrNoEquity          = errors.New("no equity to risk")
)

// LogicError rejects a single entry attempt. The engine logs it and keeps
// processing later bars.
type LogicError struct {
	Entry float64
	Stop  float64
	Err   error
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("entry rejected (entry=%.4f stop=%.4f): %v", e.Entry, e.Stop, e.Err)
}

func (e *LogicError) Unwrap() error { return e.Err }

// Size is the output of the position sizer.
type Size struct {
	Shares       int64
	RiskPerShare float64
	RiskAmount   decimal.Decimal // Shares * RiskPerShare

	rps decimal.Decimal
}

// RiskPerShareDecimal is RiskPerShare without float rounding.
func (z Size) RiskPerShareDecimal() decimal.Decimal { return z.rps }

// Cap shrinks z so that Shares*price stays within equity. The sizer caps
// on the quoted entry; callers re-cap on the slippage-adjusted price.
func (z Size) Cap(equity, price decimal.Decimal) (Size, error) {
	if !price.IsPositive() {
		return z, nil
	}
	limit := equity.Div(price).Floor().IntPart()
	if z.Shares <= limit {
		return z, nil
	}
	if limit <= 0 {
		return Size{}, &LogicError{Entry: price.InexactFloat64(), Err: ErrPositionTooSmall}
	}
	z.Shares = limit
	z.RiskAmount = decimal.NewFromInt(limit).Mul(z.rps)
	return z, nil
}

// Sizer converts a risk budget and a stop distance into a share count.
type Sizer struct {
	RiskPct float64 // percent of equity risked per trade, e.g. 0.75
}

// ValidateRiskPct checks that pct lies in [MinRiskPct, MaxRiskPct].
func ValidateRiskPct(pct float64) error {
	if math.IsNaN(pct) || pct < MinRiskPct || pct > MaxRiskPct {
		return fmt.Errorf("risk pct %.4g outside [%.1f, %.1f]", pct, MinRiskPct, MaxRiskPct)
	}
	return nil
}

// CheckStop returns a LogicError when stop is not strictly below entry.
func CheckStop(entry, stop float64) error {
	if math.IsNaN(stop) || entry-stop <= 0 {
		return &LogicError{Entry: entry, Stop: stop, Err: ErrStopNotBelowEntry}
	}
	return nil
}

// Size computes shares = floor(equity * riskPct/100 / (entry - stop)),
// capped so the notional never exceeds equity.
func (s Sizer) Size(equity decimal.Decimal, entry, stop float64) (Size, error) {
	if !equity.IsPositive() {
		return Size{}, &LogicError{Entry: entry, Stop: stop, Err: ErrNoEquity}
	}
	if err := CheckStop(entry, stop); err != nil {
		return Size{}, err
	}

	rps := decimal.NewFromFloat(entry).Sub(decimal.NewFromFloat(stop))
	budget := equity.Mul(decimal.NewFromFloat(s.RiskPct)).Shift(-2)

	shares := budget.Div(rps).Floor()
	maxShares := equity.Div(decimal.NewFromFloat(entry)).Floor()
	if shares.GreaterThan(maxShares) {
		shares = maxShares
	}
	if !shares.IsPositive() {
		return Size{}, &LogicError{Entry: entry, Stop: stop, Err: ErrPositionTooSmall}
	}

	return Size{
		Shares:       shares.IntPart(),
		RiskPerShare: rps.InexactFloat64(),
		RiskAmount:   shares.Mul(rps),
		rps:          rps,
	}, nil
}
