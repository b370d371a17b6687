package lifecycle

import (
	"fmt"

	"github.com/rustyeddy/swingtrader/risk"
)

// Rules are the exit and sizing policies shared by every stop strategy.
type Rules struct {
	RiskPct           float64 // percent of equity risked per trade
	TimeStopBars      int     // 0 disables the time stop
	ProfitTargetR     float64
	ProfitExitPct     float64 // fraction of shares sold at the target, (0, 1]
	TrailLookbackBars int
}

// DefaultRules mirrors the reference configuration.
func DefaultRules() Rules {
	return Rules{
		RiskPct:           0.75,
		TimeStopBars:      15,
		ProfitTargetR:     2.0,
		ProfitExitPct:     0.5,
		TrailLookbackBars: 10,
	}
}

func (r Rules) Validate() error {
	if err := risk.ValidateRiskPct(r.RiskPct); err != nil {
		return err
	}
	if r.TimeStopBars < 0 {
		return fmt.Errorf("time stop bars must be >= 0, got %d", r.TimeStopBars)
	}
	if !(r.ProfitTargetR > 0) {
		return fmt.Errorf("profit target R must be positive, got %v", r.ProfitTargetR)
	}
	if !(r.ProfitExitPct > 0 && r.ProfitExitPct <= 1) {
		return fmt.Errorf("profit exit pct must be in (0, 1], got %v", r.ProfitExitPct)
	}
	if r.TrailLookbackBars < 1 {
		return fmt.Errorf("trail lookback bars must be >= 1, got %d", r.TrailLookbackBars)
	}
	return nil
}
