package stops

import (
	"errors"
	"fmt"
)

var (
	ErrMissingParams = errors.New("missing stop parameters")
	ErrBadParam      = errors.New("invalid stop parameter")
)

// Params carries the tuning of every strategy. Only the block matching the
// selected Kind is required.
type Params struct {
	Static     *StaticParams     `json:"static,omitempty" yaml:"static,omitempty"`
	TimeDecay  *TimeDecayParams  `json:"time_decay,omitempty" yaml:"time_decay,omitempty"`
	VolRegime  *VolRegimeParams  `json:"vol_regime,omitempty" yaml:"vol_regime,omitempty"`
	AtrDynamic *AtrDynamicParams `json:"atr_dynamic,omitempty" yaml:"atr_dynamic,omitempty"`
	PctTrail   *PctTrailParams   `json:"pct_trail,omitempty" yaml:"pct_trail,omitempty"`
}

type StaticParams struct {
	SwingATRMult float64 `json:"swing_atr_mult" yaml:"swing_atr_mult"`
	VWAPATRMult  float64 `json:"vwap_atr_mult" yaml:"vwap_atr_mult"`
}

type TimeDecayParams struct {
	EarlyBars int     `json:"early_bars" yaml:"early_bars"`
	EarlyMult float64 `json:"early_mult" yaml:"early_mult"`
	MidBars   int     `json:"mid_bars" yaml:"mid_bars"`
	MidMult   float64 `json:"mid_mult" yaml:"mid_mult"`
	LateMult  float64 `json:"late_mult" yaml:"late_mult"`
}

type VolRegimeParams struct {
	ZThreshold float64 `json:"z_threshold" yaml:"z_threshold"`
	LowMult    float64 `json:"low_mult" yaml:"low_mult"`
	NormalMult float64 `json:"normal_mult" yaml:"normal_mult"`
	HighMult   float64 `json:"high_mult" yaml:"high_mult"`
}

type AtrDynamicParams struct {
	Mult    float64 `json:"mult" yaml:"mult"`
	MinMult float64 `json:"min_mult" yaml:"min_mult"`
	MaxMult float64 `json:"max_mult" yaml:"max_mult"`
}

type PctTrailParams struct {
	TrailPct float64 `json:"trail_pct" yaml:"trail_pct"` // fraction, 0.08 = 8%
}

// DefaultParams returns the reference tuning for every strategy.
func DefaultParams() Params {
	return Params{
		Static:     &StaticParams{SwingATRMult: 0.5, VWAPATRMult: 1.0},
		TimeDecay:  &TimeDecayParams{EarlyBars: 5, EarlyMult: 2.5, MidBars: 10, MidMult: 2.0, LateMult: 1.5},
		VolRegime:  &VolRegimeParams{ZThreshold: 0.5, LowMult: 1.5, NormalMult: 2.0, HighMult: 2.5},
		AtrDynamic: &AtrDynamicParams{Mult: 2.0, MinMult: 1.5, MaxMult: 3.0},
		PctTrail:   &PctTrailParams{TrailPct: 0.08},
	}
}

func positive(name string, v float64) error {
	if !(v > 0) {
		return fmt.Errorf("%w: %s must be positive, got %v", ErrBadParam, name, v)
	}
	return nil
}

func (p *StaticParams) validate() error {
	if err := positive("static.swing_atr_mult", p.SwingATRMult); err != nil {
		return err
	}
	return positive("static.vwap_atr_mult", p.VWAPATRMult)
}

func (p *TimeDecayParams) validate() error {
	if p.EarlyBars < 0 || p.MidBars <= p.EarlyBars {
		return fmt.Errorf("%w: time_decay needs 0 <= early_bars < mid_bars, got %d/%d",
			ErrBadParam, p.EarlyBars, p.MidBars)
	}
	for name, v := range map[string]float64{
		"time_decay.early_mult": p.EarlyMult,
		"time_decay.mid_mult":   p.MidMult,
		"time_decay.late_mult":  p.LateMult,
	} {
		if err := positive(name, v); err != nil {
			return err
		}
	}
	if p.MidMult > p.EarlyMult || p.LateMult > p.MidMult {
		return fmt.Errorf("%w: time_decay multipliers must not widen over time", ErrBadParam)
	}
	return nil
}

func (p *VolRegimeParams) validate() error {
	if p.ZThreshold < 0 {
		return fmt.Errorf("%w: vol_regime.z_threshold must be >= 0", ErrBadParam)
	}
	for name, v := range map[string]float64{
		"vol_regime.low_mult":    p.LowMult,
		"vol_regime.normal_mult": p.NormalMult,
		"vol_regime.high_mult":   p.HighMult,
	} {
		if err := positive(name, v); err != nil {
			return err
		}
	}
	return nil
}

func (p *AtrDynamicParams) validate() error {
	if err := positive("atr_dynamic.mult", p.Mult); err != nil {
		return err
	}
	if err := positive("atr_dynamic.min_mult", p.MinMult); err != nil {
		return err
	}
	if p.MaxMult < p.MinMult {
		return fmt.Errorf("%w: atr_dynamic.max_mult below min_mult", ErrBadParam)
	}
	return nil
}

func (p *PctTrailParams) validate() error {
	if !(p.TrailPct > 0 && p.TrailPct < 1) {
		return fmt.Errorf("%w: pct_trail.trail_pct must be in (0, 1), got %v", ErrBadParam, p.TrailPct)
	}
	return nil
}

// New builds the strategy for kind, failing when its parameter block is
// missing or invalid.
func New(kind Kind, p Params) (Strategy, error) {
	switch kind {
	case Static:
		if p.Static == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingParams, kind)
		}
		if err := p.Static.validate(); err != nil {
			return nil, err
		}
		return &StaticStop{p: *p.Static}, nil
	case TimeDecay:
		if p.TimeDecay == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingParams, kind)
		}
		if err := p.TimeDecay.validate(); err != nil {
			return nil, err
		}
		return &TimeDecayStop{p: *p.TimeDecay}, nil
	case VolRegime:
		if p.VolRegime == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingParams, kind)
		}
		if err := p.VolRegime.validate(); err != nil {
			return nil, err
		}
		return &VolRegimeStop{p: *p.VolRegime}, nil
	case AtrDynamic:
		if p.AtrDynamic == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingParams, kind)
		}
		if err := p.AtrDynamic.validate(); err != nil {
			return nil, err
		}
		return &AtrDynamicStop{p: *p.AtrDynamic}, nil
	case PctTrail:
		if p.PctTrail == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingParams, kind)
		}
		if err := p.PctTrail.validate(); err != nil {
			return nil, err
		}
		return &PctTrailStop{p: *p.PctTrail}, nil
	default:
		return nil, fmt.Errorf("unknown stop strategy %q", kind)
	}
}
