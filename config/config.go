// Package config loads and validates the backtest configuration.
//
// Loading never fills in defaults: every risk and stop setting must be
// present in the file. Default exists only to write a starter file.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustyeddy/swingtrader/costs"
	"github.com/rustyeddy/swingtrader/indicators"
	"github.com/rustyeddy/swingtrader/lifecycle"
	"github.com/rustyeddy/swingtrader/risk"
	"github.com/rustyeddy/swingtrader/stops"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every configuration error.
var ErrInvalid = errors.New("invalid config")

const (
	EquityIsolated = "isolated"
	EquityShared   = "shared"
)

// Config represents the complete backtest configuration
type Config struct {
	AccountValue      float64          `json:"account_value" yaml:"account_value"`
	EquityMode        string           `json:"equity_mode,omitempty" yaml:"equity_mode,omitempty"`
	RiskPctPerTrade   float64          `json:"risk_pct_per_trade" yaml:"risk_pct_per_trade"`
	StopStrategy      string           `json:"stop_strategy" yaml:"stop_strategy"`
	StopParams        stops.Params     `json:"stop_params" yaml:"stop_params"`
	TimeStopBars      int              `json:"time_stop_bars" yaml:"time_stop_bars"`
	ProfitTargetR     float64          `json:"profit_target_r" yaml:"profit_target_r"`
	ProfitExitPct     float64          `json:"profit_exit_pct" yaml:"profit_exit_pct"`
	TrailLookbackBars int              `json:"trail_lookback_bars" yaml:"trail_lookback_bars"`
	TransactionCosts  CostsConfig      `json:"transaction_costs" yaml:"transaction_costs"`
	Journal           JournalConfig    `json:"journal" yaml:"journal"`
	Logging           LoggingConfig    `json:"logging,omitempty" yaml:"logging,omitempty"`
	Indicators        IndicatorsConfig `json:"indicators,omitempty" yaml:"indicators,omitempty"`
}

// CostsConfig contains transaction cost parameters
type CostsConfig struct {
	SlippagePct        float64 `json:"slippage_pct" yaml:"slippage_pct"`
	CommissionPerShare float64 `json:"commission_per_share" yaml:"commission_per_share"`
	Enabled            bool    `json:"enabled" yaml:"enabled"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoggingConfig is optional; an empty block logs info to stderr.
type LoggingConfig struct {
	Level      string `json:"level,omitempty" yaml:"level,omitempty"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty"`
	Compress   bool   `json:"compress,omitempty" yaml:"compress,omitempty"`
}

// IndicatorsConfig sets the lookbacks used when enriching raw OHLCV data.
// Zero values fall back to the indicator package defaults.
type IndicatorsConfig struct {
	ATRPeriod   int `json:"atr_period,omitempty" yaml:"atr_period,omitempty"`
	VWAPPeriod  int `json:"vwap_period,omitempty" yaml:"vwap_period,omitempty"`
	SwingPeriod int `json:"swing_period,omitempty" yaml:"swing_period,omitempty"`
	CMFPeriod   int `json:"cmf_period,omitempty" yaml:"cmf_period,omitempty"`
	ZPeriod     int `json:"z_period,omitempty" yaml:"z_period,omitempty"`
}

// requiredKeys must appear in every file, even when their value is zero.
var requiredKeys = []string{
	"account_value",
	"risk_pct_per_trade",
	"stop_strategy",
	"stop_params",
	"time_stop_bars",
	"profit_target_r",
	"profit_exit_pct",
	"trail_lookback_bars",
	"transaction_costs",
}

var requiredCostKeys = []string{"slippage_pct", "commission_per_share", "enabled"}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data, strings.EqualFold(filepath.Ext(path), ".json"))
}

// Parse decodes and validates data. Unknown keys are rejected.
func Parse(data []byte, isJSON bool) (*Config, error) {
	cfg := &Config{}
	var raw map[string]any

	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("%w: parse json: %v", ErrInvalid, err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: parse json: %v", ErrInvalid, err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalid, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalid, err)
		}
	}

	if err := checkRequired(raw); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkRequired(raw map[string]any) error {
	for _, k := range requiredKeys {
		if _, ok := raw[k]; !ok {
			return fmt.Errorf("%w: %s is required", ErrInvalid, k)
		}
	}
	tc, ok := raw["transaction_costs"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: transaction_costs must be a mapping", ErrInvalid)
	}
	for _, k := range requiredCostKeys {
		if _, ok := tc[k]; !ok {
			return fmt.Errorf("%w: transaction_costs.%s is required", ErrInvalid, k)
		}
	}
	return nil
}

// SaveToFile saves configuration as JSON or YAML based on the extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	invalid := func(key string, format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalid, key, fmt.Sprintf(format, args...))
	}

	if !(c.AccountValue > 0) {
		return invalid("account_value", "must be positive, got %v", c.AccountValue)
	}
	switch c.EquityMode {
	case "", EquityIsolated, EquityShared:
	default:
		return invalid("equity_mode", "must be %q or %q, got %q", EquityIsolated, EquityShared, c.EquityMode)
	}
	if err := risk.ValidateRiskPct(c.RiskPctPerTrade); err != nil {
		return invalid("risk_pct_per_trade", "%v", err)
	}
	if _, err := c.Strategy(); err != nil {
		return invalid("stop_strategy", "%v", err)
	}
	if c.TimeStopBars < 0 {
		return invalid("time_stop_bars", "must be >= 0, got %d", c.TimeStopBars)
	}
	if !(c.ProfitTargetR > 0) {
		return invalid("profit_target_r", "must be positive, got %v", c.ProfitTargetR)
	}
	if !(c.ProfitExitPct > 0 && c.ProfitExitPct <= 1) {
		return invalid("profit_exit_pct", "must be in (0, 1], got %v", c.ProfitExitPct)
	}
	if c.TrailLookbackBars < 1 {
		return invalid("trail_lookback_bars", "must be >= 1, got %d", c.TrailLookbackBars)
	}

	tc := c.TransactionCosts
	if tc.SlippagePct < 0 || tc.SlippagePct >= 100 {
		return invalid("transaction_costs.slippage_pct", "must be in [0, 100), got %v", tc.SlippagePct)
	}
	if tc.CommissionPerShare < 0 {
		return invalid("transaction_costs.commission_per_share", "must be >= 0, got %v", tc.CommissionPerShare)
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return invalid("journal", "trades_file and equity_file required for csv type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return invalid("journal", "db_path required for sqlite type")
		}
	default:
		return invalid("journal.type", "must be none, csv or sqlite, got %q", c.Journal.Type)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return invalid("logging.level", "unknown level %q", c.Logging.Level)
	}
	return nil
}

// Shared reports whether all tickers draw on one equity pool.
func (c *Config) Shared() bool {
	return c.EquityMode == EquityShared
}

// Strategy builds the configured stop strategy.
func (c *Config) Strategy() (stops.Strategy, error) {
	kind, err := stops.ParseKind(c.StopStrategy)
	if err != nil {
		return nil, err
	}
	return stops.New(kind, c.StopParams)
}

// Rules returns the exit and sizing rules.
func (c *Config) Rules() lifecycle.Rules {
	return lifecycle.Rules{
		RiskPct:           c.RiskPctPerTrade,
		TimeStopBars:      c.TimeStopBars,
		ProfitTargetR:     c.ProfitTargetR,
		ProfitExitPct:     c.ProfitExitPct,
		TrailLookbackBars: c.TrailLookbackBars,
	}
}

// CostModel returns the transaction cost model.
func (c *Config) CostModel() costs.Model {
	tc := c.TransactionCosts
	return costs.New(tc.SlippagePct, tc.CommissionPerShare, tc.Enabled)
}

// IndicatorParams returns the enrichment lookbacks with defaults for
// unset values.
func (c *Config) IndicatorParams() indicators.Params {
	p := indicators.DefaultParams()
	ic := c.Indicators
	for _, f := range []struct {
		src int
		dst *int
	}{
		{ic.ATRPeriod, &p.ATRPeriod},
		{ic.VWAPPeriod, &p.VWAPPeriod},
		{ic.SwingPeriod, &p.SwingPeriod},
		{ic.CMFPeriod, &p.CMFPeriod},
		{ic.ZPeriod, &p.ZPeriod},
	} {
		if f.src > 0 {
			*f.dst = f.src
		}
	}
	return p
}

// Default returns the reference configuration, used by "config init".
func Default() *Config {
	rules := lifecycle.DefaultRules()
	return &Config{
		AccountValue:      100_000,
		EquityMode:        EquityIsolated,
		RiskPctPerTrade:   rules.RiskPct,
		StopStrategy:      string(stops.TimeDecay),
		StopParams:        stops.DefaultParams(),
		TimeStopBars:      rules.TimeStopBars,
		ProfitTargetR:     rules.ProfitTargetR,
		ProfitExitPct:     rules.ProfitExitPct,
		TrailLookbackBars: rules.TrailLookbackBars,
		TransactionCosts: CostsConfig{
			SlippagePct:        0.05,
			CommissionPerShare: 0.005,
			Enabled:            true,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./swingtrader.sqlite",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
