package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/swingtrader/backtest"
	"github.com/rustyeddy/swingtrader/config"
	"github.com/rustyeddy/swingtrader/feed"
	"github.com/rustyeddy/swingtrader/id"
	"github.com/rustyeddy/swingtrader/journal"
	"github.com/rustyeddy/swingtrader/logging"
	"github.com/rustyeddy/swingtrader/stops"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [file.csv ...]",
	Short: "Backtest the trade lifecycle over daily bar CSVs",
	Long: `Backtest replays every ticker's bars through the configured sizing,
stop strategy and exit rules, then prints and journals the result.

Each CSV holds one ticker (named after the file) with the columns
date,open,high,low,close,volume plus atr,vwap,swing_low,swing_high,cmf,
cmf_z,atr_z and optional entry,exit flags. Use --enrich to compute the
indicator columns from raw OHLCV.

Examples:
  swingtrader backtest -c swingtrader.yaml --data data/daily
  swingtrader backtest --enrich --from 2020-01-01 data/AAPL.csv data/MSFT.csv
  swingtrader backtest --equity-mode shared --org run.org --data data/daily`,
	RunE: runBacktest,
}

var (
	btDataDir    string
	btFrom       string
	btTo         string
	btEnrich     bool
	btEquityMode string
	btWorkers    int
	btDataset    string
	btOrgPath    string
	btNoJournal  bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btDataDir, "data", "d", "", "directory of per-ticker CSV files")
	backtestCmd.Flags().StringVar(&btFrom, "from", "", "first date to replay (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "replay bars before this date (YYYY-MM-DD)")
	backtestCmd.Flags().BoolVar(&btEnrich, "enrich", false, "compute indicator columns from OHLCV")
	backtestCmd.Flags().StringVar(&btEquityMode, "equity-mode", "", "override equity_mode (isolated, shared)")
	backtestCmd.Flags().IntVarP(&btWorkers, "workers", "w", 0, "max tickers replayed at once in isolated mode (0 = all)")
	backtestCmd.Flags().StringVar(&btDataset, "dataset", "", "dataset label for the journal (default: data dir)")
	backtestCmd.Flags().StringVar(&btOrgPath, "org", "", "also write the run as an Org-mode file")
	backtestCmd.Flags().BoolVar(&btNoJournal, "no-journal", false, "do not journal this run")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return err
	}
	if btEquityMode != "" {
		cfg.EquityMode = btEquityMode
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	strat, err := cfg.Strategy()
	if err != nil {
		return fmt.Errorf("stop strategy: %w", err)
	}
	if strat.Kind() == stops.PctTrail {
		log.Warn("pct_trail ignores volatility and is a benchmark only")
	}

	opts := feed.Options{Enrich: btEnrich, Indicators: cfg.IndicatorParams()}
	if opts.From, err = parseDay(btFrom); err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	if opts.To, err = parseDay(btTo); err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	sources, err := sourcesFor(btDataDir, args, opts)
	if err != nil {
		return err
	}

	runner := &backtest.Runner{
		Rules:   cfg.Rules(),
		Stop:    strat,
		Costs:   cfg.CostModel(),
		Sources: sources,
		Options: backtest.RunnerOptions{
			Equity:  decimal.NewFromFloat(cfg.AccountValue),
			Shared:  cfg.Shared(),
			Workers: btWorkers,
		},
		Log: log,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	log.Info("backtest starting",
		zap.Int("tickers", len(sources)),
		zap.String("stop", string(strat.Kind())),
		zap.String("equity_mode", equityMode(cfg)),
	)
	res, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}
	if len(res.Failed()) == len(res.Tickers) {
		return fmt.Errorf("backtest: no ticker could be replayed")
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	created := time.Now().UTC()
	dataset := btDataset
	if dataset == "" {
		dataset = btDataDir
	}
	run := res.JournalRun(backtest.RunInfo{
		RunID:        id.At(created),
		Created:      created,
		Dataset:      dataset,
		StopStrategy: strat.Kind(),
		RiskPct:      cfg.RiskPctPerTrade,
		Config:       cfgJSON,
	})
	backtest.PrintBacktestRun(cmd.OutOrStdout(), run, res.Stats)

	if btOrgPath != "" {
		doc, err := journal.RenderRunOrg(run, res.Trades)
		if err != nil {
			return err
		}
		if err := os.WriteFile(btOrgPath, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("write org: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Org Report:    %s\n", btOrgPath)
	}

	kind := cfg.Journal.Type
	if btNoJournal {
		kind = "none"
	}
	j, err := journal.Open(kind, cfg.Journal.DBPath, cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if err := journal.Save(ctx, j, run, res.Trades, res.Stats.EquityCurve); err != nil {
		_ = j.Close()
		return fmt.Errorf("journal: %w", err)
	}
	if err := j.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	log.Info("run journaled", zap.String("run_id", run.RunID), zap.String("journal", kind))
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, func() error, error) {
	lc := cfg.Logging
	level := lc.Level
	if logLevel != "" {
		level = logLevel
	}
	return logging.New(logging.Options{
		Level:      level,
		File:       lc.File,
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAgeDays: lc.MaxAgeDays,
		Compress:   lc.Compress,
	})
}

func sourcesFor(dir string, files []string, opts feed.Options) ([]backtest.Source, error) {
	var sources []backtest.Source
	if dir != "" {
		found, err := feed.Discover(dir, opts)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			sources = append(sources, f)
		}
	}
	for _, p := range files {
		sources = append(sources, feed.File{Path: p, Symbol: feed.TickerFromPath(p), Opts: opts})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no input: pass --data or CSV files")
	}
	return sources, nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}
