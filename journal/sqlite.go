package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/swingtrader/ledger"
)

type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the journal database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(ctx context.Context, r Run) error {
	failed, err := json.Marshal(r.Failed)
	if err != nil {
		return err
	}
	var pf sql.NullFloat64
	if !math.IsInf(r.ProfitFactor, 0) && !math.IsNaN(r.ProfitFactor) {
		pf = sql.NullFloat64{Float64: r.ProfitFactor, Valid: true}
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO backtest_runs
		(run_id, created, dataset, tickers, stop_strategy, equity_mode, config, risk_pct,
		 start_date, end_date, trades, wins, losses, start_equity, end_equity, net_pnl,
		 return_pct, win_rate, mean_r, median_r, skew_warning, profit_factor, max_dd_pct, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Dataset, strings.Join(r.Tickers, ","), r.StopStrategy, r.EquityMode,
		string(r.Config), r.RiskPct, r.Start.UTC(), r.End.UTC(), r.Trades, r.Wins, r.Losses,
		r.StartEquity, r.EndEquity, r.NetPnL, r.ReturnPct, r.WinRate, r.MeanR, r.MedianR,
		r.SkewWarning, pf, r.MaxDDPct, string(failed),
	)
	return err
}

// RecordTrade stores a closed trade and its legs atomically.
func (j *SQLite) RecordTrade(ctx context.Context, runID string, t ledger.ClosedTrade) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trades
		(run_id, transaction_number, ticker, stop_strategy, signal_date, entry_date, exit_date,
		 entry_price, entry_price_actual, exit_price, exit_price_actual, shares, initial_stop, final_stop,
		 risk_amount, gross_pnl, net_pnl, slippage_cost, entry_commission, exit_commission,
		 r_multiple, gross_r_multiple, exit_reason, bars_held)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, t.TransactionNumber, t.Ticker, t.StopStrategy,
		t.SignalDate.UTC(), t.EntryDate.UTC(), t.ExitDate.UTC(),
		t.EntryPriceClean, t.EntryPriceActual, t.ExitPriceClean, t.ExitPriceActual,
		t.Shares, t.InitialStop, t.FinalStop,
		t.RiskAmount, t.GrossPnL, t.NetPnL, t.SlippageCost, t.EntryCommission, t.ExitCommission,
		t.RMultiple, t.GrossRMultiple, string(t.ExitReason), t.BarsHeld,
	)
	if err != nil {
		return err
	}

	for i, l := range t.Legs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO trade_legs
			(run_id, transaction_number, leg, signal_date, date, shares, price, price_actual, reason,
			 gross_pnl, net_pnl, slippage_cost, entry_commission, exit_commission, gross_r, net_r)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, t.TransactionNumber, i, l.SignalDate.UTC(), l.Date.UTC(), l.Shares,
			l.PriceClean, l.PriceActual, string(l.Reason),
			l.GrossPnL, l.NetPnL, l.SlippageCost, l.EntryCommission, l.ExitCommission, l.GrossR, l.NetR,
		)
		if err != nil {
			return fmt.Errorf("leg %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (j *SQLite) RecordEquity(ctx context.Context, runID string, p ledger.EquityPoint) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO equity (run_id, transaction_number, equity)
		VALUES (?, ?, ?)`,
		runID, p.TransactionNumber, p.Equity,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

var _ Journal = (*SQLite)(nil)
