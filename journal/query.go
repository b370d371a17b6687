package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rustyeddy/swingtrader/ledger"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

const runColumns = `run_id, created, dataset, tickers, stop_strategy, equity_mode, config, risk_pct,
	start_date, end_date, trades, wins, losses, start_equity, end_equity, net_pnl,
	return_pct, win_rate, mean_r, median_r, skew_warning, profit_factor, max_dd_pct, failed`

const tradeColumns = `run_id, transaction_number, ticker, stop_strategy, signal_date, entry_date, exit_date,
	entry_price, entry_price_actual, exit_price, exit_price_actual, shares, initial_stop, final_stop,
	risk_amount, gross_pnl, net_pnl, slippage_cost, entry_commission, exit_commission,
	r_multiple, gross_r_multiple, exit_reason, bars_held`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r               Run
		tickers, config string
		failed          string
		pf              sql.NullFloat64
	)
	err := s.Scan(
		&r.RunID, &r.Created, &r.Dataset, &tickers, &r.StopStrategy, &r.EquityMode, &config, &r.RiskPct,
		&r.Start, &r.End, &r.Trades, &r.Wins, &r.Losses, &r.StartEquity, &r.EndEquity, &r.NetPnL,
		&r.ReturnPct, &r.WinRate, &r.MeanR, &r.MedianR, &r.SkewWarning, &pf, &r.MaxDDPct, &failed,
	)
	if err != nil {
		return Run{}, err
	}
	if tickers != "" {
		r.Tickers = strings.Split(tickers, ",")
	}
	r.Config = []byte(config)
	r.ProfitFactor = math.Inf(1)
	if pf.Valid {
		r.ProfitFactor = pf.Float64
	}
	if err := json.Unmarshal([]byte(failed), &r.Failed); err != nil {
		return Run{}, fmt.Errorf("run %s: failed tickers: %w", r.RunID, err)
	}
	return r, nil
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM backtest_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
	}
	return r, err
}

// ListRuns returns the most recent runs first; limit <= 0 returns all.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT ` + runColumns + ` FROM backtest_runs ORDER BY created DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanTrade(s scanner) (string, ledger.ClosedTrade, error) {
	var (
		runID  string
		t      ledger.ClosedTrade
		reason string
	)
	err := s.Scan(
		&runID, &t.TransactionNumber, &t.Ticker, &t.StopStrategy, &t.SignalDate, &t.EntryDate, &t.ExitDate,
		&t.EntryPriceClean, &t.EntryPriceActual, &t.ExitPriceClean, &t.ExitPriceActual,
		&t.Shares, &t.InitialStop, &t.FinalStop,
		&t.RiskAmount, &t.GrossPnL, &t.NetPnL, &t.SlippageCost, &t.EntryCommission, &t.ExitCommission,
		&t.RMultiple, &t.GrossRMultiple, &reason, &t.BarsHeld,
	)
	t.ExitReason = ledger.ExitReason(reason)
	return runID, t, err
}

// GetTrade returns one trade of a run, legs included.
func (j *SQLite) GetTrade(ctx context.Context, runID string, txn int64) (ledger.ClosedTrade, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+tradeColumns+` FROM trades
		WHERE run_id = ? AND transaction_number = ?`, runID, txn)
	_, t, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ClosedTrade{}, fmt.Errorf("trade %s/%d: %w", runID, txn, ErrNotFound)
	}
	if err != nil {
		return ledger.ClosedTrade{}, err
	}
	if t.Legs, err = j.legs(ctx, runID, txn); err != nil {
		return ledger.ClosedTrade{}, err
	}
	return t, nil
}

// ListTrades returns a run's trades in transaction order, legs included.
func (j *SQLite) ListTrades(ctx context.Context, runID string) ([]ledger.ClosedTrade, error) {
	return j.queryTrades(ctx, `
		SELECT `+tradeColumns+` FROM trades
		WHERE run_id = ?
		ORDER BY transaction_number ASC`, runID)
}

// ListTradesClosedBetween returns trades of any run whose exit date is
// within [start, end).
func (j *SQLite) ListTradesClosedBetween(ctx context.Context, start, end time.Time) ([]ledger.ClosedTrade, error) {
	return j.queryTrades(ctx, `
		SELECT `+tradeColumns+` FROM trades
		WHERE exit_date >= ? AND exit_date < ?
		ORDER BY exit_date ASC, run_id ASC, transaction_number ASC`, start.UTC(), end.UTC())
}

func (j *SQLite) queryTrades(ctx context.Context, q string, args ...any) ([]ledger.ClosedTrade, error) {
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}

	type key struct {
		run string
		txn int64
	}
	var (
		out  []ledger.ClosedTrade
		keys []key
	)
	for rows.Next() {
		runID, t, err := scanTrade(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, t)
		keys = append(keys, key{runID, t.TransactionNumber})
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, k := range keys {
		if out[i].Legs, err = j.legs(ctx, k.run, k.txn); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (j *SQLite) legs(ctx context.Context, runID string, txn int64) ([]ledger.Leg, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT signal_date, date, shares, price, price_actual, reason,
		       gross_pnl, net_pnl, slippage_cost, entry_commission, exit_commission, gross_r, net_r
		FROM trade_legs
		WHERE run_id = ? AND transaction_number = ?
		ORDER BY leg ASC`, runID, txn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Leg
	for rows.Next() {
		var l ledger.Leg
		var reason string
		if err := rows.Scan(
			&l.SignalDate, &l.Date, &l.Shares, &l.PriceClean, &l.PriceActual, &reason,
			&l.GrossPnL, &l.NetPnL, &l.SlippageCost, &l.EntryCommission, &l.ExitCommission, &l.GrossR, &l.NetR,
		); err != nil {
			return nil, err
		}
		l.Reason = ledger.ExitReason(reason)
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListEquity returns a run's equity curve in transaction order.
func (j *SQLite) ListEquity(ctx context.Context, runID string) ([]ledger.EquityPoint, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT transaction_number, equity
		FROM equity
		WHERE run_id = ?
		ORDER BY transaction_number ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.EquityPoint
	for rows.Next() {
		var p ledger.EquityPoint
		if err := rows.Scan(&p.TransactionNumber, &p.Equity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ExportRunOrg loads a run with its trades and returns the Org document.
func (j *SQLite) ExportRunOrg(ctx context.Context, runID string) (string, error) {
	r, err := j.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTrades(ctx, runID)
	if err != nil {
		return "", err
	}

	return RenderRunOrg(r, trades)
}
