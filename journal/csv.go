package journal

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/rustyeddy/swingtrader/ledger"
)

// TradeHeader is the first row of a CSV trade journal.
var TradeHeader = []string{
	"run_id", "transaction_number", "ticker", "stop_strategy",
	"signal_date", "entry_date", "exit_date",
	"entry_price", "entry_price_actual", "exit_price", "exit_price_actual",
	"shares", "initial_stop", "final_stop", "risk_amount",
	"gross_pnl", "net_pnl", "slippage_cost", "commission",
	"r_multiple", "gross_r_multiple", "exit_reason", "legs", "bars_held",
}

// EquityHeader is the first row of a CSV equity journal.
var EquityHeader = []string{"run_id", "transaction_number", "equity"}

// CSVJournal appends trades and equity points to two CSV files. Run
// summaries are not kept; use the SQLite journal for those.
type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		_ = tf.Close()
		return nil, err
	}

	j := &CSVJournal{trades: csv.NewWriter(tf), equity: csv.NewWriter(ef), tf: tf, ef: ef}
	if err := j.write(j.trades, TradeHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	if err := j.write(j.equity, EquityHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) write(w *csv.Writer, rec []string) error {
	if err := w.Write(rec); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) RecordRun(context.Context, Run) error { return nil }

func (j *CSVJournal) RecordTrade(_ context.Context, runID string, t ledger.ClosedTrade) error {
	return j.write(j.trades, []string{
		runID,
		strconv.FormatInt(t.TransactionNumber, 10),
		t.Ticker,
		t.StopStrategy,
		day(t.SignalDate),
		day(t.EntryDate),
		day(t.ExitDate),
		f(t.EntryPriceClean),
		f(t.EntryPriceActual),
		f(t.ExitPriceClean),
		f(t.ExitPriceActual),
		strconv.FormatInt(t.Shares, 10),
		f(t.InitialStop),
		f(t.FinalStop),
		t.RiskAmount.StringFixed(2),
		t.GrossPnL.StringFixed(2),
		t.NetPnL.StringFixed(2),
		t.SlippageCost.StringFixed(4),
		t.TotalCommission().StringFixed(4),
		f(t.RMultiple),
		f(t.GrossRMultiple),
		string(t.ExitReason),
		strconv.Itoa(len(t.Legs)),
		strconv.Itoa(t.BarsHeld),
	})
}

func (j *CSVJournal) RecordEquity(_ context.Context, runID string, p ledger.EquityPoint) error {
	return j.write(j.equity, []string{
		runID,
		strconv.FormatInt(p.TransactionNumber, 10),
		p.Equity.StringFixed(2),
	})
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	j.equity.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	if err := j.equity.Error(); err != nil {
		return err
	}
	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

var _ Journal = (*CSVJournal)(nil)

func day(t time.Time) string {
	return t.Format("2006-01-02")
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
