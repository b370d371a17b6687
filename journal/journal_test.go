package journal

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/swingtrader/ledger"
)

func day0(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func testTrade(txn int64, ticker string, net string, legs int) ledger.ClosedTrade {
	t := ledger.ClosedTrade{
		Ticker:            ticker,
		TransactionNumber: txn,
		StopStrategy:      "static",
		SignalDate:        day0(0),
		EntryDate:         day0(1),
		ExitDate:          day0(5 + int(txn)),
		EntryPriceClean:   100,
		EntryPriceActual:  100.05,
		ExitPriceClean:    104,
		ExitPriceActual:   103.948,
		Shares:            100,
		InitialStop:       98,
		FinalStop:         99.5,
		RiskAmount:        decimal.RequireFromString("200"),
		GrossPnL:          decimal.RequireFromString("400"),
		NetPnL:            decimal.RequireFromString(net),
		SlippageCost:      decimal.RequireFromString("10.2"),
		EntryCommission:   decimal.RequireFromString("0.5"),
		ExitCommission:    decimal.RequireFromString("0.5"),
		RMultiple:         1.9,
		GrossRMultiple:    2,
		ExitReason:        ledger.ExitTrailStop,
		BarsHeld:          4,
	}
	for i := 0; i < legs; i++ {
		t.Legs = append(t.Legs, ledger.Leg{
			SignalDate:  day0(3 + i),
			Date:        day0(4 + i),
			Shares:      t.Shares / int64(legs),
			PriceClean:  104,
			PriceActual: 103.948,
			Reason:      ledger.ExitProfitTarget,
			GrossPnL:    decimal.RequireFromString("200"),
			NetPnL:      decimal.RequireFromString("189.4"),
			GrossR:      1,
			NetR:        0.947,
		})
	}
	return t
}

func testRun(id string) Run {
	return Run{
		RunID:        id,
		Created:      time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
		Dataset:      "testdata",
		Tickers:      []string{"AAA", "BBB"},
		StopStrategy: "static",
		EquityMode:   "isolated",
		Config:       []byte(`{"account_value":100000}`),
		RiskPct:      0.75,
		Start:        day0(0),
		End:          day0(30),
		Trades:       2,
		Wins:         2,
		StartEquity:  decimal.NewFromInt(100000),
		EndEquity:    decimal.RequireFromString("100759.20"),
		NetPnL:       decimal.RequireFromString("759.20"),
		ReturnPct:    0.7592,
		WinRate:      1,
		MeanR:        1.9,
		MedianR:      1.9,
		ProfitFactor: math.Inf(1),
		Failed:       map[string]string{"CCC": "row 4: high below low"},
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	r := testRun("run-1")
	trades := []ledger.ClosedTrade{
		testTrade(1, "AAA", "379.60", 2),
		testTrade(2, "BBB", "379.60", 1),
	}
	curve := []ledger.EquityPoint{
		{TransactionNumber: 0, Equity: decimal.NewFromInt(100000)},
		{TransactionNumber: 1, Equity: decimal.RequireFromString("100379.60")},
		{TransactionNumber: 2, Equity: decimal.RequireFromString("100759.20")},
	}
	require.NoError(t, Save(ctx, j, r, trades, curve))

	got, err := j.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, r.Tickers, got.Tickers)
	assert.True(t, got.Created.Equal(r.Created))
	assert.True(t, got.EndEquity.Equal(r.EndEquity))
	assert.True(t, math.IsInf(got.ProfitFactor, 1), "missing profit factor reads back as +Inf")
	assert.Equal(t, r.Failed, got.Failed)
	assert.JSONEq(t, string(r.Config), string(got.Config))

	ts, err := j.ListTrades(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, "AAA", ts[0].Ticker)
	assert.True(t, ts[0].NetPnL.Equal(decimal.RequireFromString("379.60")))
	assert.Equal(t, ledger.ExitTrailStop, ts[0].ExitReason)
	require.Len(t, ts[0].Legs, 2)
	assert.Equal(t, ledger.ExitProfitTarget, ts[0].Legs[0].Reason)
	assert.True(t, ts[0].Legs[1].Date.Equal(day0(5)))
	assert.Len(t, ts[1].Legs, 1)

	one, err := j.GetTrade(ctx, "run-1", 2)
	require.NoError(t, err)
	assert.Equal(t, "BBB", one.Ticker)
	assert.Equal(t, 4, one.BarsHeld)

	eq, err := j.ListEquity(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, eq, 3)
	assert.True(t, eq[2].Equity.Equal(decimal.RequireFromString("100759.20")))
}

func TestSQLiteNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	_, err = j.GetRun(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = j.GetTrade(ctx, "nope", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteFinitePFAndListRuns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	older := testRun("run-a")
	older.ProfitFactor = 1.75
	newer := testRun("run-b")
	newer.Created = older.Created.Add(time.Hour)
	require.NoError(t, j.RecordRun(ctx, older))
	require.NoError(t, j.RecordRun(ctx, newer))

	runs, err := j.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].RunID)
	assert.InDelta(t, 1.75, runs[1].ProfitFactor, 1e-12)

	runs, err = j.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSQLiteDuplicateTradeRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	tr := testTrade(1, "AAA", "10", 2)
	require.NoError(t, j.RecordTrade(ctx, "r", tr))
	require.Error(t, j.RecordTrade(ctx, "r", tr))

	// the failed insert left no extra legs behind
	got, err := j.GetTrade(ctx, "r", 1)
	require.NoError(t, err)
	assert.Len(t, got.Legs, 2)
}

func TestListTradesClosedBetween(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	for i := int64(1); i <= 4; i++ {
		require.NoError(t, j.RecordTrade(ctx, "r", testTrade(i, "AAA", "1", 1)))
	}
	// exit dates are day0(6)..day0(9)
	got, err := j.ListTradesClosedBetween(ctx, day0(7), day0(9))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.EqualValues(t, 2, got[0].TransactionNumber)
	assert.EqualValues(t, 3, got[1].TransactionNumber)
}

func TestExportRunOrg(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, Save(ctx, j, testRun("run-1"), []ledger.ClosedTrade{testTrade(1, "AAA", "379.60", 2)}, nil))

	doc, err := j.ExportRunOrg(ctx, "run-1")
	require.NoError(t, err)
	assert.Contains(t, doc, "* BACKTEST: static AAA,BBB")
	assert.Contains(t, doc, ":RUN_ID:        run-1")
	assert.Contains(t, doc, ":NET_PNL:       759.20")
	assert.Contains(t, doc, "- CCC: row 4: high below low")
	assert.Contains(t, doc, "** Trades")
	assert.Contains(t, doc, "*** Trade 1: AAA TRAIL_STOP +1.90R")
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	tp, ep := filepath.Join(dir, "trades.csv"), filepath.Join(dir, "equity.csv")

	j, err := Open("csv", "", tp, ep)
	require.NoError(t, err)
	require.NoError(t, Save(ctx, j, testRun("run-1"),
		[]ledger.ClosedTrade{testTrade(1, "AAA", "379.60", 2)},
		[]ledger.EquityPoint{{TransactionNumber: 1, Equity: decimal.RequireFromString("100379.6")}}))
	require.NoError(t, j.Close())

	rows := readCSV(t, tp)
	require.Len(t, rows, 2)
	assert.Equal(t, TradeHeader, rows[0])
	rec := map[string]string{}
	for i, h := range rows[0] {
		rec[h] = rows[1][i]
	}
	assert.Equal(t, "run-1", rec["run_id"])
	assert.Equal(t, "2024-03-07", rec["exit_date"])
	assert.Equal(t, "379.60", rec["net_pnl"])
	assert.Equal(t, "1.0000", rec["commission"])
	assert.Equal(t, "2", rec["legs"])

	rows = readCSV(t, ep)
	assert.Equal(t, [][]string{EquityHeader, {"run-1", "1", "100379.60"}}, rows)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestOpen(t *testing.T) {
	t.Parallel()

	j, err := Open("none", "", "", "")
	require.NoError(t, err)
	assert.NoError(t, j.RecordTrade(context.Background(), "x", ledger.ClosedTrade{}))
	assert.NoError(t, j.Close())

	_, err = Open("csv", "", "", "")
	assert.Error(t, err)
	_, err = Open("mongo", "", "", "")
	assert.Error(t, err)
}

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	single := FormatTradeOrg(testTrade(3, "XYZ", "379.60", 1))
	assert.True(t, strings.HasPrefix(single, "*** Trade 3: XYZ TRAIL_STOP +1.90R\n"))
	assert.Contains(t, single, ":COSTS: 11.20\n")
	assert.NotContains(t, single, "| Date |", "single-leg trades have no leg table")

	multi := FormatTradeOrg(testTrade(4, "XYZ", "379.60", 2))
	assert.Contains(t, multi, "| 2024-03-05 | 50 | 103.9480 | PROFIT_TARGET | 0.947 |")

	both := FormatTradesOrg([]ledger.ClosedTrade{testTrade(1, "A", "1", 1), testTrade(2, "B", "1", 1)})
	assert.Equal(t, 2, strings.Count(both, ":PROPERTIES:"))
}

func TestRunWriteOrg(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "run.org")
	r := testRun("run-9")
	r.SkewWarning = true
	r.Notes = []string{"pct_trail ignores volatility"}
	require.NoError(t, r.WriteOrg(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "(outlier-driven: mean well above median)")
	assert.Contains(t, string(b), "- pct_trail ignores volatility")
}
