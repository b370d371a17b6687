package backtest

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rustyeddy/swingtrader/journal"
	"github.com/rustyeddy/swingtrader/ledger"
	"github.com/rustyeddy/swingtrader/stops"
)

// RunInfo is what the caller knows about a run that the result does not.
type RunInfo struct {
	RunID        string
	Created      time.Time
	Dataset      string
	StopStrategy stops.Kind
	RiskPct      float64
	Config       []byte
}

// Notes are the observations worth printing next to the numbers.
func (r *Result) Notes(kind stops.Kind) []string {
	var notes []string
	st := r.Stats
	switch {
	case st.SkewWarning && st.MedianR > 0:
		notes = append(notes, fmt.Sprintf("mean R %.3f is %.1fx median R %.3f: results are driven by a few outliers",
			st.MeanR, st.MeanMedianRatio, st.MedianR))
	case st.SkewWarning:
		notes = append(notes, fmt.Sprintf("mean R %.3f is above median R %.3f: results are driven by a few outliers",
			st.MeanR, st.MedianR))
	}
	if kind == stops.PctTrail {
		notes = append(notes, "pct_trail ignores volatility and is kept as a benchmark only")
	}
	if n := r.OpenPositions(); n > 0 {
		notes = append(notes, fmt.Sprintf("%d position(s) still open at end of data are not in the ledger", n))
	}
	rejected := 0
	for _, t := range r.Tickers {
		rejected += t.Rejected
	}
	if rejected > 0 {
		notes = append(notes, fmt.Sprintf("%d entry signal(s) rejected by sizing or stop checks", rejected))
	}
	return notes
}

// JournalRun builds the journal summary row for the result.
func (r *Result) JournalRun(info RunInfo) journal.Run {
	st := r.Stats
	run := journal.Run{
		RunID:        info.RunID,
		Created:      info.Created,
		Dataset:      info.Dataset,
		StopStrategy: string(info.StopStrategy),
		EquityMode:   "isolated",
		Config:       info.Config,
		RiskPct:      info.RiskPct,
		Start:        r.Start,
		End:          r.End,
		Trades:       st.Trades,
		Wins:         st.Wins,
		Losses:       st.Losses,
		StartEquity:  st.StartEquity,
		EndEquity:    st.EndEquity,
		NetPnL:       st.NetPnL,
		WinRate:      st.WinRate,
		MeanR:        st.MeanR,
		MedianR:      st.MedianR,
		SkewWarning:  st.SkewWarning,
		ProfitFactor: st.ProfitFactor,
		MaxDDPct:     st.MaxDrawdownPct,
		Notes:        r.Notes(info.StopStrategy),
	}
	if r.Shared {
		run.EquityMode = "shared"
	}
	if st.StartEquity.IsPositive() {
		run.ReturnPct = st.NetPnL.Div(st.StartEquity).Shift(2).InexactFloat64()
	}
	for _, t := range r.Tickers {
		run.Tickers = append(run.Tickers, t.Ticker)
	}
	if failed := r.Failed(); len(failed) > 0 {
		run.Failed = failed
	}
	return run
}

func PrintBacktestRun(w io.Writer, run journal.Run, st ledger.Stats) {
	line := strings.Repeat("-", 50)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, strings.Repeat("=", 50))

	fmt.Fprintf(w, "Run ID:        %s\n", run.RunID)
	fmt.Fprintf(w, "Created:       %s\n", run.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Stop Strategy: %s\n", run.StopStrategy)
	fmt.Fprintf(w, "Equity Mode:   %s\n", run.EquityMode)
	fmt.Fprintf(w, "Tickers:       %s\n", strings.Join(run.Tickers, ", "))
	if run.Dataset != "" {
		fmt.Fprintf(w, "Dataset:       %s\n", run.Dataset)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Start:         %s\n", run.Start.Format(time.DateOnly))
	fmt.Fprintf(w, "End:           %s\n", run.End.Format(time.DateOnly))
	fmt.Fprintf(w, "Risk per Trade: %.2f%%\n", run.RiskPct)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Trades:        %d\n", run.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", run.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", run.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", run.WinRate*100)
	fmt.Fprintf(w, "Median R:      %.3f\n", run.MedianR)
	fmt.Fprintf(w, "Mean R:        %.3f", run.MeanR)
	if run.SkewWarning {
		fmt.Fprint(w, "  (outlier-driven)")
	}
	fmt.Fprintln(w)

	if len(st.ExitReasons) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Exit Reasons (trade / leg)")
		fmt.Fprintln(w, line)
		for _, reason := range ledger.ExitReasons {
			fmt.Fprintf(w, "%-14s %d / %d\n", reason+":", st.ExitReasons[reason], st.LegExitReasons[reason])
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Start Equity:  %s\n", run.StartEquity.StringFixed(2))
	fmt.Fprintf(w, "End Equity:    %s\n", run.EndEquity.StringFixed(2))
	fmt.Fprintf(w, "Net P/L:       %s\n", run.NetPnL.StringFixed(2))
	fmt.Fprintf(w, "Return:        %.2f%%\n", run.ReturnPct)
	switch {
	case math.IsInf(run.ProfitFactor, 1):
		fmt.Fprintln(w, "Profit Factor: inf")
	case run.ProfitFactor > 0:
		fmt.Fprintf(w, "Profit Factor: %.2f\n", run.ProfitFactor)
	}
	if run.MaxDDPct > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", run.MaxDDPct)
	}

	if len(st.ByTicker) > 1 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "By Ticker")
		fmt.Fprintln(w, line)
		tickers := make([]string, 0, len(st.ByTicker))
		for t := range st.ByTicker {
			tickers = append(tickers, t)
		}
		sort.Strings(tickers)
		for _, t := range tickers {
			ts := st.ByTicker[t]
			fmt.Fprintf(w, "%-8s trades %3d  wins %3d  median R %6.3f  net %s\n",
				t, ts.Trades, ts.Wins, ts.MedianR, ts.NetPnL.StringFixed(2))
		}
	}

	if len(run.Failed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failed Tickers")
		fmt.Fprintln(w, line)
		names := make([]string, 0, len(run.Failed))
		for t := range run.Failed {
			names = append(names, t)
		}
		sort.Strings(names)
		for _, t := range names {
			fmt.Fprintf(w, "- %s: %s\n", t, run.Failed[t])
		}
	}

	if len(run.Notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Observations")
		fmt.Fprintln(w, line)
		for _, note := range run.Notes {
			fmt.Fprintf(w, "- %s\n", note)
		}
	}

	fmt.Fprintln(w)
}
