// Package backtest replays many tickers through their own lifecycle
// managers and collects the closed trades into one ledger.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/swingtrader/costs"
	"github.com/rustyeddy/swingtrader/ledger"
	"github.com/rustyeddy/swingtrader/lifecycle"
	"github.com/rustyeddy/swingtrader/market"
	"github.com/rustyeddy/swingtrader/stops"
)

// Source yields one ticker's bars. feed.File satisfies it.
type Source interface {
	Ticker() string
	Load() (*market.Series, error)
}

// SeriesSource serves an already loaded series.
type SeriesSource struct {
	Series *market.Series
}

func (s SeriesSource) Ticker() string { return s.Series.Ticker }

func (s SeriesSource) Load() (*market.Series, error) { return s.Series, nil }

// RunnerOptions controls how the runner behaves.
type RunnerOptions struct {
	// Equity is the starting capital: per ticker when isolated, for the
	// whole portfolio when Shared.
	Equity decimal.Decimal
	Shared bool
	// Workers bounds concurrent tickers in isolated mode; 0 means one
	// goroutine per ticker.
	Workers int
}

// Runner drives every source through a lifecycle.Manager.
type Runner struct {
	Rules   lifecycle.Rules
	Stop    stops.Strategy
	Costs   costs.Model
	Sources []Source
	Options RunnerOptions
	Log     *zap.Logger
}

// TickerResult is the outcome for one ticker.
type TickerResult struct {
	Ticker   string
	Bars     int
	Trades   int
	Rejected int
	// Position still open (or pending) when the data ran out.
	Open *lifecycle.Position
	// Err is set when the ticker's data could not be used; its trades are
	// discarded and the other tickers are unaffected.
	Err error
	// NetPnL is everything booked to the account, including exit legs of
	// a position that is still open.
	NetPnL decimal.Decimal
}

// Failed reports whether the ticker was dropped.
func (t TickerResult) Failed() bool { return t.Err != nil }

// Result is the outcome of a whole run.
type Result struct {
	Shared  bool
	Tickers []TickerResult // sorted by ticker
	Trades  []ledger.ClosedTrade
	Stats   ledger.Stats

	// Account equity. EndEquity can differ from Stats.EndEquity by the
	// partial exits of positions still open.
	StartEquity decimal.Decimal
	EndEquity   decimal.Decimal

	// First and last bar dates over the tickers that ran.
	Start time.Time
	End   time.Time
}

// Failed maps each dropped ticker to its error text.
func (r *Result) Failed() map[string]string {
	out := map[string]string{}
	for _, t := range r.Tickers {
		if t.Failed() {
			out[t.Ticker] = t.Err.Error()
		}
	}
	return out
}

// OpenPositions counts tickers that ended with a live or pending position.
func (r *Result) OpenPositions() int {
	n := 0
	for _, t := range r.Tickers {
		if t.Open != nil {
			n++
		}
	}
	return n
}

func (r *Runner) validate() error {
	if r.Stop == nil {
		return fmt.Errorf("backtest: Stop is required")
	}
	if len(r.Sources) == 0 {
		return fmt.Errorf("backtest: no sources")
	}
	if !r.Options.Equity.IsPositive() {
		return fmt.Errorf("backtest: equity must be positive")
	}
	seen := map[string]bool{}
	for _, s := range r.Sources {
		if seen[s.Ticker()] {
			return fmt.Errorf("backtest: duplicate ticker %q", s.Ticker())
		}
		seen[s.Ticker()] = true
	}
	return r.Rules.Validate()
}

// Run executes the backtest. Bad data on one ticker is reported on its
// TickerResult; only cancellation and configuration errors fail the run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if r.Log == nil {
		r.Log = zap.NewNop()
	}

	var (
		res *Result
		err error
	)
	if r.Options.Shared {
		res, err = r.runShared(ctx)
	} else {
		res, err = r.runIsolated(ctx)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(res.Tickers, func(i, j int) bool { return res.Tickers[i].Ticker < res.Tickers[j].Ticker })
	res.Stats = ledger.Compute(res.Trades, res.StartEquity)
	r.Log.Info("backtest finished",
		zap.Bool("shared", res.Shared),
		zap.Int("tickers", len(res.Tickers)),
		zap.Int("failed", len(res.Failed())),
		zap.Int("trades", len(res.Trades)),
		zap.String("net_pnl", res.Stats.NetPnL.StringFixed(2)),
	)
	return res, nil
}

// runIsolated gives every ticker its own account and goroutine. Trades are
// buffered per ticker and numbered after all workers finish.
func (r *Runner) runIsolated(ctx context.Context) (*Result, error) {
	out := make([]TickerResult, len(r.Sources))
	bufs := make([]ledger.Buffer, len(r.Sources))
	spans := make([][2]time.Time, len(r.Sources))

	g, gctx := errgroup.WithContext(ctx)
	if r.Options.Workers > 0 {
		g.SetLimit(r.Options.Workers)
	}
	for i, src := range r.Sources {
		g.Go(func() error {
			tr := TickerResult{Ticker: src.Ticker()}
			defer func() { out[i] = tr }()

			s, err := src.Load()
			if err != nil {
				tr.Err = err
				r.Log.Warn("ticker skipped", zap.String("ticker", tr.Ticker), zap.Error(err))
				return nil
			}
			acct := lifecycle.NewIsolatedAccount(r.Options.Equity)
			m, err := lifecycle.NewManager(tr.Ticker, r.Rules, r.Stop, r.Costs, acct, &bufs[i], r.Log)
			if err != nil {
				return err
			}
			err = m.Run(gctx, s)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if err != nil {
				tr.Err = err
				bufs[i] = ledger.Buffer{}
				r.Log.Warn("ticker aborted", zap.String("ticker", tr.Ticker), zap.Error(err))
				return nil
			}

			tr.Bars = m.Bars()
			tr.Trades = len(bufs[i].Trades)
			tr.Rejected = m.Rejected()
			tr.Open = m.Position()
			tr.NetPnL = acct.Equity().Sub(acct.Start())
			if s.Len() > 0 {
				spans[i] = [2]time.Time{s.Bars[0].Date, s.Bars[s.Len()-1].Date}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Tickers: out}
	led := ledger.New()
	var all []ledger.ClosedTrade
	for i, tr := range out {
		if tr.Failed() {
			continue
		}
		all = append(all, bufs[i].Trades...)
		res.StartEquity = res.StartEquity.Add(r.Options.Equity)
		res.EndEquity = res.EndEquity.Add(r.Options.Equity).Add(tr.NetPnL)
		res.widen(spans[i])
	}
	led.AppendAll(all)
	res.Trades = led.Trades()
	return res, nil
}

// runShared steps all tickers date by date against one account so capital
// released by one ticker can size the next entry on another.
func (r *Runner) runShared(ctx context.Context) (*Result, error) {
	acct := lifecycle.NewSharedAccount(r.Options.Equity)
	led := ledger.New()
	res := &Result{Shared: true, StartEquity: r.Options.Equity}

	type lane struct {
		tr     *TickerResult
		series *market.Series
		m      *lifecycle.Manager
		next   int
	}
	trs := make([]TickerResult, len(r.Sources))
	var lanes []*lane
	dates := map[int64]time.Time{}

	for i, src := range r.Sources {
		trs[i] = TickerResult{Ticker: src.Ticker()}
		tr := &trs[i]
		s, err := src.Load()
		if err == nil && s.Ticker != tr.Ticker {
			err = &market.DataError{Ticker: s.Ticker, Index: -1, Reason: "series does not belong to " + tr.Ticker}
		}
		if err == nil {
			err = s.Validate()
		}
		if err != nil {
			tr.Err = err
			r.Log.Warn("ticker skipped", zap.String("ticker", tr.Ticker), zap.Error(err))
			continue
		}
		m, err := lifecycle.NewManager(tr.Ticker, r.Rules, r.Stop, r.Costs, acct, led, r.Log)
		if err != nil {
			return nil, err
		}
		for _, b := range s.Bars {
			dates[b.Date.UnixNano()] = b.Date
		}
		if s.Len() > 0 {
			res.widen([2]time.Time{s.Bars[0].Date, s.Bars[s.Len()-1].Date})
		}
		lanes = append(lanes, &lane{tr: tr, series: s, m: m})
	}
	sort.Slice(lanes, func(i, j int) bool { return lanes[i].tr.Ticker < lanes[j].tr.Ticker })

	calendar := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		calendar = append(calendar, d)
	}
	sort.Slice(calendar, func(i, j int) bool { return calendar[i].Before(calendar[j]) })

	for _, d := range calendar {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, l := range lanes {
			if l.tr.Failed() || l.next >= l.series.Len() || !l.series.Bars[l.next].Date.Equal(d) {
				continue
			}
			if err := l.m.Step(l.series.Bars[l.next], l.series.Signal(l.next)); err != nil {
				l.tr.Err = err
				r.Log.Warn("ticker aborted", zap.String("ticker", l.tr.Ticker), zap.Error(err))
				continue
			}
			l.next++
		}
	}

	for _, l := range lanes {
		if l.tr.Failed() {
			continue
		}
		l.tr.Bars = l.m.Bars()
		l.tr.Rejected = l.m.Rejected()
		l.tr.Open = l.m.Position()
		l.tr.NetPnL = acct.Contribution(l.tr.Ticker)
	}

	res.Tickers = trs
	res.Trades = led.Trades()
	for i := range res.Tickers {
		for _, t := range res.Trades {
			if t.Ticker == res.Tickers[i].Ticker {
				res.Tickers[i].Trades++
			}
		}
	}
	res.EndEquity = acct.Equity()
	return res, nil
}

func (r *Result) widen(span [2]time.Time) {
	if span[0].IsZero() {
		return
	}
	if r.Start.IsZero() || span[0].Before(r.Start) {
		r.Start = span[0]
	}
	if span[1].After(r.End) {
		r.End = span[1]
	}
}
