// Package lifecycle drives a single ticker's position through
// PendingEntry, Open, PartiallyClosed and Closed, one bar at a time.
//
// Decisions are taken on a bar's close and filled at the open of the next
// valid bar, so no fill ever uses information from its own bar's range.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/swingtrader/costs"
	"github.com/rustyeddy/swingtrader/ledger"
	"github.com/rustyeddy/swingtrader/market"
	"github.com/rustyeddy/swingtrader/risk"
	"github.com/rustyeddy/swingtrader/stops"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNoStopFeatures rejects an entry signalled before the indicators that
// place the initial stop have warmed up.
var ErrNoStopFeatures = errors.New("lifecycle: stop features missing on signal bar")

// Recorder receives each trade once it is fully closed.
type Recorder interface {
	Record(ledger.ClosedTrade)
}

type exitOrder struct {
	reason      ledger.ExitReason
	shares      int64
	signalIndex int
}

// Manager owns one ticker's position. It is not safe for concurrent use;
// run one Manager per goroutine.
type Manager struct {
	ticker string
	rules  Rules
	stop   stops.Strategy
	costs  costs.Model
	sizer  risk.Sizer
	acct   Account
	rec    Recorder
	log    *zap.Logger

	hist     market.Series
	pos      *Position
	exit     *exitOrder
	rejected int
}

// NewManager wires a manager for ticker. log may be nil.
func NewManager(ticker string, rules Rules, stop stops.Strategy, model costs.Model, acct Account, rec Recorder, log *zap.Logger) (*Manager, error) {
	if ticker == "" {
		return nil, fmt.Errorf("lifecycle: empty ticker")
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("lifecycle: %w", err)
	}
	if stop == nil || acct == nil || rec == nil {
		return nil, fmt.Errorf("lifecycle: stop strategy, account and recorder are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		ticker: ticker,
		rules:  rules,
		stop:   stop,
		costs:  model,
		sizer:  risk.Sizer{RiskPct: rules.RiskPct},
		acct:   acct,
		rec:    rec,
		log:    log.With(zap.String("ticker", ticker), zap.String("stop", string(stop.Kind()))),
		hist:   market.Series{Ticker: ticker},
	}, nil
}

// Run validates s and steps through every bar. A DataError aborts the run;
// rejected entries do not. Positions still open when the data ends stay
// open and are visible through Position.
func (m *Manager) Run(ctx context.Context, s *market.Series) error {
	if s.Ticker != m.ticker {
		return &market.DataError{Ticker: s.Ticker, Index: -1, Reason: "series does not belong to " + m.ticker}
	}
	if err := s.Validate(); err != nil {
		return err
	}
	for i, bar := range s.Bars {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Step(bar, s.Signal(i)); err != nil {
			return err
		}
	}
	return nil
}

// Step processes the next bar: fills orders queued on the previous valid
// bar at this bar's open, then updates stops and evaluates exits and
// entries on this bar's close.
func (m *Manager) Step(bar market.Bar, sig market.Signal) error {
	i := len(m.hist.Bars)
	var prev *market.Bar
	if i > 0 {
		prev = &m.hist.Bars[i-1]
	}
	if err := market.CheckBar(m.ticker, i, prev, bar); err != nil {
		return err
	}
	m.hist.Bars = append(m.hist.Bars, bar)

	if !bar.Valid() {
		m.log.Debug("gap bar skipped", zap.Int("bar", i), zap.Time("date", bar.Date))
		return nil
	}

	m.fill(i, bar)

	if m.pos != nil && m.pos.Status.Live() && m.exit == nil {
		m.update(i, bar, sig)
	}
	if m.pos == nil && sig.Entry {
		m.signal(i, bar)
	}
	return nil
}

// Position returns a copy of the current position, or nil when flat.
func (m *Manager) Position() *Position {
	if m.pos == nil {
		return nil
	}
	return m.pos.clone()
}

// PendingExit reports an exit decided on the last bar that has not filled.
func (m *Manager) PendingExit() (ledger.ExitReason, bool) {
	if m.exit == nil {
		return "", false
	}
	return m.exit.reason, true
}

// Rejected counts entry signals turned away by the sizer or stop checks.
func (m *Manager) Rejected() int { return m.rejected }

// Bars returns the number of bars stepped so far.
func (m *Manager) Bars() int { return len(m.hist.Bars) }

func (m *Manager) signal(i int, bar market.Bar) {
	if !m.acct.Equity().IsPositive() {
		m.log.Warn("equity exhausted, entry skipped", zap.Time("date", bar.Date))
		m.rejected++
		return
	}
	if !bar.HasStopFeatures() {
		m.reject(bar, ErrNoStopFeatures)
		return
	}
	// Probe the stop against the signal close so obviously broken setups
	// never become pending orders. The real stop is placed at the fill.
	if err := risk.CheckStop(bar.Close, m.stop.Initial(bar, bar.Close)); err != nil {
		m.reject(bar, err)
		return
	}
	m.pos = &Position{
		Ticker:      m.ticker,
		Strategy:    m.stop.Kind(),
		Status:      PendingEntry,
		SignalDate:  bar.Date,
		signalIndex: i,
	}
}

func (m *Manager) reject(bar market.Bar, err error) {
	m.rejected++
	m.log.Info("entry rejected", zap.Time("date", bar.Date), zap.Error(err))
}

func (m *Manager) fill(i int, bar market.Bar) {
	switch {
	case m.pos != nil && m.pos.Status == PendingEntry:
		m.fillEntry(i, bar)
	case m.exit != nil:
		m.fillExit(i, bar)
	}
}

func (m *Manager) fillEntry(i int, bar market.Bar) {
	p := m.pos
	signal := m.hist.Bars[p.signalIndex]
	price := bar.Open
	equity := m.acct.Equity()

	stop := m.stop.Initial(signal, price)
	size, err := m.sizer.Size(equity, price, stop)
	if err == nil {
		size, err = size.Cap(equity, m.costs.EntryFill(price, 1).Actual)
	}
	if err != nil {
		m.pos = nil
		m.reject(bar, err)
		return
	}

	fill := m.costs.EntryFill(price, size.Shares)
	p.Status = Open
	p.EntryDate = bar.Date
	p.EntryIndex = i
	p.heldAt = i
	p.EntryPriceClean = price
	p.EntryPriceActual = fill.Actual.InexactFloat64()
	p.Shares = size.Shares
	p.RemainingShares = size.Shares
	p.InitialStop = stop
	p.CurrentStop = stop
	p.EntryATR = signal.ATR
	p.RiskPerShare = size.RiskPerShare
	p.RiskAmount = size.RiskAmount
	p.PeakPrice = price
	p.rps = size.RiskPerShareDecimal()
	p.entry = fill

	m.log.Info("entry filled",
		zap.Time("date", bar.Date),
		zap.Int64("shares", p.Shares),
		zap.Float64("price", price),
		zap.Float64("stop", stop),
		zap.String("risk", p.RiskAmount.StringFixed(2)),
	)
}

func (m *Manager) update(i int, bar market.Bar, sig market.Signal) {
	p := m.pos
	p.hold(i)
	p.PeakPrice = math.Max(p.PeakPrice, bar.High)

	switch p.Status {
	case Open:
		p.CurrentStop = stops.Ratchet(p.CurrentStop, m.stop.Compute(p.stopState(), bar))
	case PartiallyClosed:
		if low, ok := m.hist.LowestLow(i-m.rules.TrailLookbackBars, i-1); ok {
			p.TrailingStop = stops.Ratchet(p.TrailingStop, low)
		}
		p.CurrentStop = p.TrailingStop
	}

	reason, shares := m.evaluate(bar, sig)
	if reason == "" {
		return
	}
	m.exit = &exitOrder{reason: reason, shares: shares, signalIndex: i}
	m.log.Debug("exit queued",
		zap.Time("date", bar.Date),
		zap.String("reason", string(reason)),
		zap.Int64("shares", shares),
	)
}

// evaluate applies the exit rules in priority order. For an Open position:
// stop, time stop, signal exit, profit target. Once partially closed the
// trailing stop replaces both the strategy stop and the profit target.
func (m *Manager) evaluate(bar market.Bar, sig market.Signal) (ledger.ExitReason, int64) {
	p := m.pos
	all := p.RemainingShares
	r := p.UnrealizedR(bar.Close)

	if p.Status == Open && bar.Low <= p.CurrentStop {
		return ledger.ExitStop, all
	}
	if m.rules.TimeStopBars > 0 && p.BarsHeld >= m.rules.TimeStopBars && r < 1.0 {
		return ledger.ExitTimeStop, all
	}
	if bar.CMF < 0 || bar.Close < bar.VWAP || sig.Exit {
		return ledger.ExitSignal, all
	}
	if p.Status == Open && r >= m.rules.ProfitTargetR {
		return ledger.ExitProfitTarget, m.partialShares()
	}
	if p.Status == PartiallyClosed && bar.Low <= p.TrailingStop {
		return ledger.ExitTrailStop, all
	}
	return "", 0
}

func (m *Manager) partialShares() int64 {
	n := int64(math.Floor(float64(m.pos.RemainingShares) * m.rules.ProfitExitPct))
	if n < 1 {
		n = 1
	}
	if n > m.pos.RemainingShares {
		n = m.pos.RemainingShares
	}
	return n
}

func (m *Manager) fillExit(i int, bar market.Bar) {
	p := m.pos
	o := m.exit
	m.exit = nil

	shares := o.shares
	if shares > p.RemainingShares {
		shares = p.RemainingShares
	}
	exit := m.costs.ExitFill(bar.Open, shares)
	leg := costs.Settle(p.entry.Portion(shares), exit)
	risked := p.rps.Mul(decimal.NewFromInt(shares))

	p.legs = append(p.legs, ledger.Leg{
		SignalDate:      m.hist.Bars[o.signalIndex].Date,
		Date:            bar.Date,
		Shares:          shares,
		PriceClean:      bar.Open,
		PriceActual:     exit.Actual.InexactFloat64(),
		Reason:          o.reason,
		GrossPnL:        leg.Gross,
		NetPnL:          leg.Net,
		SlippageCost:    leg.Slippage,
		EntryCommission: leg.EntryCommission,
		ExitCommission:  leg.ExitCommission,
		GrossR:          leg.Gross.Div(risked).InexactFloat64(),
		NetR:            leg.Net.Div(risked).InexactFloat64(),
	})
	p.RemainingShares -= shares
	p.hold(i)
	m.acct.Apply(m.ticker, leg.Net)

	m.log.Info("exit filled",
		zap.Time("date", bar.Date),
		zap.String("reason", string(o.reason)),
		zap.Int64("shares", shares),
		zap.Float64("price", bar.Open),
		zap.String("net", leg.Net.StringFixed(2)),
	)

	if p.RemainingShares == 0 {
		m.close()
		return
	}

	// Arm the trailing stop from the lows leading into the trigger bar.
	// This is the only time the stop may move down.
	p.Status = PartiallyClosed
	from := o.signalIndex - m.rules.TrailLookbackBars + 1
	if low, ok := m.hist.LowestLow(from, o.signalIndex); ok {
		p.TrailingStop = low
	} else {
		p.TrailingStop = p.CurrentStop
	}
	p.CurrentStop = p.TrailingStop
}

func (m *Manager) close() {
	p := m.pos
	p.Status = Closed

	t := ledger.ClosedTrade{
		Ticker:           p.Ticker,
		StopStrategy:     string(p.Strategy),
		SignalDate:       p.SignalDate,
		EntryDate:        p.EntryDate,
		EntryPriceClean:  p.EntryPriceClean,
		EntryPriceActual: p.EntryPriceActual,
		Shares:           p.Shares,
		InitialStop:      p.InitialStop,
		FinalStop:        p.CurrentStop,
		RiskAmount:       p.RiskAmount,
		Legs:             p.legs,
		BarsHeld:         p.BarsHeld,
	}

	var clean, actual float64
	for _, l := range p.legs {
		t.GrossPnL = t.GrossPnL.Add(l.GrossPnL)
		t.NetPnL = t.NetPnL.Add(l.NetPnL)
		t.SlippageCost = t.SlippageCost.Add(l.SlippageCost)
		t.EntryCommission = t.EntryCommission.Add(l.EntryCommission)
		t.ExitCommission = t.ExitCommission.Add(l.ExitCommission)
		clean += float64(l.Shares) * l.PriceClean
		actual += float64(l.Shares) * l.PriceActual
	}
	last := p.legs[len(p.legs)-1]
	t.ExitDate = last.Date
	t.ExitReason = last.Reason
	t.ExitPriceClean = clean / float64(p.Shares)
	t.ExitPriceActual = actual / float64(p.Shares)

	risked := p.rps.Mul(decimal.NewFromInt(p.Shares))
	t.RMultiple = t.NetPnL.Div(risked).InexactFloat64()
	t.GrossRMultiple = t.GrossPnL.Div(risked).InexactFloat64()

	m.pos = nil
	m.rec.Record(t)
	m.log.Info("trade closed",
		zap.String("reason", string(t.ExitReason)),
		zap.Float64("r", t.RMultiple),
		zap.String("net", t.NetPnL.StringFixed(2)),
		zap.Int("bars_held", t.BarsHeld),
	)
}
