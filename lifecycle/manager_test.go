package lifecycle

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/rustyeddy/swingtrader/costs"
	"github.com/rustyeddy/swingtrader/ledger"
	"github.com/rustyeddy/swingtrader/market"
	"github.com/rustyeddy/swingtrader/stops"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// bar builds a healthy uptrend bar: ATR 2, VWAP one below the close and a
// swing low nine below, so a signal on close 100 gets a static stop of 90.
func bar(n int, o, h, l, c float64) market.Bar {
	return market.Bar{
		Date:     start.AddDate(0, 0, n),
		Open:     o,
		High:     h,
		Low:      l,
		Close:    c,
		Volume:   1_000_000,
		ATR:      2,
		VWAP:     c - 1,
		SwingLow: c - 9,
		CMF:      0.1,
	}
}

func gap(n int) market.Bar {
	nan := math.NaN()
	return market.Bar{Date: start.AddDate(0, 0, n), Open: nan, High: nan, Low: nan, Close: nan}
}

var entry = market.Signal{Entry: true}

func staticStop(t *testing.T) stops.Strategy {
	t.Helper()
	s, err := stops.New(stops.Static, stops.DefaultParams())
	require.NoError(t, err)
	return s
}

func testRules() Rules {
	r := DefaultRules()
	r.RiskPct = 1.0
	return r
}

func newManager(t *testing.T, rules Rules, model costs.Model) (*Manager, *IsolatedAccount, *ledger.Ledger) {
	t.Helper()
	acct := NewIsolatedAccount(decimal.NewFromInt(100_000))
	led := ledger.New()
	m, err := NewManager("TEST", rules, staticStop(t), model, acct, led, nil)
	require.NoError(t, err)
	return m, acct, led
}

type step struct {
	bar market.Bar
	sig market.Signal
}

func feed(t *testing.T, m *Manager, steps []step) {
	t.Helper()
	for _, s := range steps {
		require.NoError(t, m.Step(s.bar, s.sig))
	}
}

func TestNewManagerValidates(t *testing.T) {
	t.Parallel()

	acct := NewIsolatedAccount(decimal.NewFromInt(1000))
	led := ledger.New()

	bad := testRules()
	bad.ProfitExitPct = 1.5
	_, err := NewManager("X", bad, staticStop(t), costs.Model{}, acct, led, nil)
	assert.Error(t, err)

	_, err = NewManager("", testRules(), staticStop(t), costs.Model{}, acct, led, nil)
	assert.Error(t, err)

	_, err = NewManager("X", testRules(), nil, costs.Model{}, acct, led, nil)
	assert.Error(t, err)
}

func TestEntryFillsNextOpen(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(t, testRules(), costs.Model{})

	require.NoError(t, m.Step(bar(0, 99, 101, 98, 100), entry))
	p := m.Position()
	require.NotNil(t, p)
	assert.Equal(t, PendingEntry, p.Status)

	require.NoError(t, m.Step(bar(1, 100.5, 103, 100, 102), market.Signal{}))
	p = m.Position()
	require.NotNil(t, p)
	assert.Equal(t, Open, p.Status)
	assert.Equal(t, start, p.SignalDate)
	assert.Equal(t, start.AddDate(0, 0, 1), p.EntryDate)
	assert.Equal(t, 100.5, p.EntryPriceClean)
	assert.Equal(t, 90.0, p.InitialStop)
	assert.InDelta(t, 10.5, p.RiskPerShare, 1e-12)
	// 1000 / 10.5 = 95.2
	assert.Equal(t, int64(95), p.Shares)
	assert.Equal(t, p.Shares, p.RemainingShares)
	assert.Equal(t, 0, p.BarsHeld)
	assert.InDelta(t, 103, p.PeakPrice, 1e-12)
}

func TestEntryRejectedWhenStopAboveClose(t *testing.T) {
	t.Parallel()

	m, _, led := newManager(t, testRules(), costs.Model{})

	b := bar(0, 99, 101, 98, 100)
	b.SwingLow = 110
	b.VWAP = 110
	require.NoError(t, m.Step(b, entry))

	assert.Nil(t, m.Position())
	assert.Equal(t, 1, m.Rejected())

	// The engine carries on with later signals.
	require.NoError(t, m.Step(bar(1, 100, 101, 99, 100), entry))
	require.NotNil(t, m.Position())
	assert.Zero(t, led.Len())
}

func TestEntryRejectedWhenFillGapsBelowStop(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(t, testRules(), costs.Model{})
	feed(t, m, []step{
		{bar(0, 99, 101, 98, 100), entry},
		{bar(1, 85, 88, 84, 86), market.Signal{}},
	})

	assert.Nil(t, m.Position())
	assert.Equal(t, 1, m.Rejected())
}

func TestNoEntriesWithoutEquity(t *testing.T) {
	t.Parallel()

	acct := NewIsolatedAccount(decimal.Zero)
	m, err := NewManager("TEST", testRules(), staticStop(t), costs.Model{}, acct, ledger.New(), nil)
	require.NoError(t, err)

	require.NoError(t, m.Step(bar(0, 99, 101, 98, 100), entry))
	assert.Nil(t, m.Position())
	assert.Equal(t, 1, m.Rejected())
}

func TestGapDefersFill(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(t, testRules(), costs.Model{})
	feed(t, m, []step{
		{bar(0, 99, 101, 98, 100), entry},
		{gap(1), market.Signal{}},
	})
	require.Equal(t, PendingEntry, m.Position().Status)

	require.NoError(t, m.Step(bar(2, 100, 102, 99, 101), market.Signal{}))
	p := m.Position()
	assert.Equal(t, Open, p.Status)
	assert.Equal(t, 2, p.EntryIndex)
	assert.Equal(t, start.AddDate(0, 0, 2), p.EntryDate)
}

func TestStepRejectsOutOfOrderBars(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(t, testRules(), costs.Model{})
	require.NoError(t, m.Step(bar(1, 99, 101, 98, 100), market.Signal{}))

	err := m.Step(bar(0, 99, 101, 98, 100), market.Signal{})
	var de *market.DataError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "TEST", de.Ticker)
	assert.Equal(t, 1, de.Index)
}

func TestStopExit(t *testing.T) {
	t.Parallel()

	m, acct, led := newManager(t, testRules(), costs.Model{})
	feed(t, m, []step{
		{bar(0, 99, 101, 98, 100), entry},
		{bar(1, 100, 101, 95, 96), market.Signal{}},
		{bar(2, 96, 97, 89, 91), market.Signal{}}, // low through 90
	})
	reason, ok := m.PendingExit()
	require.True(t, ok)
	assert.Equal(t, ledger.ExitStop, reason)

	require.NoError(t, m.Step(bar(3, 89, 90, 88, 89), market.Signal{}))
	require.Nil(t, m.Position())

	trades := led.Trades()
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, ledger.ExitStop, tr.ExitReason)
	assert.Equal(t, int64(100), tr.Shares)
	assert.Equal(t, 89.0, tr.ExitPriceClean)
	assert.True(t, tr.NetPnL.Equal(decimal.NewFromInt(-1100)), "net %s", tr.NetPnL)
	assert.InDelta(t, -1.1, tr.RMultiple, 1e-12)
	assert.Equal(t, 2, tr.BarsHeld)
	assert.Equal(t, 90.0, tr.FinalStop)
	assert.True(t, acct.Equity().Equal(decimal.NewFromInt(98_900)))
}

func TestStopBeatsProfitTargetOnSameBar(t *testing.T) {
	t.Parallel()

	m, _, led := newManager(t, testRules(), costs.Model{})
	feed(t, m, []step{
		{bar(0, 99, 101, 98, 100), entry},
		{bar(1, 100, 101, 99, 100), market.Signal{}},
		// Wide bar: low through the stop and close at +2R.
		{bar(2, 100, 121, 89, 120), market.Signal{}},
		{bar(3, 119, 120, 118, 119), market.Signal{}},
	})

	trades := led.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, ledger.ExitStop, trades[0].ExitReason)
	assert.Len(t, trades[0].Legs, 1)
}

func TestTimeStop(t *testing.T) {
	t.Parallel()

	rules := testRules()
	rules.TimeStopBars = 3
	m, _, led := newManager(t, rules, costs.Model{})
	feed(t, m, []step{
		{bar(0, 99, 101, 98, 100), entry},
		{bar(1, 100, 102, 99, 101), market.Signal{}},
		{bar(2, 101, 102, 100, 101), market.Signal{}},
		{bar(3, 101, 102, 100, 101), market.Signal{}},
		{bar(4, 101, 102, 100, 101), market.Signal{}}, // held 3, R 0.1
	})
	reason, ok := m.PendingExit()
	require.True(t, ok)
	assert.Equal(t, ledger.ExitTimeStop, reason)

	require.NoError(t, m.Step(bar(5, 102, 103, 101, 102), market.Signal{}))
	trades := led.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, ledger.ExitTimeStop, trades[0].ExitReason)
	assert.Equal(t, 4, trades[0].BarsHeld)
}

func TestGapDoesNotAgePosition(t *testing.T) {
	t.Parallel()

	rules := testRules()
	rules.TimeStopBars = 2
	m, _, _ := newManager(t, rules, costs.Model{})
	feed(t, m, []step{
		{bar(0, 99, 101, 98, 100), entry},
		{bar(1, 100, 102, 99, 101), market.Signal{}}, // fill
		{gap(2), market.Signal{}},
		{bar(3, 101, 102, 100, 101), market.Signal{}},
	})
	p := m.Position()
	require.NotNil(t, p)
	assert.Equal(t, 1, p.BarsHeld, "gap bars are not held bars")
	_, ok := m.PendingExit()
	assert.False(t, ok)

	require.NoError(t, m.Step(bar(4, 101, 102, 100, 101), market.Signal{}))
	assert.Equal(t, 2, m.Position().BarsHeld)
	reason, ok := m.PendingExit()
	require.True(t, ok)
	assert.Equal(t, ledger.ExitTimeStop, reason)
}

func TestTimeStopDisabled(t *testing.T) {
	t.Parallel()

	rules := testRules()
	rules.TimeStopBars = 0
	m, _, led := newManager(t, rules, costs.Model{})
	require.NoError(t, m.Step(bar(0, 99, 101, 98, 100), entry))
	for n := 1; n <= 40; n++ {
		require.NoError(t, m.Step(bar(n, 100, 102, 99, 101), market.Signal{}))
		_, ok := m.PendingExit()
		require.False(t, ok, "exit queued on bar %d", n)
	}

	p := m.Position()
	require.NotNil(t, p)
	assert.Equal(t, Open, p.Status)
	assert.Equal(t, 39, p.BarsHeld)
	assert.Less(t, p.UnrealizedR(101), 1.0)
	assert.Zero(t, led.Len())
}

func TestEntryRejectedDuringWarmup(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(t, testRules(), costs.Model{})
	b := bar(0, 99, 101, 98, 100)
	b.ATR = math.NaN()
	b.SwingLow = math.NaN()
	require.NoError(t, m.Step(b, entry))
	assert.Nil(t, m.Position())
	assert.Equal(t, 1, m.Rejected())

	require.NoError(t, m.Step(bar(1, 100, 101, 99, 100), entry))
	assert.NotNil(t, m.Position())
}

func TestSignalExitOnMomentumFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*market.Bar, *market.Signal)
	}{
		{"negative cmf", func(b *market.Bar, _ *market.Signal) { b.CMF = -0.01 }},
		{"close below vwap", func(b *market.Bar, _ *market.Signal) { b.VWAP = b.Close + 0.5 }},
		{"exit flag", func(_ *market.Bar, s *market.Signal) { s.Exit = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, _, _ := newManager(t, testRules(), costs.Model{})
			feed(t, m, []step{
				{bar(0, 99, 101, 98, 100), entry},
				{bar(1, 100, 102, 99, 101), market.Signal{}},
			})

			b, sig := bar(2, 101, 103, 100, 102), market.Signal{}
			tt.mutate(&b, &sig)
			require.NoError(t, m.Step(b, sig))

			reason, ok := m.PendingExit()
			require.True(t, ok)
			assert.Equal(t, ledger.ExitSignal, reason)
		})
	}
}

func TestPartialExitArmsTrailingStop(t *testing.T) {
	t.Parallel()

	m, acct, led := newManager(t, testRules(), costs.Model{})
	feed(t, m, []step{
		{bar(0, 99, 101, 99, 100), entry},
		{bar(1, 100, 103, 99.5, 102), market.Signal{}},
		{bar(2, 102, 121, 101, 120), market.Signal{}}, // +2R on the close
	})
	reason, ok := m.PendingExit()
	require.True(t, ok)
	assert.Equal(t, ledger.ExitProfitTarget, reason)

	require.NoError(t, m.Step(bar(3, 122, 124, 119, 123), market.Signal{}))

	p := m.Position()
	require.NotNil(t, p)
	assert.Equal(t, PartiallyClosed, p.Status)
	assert.True(t, p.PartialExitDone())
	assert.Equal(t, int64(50), p.RemainingShares)
	// Lowest low of bars 0..2 re-anchors the stop.
	assert.Equal(t, 99.0, p.TrailingStop)
	assert.Equal(t, 99.0, p.CurrentStop)

	legs := p.Legs()
	require.Len(t, legs, 1)
	assert.Equal(t, ledger.ExitProfitTarget, legs[0].Reason)
	assert.Equal(t, int64(50), legs[0].Shares)
	assert.Equal(t, 122.0, legs[0].PriceClean)
	assert.InDelta(t, 2.2, legs[0].NetR, 1e-12)

	assert.Zero(t, led.Len(), "a partial leg is not a closed trade")
	assert.True(t, acct.Equity().Equal(decimal.NewFromInt(101_100)))
}

func TestTrailingStopCloses(t *testing.T) {
	t.Parallel()

	rules := testRules()
	rules.TrailLookbackBars = 2
	m, _, led := newManager(t, rules, costs.Model{})
	feed(t, m, []step{
		{bar(0, 99, 101, 99, 100), entry},
		{bar(1, 100, 110, 99.5, 110), market.Signal{}},
		{bar(2, 110, 121, 109, 120), market.Signal{}},
		{bar(3, 121, 126, 120, 125), market.Signal{}}, // half out; trail armed at low(1..2) = 99.5
		{bar(4, 125, 131, 124, 130), market.Signal{}}, // trail = low(2..3) = 109
		{bar(5, 130, 131, 126, 130), market.Signal{}}, // trail = low(3..4) = 120
	})
	p := m.Position()
	require.NotNil(t, p)
	assert.Equal(t, 120.0, p.TrailingStop)

	// Low pierces 124 = low(4..5), the trail after this bar's update.
	require.NoError(t, m.Step(bar(6, 130, 131, 123, 127), market.Signal{}))
	reason, ok := m.PendingExit()
	require.True(t, ok)
	assert.Equal(t, ledger.ExitTrailStop, reason)

	require.NoError(t, m.Step(bar(7, 126, 127, 125, 126), market.Signal{}))
	trades := led.Trades()
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, ledger.ExitTrailStop, tr.ExitReason)
	require.Len(t, tr.Legs, 2)
	assert.Equal(t, ledger.ExitProfitTarget, tr.Legs[0].Reason)
	assert.True(t, tr.PartialExit())
	assert.Equal(t, tr.Shares, tr.Legs[0].Shares+tr.Legs[1].Shares)
}

func TestBlendedRMultiple(t *testing.T) {
	t.Parallel()

	m, acct, led := newManager(t, testRules(), costs.Model{})
	feed(t, m, []step{
		{bar(0, 99, 101, 99, 100), entry},
		{bar(1, 100, 106, 99.5, 105), market.Signal{}},
		{bar(2, 105, 121, 104, 120), market.Signal{}},
		{bar(3, 120, 126, 119, 125), market.Signal{}}, // half out at +2R
		{bar(4, 125, 129, 124, 128), market.Signal{Exit: true}},
		{bar(5, 130, 131, 129, 130), market.Signal{}}, // rest out at +3R
	})

	trades := led.Trades()
	require.Len(t, trades, 1)
	tr := trades[0]
	require.Len(t, tr.Legs, 2)
	assert.Equal(t, 2.0, tr.Legs[0].NetR)
	assert.Equal(t, 3.0, tr.Legs[1].NetR)
	assert.Equal(t, 2.5, tr.RMultiple)
	assert.Equal(t, 2.5, tr.GrossRMultiple)
	assert.Equal(t, 125.0, tr.ExitPriceClean)
	assert.Equal(t, ledger.ExitSignal, tr.ExitReason)
	assert.Equal(t, int64(1), tr.TransactionNumber)
	assert.True(t, acct.Equity().Equal(decimal.NewFromInt(102_500)))
}

func TestCostsDisabledNetEqualsGross(t *testing.T) {
	t.Parallel()

	m, _, led := newManager(t, testRules(), costs.New(0.05, 0.005, false))
	feed(t, m, []step{
		{bar(0, 99, 101, 99, 100), entry},
		{bar(1, 100, 106, 99.5, 105), market.Signal{}},
		{bar(2, 105, 106, 104, 105), market.Signal{Exit: true}},
		{bar(3, 104, 105, 103, 104), market.Signal{}},
	})

	trades := led.Trades()
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.True(t, tr.NetPnL.Equal(tr.GrossPnL))
	assert.True(t, tr.SlippageCost.IsZero())
	assert.True(t, tr.TotalCommission().IsZero())
	assert.Equal(t, tr.EntryPriceClean, tr.EntryPriceActual)
}

func TestCostsEnabled(t *testing.T) {
	t.Parallel()

	m, acct, led := newManager(t, testRules(), costs.New(0.1, 0.01, true))
	feed(t, m, []step{
		{bar(0, 99, 101, 98, 100), entry},
		{bar(1, 100, 101, 95, 96), market.Signal{}},
		{bar(2, 96, 97, 89, 91), market.Signal{}},
		{bar(3, 89, 90, 88, 89), market.Signal{}},
	})

	tr := led.Trades()[0]
	assert.InDelta(t, 100.1, tr.EntryPriceActual, 1e-9)
	assert.InDelta(t, 88.911, tr.ExitPriceActual, 1e-9)
	assert.True(t, tr.GrossPnL.Equal(decimal.NewFromInt(-1100)))
	assert.True(t, tr.SlippageCost.Equal(decimal.RequireFromString("18.9")), "slip %s", tr.SlippageCost)
	assert.True(t, tr.TotalCommission().Equal(decimal.NewFromInt(2)))
	assert.True(t, tr.NetPnL.Equal(decimal.RequireFromString("-1120.9")), "net %s", tr.NetPnL)
	assert.InDelta(t, -1.1209, tr.RMultiple, 1e-12)
	assert.True(t, acct.Equity().Equal(decimal.RequireFromString("98879.1")))
}

func TestRunRejectsForeignSeries(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(t, testRules(), costs.Model{})
	err := m.Run(context.Background(), &market.Series{Ticker: "OTHER"})
	var de *market.DataError
	assert.True(t, errors.As(err, &de))
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(t, testRules(), costs.Model{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &market.Series{Ticker: "TEST", Bars: []market.Bar{bar(0, 99, 101, 98, 100)}}
	assert.ErrorIs(t, m.Run(ctx, s), context.Canceled)
	assert.Zero(t, m.Bars())
}

// randomSeries is a bounded random walk: gaps, daily ranges and ATR are
// sized so a stop can never be jumped from below to above the entry.
func randomSeries(rng *rand.Rand, ticker string, n int) *market.Series {
	s := &market.Series{Ticker: ticker}
	u := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }
	prev := 50.0
	for i := 0; i < n; i++ {
		o := prev * (1 + u(-0.005, 0.005))
		c := o * (1 + u(-0.01, 0.01))
		h := math.Max(o, c) * (1 + u(0, 0.005))
		l := math.Min(o, c) * (1 - u(0, 0.005))
		s.Bars = append(s.Bars, market.Bar{
			Date:     start.AddDate(0, 0, i),
			Open:     o,
			High:     h,
			Low:      l,
			Close:    c,
			Volume:   1e6,
			ATR:      0.03 * c,
			VWAP:     c * (1 + u(-0.01, 0.004)),
			SwingLow: 0.96 * c,
			CMF:      u(-0.1, 0.3),
			ATRZ:     u(-1.5, 1.5),
		})
		s.Signals = append(s.Signals, market.Signal{Entry: rng.Float64() < 0.1})
		prev = c
	}
	return s
}

func TestPropertiesOnRandomPaths(t *testing.T) {
	t.Parallel()

	anchored := []stops.Kind{stops.Static, stops.TimeDecay, stops.VolRegime, stops.AtrDynamic}
	all := append(append([]stops.Kind(nil), anchored...), stops.PctTrail)
	model := costs.New(0.05, 0.005, true)

	for _, kind := range all {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			strat, err := stops.New(kind, stops.DefaultParams())
			require.NoError(t, err)
			rng := rand.New(rand.NewSource(7))

			for path := 0; path < 40; path++ {
				s := randomSeries(rng, "RND", 250)
				acct := NewIsolatedAccount(decimal.NewFromInt(100_000))
				led := ledger.New()
				m, err := NewManager("RND", DefaultRules(), strat, model, acct, led, nil)
				require.NoError(t, err)

				var prev *Position
				for i, b := range s.Bars {
					require.NoError(t, m.Step(b, s.Signal(i)))
					cur := m.Position()
					if cur != nil && cur.Status.Live() && prev != nil && prev.Status.Live() &&
						prev.EntryDate.Equal(cur.EntryDate) && !(prev.Status == Open && cur.Status == PartiallyClosed) {
						require.GreaterOrEqual(t, cur.CurrentStop, prev.CurrentStop, "stop loosened at bar %d", i)
					}
					prev = cur
				}

				net := decimal.Zero
				for _, tr := range led.Trades() {
					assert.True(t, tr.EntryDate.After(tr.SignalDate), "entry on signal bar")
					for _, l := range tr.Legs {
						assert.True(t, l.Date.After(l.SignalDate), "exit on trigger bar")
						assert.False(t, l.Date.Before(tr.EntryDate))
					}
					if tr.ExitReason == ledger.ExitStop && kind != stops.PctTrail {
						assert.Less(t, tr.RMultiple, 0.05)
					}
					net = net.Add(tr.NetPnL)
				}
				if p := m.Position(); p != nil {
					for _, l := range p.Legs() {
						net = net.Add(l.NetPnL)
					}
				}
				assert.True(t, acct.Equity().Equal(decimal.NewFromInt(100_000).Add(net)),
					"equity %s != start + %s", acct.Equity(), net)
			}
		})
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	t.Parallel()

	s := randomSeries(rand.New(rand.NewSource(11)), "DET", 400)
	run := func() []ledger.ClosedTrade {
		acct := NewIsolatedAccount(decimal.NewFromInt(50_000))
		led := ledger.New()
		strat, err := stops.New(stops.TimeDecay, stops.DefaultParams())
		require.NoError(t, err)
		m, err := NewManager("DET", DefaultRules(), strat, costs.New(0.05, 0.005, true), acct, led, nil)
		require.NoError(t, err)
		require.NoError(t, m.Run(context.Background(), s))
		return led.Trades()
	}

	first, second := run(), run()
	require.NotEmpty(t, first)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].TransactionNumber, second[i].TransactionNumber)
		assert.Equal(t, first[i].EntryDate, second[i].EntryDate)
		assert.Equal(t, first[i].ExitDate, second[i].ExitDate)
		assert.Equal(t, first[i].Shares, second[i].Shares)
		assert.Equal(t, first[i].NetPnL.String(), second[i].NetPnL.String())
		assert.Equal(t, first[i].RMultiple, second[i].RMultiple)
		assert.Equal(t, first[i].ExitReason, second[i].ExitReason)
	}
}

func TestSharedAccount(t *testing.T) {
	t.Parallel()

	a := NewSharedAccount(decimal.NewFromInt(1000))
	a.Apply("AAA", decimal.NewFromInt(50))
	a.Apply("BBB", decimal.NewFromInt(-20))
	a.Apply("AAA", decimal.NewFromInt(5))

	assert.True(t, a.Equity().Equal(decimal.NewFromInt(1035)))
	assert.True(t, a.Contribution("AAA").Equal(decimal.NewFromInt(55)))
	assert.True(t, a.Contribution("BBB").Equal(decimal.NewFromInt(-20)))
	assert.True(t, a.Start().Equal(decimal.NewFromInt(1000)))
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "PENDING_ENTRY", PendingEntry.String())
	assert.Equal(t, "PARTIALLY_CLOSED", PartiallyClosed.String())
	assert.False(t, Closed.Live())
	assert.True(t, Open.Live())
}
