package ledger

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// SkewRatioLimit is the mean/median R ratio above which the mean is
// considered outlier-driven. With a median at or below zero any mean above
// the median is.
const SkewRatioLimit = 1.5

// EquityPoint is the account value after a transaction.
type EquityPoint struct {
	TransactionNumber int64
	Equity            decimal.Decimal
}

// Stats are the aggregates consumed by reports. Median R is the headline
// number; the mean is only meaningful next to it.
type Stats struct {
	Trades  int
	Wins    int
	Losses  int
	WinRate float64

	MeanR           float64
	MedianR         float64
	MeanMedianRatio float64
	SkewWarning     bool

	GrossPnL     decimal.Decimal
	NetPnL       decimal.Decimal
	ProfitFactor float64

	ExitReasons    map[ExitReason]int // by final leg
	LegExitReasons map[ExitReason]int // every leg

	StartEquity    decimal.Decimal
	EndEquity      decimal.Decimal
	EquityCurve    []EquityPoint
	MaxDrawdown    decimal.Decimal
	MaxDrawdownPct float64

	ByTicker map[string]TickerStats
}

// TickerStats is the per-ticker slice of Stats.
type TickerStats struct {
	Trades  int
	Wins    int
	NetPnL  decimal.Decimal
	MedianR float64
}

// Stats aggregates the ledger against a starting equity.
func (l *Ledger) Stats(startEquity decimal.Decimal) Stats {
	return Compute(l.Trades(), startEquity)
}

// Compute aggregates trades, which must be in transaction order.
func Compute(trades []ClosedTrade, startEquity decimal.Decimal) Stats {
	s := Stats{
		Trades:         len(trades),
		GrossPnL:       decimal.Zero,
		NetPnL:         decimal.Zero,
		ExitReasons:    map[ExitReason]int{},
		LegExitReasons: map[ExitReason]int{},
		StartEquity:    startEquity,
		EndEquity:      startEquity,
		MaxDrawdown:    decimal.Zero,
		ByTicker:       map[string]TickerStats{},
	}
	if len(trades) == 0 {
		return s
	}

	rs := make([]float64, 0, len(trades))
	rByTicker := map[string][]float64{}
	grossWin, grossLoss := decimal.Zero, decimal.Zero

	equity := startEquity
	peak := startEquity
	s.EquityCurve = make([]EquityPoint, 0, len(trades))

	for _, t := range trades {
		if t.Win() {
			s.Wins++
			grossWin = grossWin.Add(t.NetPnL)
		} else {
			s.Losses++
			grossLoss = grossLoss.Add(t.NetPnL.Neg())
		}
		rs = append(rs, t.RMultiple)
		s.GrossPnL = s.GrossPnL.Add(t.GrossPnL)
		s.NetPnL = s.NetPnL.Add(t.NetPnL)
		s.ExitReasons[t.ExitReason]++
		for _, leg := range t.Legs {
			s.LegExitReasons[leg.Reason]++
		}

		ts := s.ByTicker[t.Ticker]
		ts.Trades++
		if t.Win() {
			ts.Wins++
		}
		ts.NetPnL = ts.NetPnL.Add(t.NetPnL)
		s.ByTicker[t.Ticker] = ts
		rByTicker[t.Ticker] = append(rByTicker[t.Ticker], t.RMultiple)

		equity = equity.Add(t.NetPnL)
		s.EquityCurve = append(s.EquityCurve, EquityPoint{TransactionNumber: t.TransactionNumber, Equity: equity})
		if equity.GreaterThan(peak) {
			peak = equity
		}
		dd := peak.Sub(equity)
		if dd.GreaterThan(s.MaxDrawdown) {
			s.MaxDrawdown = dd
			if peak.IsPositive() {
				s.MaxDrawdownPct = dd.Div(peak).Shift(2).InexactFloat64()
			}
		}
	}
	s.EndEquity = equity

	s.WinRate = float64(s.Wins) / float64(s.Trades)
	s.MeanR = Mean(rs)
	s.MedianR = Median(rs)
	if s.MedianR > 0 {
		s.MeanMedianRatio = s.MeanR / s.MedianR
		s.SkewWarning = s.MeanMedianRatio > SkewRatioLimit
	} else {
		// A typical trade that loses or scratches while the mean is
		// positive, or just higher, means a few winners carry the result.
		s.SkewWarning = s.MeanR > s.MedianR
	}
	if grossLoss.IsPositive() {
		s.ProfitFactor = grossWin.Div(grossLoss).InexactFloat64()
	} else if grossWin.IsPositive() {
		s.ProfitFactor = math.Inf(1)
	}

	for ticker, r := range rByTicker {
		ts := s.ByTicker[ticker]
		ts.MedianR = Median(r)
		s.ByTicker[ticker] = ts
	}
	return s
}

// Mean is the arithmetic mean, 0 for no values.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Median is the middle value (average of the two middle values for even
// counts), 0 for no values.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
