package market

import (
	"fmt"
	"math"
)

// Series is the ordered bar sequence for one ticker together with the
// signal flags aligned to it (Signals[i] belongs to Bars[i]).
type Series struct {
	Ticker  string
	Bars    []Bar
	Signals []Signal
}

// DataError reports malformed market data for a ticker. A DataError aborts
// that ticker's run only.
type DataError struct {
	Ticker string
	Index  int // bar index, -1 when not tied to a bar
	Reason string
}

func (e *DataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("data error: %s: %s", e.Ticker, e.Reason)
	}
	return fmt.Sprintf("data error: %s: bar %d: %s", e.Ticker, e.Index, e.Reason)
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.Bars) }

// Signal returns the flags for bar i; bars without flags carry none.
func (s *Series) Signal(i int) Signal {
	if i < 0 || i >= len(s.Signals) {
		return Signal{}
	}
	return s.Signals[i]
}

// Trim keeps the bars for which keep returns true, with their signals.
func (s *Series) Trim(keep func(Bar) bool) {
	bars := s.Bars[:0]
	var sigs []Signal
	for i, b := range s.Bars {
		if !keep(b) {
			continue
		}
		bars = append(bars, b)
		if i < len(s.Signals) {
			sigs = append(sigs, s.Signals[i])
		}
	}
	s.Bars = bars
	s.Signals = sigs
}

// Validate checks the ordering and price sanity of the series.
func (s *Series) Validate() error {
	if s.Ticker == "" {
		return &DataError{Ticker: "?", Index: -1, Reason: "missing ticker"}
	}
	if len(s.Signals) != 0 && len(s.Signals) != len(s.Bars) {
		return &DataError{
			Ticker: s.Ticker,
			Index:  -1,
			Reason: fmt.Sprintf("%d signals for %d bars", len(s.Signals), len(s.Bars)),
		}
	}

	for i, b := range s.Bars {
		var prev *Bar
		if i > 0 {
			prev = &s.Bars[i-1]
		}
		if err := CheckBar(s.Ticker, i, prev, b); err != nil {
			return err
		}
	}
	return nil
}

// CheckBar validates bar i of ticker against its predecessor (nil for
// the first bar).
func CheckBar(ticker string, i int, prev *Bar, b Bar) error {
	if b.Date.IsZero() {
		return &DataError{Ticker: ticker, Index: i, Reason: "missing date"}
	}
	if prev != nil && !b.Date.After(prev.Date) {
		return &DataError{
			Ticker: ticker,
			Index:  i,
			Reason: fmt.Sprintf("date %s not after %s",
				b.Date.Format("2006-01-02"), prev.Date.Format("2006-01-02")),
		}
	}
	for _, p := range [...]float64{b.Open, b.High, b.Low, b.Close} {
		if p < 0 || math.IsInf(p, 0) {
			return &DataError{Ticker: ticker, Index: i, Reason: fmt.Sprintf("bad price %v", p)}
		}
	}
	if b.Volume < 0 {
		return &DataError{Ticker: ticker, Index: i, Reason: "negative volume"}
	}
	if b.Valid() && b.High < b.Low {
		return &DataError{Ticker: ticker, Index: i, Reason: "high below low"}
	}
	return nil
}

// LowestLow returns the lowest low of the valid bars in [from, to]
// (inclusive, clamped to the series). ok is false when no valid bar exists
// in the window.
func (s *Series) LowestLow(from, to int) (low float64, ok bool) {
	if from < 0 {
		from = 0
	}
	if to >= len(s.Bars) {
		to = len(s.Bars) - 1
	}
	for i := from; i <= to; i++ {
		b := s.Bars[i]
		if !b.Valid() {
			continue
		}
		if !ok || b.Low < low {
			low = b.Low
			ok = true
		}
	}
	return low, ok
}
