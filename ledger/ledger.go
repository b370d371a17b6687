// Package ledger is the append-only record of closed trades and the
// aggregates reports are built from.
package ledger

import (
	"sort"
	"sync"
)

// Ledger assigns transaction numbers and keeps closed trades in append
// order. It is safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	next   int64
	trades []ClosedTrade
}

// New returns an empty ledger whose first transaction number is 1.
func New() *Ledger {
	return &Ledger{next: 1}
}

// Append numbers t, stores it and returns the stored copy.
func (l *Ledger) Append(t ClosedTrade) ClosedTrade {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.next == 0 {
		l.next = 1
	}
	t.TransactionNumber = l.next
	l.next++
	t.Legs = append([]Leg(nil), t.Legs...)
	l.trades = append(l.trades, t)
	return t
}

// Record satisfies the lifecycle recorder contract.
func (l *Ledger) Record(t ClosedTrade) {
	l.Append(t)
}

// AppendAll appends trades in a deterministic order: exit date, then
// ticker, then the order each ticker produced them in.
func (l *Ledger) AppendAll(trades []ClosedTrade) {
	sorted := append([]ClosedTrade(nil), trades...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.ExitDate.Equal(b.ExitDate) {
			return a.ExitDate.Before(b.ExitDate)
		}
		return a.Ticker < b.Ticker
	})
	for _, t := range sorted {
		l.Append(t)
	}
}

// Trades returns a copy of the ledger contents.
func (l *Ledger) Trades() []ClosedTrade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ClosedTrade, len(l.trades))
	for i, t := range l.trades {
		t.Legs = append([]Leg(nil), t.Legs...)
		out[i] = t
	}
	return out
}

// Len returns the number of closed trades.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.trades)
}

// Buffer collects trades without numbering them; used per ticker when
// tickers run concurrently and are merged afterwards.
type Buffer struct {
	Trades []ClosedTrade
}

func (b *Buffer) Record(t ClosedTrade) {
	b.Trades = append(b.Trades, t)
}
