package lifecycle

import (
	"time"

	"github.com/rustyeddy/swingtrader/costs"
	"github.com/rustyeddy/swingtrader/ledger"
	"github.com/rustyeddy/swingtrader/stops"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a position.
//
//	PendingEntry -> Open -> PartiallyClosed -> Closed
//	                     \-> Closed
type Status int

const (
	PendingEntry Status = iota
	Open
	PartiallyClosed
	Closed
)

func (s Status) String() string {
	switch s {
	case PendingEntry:
		return "PENDING_ENTRY"
	case Open:
		return "OPEN"
	case PartiallyClosed:
		return "PARTIALLY_CLOSED"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Live reports whether the position holds shares.
func (s Status) Live() bool {
	return s == Open || s == PartiallyClosed
}

// Position is the mutable per-ticker position state. Only the owning
// Manager writes to it, once per bar.
type Position struct {
	Ticker   string
	Strategy stops.Kind
	Status   Status

	SignalDate time.Time
	EntryDate  time.Time
	EntryIndex int

	EntryPriceClean  float64
	EntryPriceActual float64
	Shares           int64
	RemainingShares  int64

	InitialStop  float64
	CurrentStop  float64
	TrailingStop float64 // armed after the profit-target leg

	EntryATR     float64
	BarsHeld     int
	RiskPerShare float64
	RiskAmount   decimal.Decimal
	PeakPrice    float64

	signalIndex int
	heldAt      int
	rps         decimal.Decimal
	entry       costs.Fill
	legs        []ledger.Leg
}

// PartialExitDone reports whether the profit-target leg has been taken.
func (p *Position) PartialExitDone() bool {
	return p.Status == PartiallyClosed
}

// UnrealizedR is the open gain per share at price in units of initial risk.
func (p *Position) UnrealizedR(price float64) float64 {
	if p.RiskPerShare <= 0 {
		return 0
	}
	return (price - p.EntryPriceClean) / p.RiskPerShare
}

// Legs returns the exits filled so far.
func (p *Position) Legs() []ledger.Leg {
	return append([]ledger.Leg(nil), p.legs...)
}

// hold counts bar i toward BarsHeld once. Only traded bars reach it, so
// gaps in the data do not age the position.
func (p *Position) hold(i int) {
	if i > p.heldAt {
		p.BarsHeld++
		p.heldAt = i
	}
}

func (p *Position) stopState() stops.State {
	return stops.State{
		EntryPrice:  p.EntryPriceClean,
		EntryATR:    p.EntryATR,
		BarsHeld:    p.BarsHeld,
		PeakPrice:   p.PeakPrice,
		CurrentStop: p.CurrentStop,
	}
}

func (p *Position) clone() *Position {
	c := *p
	c.legs = p.Legs()
	return &c
}
