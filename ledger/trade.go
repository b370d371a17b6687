package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExitReason says why a leg (or a whole trade) was closed.
type ExitReason string

const (
	ExitStop         ExitReason = "STOP"
	ExitTimeStop     ExitReason = "TIME_STOP"
	ExitSignal       ExitReason = "SIGNAL_EXIT"
	ExitProfitTarget ExitReason = "PROFIT_TARGET"
	ExitTrailStop    ExitReason = "TRAIL_STOP"
)

// ExitReasons lists every reason in report order.
var ExitReasons = []ExitReason{ExitStop, ExitTimeStop, ExitSignal, ExitProfitTarget, ExitTrailStop}

// Leg is one exit event of a position.
type Leg struct {
	SignalDate  time.Time // bar on which the exit condition was observed
	Date        time.Time // fill bar (next valid bar's open)
	Shares      int64
	PriceClean  float64
	PriceActual float64
	Reason      ExitReason

	GrossPnL        decimal.Decimal
	NetPnL          decimal.Decimal
	SlippageCost    decimal.Decimal // entry share + exit side
	EntryCommission decimal.Decimal
	ExitCommission  decimal.Decimal
	GrossR          float64
	NetR            float64
}

// ClosedTrade is the immutable ledger record of a fully closed position.
type ClosedTrade struct {
	Ticker            string
	TransactionNumber int64
	StopStrategy      string

	SignalDate time.Time
	EntryDate  time.Time
	ExitDate   time.Time

	EntryPriceClean  float64
	EntryPriceActual float64
	ExitPriceClean   float64 // shares-weighted over legs
	ExitPriceActual  float64
	Shares           int64
	InitialStop      float64
	FinalStop        float64
	RiskAmount       decimal.Decimal

	Legs []Leg

	GrossPnL        decimal.Decimal
	NetPnL          decimal.Decimal
	SlippageCost    decimal.Decimal
	EntryCommission decimal.Decimal
	ExitCommission  decimal.Decimal

	RMultiple      float64 // blended, net of costs
	GrossRMultiple float64
	ExitReason     ExitReason // reason of the final leg
	BarsHeld       int
}

// TotalCommission is entry plus exit commission.
func (t ClosedTrade) TotalCommission() decimal.Decimal {
	return t.EntryCommission.Add(t.ExitCommission)
}

// Win reports whether the trade made money after costs.
func (t ClosedTrade) Win() bool { return t.NetPnL.IsPositive() }

// PartialExit reports whether the position was scaled out before closing.
func (t ClosedTrade) PartialExit() bool { return len(t.Legs) > 1 }
