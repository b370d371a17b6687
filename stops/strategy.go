// Package stops holds the stop-loss strategies applied to an open long
// position. A strategy only proposes a candidate price each bar; the
// caller ratchets the realized stop with Ratchet.
package stops

import (
	"fmt"
	"math"
	"strings"

	"github.com/rustyeddy/swingtrader/market"
)

// Kind identifies a stop strategy.
type Kind string

const (
	Static     Kind = "static"
	TimeDecay  Kind = "time_decay"
	VolRegime  Kind = "vol_regime"
	AtrDynamic Kind = "atr_dynamic"
	PctTrail   Kind = "pct_trail"
)

// Kinds lists every supported strategy.
var Kinds = []Kind{Static, TimeDecay, VolRegime, AtrDynamic, PctTrail}

// ParseKind maps a configuration key onto a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown stop strategy %q (supported: %s)", s, kindList())
}

func kindList() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// State is the part of an open position a strategy may look at.
type State struct {
	EntryPrice  float64
	EntryATR    float64 // ATR on the signal bar
	BarsHeld    int
	PeakPrice   float64 // highest high since entry
	CurrentStop float64
}

// Strategy proposes stop prices for a long position.
type Strategy interface {
	Kind() Kind
	// Initial is the day-0 stop for a position entered at entry on the
	// strength of the signal bar.
	Initial(signal market.Bar, entry float64) float64
	// Compute is the candidate stop for bar. Callers must pass the result
	// through Ratchet.
	Compute(s State, bar market.Bar) float64
}

// Ratchet never lets a stop loosen.
func Ratchet(current, candidate float64) float64 {
	if math.IsNaN(candidate) {
		return current
	}
	return math.Max(current, candidate)
}
