// Package costs converts quoted prices into cost-adjusted fills.
package costs

import (
	"github.com/shopspring/decimal"
)

// Model applies per-side percentage slippage and a per-share commission.
// A disabled model fills at the quoted price with no costs.
type Model struct {
	SlippagePct        decimal.Decimal // percent per side, e.g. 0.05
	CommissionPerShare decimal.Decimal
	Enabled            bool
}

// New builds a Model from float parameters.
func New(slippagePct, commissionPerShare float64, enabled bool) Model {
	return Model{
		SlippagePct:        decimal.NewFromFloat(slippagePct),
		CommissionPerShare: decimal.NewFromFloat(commissionPerShare),
		Enabled:            enabled,
	}
}

// Fill is one side of a trade leg.
type Fill struct {
	Quoted     decimal.Decimal
	Actual     decimal.Decimal
	Shares     int64
	Slippage   decimal.Decimal // always >= 0, cost to the trader
	Commission decimal.Decimal

	slipPerShare decimal.Decimal
	commPerShare decimal.Decimal
}

// EntryFill buys at quoted*(1+slippage).
func (m Model) EntryFill(quoted float64, shares int64) Fill {
	return m.fill(quoted, shares, 1)
}

// ExitFill sells at quoted*(1-slippage).
func (m Model) ExitFill(quoted float64, shares int64) Fill {
	return m.fill(quoted, shares, -1)
}

func (m Model) fill(quoted float64, shares int64, sign int64) Fill {
	q := decimal.NewFromFloat(quoted)
	f := Fill{
		Quoted:     q,
		Actual:     q,
		Shares:     shares,
		Slippage:   decimal.Zero,
		Commission: decimal.Zero,

		slipPerShare: decimal.Zero,
		commPerShare: decimal.Zero,
	}
	if !m.Enabled {
		return f
	}

	f.slipPerShare = q.Mul(m.SlippagePct).Shift(-2)
	f.commPerShare = m.CommissionPerShare
	f.Actual = q.Add(f.slipPerShare.Mul(decimal.NewFromInt(sign)))
	return f.Portion(shares)
}

// Portion returns the part of an entry fill attributable to shares of it.
// Slippage and commission are linear in shares, so legs split exactly.
func (f Fill) Portion(shares int64) Fill {
	n := decimal.NewFromInt(shares)
	out := f
	out.Shares = shares
	out.Slippage = f.slipPerShare.Mul(n)
	out.Commission = f.commPerShare.Mul(n)
	return out
}

// Leg is the accounting of one exit event against its share of the entry.
type Leg struct {
	Gross           decimal.Decimal // (exit quoted - entry quoted) * shares
	Net             decimal.Decimal // Gross - Slippage - commissions
	Slippage        decimal.Decimal
	EntryCommission decimal.Decimal
	ExitCommission  decimal.Decimal
}

// Settle computes gross and net P&L for a leg. entry must already be the
// portion matching exit.Shares.
func Settle(entry, exit Fill) Leg {
	n := decimal.NewFromInt(exit.Shares)
	gross := exit.Quoted.Sub(entry.Quoted).Mul(n)
	slip := entry.Slippage.Add(exit.Slippage)
	net := gross.Sub(slip).Sub(entry.Commission).Sub(exit.Commission)
	return Leg{
		Gross:           gross,
		Net:             net,
		Slippage:        slip,
		EntryCommission: entry.Commission,
		ExitCommission:  exit.Commission,
	}
}
