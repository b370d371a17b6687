package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/swingtrader/ledger"
)

// FormatTradeOrg renders a closed trade as an Org-mode block. Structured
// facts go in the PROPERTIES drawer; the Thesis/Execution/Review headings
// are left for notes.
func FormatTradeOrg(t ledger.ClosedTrade) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*** Trade %d: %s %s %+.2fR\n", t.TransactionNumber, t.Ticker, t.ExitReason, t.RMultiple)
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TXN: %d\n", t.TransactionNumber)
	fmt.Fprintf(&b, ":TICKER: %s\n", t.Ticker)
	fmt.Fprintf(&b, ":STOP_STRATEGY: %s\n", t.StopStrategy)
	fmt.Fprintf(&b, ":SHARES: %d\n", t.Shares)
	fmt.Fprintf(&b, ":ENTRY_DATE: %s\n", t.EntryDate.UTC().Format(time.DateOnly))
	fmt.Fprintf(&b, ":EXIT_DATE: %s\n", t.ExitDate.UTC().Format(time.DateOnly))
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.4f\n", t.EntryPriceActual)
	fmt.Fprintf(&b, ":EXIT_PRICE: %.4f\n", t.ExitPriceActual)
	fmt.Fprintf(&b, ":INITIAL_STOP: %.4f\n", t.InitialStop)
	fmt.Fprintf(&b, ":FINAL_STOP: %.4f\n", t.FinalStop)
	fmt.Fprintf(&b, ":RISK: %s\n", t.RiskAmount.StringFixed(2))
	fmt.Fprintf(&b, ":NET_PNL: %s\n", t.NetPnL.StringFixed(2))
	fmt.Fprintf(&b, ":COSTS: %s\n", t.SlippageCost.Add(t.TotalCommission()).StringFixed(2))
	fmt.Fprintf(&b, ":R_MULTIPLE: %.3f\n", t.RMultiple)
	fmt.Fprintf(&b, ":BARS_HELD: %d\n", t.BarsHeld)
	fmt.Fprintf(&b, ":REASON: %s\n", t.ExitReason)
	b.WriteString(":END:\n")

	if t.PartialExit() {
		b.WriteString("| Date | Shares | Price | Reason | Net R |\n")
		b.WriteString("|------+--------+-------+--------+-------|\n")
		for _, l := range t.Legs {
			fmt.Fprintf(&b, "| %s | %d | %.4f | %s | %.3f |\n",
				l.Date.UTC().Format(time.DateOnly), l.Shares, l.PriceActual, l.Reason, l.NetR)
		}
	}

	b.WriteString("\n")
	b.WriteString("**** Thesis\n- \n\n")
	b.WriteString("**** Execution\n- \n\n")
	b.WriteString("**** Review\n- \n")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []ledger.ClosedTrade) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

// RenderRunOrg is the run summary followed by a Trades heading.
func RenderRunOrg(r Run, trades []ledger.ClosedTrade) (string, error) {
	head, err := r.RenderOrg()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(head)
	if len(trades) > 0 {
		b.WriteString("\n** Trades\n")
		b.WriteString(FormatTradesOrg(trades))
	}
	return b.String(), nil
}
