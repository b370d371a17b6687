package lifecycle

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Account is the equity a manager sizes against and books net P&L into.
type Account interface {
	Equity() decimal.Decimal
	Apply(ticker string, net decimal.Decimal)
}

// IsolatedAccount is one ticker's own capital. It has a single owner and
// is not safe for concurrent use.
type IsolatedAccount struct {
	start  decimal.Decimal
	equity decimal.Decimal
}

func NewIsolatedAccount(start decimal.Decimal) *IsolatedAccount {
	return &IsolatedAccount{start: start, equity: start}
}

func (a *IsolatedAccount) Equity() decimal.Decimal { return a.equity }

func (a *IsolatedAccount) Start() decimal.Decimal { return a.start }

func (a *IsolatedAccount) Apply(_ string, net decimal.Decimal) {
	a.equity = a.equity.Add(net)
}

// SharedAccount is portfolio capital shared by every ticker. Writes are
// serialized so a close on one ticker is visible to sizing on the next.
type SharedAccount struct {
	mu       sync.Mutex
	start    decimal.Decimal
	equity   decimal.Decimal
	byTicker map[string]decimal.Decimal
}

func NewSharedAccount(start decimal.Decimal) *SharedAccount {
	return &SharedAccount{
		start:    start,
		equity:   start,
		byTicker: map[string]decimal.Decimal{},
	}
}

func (a *SharedAccount) Equity() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.equity
}

func (a *SharedAccount) Start() decimal.Decimal { return a.start }

func (a *SharedAccount) Apply(ticker string, net decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.equity = a.equity.Add(net)
	a.byTicker[ticker] = a.byTicker[ticker].Add(net)
}

// Contribution is the net P&L booked by ticker so far.
func (a *SharedAccount) Contribution(ticker string) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.byTicker[ticker]
}
