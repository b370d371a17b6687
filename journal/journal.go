// Package journal persists backtest runs, their closed trades and equity
// curves, and renders them as Org-mode notes.
package journal

import (
	"context"
	"fmt"

	"github.com/rustyeddy/swingtrader/ledger"
)

// Journal is a sink for one or more backtest runs.
type Journal interface {
	RecordRun(ctx context.Context, r Run) error
	RecordTrade(ctx context.Context, runID string, t ledger.ClosedTrade) error
	RecordEquity(ctx context.Context, runID string, p ledger.EquityPoint) error
	Close() error
}

// Open returns the journal for kind: "sqlite" needs dbPath, "csv" needs
// both CSV paths, "" and "none" discard everything.
func Open(kind, dbPath, tradesPath, equityPath string) (Journal, error) {
	switch kind {
	case "", "none":
		return Nop{}, nil
	case "sqlite":
		j, err := NewSQLite(dbPath)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "csv":
		if tradesPath == "" || equityPath == "" {
			return nil, fmt.Errorf("csv journal needs trades and equity paths")
		}
		j, err := NewCSV(tradesPath, equityPath)
		if err != nil {
			return nil, err
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q", kind)
	}
}

// Save writes a run followed by its trades and equity curve.
func Save(ctx context.Context, j Journal, r Run, trades []ledger.ClosedTrade, curve []ledger.EquityPoint) error {
	if err := j.RecordRun(ctx, r); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	for _, t := range trades {
		if err := j.RecordTrade(ctx, r.RunID, t); err != nil {
			return fmt.Errorf("record trade %d: %w", t.TransactionNumber, err)
		}
	}
	for _, p := range curve {
		if err := j.RecordEquity(ctx, r.RunID, p); err != nil {
			return fmt.Errorf("record equity %d: %w", p.TransactionNumber, err)
		}
	}
	return nil
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRun(context.Context, Run) error                           { return nil }
func (Nop) RecordTrade(context.Context, string, ledger.ClosedTrade) error  { return nil }
func (Nop) RecordEquity(context.Context, string, ledger.EquityPoint) error { return nil }
func (Nop) Close() error                                                   { return nil }
