// Package ledger defines the append-only transaction store and the record
// layout shared by its implementations.
package ledger

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	Initializer interface {
		// Initialize creates the store with the fixed column schema if it
		// does not exist yet. Calling it again is a no-op.
		Initialize(ctx context.Context) error
	}

	Writer interface {
		// Append writes one record after all existing ones. It does not
		// validate business rules. ref identifies the written record for logs.
		Append(ctx context.Context, t core.Transaction) (ref string, err error)
	}

	// Querier returns stored transactions in insertion order.
	Querier interface {
		// Query returns every record with start <= date <= end. A range with
		// start after end is empty, not an error.
		Query(ctx context.Context, start, end core.Date) ([]core.Transaction, error)
	}

	Store interface {
		Initializer
		Writer
		Querier
	}
)

// Filter returns the transactions within [start, end], preserving order.
func Filter(txs []core.Transaction, start, end core.Date) []core.Transaction {
	out := make([]core.Transaction, 0)
	if start.After(end) {
		return out
	}
	for _, t := range txs {
		if t.Date.Within(start, end) {
			out = append(out, t)
		}
	}
	return out
}
