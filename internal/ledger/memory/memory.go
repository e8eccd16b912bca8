// Package memory is a process-local ledger, optionally seeded from a CSV
// file. Nothing is written back to disk.
package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/csvfile"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

// Ensure interface conformance
var _ ledger.Store = (*Store)(nil)

func New(items ...core.Transaction) *Store {
	return &Store{items: append([]core.Transaction(nil), items...)}
}

// NewFromFile seeds the store from a ledger CSV file. A missing file gives
// an empty store; a malformed one is an error.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open seed %s: %w", core.ErrStorageRead, path, err)
	}
	defer f.Close()

	items, err := csvfile.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return New(items...), nil
}

// Initialize is a no-op; the store exists as soon as it is constructed.
func (s *Store) Initialize(_ context.Context) error {
	return nil
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Query validates every stored item, like a file-backed store decoding its
// rows, so a bad append surfaces here as a malformed record.
func (s *Store) Query(_ context.Context, start, end core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.items {
		if err := t.Validate(); err != nil {
			return nil, &core.MalformedRecordError{Line: i + 1, Err: err}
		}
	}
	return ledger.Filter(s.items, start, end), nil
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
