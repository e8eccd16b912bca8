package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// Publisher announces that a transaction was stored under a row id.
type Publisher interface {
	PublishTransactionRecorded(ctx context.Context, id int64) error
}

// Report is the result of viewing a date range.
type Report struct {
	Start, End   core.Date
	Transactions []core.Transaction
	Summary      core.Summary
}

// LedgerService orchestrates ledger operations across a store and an
// optional publisher.
type LedgerService struct {
	store     ledger.Store
	publisher Publisher
}

// NewLedgerService wires a store with an optional publisher; pass nil to
// disable notifications.
func NewLedgerService(store ledger.Store, publisher Publisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

// Initialize prepares the underlying store.
func (s *LedgerService) Initialize(ctx context.Context) error {
	return s.store.Initialize(ctx)
}

// Record validates t, makes sure the store exists and appends t. When the
// store hands back a numeric row id and a publisher is set, a notification
// is published; publish failures are logged only, the record is already
// stored.
func (s *LedgerService) Record(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}
	if err := s.store.Initialize(ctx); err != nil {
		return "", fmt.Errorf("initialize store: %w", err)
	}

	ref, err := s.store.Append(ctx, t)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	fields := log.NewFields().WithOperation(log.OpRecord).WithTransaction(t)
	fields[log.FieldRef] = ref
	log.FromContext(ctx).InfoContext(ctx, "Transaction recorded", fields.ToSlice()...)

	if s.publisher == nil {
		return ref, nil
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		log.FromContext(ctx).DebugContext(ctx, "Store ref is not a row id, skipping notification", "ref", ref)
		return ref, nil
	}
	if err := s.publisher.PublishTransactionRecorded(ctx, id); err != nil {
		fields := log.NewFields().WithOperation(log.OpPublish).WithError(err)
		fields[log.FieldID] = id
		log.FromContext(ctx).ErrorContext(ctx, "Failed to publish transaction recorded message", fields.ToSlice()...)
	}

	return ref, nil
}

// View returns the transactions dated within [start, end] and their totals.
func (s *LedgerService) View(ctx context.Context, start, end core.Date) (Report, error) {
	txs, err := s.store.Query(ctx, start, end)
	if err != nil {
		return Report{}, fmt.Errorf("query transactions: %w", err)
	}
	fields := log.NewFields().WithOperation(log.OpView).WithRange(start, end)
	fields[log.FieldCount] = len(txs)
	log.FromContext(ctx).DebugContext(ctx, "Transactions queried", fields.ToSlice()...)

	return Report{
		Start:        start,
		End:          end,
		Transactions: txs,
		Summary:      core.Summarize(txs),
	}, nil
}

// Close closes the store and the publisher when they hold resources.
func (s *LedgerService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
