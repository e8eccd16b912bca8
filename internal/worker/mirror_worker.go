// Package worker copies transactions from the local SQLite ledger to a
// mirror store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Source is the SQLite side of the mirror.
type Source interface {
	GetTransaction(ctx context.Context, id int64) (*storage.StoredTransaction, error)
	GetPendingSync(ctx context.Context, limit int) ([]int64, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// Consumer delivers "transaction recorded" notifications.
type Consumer interface {
	ConsumeTransactionRecorded(ctx context.Context, handler func(context.Context, *amqp.TransactionRecordedMessage) error) error
}

const (
	DefaultBatchSize = 10
	DefaultInterval  = 30 * time.Second
)

// MirrorWorker appends stored transactions to a mirror store and marks
// them synced.
type MirrorWorker struct {
	// mu serializes mirrorOne so a notification and a sweep never copy the
	// same row twice.
	mu sync.Mutex

	source    Source
	mirror    ledger.Store
	batchSize int
	interval  time.Duration
}

func NewMirrorWorker(source Source, mirror ledger.Store, batchSize int, interval time.Duration) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &MirrorWorker{
		source:    source,
		mirror:    mirror,
		batchSize: batchSize,
		interval:  interval,
	}
}

// HandleRecorded mirrors the transaction named by msg.
func (w *MirrorWorker) HandleRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	log.FromContext(ctx).InfoContext(ctx, "Processing transaction recorded message",
		"id", msg.ID,
		"published_at", msg.Timestamp)

	return w.mirrorOne(ctx, msg.ID)
}

// ProcessPending mirrors up to one batch of rows not yet synced. It is the
// fallback for notifications that never arrived. Failures of single rows
// are logged and counted, not returned.
func (w *MirrorWorker) ProcessPending(ctx context.Context) (synced, failed int, err error) {
	ids, err := w.source.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(ids) == 0 {
		return 0, 0, nil
	}

	log.FromContext(ctx).InfoContext(ctx, "Processing pending transactions", "count", len(ids))

	for _, id := range ids {
		if err := w.mirrorOne(ctx, id); err != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Failed to mirror transaction", "id", id, "error", err)
			failed++
			continue
		}
		synced++
	}

	log.FromContext(ctx).InfoContext(ctx, "Pending sweep completed",
		"total", len(ids),
		"synced", synced,
		"errors", failed)

	return synced, failed, nil
}

// Run prepares the mirror store, sweeps once, then consumes notifications
// and sweeps every interval until ctx is done. consumer may be nil, in
// which case only the sweep runs.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer) error {
	if err := w.mirror.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize mirror store: %w", err)
	}
	if _, _, err := w.ProcessPending(ctx); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Startup sweep failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeTransactionRecorded(ctx, w.HandleRecorded)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if _, _, err := w.ProcessPending(ctx); err != nil {
					log.FromContext(ctx).ErrorContext(ctx, "Pending sweep failed", "error", err)
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *MirrorWorker) mirrorOne(ctx context.Context, id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, err := w.source.GetTransaction(ctx, id)
	if err != nil {
		if markErr := w.source.MarkSyncError(ctx, id); markErr != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("get transaction: %w", err)
	}

	// Redelivered message, or a row the other path copied first.
	if st.SyncStatus == storage.SyncSynced {
		log.FromContext(ctx).DebugContext(ctx, "Transaction already mirrored", "id", id)
		return nil
	}

	ref, err := w.mirror.Append(ctx, st.Transaction)
	if err != nil {
		if markErr := w.source.MarkSyncError(ctx, id); markErr != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to mirror: %w", err)
	}

	// The copy exists; a failed status update only means a later duplicate.
	if err := w.source.MarkSynced(ctx, id); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	log.FromContext(ctx).InfoContext(ctx, "Transaction mirrored",
		"id", id,
		"mirror_ref", ref,
		"date", st.Transaction.Date.String())
	return nil
}
