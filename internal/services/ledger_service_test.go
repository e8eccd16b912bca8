package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger/ledgertest"
	"fintrack/internal/ledger/memory"
	"fintrack/internal/log"
)

type fakePublisher struct {
	ids    []int64
	err    error
	closed bool
}

func (f *fakePublisher) PublishTransactionRecorded(_ context.Context, id int64) error {
	f.ids = append(f.ids, id)
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

// idStore hands out numeric refs like the SQLite store does.
type idStore struct {
	*memory.Store
	initCalls int
	appendErr error
	closeErr  error
}

func (s *idStore) Initialize(ctx context.Context) error {
	s.initCalls++
	return s.Store.Initialize(ctx)
}

func (s *idStore) Append(ctx context.Context, t core.Transaction) (string, error) {
	if s.appendErr != nil {
		return "", s.appendErr
	}
	if _, err := s.Store.Append(ctx, t); err != nil {
		return "", err
	}
	return strconv.Itoa(s.Len()), nil
}

func (s *idStore) Close() error { return s.closeErr }

func TestRecordAndView(t *testing.T) {
	store := &idStore{Store: memory.New()}
	pub := &fakePublisher{}
	svc := NewLedgerService(store, pub)
	ctx := context.Background()

	salary := ledgertest.Tx(core.NewDate(2024, 3, 1), "100.00", core.Income, "salary")
	food := ledgertest.Tx(core.NewDate(2024, 3, 2), "40.00", core.Expense, "food")
	for _, tx := range []core.Transaction{salary, food} {
		if _, err := svc.Record(ctx, tx); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if store.initCalls != 2 {
		t.Fatalf("expected initialize before every append, got %d calls", store.initCalls)
	}
	if len(pub.ids) != 2 || pub.ids[0] != 1 || pub.ids[1] != 2 {
		t.Fatalf("unexpected published ids %v", pub.ids)
	}

	rep, err := svc.View(ctx, core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 2))
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	ledgertest.AssertEqual(t, rep.Transactions, []core.Transaction{salary, food})
	if got := rep.Summary.NetSavings.StringFixed(2); got != "60.00" {
		t.Fatalf("expected net savings 60.00, got %s", got)
	}
}

func TestRecordRejectsInvalid(t *testing.T) {
	store := &idStore{Store: memory.New()}
	svc := NewLedgerService(store, nil)

	bad := ledgertest.Tx(core.NewDate(2024, 3, 1), "-1", core.Income, "")
	if _, err := svc.Record(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if store.Len() != 0 || store.initCalls != 0 {
		t.Fatal("invalid transaction must not touch the store")
	}
}

func TestRecordPublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewLedgerService(&idStore{Store: memory.New()}, pub)

	ref, err := svc.Record(context.Background(), ledgertest.Tx(core.NewDate(2024, 3, 1), "1", core.Income, ""))
	if err != nil || ref != "1" {
		t.Fatalf("expected stored record despite publish failure, got ref=%q err=%v", ref, err)
	}
}

func TestRecordSkipsPublishForNonNumericRef(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewLedgerService(memory.New(), pub)

	if _, err := svc.Record(context.Background(), ledgertest.Tx(core.NewDate(2024, 3, 1), "1", core.Income, "")); err != nil {
		t.Fatal(err)
	}
	if len(pub.ids) != 0 {
		t.Fatalf("expected no publish for %q refs, got %v", "mem:N", pub.ids)
	}
}

func TestRecordStorageError(t *testing.T) {
	store := &idStore{Store: memory.New(), appendErr: core.ErrStorageWrite}
	svc := NewLedgerService(store, nil)

	_, err := svc.Record(context.Background(), ledgertest.Tx(core.NewDate(2024, 3, 1), "1", core.Income, ""))
	if !errors.Is(err, core.ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}
}

func TestViewMalformed(t *testing.T) {
	store := memory.New(core.Transaction{Date: core.NewDate(2024, 3, 1), Category: core.Income})
	svc := NewLedgerService(store, nil)

	_, err := svc.View(context.Background(), core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
	if !errors.Is(err, core.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestClose(t *testing.T) {
	t.Run("nil publisher and plain store", func(t *testing.T) {
		if err := NewLedgerService(memory.New(), nil).Close(); err != nil {
			t.Fatalf("Close should not fail: %v", err)
		}
	})

	t.Run("closes both", func(t *testing.T) {
		pub := &fakePublisher{}
		store := &idStore{Store: memory.New(), closeErr: errors.New("disk gone")}
		err := NewLedgerService(store, pub).Close()
		if !pub.closed {
			t.Fatal("publisher not closed")
		}
		if err == nil {
			t.Fatal("expected store close error")
		}
	})
}

func TestRecordLogsToContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Component: log.ComponentLedger, Output: &buf})
	ctx := log.NewContext(context.Background(), logger)

	svc := NewLedgerService(memory.New(), nil)
	tx := ledgertest.Tx(core.NewDate(2024, 3, 1), "100", core.Income, "salary")
	if _, err := svc.Record(ctx, tx); err != nil {
		t.Fatalf("record: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Transaction recorded", "component=ledger", "operation=record"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log output:\n%s", want, out)
		}
	}
}
