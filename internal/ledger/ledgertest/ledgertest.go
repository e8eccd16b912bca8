// Package ledgertest holds the behaviour every ledger.Store implementation
// must satisfy, runnable against any backend.
package ledgertest

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"github.com/shopspring/decimal"
)

// Harness builds stores for the suite.
type Harness struct {
	// New returns an empty, uninitialized store.
	New func(t *testing.T) ledger.Store
	// AppendRaw writes a record bypassing any encoding or validation, as a
	// corrupt or hand-edited store would contain it.
	AppendRaw func(t *testing.T, s ledger.Store, rec []string)
}

// Run executes the store conformance suite.
func Run(t *testing.T, h Harness) {
	t.Run("EmptyStore", func(t *testing.T) { testEmptyStore(t, h) })
	t.Run("InitializeIdempotent", func(t *testing.T) { testInitializeIdempotent(t, h) })
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, h) })
	t.Run("Scenario", func(t *testing.T) { testScenario(t, h) })
	t.Run("RangeBounds", func(t *testing.T) { testRangeBounds(t, h) })
	t.Run("MalformedAmount", func(t *testing.T) {
		testMalformed(t, h, []string{"03-03-2024", "-5", "Expense", "refund"}, core.ErrInvalidAmount)
	})
	t.Run("MalformedCategory", func(t *testing.T) {
		testMalformed(t, h, []string{"03-03-2024", "5", "Foo", "?"}, core.ErrInvalidCategory)
	})
}

// Tx builds a transaction from literal values.
func Tx(date core.Date, amount string, c core.Category, desc string) core.Transaction {
	return core.Transaction{Date: date, Amount: decimal.RequireFromString(amount), Category: c, Description: desc}
}

func newInitialized(t *testing.T, h Harness) ledger.Store {
	t.Helper()
	s := h.New(t)
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return s
}

func mustAppend(t *testing.T, s ledger.Store, txs ...core.Transaction) {
	t.Helper()
	for _, tx := range txs {
		if _, err := s.Append(context.Background(), tx); err != nil {
			t.Fatalf("append %+v: %v", tx, err)
		}
	}
}

func mustQuery(t *testing.T, s ledger.Store, start, end core.Date) []core.Transaction {
	t.Helper()
	got, err := s.Query(context.Background(), start, end)
	if err != nil {
		t.Fatalf("query %s..%s: %v", start, end, err)
	}
	return got
}

// AssertEqual compares transactions field by field, amounts numerically.
func AssertEqual(t *testing.T, got, want []core.Transaction) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d transactions, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		g, w := got[i], want[i]
		if !g.Date.Equal(w.Date) || !g.Amount.Equal(w.Amount) || g.Category != w.Category || g.Description != w.Description {
			t.Fatalf("transaction %d: expected %+v, got %+v", i, w, g)
		}
	}
}

func testEmptyStore(t *testing.T, h Harness) {
	s := newInitialized(t, h)
	got := mustQuery(t, s, core.NewDate(2000, 1, 1), core.NewDate(2100, 1, 1))
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func testInitializeIdempotent(t *testing.T, h Harness) {
	s := newInitialized(t, h)
	mustAppend(t, s, Tx(core.NewDate(2024, 3, 1), "1", core.Income, "a"))
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	got := mustQuery(t, s, core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
	if len(got) != 1 {
		t.Fatalf("expected 1 record after re-initialize, got %d", len(got))
	}
}

func testRoundTrip(t *testing.T, h Harness) {
	s := newInitialized(t, h)
	cases := []core.Transaction{
		Tx(core.NewDate(2024, 3, 1), "100.00", core.Income, "salary"),
		Tx(core.NewDate(2024, 3, 2), "0.01", core.Expense, ""),
		Tx(core.NewDate(2023, 12, 31), "1234567.891", core.Expense, `quoted, "description"`),
	}
	for _, tx := range cases {
		mustAppend(t, s, tx)
		got := mustQuery(t, s, tx.Date, tx.Date)
		AssertEqual(t, got, []core.Transaction{tx})
	}
}

func testScenario(t *testing.T, h Harness) {
	s := newInitialized(t, h)
	salary := Tx(core.NewDate(2024, 3, 1), "100.00", core.Income, "salary")
	food := Tx(core.NewDate(2024, 3, 2), "40.00", core.Expense, "food")
	mustAppend(t, s, salary, food)

	got := mustQuery(t, s, core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 2))
	AssertEqual(t, got, []core.Transaction{salary, food})

	sum := core.Summarize(got)
	want := core.Summary{
		TotalIncome:  decimal.NewFromInt(100),
		TotalExpense: decimal.NewFromInt(40),
		NetSavings:   decimal.NewFromInt(60),
	}
	if !sum.Equal(want) {
		t.Fatalf("expected %+v, got %+v", want, sum)
	}
}

func testRangeBounds(t *testing.T, h Harness) {
	s := newInitialized(t, h)
	txs := []core.Transaction{
		Tx(core.NewDate(2024, 3, 10), "1", core.Income, "late"),
		Tx(core.NewDate(2024, 2, 29), "2", core.Expense, "before"),
		Tx(core.NewDate(2024, 3, 1), "3", core.Expense, "start"),
		Tx(core.NewDate(2024, 3, 5), "4", core.Income, "middle"),
		Tx(core.NewDate(2024, 3, 31), "5", core.Expense, "end"),
		Tx(core.NewDate(2024, 4, 1), "6", core.Income, "after"),
	}
	mustAppend(t, s, txs...)

	start, end := core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31)
	got := mustQuery(t, s, start, end)
	AssertEqual(t, got, []core.Transaction{txs[0], txs[2], txs[3], txs[4]})
	for _, g := range got {
		if !g.Date.Within(start, end) {
			t.Fatalf("%s outside %s..%s", g.Date, start, end)
		}
	}

	if got := mustQuery(t, s, end, start); len(got) != 0 {
		t.Fatalf("expected empty result for start > end, got %+v", got)
	}
}

func testMalformed(t *testing.T, h Harness, rec []string, cause error) {
	s := newInitialized(t, h)
	mustAppend(t, s, Tx(core.NewDate(2024, 3, 1), "100", core.Income, "ok"))
	h.AppendRaw(t, s, rec)

	_, err := s.Query(context.Background(), core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
	if !errors.Is(err, core.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause %v, got %v", cause, err)
	}
}
