package google

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/ledgertest"
)

func TestStoreConformance(t *testing.T) {
	fakes := map[ledger.Store]*fakeSheets{}
	ledgertest.Run(t, ledgertest.Harness{
		New: func(t *testing.T) ledger.Store {
			fake := newFakeSheets("Sheet1")
			c := newTestClient(t, fake, "Ledger 2024")
			fakes[c] = fake
			return c
		},
		AppendRaw: func(t *testing.T, s ledger.Store, rec []string) {
			fakes[s].appendRow("Ledger 2024", rec)
			s.(*Client).rows.Purge()
		},
	})
}

func TestNewMissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil || err.Error() != "missing spreadsheet ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewMissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Options{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInitializeCreatesSheetAndHeader(t *testing.T) {
	fake := newFakeSheets("Sheet1")
	c := newTestClient(t, fake, "")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := c.Initialize(ctx); err != nil {
			t.Fatalf("initialize #%d: %v", i+1, err)
		}
	}
	rows := fake.rows(DefaultSheetName)
	if len(rows) != 1 || strings.Join(rows[0], ",") != "date,amount,category,description" {
		t.Fatalf("unexpected sheet content: %v", rows)
	}
}

func TestAppendWritesLayoutAndRef(t *testing.T) {
	fake := newFakeSheets()
	c := newTestClient(t, fake, "Ledger")
	ctx := context.Background()
	if err := c.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	ref, err := c.Append(ctx, ledgertest.Tx(core.NewDate(2024, 3, 1), "100.00", core.Income, "salary"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "'Ledger'!A2:D2" {
		t.Fatalf("unexpected ref %q", ref)
	}
	rows := fake.rows("Ledger")
	if got := strings.Join(rows[1], ","); got != "01-03-2024,100,Income,salary" {
		t.Fatalf("unexpected row %q", got)
	}
}

func TestQueryUsesCacheUntilAppend(t *testing.T) {
	fake := newFakeSheets()
	c := newTestClient(t, fake, "Ledger")
	ctx := context.Background()
	if err := c.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	start, end := core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31)

	fake.valueGet = 0
	for i := 0; i < 3; i++ {
		if _, err := c.Query(ctx, start, end); err != nil {
			t.Fatal(err)
		}
	}
	if fake.valueGet != 1 {
		t.Fatalf("expected a single sheet read, got %d", fake.valueGet)
	}

	if _, err := c.Append(ctx, ledgertest.Tx(core.NewDate(2024, 3, 1), "5", core.Expense, "")); err != nil {
		t.Fatal(err)
	}
	got, err := c.Query(ctx, start, end)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected appended row to be visible, got %+v (err=%v)", got, err)
	}
	if fake.valueGet != 2 {
		t.Fatalf("expected a fresh read after append, got %d", fake.valueGet)
	}
}

func TestStorageErrors(t *testing.T) {
	fake := newFakeSheets()
	c := newTestClient(t, fake, "Ledger")
	fake.fail = true
	ctx := context.Background()

	if err := c.Initialize(ctx); !errors.Is(err, core.ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite from initialize, got %v", err)
	}
	if _, err := c.Append(ctx, ledgertest.Tx(core.NewDate(2024, 3, 1), "5", core.Expense, "")); !errors.Is(err, core.ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite from append, got %v", err)
	}
	if _, err := c.Query(ctx, core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31)); !errors.Is(err, core.ErrStorageRead) {
		t.Fatalf("expected ErrStorageRead from query, got %v", err)
	}
}

func TestNilServiceErrors(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Ledger"}
	if _, err := c.Append(context.Background(), ledgertest.Tx(core.NewDate(2024, 3, 1), "1", core.Income, "")); !errors.Is(err, core.ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}
}

func TestDecodeRows(t *testing.T) {
	rows := [][]string{
		{"date", "amount", "category", "description"},
		{"01-03-2024", "100", "Income", "salary"},
		{},
		{"", "", "", ""},
		{"02-03-2024", "40", "Expense"}, // trailing empty cell omitted by the API
	}
	got, err := decodeRows(rows)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[1].Description != "" || got[1].Category != core.Expense {
		t.Fatalf("unexpected decode result: %+v", got)
	}

	if got, err := decodeRows(nil); err != nil || len(got) != 0 {
		t.Fatalf("expected empty result for empty sheet, got %+v (err=%v)", got, err)
	}

	_, err = decodeRows([][]string{
		{"date", "amount", "category", "description"},
		{"01-03-2024", "-5", "Expense", "refund"},
	})
	var mre *core.MalformedRecordError
	if !errors.As(err, &mre) || mre.Line != 2 || mre.Field != "amount" {
		t.Fatalf("expected malformed amount on row 2, got %v", err)
	}

	_, err = decodeRows([][]string{{"Month", "Day"}})
	if !errors.Is(err, core.ErrMalformedRecord) {
		t.Fatalf("expected malformed header, got %v", err)
	}
}

func TestA1Range(t *testing.T) {
	cases := map[string]string{
		"Transactions": "'Transactions'!A:D",
		"Ledger 2024":  "'Ledger 2024'!A:D",
		"Bob's":        "'Bob''s'!A:D",
	}
	for sheet, want := range cases {
		if got := a1Range(sheet, "A:D"); got != want {
			t.Fatalf("%q: expected %q, got %q", sheet, want, got)
		}
	}
}
