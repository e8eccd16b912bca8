package csvfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/ledgertest"
)

func TestStoreConformance(t *testing.T) {
	ledgertest.Run(t, ledgertest.Harness{
		New: func(t *testing.T) ledger.Store {
			return New(filepath.Join(t.TempDir(), "finance_data.csv"))
		},
		AppendRaw: func(t *testing.T, s ledger.Store, rec []string) {
			t.Helper()
			if err := s.(*Store).AppendRecord(rec); err != nil {
				t.Fatalf("append raw: %v", err)
			}
		},
	})
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestInitializeWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.csv")
	s := New(path)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.Initialize(ctx); err != nil {
			t.Fatalf("initialize #%d: %v", i+1, err)
		}
	}
	if got := readFile(t, path); got != "date,amount,category,description\n" {
		t.Fatalf("unexpected file content: %q", got)
	}
}

func TestInitializeKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	content := "date,amount,category,description\n01-03-2024,100.0,Income,salary\n"
	writeFile(t, path, content)

	if err := New(path).Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if got := readFile(t, path); got != content {
		t.Fatalf("existing file was modified: %q", got)
	}
}

func TestEmptyFileGetsHeader(t *testing.T) {
	tx := ledgertest.Tx(core.NewDate(2024, 3, 1), "100", core.Income, "salary")
	want := "date,amount,category,description\n01-03-2024,100,Income,salary\n"

	tests := []struct {
		name       string
		initialize bool
	}{
		{name: "initialize then append", initialize: true},
		{name: "append only", initialize: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ledger.csv")
			writeFile(t, path, "")
			s := New(path)
			ctx := context.Background()

			if tt.initialize {
				if err := s.Initialize(ctx); err != nil {
					t.Fatalf("initialize: %v", err)
				}
			}
			if _, err := s.Append(ctx, tx); err != nil {
				t.Fatalf("append: %v", err)
			}
			if got := readFile(t, path); got != want {
				t.Fatalf("unexpected file content: %q", got)
			}
			got, err := s.Query(ctx, tx.Date, tx.Date)
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			ledgertest.AssertEqual(t, got, []core.Transaction{tx})
		})
	}
}

func TestAppendLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	s := New(path)
	ctx := context.Background()
	if err := s.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	for _, tx := range []core.Transaction{
		ledgertest.Tx(core.NewDate(2024, 3, 1), "100.00", core.Income, "salary"),
		ledgertest.Tx(core.NewDate(2024, 3, 2), "40.5", core.Expense, "food, drinks"),
	} {
		if _, err := s.Append(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}

	want := "date,amount,category,description\n" +
		"01-03-2024,100,Income,salary\n" +
		"02-03-2024,40.5,Expense,\"food, drinks\"\n"
	if got := readFile(t, path); got != want {
		t.Fatalf("unexpected layout:\n%s\nwant:\n%s", got, want)
	}
}

func TestAppendWithoutInitialize(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing.csv"))
	_, err := s.Append(context.Background(), ledgertest.Tx(core.NewDate(2024, 3, 1), "1", core.Income, ""))
	if !errors.Is(err, core.ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}
}

func TestAppendUnwritable(t *testing.T) {
	dir := t.TempDir()
	_, err := New(dir).Append(context.Background(), ledgertest.Tx(core.NewDate(2024, 3, 1), "1", core.Income, ""))
	if !errors.Is(err, core.ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}
}

func TestAppendAddsMissingTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	writeFile(t, path, "date,amount,category,description\n01-03-2024,100.0,Income,salary")
	s := New(path)
	ctx := context.Background()
	if _, err := s.Append(ctx, ledgertest.Tx(core.NewDate(2024, 3, 2), "40", core.Expense, "food")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Query(ctx, core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 2))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %+v", got)
	}
}

func TestQueryMissingFile(t *testing.T) {
	got, err := New(filepath.Join(t.TempDir(), "missing.csv")).
		Query(context.Background(), core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %+v (err=%v)", got, err)
	}
}

func TestQueryUnreadable(t *testing.T) {
	_, err := New(t.TempDir()).Query(context.Background(), core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
	if !errors.Is(err, core.ErrStorageRead) {
		t.Fatalf("expected ErrStorageRead, got %v", err)
	}
}

func TestQueryLegacyFile(t *testing.T) {
	// Rows as written by earlier versions: float amounts, empty descriptions,
	// a blank line left by a manual edit.
	path := filepath.Join(t.TempDir(), "finance_data.csv")
	writeFile(t, path, strings.Join([]string{
		"date,amount,category,description",
		"01-03-2024,100.0,Income,salary",
		"",
		"02-03-2024,40.0,Expense,",
		"15-04-2024,12.5,Expense,books",
	}, "\n")+"\n")

	got, err := New(path).Query(context.Background(), core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	ledgertest.AssertEqual(t, got, []core.Transaction{
		ledgertest.Tx(core.NewDate(2024, 3, 1), "100", core.Income, "salary"),
		ledgertest.Tx(core.NewDate(2024, 3, 2), "40", core.Expense, ""),
	})
}

func TestQueryMalformedReportsLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	writeFile(t, path, strings.Join([]string{
		"date,amount,category,description",
		"01-03-2024,100.0,Income,salary",
		"",
		"02-03-2024,40.0,Foo,food",
	}, "\n")+"\n")

	_, err := New(path).Query(context.Background(), core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
	var mre *core.MalformedRecordError
	if !errors.As(err, &mre) {
		t.Fatalf("expected MalformedRecordError, got %v", err)
	}
	if mre.Line != 4 || mre.Field != "category" || mre.Value != "Foo" {
		t.Fatalf("unexpected error detail: %+v", mre)
	}
}

func TestQueryBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	writeFile(t, path, "when,how much\n01-03-2024,1\n")
	_, err := New(path).Query(context.Background(), core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
	if !errors.Is(err, core.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestQueryBrokenQuoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	writeFile(t, path, "date,amount,category,description\n01-03-2024,1,Income,\"open\n")
	_, err := New(path).Query(context.Background(), core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
	if !errors.Is(err, core.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestDecodeEmpty(t *testing.T) {
	got, err := Decode(strings.NewReader(""))
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty ledger, got %+v (err=%v)", got, err)
	}
}
