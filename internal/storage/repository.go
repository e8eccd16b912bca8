// Package storage keeps the ledger in a local SQLite database. Rows carry a
// sync status so a mirror worker can copy them to a second store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"

	_ "modernc.org/sqlite"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "./data/fintrack.db"

// connPragmas apply to every pooled connection. In WAL mode readers never
// block the writer; a held write lock is waited on for up to 5s.
const connPragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// dsn is the modernc driver data source for the database file at path.
func dsn(path string) string {
	return path + "?" + connPragmas
}

// Sync states of a stored row.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// StoredTransaction is a row together with its bookkeeping columns.
type StoredTransaction struct {
	ID          int64
	Transaction core.Transaction
	CreatedAt   time.Time
	SyncStatus  string
}

type SQLiteRepository struct {
	db     *sql.DB
	dbPath string
}

// Ensure interface conformance
var _ ledger.Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens the database at dbPath, creating its directory.
// The schema is created by Initialize.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dbPath == "" {
		dbPath = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, dbPath: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Initialize applies pending migrations. Already migrated databases are
// left as they are.
func (r *SQLiteRepository) Initialize(ctx context.Context) error {
	if err := RunMigrations(r.dbPath); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageWrite, err)
	}
	slog.DebugContext(ctx, "SQLite schema ready", "path", r.dbPath)
	return nil
}

// Append inserts t as a pending row and returns its id.
func (r *SQLiteRepository) Append(ctx context.Context, t core.Transaction) (string, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date_iso, amount, category, description) VALUES (?, ?, ?, ?)`,
		t.Date.ISO(), t.Amount.String(), t.Category.String(), t.Description)
	if err != nil {
		return "", fmt.Errorf("%w: insert transaction: %w", core.ErrStorageWrite, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("%w: read inserted id: %w", core.ErrStorageWrite, err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"date", t.Date.String(),
		"category", t.Category.String())

	return strconv.FormatInt(id, 10), nil
}

// Query returns rows dated within [start, end] in insertion order. A
// database that was never initialized reads as empty.
func (r *SQLiteRepository) Query(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0)
	if start.After(end) {
		return out, nil
	}
	ok, err := r.tableExists(ctx)
	if err != nil || !ok {
		return out, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date_iso, amount, category, description, created_at, sync_status
		   FROM transactions
		  WHERE date_iso BETWEEN ? AND ?
		  ORDER BY id`,
		start.ISO(), end.ISO())
	if err != nil {
		return nil, fmt.Errorf("%w: query transactions: %w", core.ErrStorageRead, err)
	}
	defer rows.Close()

	for rows.Next() {
		st, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st.Transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate transactions: %w", core.ErrStorageRead, err)
	}
	return out, nil
}

// GetTransaction returns the row with the given id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*StoredTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, date_iso, amount, category, description, created_at, sync_status
		   FROM transactions WHERE id = ?`, id)
	st, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %d not found", core.ErrStorageRead, id)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// GetPendingSync returns up to limit rows not yet mirrored, oldest first.
// Rows that failed before are retried after the never-attempted ones.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM transactions
		  WHERE sync_status IN ('pending', 'error')
		  ORDER BY sync_status = 'error', id
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced', synced_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) tableExists(ctx context.Context) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'transactions'`).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: inspect schema: %w", core.ErrStorageRead, err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanTransaction reads one row and validates it like any other stored
// record, reporting the row id as the line.
func scanTransaction(s scanner) (*StoredTransaction, error) {
	var (
		st                                   StoredTransaction
		dateISO, amount, category, desc, sts string
		createdAt                            sql.NullTime
	)
	if err := s.Scan(&st.ID, &dateISO, &amount, &category, &desc, &createdAt, &sts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scan transaction: %w", core.ErrStorageRead, err)
	}

	date, err := core.ParseISODate(dateISO)
	if err != nil {
		return nil, &core.MalformedRecordError{Line: int(st.ID), Field: "date", Value: dateISO, Err: err}
	}
	t, err := ledger.DecodeRecord(int(st.ID), []string{date.String(), amount, category, desc})
	if err != nil {
		return nil, err
	}

	st.Transaction = t
	st.CreatedAt = createdAt.Time
	st.SyncStatus = sts
	return &st, nil
}
