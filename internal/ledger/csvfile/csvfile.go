// Package csvfile stores the ledger as a CSV file with the header
// date,amount,category,description.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// DefaultPath matches the file name the ledger has always used.
const DefaultPath = "finance_data.csv"

type Store struct {
	path string
}

// Ensure interface conformance
var _ ledger.Store = (*Store)(nil)

func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Initialize creates the file with only the header row when it is absent.
// An existing empty file gets the header too.
func (s *Store) Initialize(ctx context.Context) error {
	info, err := os.Stat(s.path)
	if err == nil {
		if info.Size() > 0 {
			return nil
		}
		f, err := s.openForAppend()
		if err != nil {
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("%w: close %s: %w", core.ErrStorageWrite, s.path, err)
		}
		slog.InfoContext(ctx, "Header written to empty ledger file", "path", s.path)
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %w", core.ErrStorageWrite, s.path, err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create directory %s: %w", core.ErrStorageWrite, dir, err)
		}
	}

	// O_EXCL keeps an existing file intact if one appeared since the stat.
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", core.ErrStorageWrite, s.path, err)
	}
	// A file without its header would turn every later row into line 1.
	if err := writeRecord(f, ledger.Columns); err != nil {
		f.Close()
		os.Remove(s.path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(s.path)
		return fmt.Errorf("%w: close %s: %w", core.ErrStorageWrite, s.path, err)
	}

	slog.InfoContext(ctx, "Ledger file created", "path", s.path)
	return nil
}

// Append adds one row at the end of the file. The file must have been
// initialized; existing rows are never rewritten.
func (s *Store) Append(ctx context.Context, t core.Transaction) (string, error) {
	f, err := s.openForAppend()
	if err != nil {
		return "", err
	}
	if err := writeRecord(f, ledger.EncodeRecord(t)); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %w", core.ErrStorageWrite, s.path, err)
	}

	slog.DebugContext(ctx, "Transaction appended to ledger file",
		"path", s.path,
		"date", t.Date.String(),
		"category", t.Category.String())

	return s.path, nil
}

// Query reads the whole file and returns the rows within [start, end].
// A missing file is an empty ledger. The first malformed row aborts the read.
func (s *Store) Query(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	return ledger.Filter(all, start, end), nil
}

func (s *Store) readAll() ([]core.Transaction, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.Transaction{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", core.ErrStorageRead, s.path, err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a ledger CSV stream, header first. An empty stream is an
// empty ledger.
func Decode(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // column count is checked per row

	out := make([]core.Transaction, 0)
	for header := true; ; header = false {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, &core.MalformedRecordError{Line: perr.Line, Err: err}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrStorageRead, err)
		}
		// Blank lines are skipped by the reader, so ask it for the real line.
		line, _ := cr.FieldPos(0)

		if header {
			if err := ledger.CheckHeader(line, rec); err != nil {
				return nil, err
			}
			continue
		}
		t, err := ledger.DecodeRecord(line, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}

// AppendRecord writes rec verbatim at the end of the file.
func (s *Store) AppendRecord(rec []string) error {
	f, err := s.openForAppend()
	if err != nil {
		return err
	}
	defer f.Close()
	return writeRecord(f, rec)
}

// openForAppend opens the existing file for appending. An empty file gets
// the header first. A hand-edited file whose last line lacks a newline gets
// one so the new row starts cleanly.
func (s *Store) openForAppend() (*os.File, error) {
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", core.ErrStorageWrite, s.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %w", core.ErrStorageWrite, s.path, err)
	}
	if info.Size() == 0 {
		if err := writeRecord(f, ledger.Columns); err != nil {
			f.Close()
			return nil, err
		}
		return f, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: read %s: %w", core.ErrStorageWrite, s.path, err)
	}
	if last[0] != '\n' {
		if _, err := f.Write([]byte{'\n'}); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: write %s: %w", core.ErrStorageWrite, s.path, err)
		}
	}
	return f, nil
}

func writeRecord(w io.Writer, rec []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rec); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageWrite, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageWrite, err)
	}
	return nil
}
