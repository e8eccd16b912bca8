// Package google keeps the ledger in a Google Sheets tab with the same four
// columns as the CSV layout.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ledger"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultSheetName = "Transactions"
	defaultCacheTTL  = 30 * time.Second
)

// Options configures the Sheets client.
type Options struct {
	SpreadsheetID string
	SheetName     string

	// Service account credentials, inline JSON preferred over the file.
	// Both empty falls back to GOOGLE_APPLICATION_CREDENTIALS.
	CredentialsJSON string
	CredentialsFile string

	// CacheTTL bounds how long a read of the sheet is reused.
	CacheTTL time.Duration

	// ClientOptions are passed to the Sheets service as-is.
	ClientOptions []goption.ClientOption
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	rows          cache.Cache[[][]string]
}

// Ensure interface conformance
var _ ledger.Store = (*Client)(nil)

// New creates a Sheets-backed ledger.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		rows:          cache.NewLRUCache[[][]string](4, ttl),
	}, nil
}

// newSheetsService initializes a Sheets Service. Explicit client options
// win; otherwise service account credentials are required.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	if len(opts.ClientOptions) > 0 {
		return gsheet.NewService(ctx, opts.ClientOptions...)
	}

	credentialsJSON := []byte(strings.TrimSpace(opts.CredentialsJSON))
	credentialsFile := strings.TrimSpace(opts.CredentialsFile)
	if credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case len(credentialsJSON) > 0:
		slog.InfoContext(ctx, "Using inline JSON credentials")
	case credentialsFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", credentialsFile)
		var err error
		credentialsJSON, err = os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Initialize adds the sheet tab when it is missing and writes the header
// into an empty first row. Existing rows are left untouched.
func (c *Client) Initialize(ctx context.Context) error {
	if c.svc == nil {
		return fmt.Errorf("%w: sheets service not initialized", core.ErrStorageWrite)
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: get spreadsheet %s: %w", core.ErrStorageWrite, c.spreadsheetID, err)
	}
	if !hasSheet(ss, c.sheetName) {
		req := &gsheet.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheet.Request{{
				AddSheet: &gsheet.AddSheetRequest{
					Properties: &gsheet.SheetProperties{Title: c.sheetName},
				},
			}},
		}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("%w: add sheet %s: %w", core.ErrStorageWrite, c.sheetName, err)
		}
		slog.InfoContext(ctx, "Created ledger sheet", "sheet", c.sheetName)
	}

	headerRange := a1Range(c.sheetName, "A1:D1")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", core.ErrStorageWrite, headerRange, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		vr := &gsheet.ValueRange{Values: [][]any{toRow(ledger.Columns)}}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, headerRange, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%w: write header %s: %w", core.ErrStorageWrite, headerRange, err)
		}
	}

	c.rows.Purge()
	return nil
}

// Append adds one row after the last non-empty row of the sheet. Values are
// written RAW so dates and amounts stay text in the stored layout.
func (c *Client) Append(ctx context.Context, t core.Transaction) (string, error) {
	if c.svc == nil {
		return "", fmt.Errorf("%w: sheets service not initialized", core.ErrStorageWrite)
	}

	rng := c.dataRange()
	vr := &gsheet.ValueRange{Values: [][]any{toRow(ledger.EncodeRecord(t))}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	c.rows.Delete(rng)
	if err != nil {
		return "", fmt.Errorf("%w: append to %s: %w", core.ErrStorageWrite, rng, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// Query reads the whole sheet, reusing a recent read when one is cached.
func (c *Client) Query(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	rows, err := c.readRows(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := decodeRows(rows)
	if err != nil {
		return nil, err
	}
	return ledger.Filter(txs, start, end), nil
}

func (c *Client) readRows(ctx context.Context) ([][]string, error) {
	if c.svc == nil {
		return nil, fmt.Errorf("%w: sheets service not initialized", core.ErrStorageRead)
	}
	rng := c.dataRange()
	if rows, ok := c.rows.Get(rng); ok {
		return rows, nil
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", core.ErrStorageRead, rng, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = toStrings(row)
	}
	c.rows.Set(rng, rows)
	return rows, nil
}

func (c *Client) dataRange() string {
	return a1Range(c.sheetName, "A:D")
}

// decodeRows turns sheet rows into transactions. Row 1 must be the header;
// fully empty rows are skipped, and row numbers in errors are sheet rows.
func decodeRows(rows [][]string) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for i, row := range rows {
		line := i + 1
		if i == 0 {
			if len(row) == 0 {
				continue
			}
			if err := ledger.CheckHeader(line, row); err != nil {
				return nil, err
			}
			continue
		}
		if isBlank(row) {
			continue
		}
		t, err := ledger.DecodeRecord(line, row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func hasSheet(ss *gsheet.Spreadsheet, title string) bool {
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return true
		}
	}
	return false
}

// a1Range quotes the sheet name so names with spaces or quotes are valid.
func a1Range(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func toRow(rec []string) []any {
	out := make([]any, len(rec))
	for i, v := range rec {
		out[i] = v
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
