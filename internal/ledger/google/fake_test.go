package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets is an in-process stand-in for the parts of the Sheets v4 REST
// API the client uses: spreadsheets.get, batchUpdate(addSheet) and
// values.get/update/append.
type fakeSheets struct {
	mu       sync.Mutex
	sheets   map[string][][]string
	order    []string
	valueGet int
	fail     bool
}

func newFakeSheets(tabs ...string) *fakeSheets {
	f := &fakeSheets{sheets: map[string][][]string{}}
	for _, tab := range tabs {
		f.addSheet(tab)
	}
	return f
}

func (f *fakeSheets) addSheet(title string) {
	if _, ok := f.sheets[title]; ok {
		return
	}
	f.sheets[title] = nil
	f.order = append(f.order, title)
}

func (f *fakeSheets) rows(title string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.sheets[title]...)
}

func (f *fakeSheets) appendRow(title string, row []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheets[title] = append(f.sheets[title], row)
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		http.Error(w, `{"error":{"code":500,"message":"backend down"}}`, http.StatusInternalServerError)
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/v4/spreadsheets/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, valuesPath, isValues := strings.Cut(rest, "/values/")

	switch {
	case !isValues && strings.HasSuffix(id, ":batchUpdate") && r.Method == http.MethodPost:
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.addSheet(rq.AddSheet.Properties.Title)
			}
		}
		writeJSON(w, gsheet.BatchUpdateSpreadsheetResponse{})

	case !isValues && r.Method == http.MethodGet:
		ss := gsheet.Spreadsheet{}
		for _, title := range f.order {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: title}})
		}
		writeJSON(w, ss)

	case isValues && strings.HasSuffix(valuesPath, ":append") && r.Method == http.MethodPost:
		sheet, _ := splitRange(strings.TrimSuffix(valuesPath, ":append"))
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, row := range vr.Values {
			f.sheets[sheet] = append(f.sheets[sheet], toStrings(row))
		}
		n := len(f.sheets[sheet])
		writeJSON(w, gsheet.AppendValuesResponse{
			Updates: &gsheet.UpdateValuesResponse{UpdatedRange: a1Range(sheet, "A"+itoa(n)+":D"+itoa(n))},
		})

	case isValues && r.Method == http.MethodPut:
		sheet, _ := splitRange(valuesPath)
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// Only the header row is ever updated.
		rows := f.sheets[sheet]
		if len(rows) == 0 {
			rows = append(rows, nil)
		}
		rows[0] = toStrings(vr.Values[0])
		f.sheets[sheet] = rows
		writeJSON(w, gsheet.UpdateValuesResponse{})

	case isValues && r.Method == http.MethodGet:
		f.valueGet++
		sheet, cells := splitRange(valuesPath)
		rows := f.sheets[sheet]
		if strings.HasPrefix(cells, "A1:") && len(rows) > 1 {
			rows = rows[:1]
		}
		vr := gsheet.ValueRange{Range: valuesPath}
		for _, row := range rows {
			vr.Values = append(vr.Values, toRow(row))
		}
		writeJSON(w, vr)

	default:
		http.NotFound(w, r)
	}
}

func splitRange(rng string) (sheet, cells string) {
	i := strings.LastIndex(rng, "!")
	sheet, cells = rng[:i], rng[i+1:]
	if strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	return sheet, cells
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

// newTestClient starts a fake API server and returns a client wired to it.
func newTestClient(t *testing.T, fake *fakeSheets, sheetName string) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Options{
		SpreadsheetID: "test-spreadsheet",
		SheetName:     sheetName,
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithHTTPClient(srv.Client()),
		},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}
