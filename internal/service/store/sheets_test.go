package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheets serves the subset of the Sheets v4 REST API the store calls.
type fakeSheets struct {
	mu       sync.Mutex
	rows     [][]any
	missing  bool
	requests []string
	lastBody map[string]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	if f.missing {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found."}}`))
		return
	}

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-1"):
		writeJSON(w, map[string]any{"sheets": []any{map[string]any{"properties": map[string]any{"title": "Sheet1", "sheetId": 7}}}})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var body struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.rows = append(f.rows, body.Values...)
		writeJSON(w, map[string]any{"spreadsheetId": "sheet-1"})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.lastBody = body
		f.applyBatch(body)
		writeJSON(w, map[string]any{"spreadsheetId": "sheet-1"})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.rows = nil
		writeJSON(w, map[string]any{"spreadsheetId": "sheet-1"})
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var body struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(f.rows) == 0 {
			f.rows = body.Values
		} else {
			f.rows[0] = body.Values[0]
		}
		writeJSON(w, map[string]any{"spreadsheetId": "sheet-1"})
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		f.serveValues(w, r, path[strings.Index(path, "/values/")+len("/values/"):])
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"unexpected call"}}`))
	}
}

func (f *fakeSheets) serveValues(w http.ResponseWriter, r *http.Request, rng string) {
	a1 := rng[strings.Index(rng, "!")+1:]
	switch {
	case r.URL.Query().Get("majorDimension") == "COLUMNS":
		col := int(a1[0] - 'A')
		values := []any{}
		for _, row := range f.rows {
			if col < len(row) {
				values = append(values, row[col])
			} else {
				values = append(values, "")
			}
		}
		writeJSON(w, map[string]any{"range": rng, "values": [][]any{values}})
	case strings.HasPrefix(a1, "A:"):
		writeJSON(w, map[string]any{"range": rng, "values": f.rows})
	default:
		var pos int
		for _, c := range a1[1:] {
			if c < '0' || c > '9' {
				break
			}
			pos = pos*10 + int(c-'0')
		}
		if pos-1 >= len(f.rows) {
			writeJSON(w, map[string]any{"range": rng})
			return
		}
		writeJSON(w, map[string]any{"range": rng, "values": [][]any{f.rows[pos-1]}})
	}
}

func (f *fakeSheets) applyBatch(body map[string]any) {
	reqs, _ := body["requests"].([]any)
	for _, raw := range reqs {
		req, _ := raw.(map[string]any)
		del, ok := req["deleteDimension"].(map[string]any)
		if !ok {
			continue
		}
		rng := del["range"].(map[string]any)
		start := int(rng["startIndex"].(float64))
		if start < len(f.rows) {
			f.rows = append(f.rows[:start], f.rows[start+1:]...)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

func newFakeSheetsService(t *testing.T, fake *fakeSheets) *sheets.Service {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}
	return svc
}

func newFakeSheetsStore(t *testing.T, fake *fakeSheets) *SheetsStore {
	t.Helper()
	return NewSheetsStore(newFakeSheetsService(t, fake), "sheet-1")
}

// fakeDrive answers spreadsheet lookups by name.
type fakeDrive struct {
	mu      sync.Mutex
	status  int
	found   bool
	lookups int
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
		return
	}
	if !f.found {
		writeJSON(w, map[string]any{"files": []any{}})
		return
	}
	writeJSON(w, map[string]any{"files": []any{map[string]any{"id": "sheet-1", "name": "Subscriber List"}}})
}

func (f *fakeDrive) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func newFakeDriveService(t *testing.T, fake *fakeDrive) *drive.Service {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := drive.NewService(context.Background(), option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("drive service: %v", err)
	}
	return svc
}

func headerRow() []any {
	out := make([]any, len(Header))
	for i, h := range Header {
		out[i] = h
	}
	return out
}

func TestSheetsStoreColumnAndRow(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{
		headerRow(),
		{"Jane Doe", "jane@example.com", "2024-01-15 10:30:00", "1.2.3.4", "US", "WA", "Seattle", 47.6, -122.3},
	}}
	s := newFakeSheetsStore(t, fake)
	ctx := context.Background()

	col, err := s.Column(ctx, ColEmail)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(col) != 2 || col[0] != "Email" || col[1] != "jane@example.com" {
		t.Errorf("unexpected column: %v", col)
	}

	rec, err := s.Row(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.City != "Seattle" || rec.Latitude != 47.6 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if _, err := s.Row(ctx, 5); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("expected ErrRowOutOfRange, got %v", err)
	}
}

func TestSheetsStoreAppendDeleteRows(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{headerRow()}}
	s := newFakeSheetsStore(t, fake)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		if err := s.Append(ctx, Record{Name: "N", Email: email}); err != nil {
			t.Fatalf("append %s: %v", email, err)
		}
	}
	if err := s.DeleteRow(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rows, err := s.Rows(ctx)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 1 || rows[0].Email != "b@example.com" {
		t.Errorf("unexpected rows after delete: %+v", rows)
	}

	rng := fake.lastBody["requests"].([]any)[0].(map[string]any)["deleteDimension"].(map[string]any)["range"].(map[string]any)
	if rng["sheetId"].(float64) != 7 || rng["dimension"] != "ROWS" {
		t.Errorf("unexpected delete range: %v", rng)
	}
}

func TestSheetsStoreWorksheetCached(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{headerRow()}}
	s := newFakeSheetsStore(t, fake)
	ctx := context.Background()

	_, _ = s.Rows(ctx)
	_, _ = s.Rows(ctx)

	metadata := 0
	for _, r := range fake.requests {
		if strings.HasSuffix(r, "/spreadsheets/sheet-1") {
			metadata++
		}
	}
	if metadata != 1 {
		t.Errorf("expected worksheet metadata fetched once, got %d", metadata)
	}
}

func TestSheetsStoreNotFound(t *testing.T) {
	s := newFakeSheetsStore(t, &fakeSheets{missing: true})
	_, err := s.Rows(context.Background())
	if !errors.Is(err, ErrSpreadsheetNotFound) {
		t.Errorf("expected ErrSpreadsheetNotFound, got %v", err)
	}
}

func TestSheetsStoreInitialize(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{{"junk"}, {"more junk"}}}
	s := newFakeSheetsStore(t, fake)

	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.rows) != 1 || fake.rows[0][1] != "Email" {
		t.Errorf("expected header only, got %v", fake.rows)
	}
	if _, ok := fake.lastBody["requests"].([]any)[0].(map[string]any)["repeatCell"]; !ok {
		t.Error("expected header formatting request")
	}
}

func TestResolveSpreadsheetID(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(query, "Missing") {
			writeJSON(w, map[string]any{"files": []any{}})
			return
		}
		writeJSON(w, map[string]any{"files": []any{map[string]any{"id": "abc123", "name": "Subscriber List"}}})
	}))
	defer srv.Close()

	svc, err := drive.NewService(context.Background(), option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("drive service: %v", err)
	}

	id, err := ResolveSpreadsheetID(context.Background(), svc, "Subscriber List")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "abc123" {
		t.Errorf("expected abc123, got %s", id)
	}
	if !strings.Contains(query, "name = 'Subscriber List'") || !strings.Contains(query, spreadsheetMIME) {
		t.Errorf("unexpected query: %s", query)
	}

	if _, err := ResolveSpreadsheetID(context.Background(), svc, "Missing"); !errors.Is(err, ErrSpreadsheetNotFound) {
		t.Errorf("expected ErrSpreadsheetNotFound, got %v", err)
	}
}

func TestEscapeQuery(t *testing.T) {
	if got := escapeQuery(`O'Brien\List`); got != `O\'Brien\\List` {
		t.Errorf("unexpected escape: %s", got)
	}
	if got := quoteTitle("Bob's"); got != "'Bob''s'" {
		t.Errorf("unexpected title quoting: %s", got)
	}
}

func TestSheetsStoreResolvesNameOnFirstUse(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{headerRow(), {"Jane", "jane@example.com"}}}
	dr := &fakeDrive{}
	s := NewSheetsStoreByName(newFakeSheetsService(t, fake), newFakeDriveService(t, dr), "Subscriber List")
	ctx := context.Background()

	if n := dr.count(); n != 0 {
		t.Fatalf("expected no lookup before first use, got %d", n)
	}
	if _, err := s.Rows(ctx); !errors.Is(err, ErrSpreadsheetNotFound) {
		t.Fatalf("expected ErrSpreadsheetNotFound, got %v", err)
	}

	dr.mu.Lock()
	dr.found = true
	dr.mu.Unlock()

	rows, err := s.Rows(ctx)
	if err != nil {
		t.Fatalf("unexpected error after spreadsheet created: %v", err)
	}
	if len(rows) != 1 || rows[0].Email != "jane@example.com" {
		t.Errorf("unexpected rows: %+v", rows)
	}
	if _, err := s.Column(ctx, ColEmail); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := dr.count(); n != 2 {
		t.Errorf("expected resolved id to be reused, got %d lookups", n)
	}
}

func TestSheetsStoreNameLookupUnavailable(t *testing.T) {
	dr := &fakeDrive{status: http.StatusForbidden}
	s := NewSheetsStoreByName(newFakeSheetsService(t, &fakeSheets{}), newFakeDriveService(t, dr), "Subscriber List")

	_, err := s.Rows(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
