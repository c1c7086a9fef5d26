package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"

	applog "github.com/janisto/subscriber-pipeline/internal/platform/logging"
)

const (
	spreadsheetMIME = "application/vnd.google-apps.spreadsheet"
	lastColumn      = "I"
)

// SheetsStore implements RecordStore on the first worksheet of a Google spreadsheet.
type SheetsStore struct {
	svc   *sheets.Service
	drive *drive.Service
	name  string

	mu            sync.Mutex
	spreadsheetID string
	title         string
	sheetID       int64
	loaded        bool
}

// worksheetRef locates the worksheet every call reads and writes.
type worksheetRef struct {
	spreadsheetID string
	title         string
	sheetID       int64
}

// NewSheetsStore creates a store bound to spreadsheetID.
func NewSheetsStore(svc *sheets.Service, spreadsheetID string) *SheetsStore {
	return &SheetsStore{svc: svc, spreadsheetID: spreadsheetID}
}

// NewSheetsStoreByName creates a store that looks the spreadsheet up by its
// Drive name on first use. A failed lookup is retried by the next call.
func NewSheetsStoreByName(svc *sheets.Service, drv *drive.Service, name string) *SheetsStore {
	return &SheetsStore{svc: svc, drive: drv, name: name}
}

// ResolveSpreadsheetID finds a spreadsheet by its Drive name.
func ResolveSpreadsheetID(ctx context.Context, svc *drive.Service, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), spreadsheetMIME)
	list, err := svc.Files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", unavailable("resolve spreadsheet", err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, name)
	}
	return list.Files[0].Id, nil
}

// worksheet resolves the spreadsheet and its first worksheet once. Failures
// are not cached.
func (s *SheetsStore) worksheet(ctx context.Context) (worksheetRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return worksheetRef{spreadsheetID: s.spreadsheetID, title: s.title, sheetID: s.sheetID}, nil
	}
	if s.spreadsheetID == "" {
		if s.drive == nil {
			return worksheetRef{}, fmt.Errorf("%w: no spreadsheet id or name configured", ErrSpreadsheetNotFound)
		}
		id, err := ResolveSpreadsheetID(ctx, s.drive, s.name)
		if err != nil {
			return worksheetRef{}, err
		}
		s.spreadsheetID = id
	}
	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return worksheetRef{}, classify("load spreadsheet", err)
	}
	if len(doc.Sheets) == 0 || doc.Sheets[0].Properties == nil {
		return worksheetRef{}, fmt.Errorf("%w: %s has no worksheets", ErrSpreadsheetNotFound, s.spreadsheetID)
	}
	s.title = doc.Sheets[0].Properties.Title
	s.sheetID = doc.Sheets[0].Properties.SheetId
	s.loaded = true
	return worksheetRef{spreadsheetID: s.spreadsheetID, title: s.title, sheetID: s.sheetID}, nil
}

func (r worksheetRef) rangeOf(a1 string) string {
	if a1 == "" {
		return quoteTitle(r.title)
	}
	return quoteTitle(r.title) + "!" + a1
}

func (s *SheetsStore) Column(ctx context.Context, col int) ([]string, error) {
	if col < 1 || col > len(Header) {
		return nil, fmt.Errorf("column %d outside schema", col)
	}
	letter := string(rune('A' + col - 1))
	ws, err := s.worksheet(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := s.svc.Spreadsheets.Values.Get(ws.spreadsheetID, ws.rangeOf(letter+":"+letter)).
		MajorDimension("COLUMNS").
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, classify("read column", err)
	}
	if len(resp.Values) == 0 {
		return []string{}, nil
	}
	out := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		out[i] = fmt.Sprint(v)
	}
	return out, nil
}

func (s *SheetsStore) Row(ctx context.Context, pos int) (Record, error) {
	if pos < FirstDataRow {
		return Record{}, ErrRowOutOfRange
	}
	ws, err := s.worksheet(ctx)
	if err != nil {
		return Record{}, err
	}
	resp, err := s.svc.Spreadsheets.Values.Get(ws.spreadsheetID, ws.rangeOf(fmt.Sprintf("A%d:%s%d", pos, lastColumn, pos))).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return Record{}, classify("read row", err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return Record{}, ErrRowOutOfRange
	}
	return RecordFromCells(resp.Values[0]), nil
}

func (s *SheetsStore) Rows(ctx context.Context) ([]Record, error) {
	ws, err := s.worksheet(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := s.svc.Spreadsheets.Values.Get(ws.spreadsheetID, ws.rangeOf("A:"+lastColumn)).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, classify("read rows", err)
	}
	if len(resp.Values) <= 1 {
		return []Record{}, nil
	}
	out := make([]Record, 0, len(resp.Values)-1)
	for _, row := range resp.Values[1:] {
		out = append(out, RecordFromCells(row))
	}
	return out, nil
}

// Append writes the row with RAW input so timestamps stay plain strings.
func (s *SheetsStore) Append(ctx context.Context, rec Record) error {
	ws, err := s.worksheet(ctx)
	if err != nil {
		return err
	}
	vr := &sheets.ValueRange{Values: [][]any{rec.Cells()}}
	_, err = s.svc.Spreadsheets.Values.Append(ws.spreadsheetID, ws.rangeOf("A1"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return classify("append row", err)
	}
	return nil
}

func (s *SheetsStore) DeleteRow(ctx context.Context, pos int) error {
	if pos < FirstDataRow {
		return ErrRowOutOfRange
	}
	ws, err := s.worksheet(ctx)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         ws.sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(pos - 1),
					EndIndex:        int64(pos),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(ws.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return classify("delete row", err)
	}
	return nil
}

// Initialize clears the worksheet, writes the header and makes it bold on grey.
func (s *SheetsStore) Initialize(ctx context.Context) error {
	ws, err := s.worksheet(ctx)
	if err != nil {
		return err
	}
	if _, err := s.svc.Spreadsheets.Values.Clear(ws.spreadsheetID, ws.rangeOf(""), &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return classify("clear sheet", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	_, err = s.svc.Spreadsheets.Values.Update(ws.spreadsheetID, ws.rangeOf("A1:"+lastColumn+"1"), &sheets.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return classify("write header", err)
	}

	format := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          ws.sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(len(Header)),
					ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(ws.spreadsheetID, format).Context(ctx).Do(); err != nil {
		// Formatting is cosmetic; the header is already in place.
		applog.LogWarn(ctx, "header formatting failed", zap.Error(err))
	}
	return nil
}

func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %v", ErrSpreadsheetNotFound, op, err)
	}
	return unavailable(op, err)
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

// Compile-time interface checks
var (
	_ RecordStore = (*SheetsStore)(nil)
	_ Initializer = (*SheetsStore)(nil)
)
