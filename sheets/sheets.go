// Package sheets provides a Google Sheets-backed ledger for shelfwatch.
//
// The spreadsheet layout is a header-marker cell in the URL column with
// the tracked URLs listed below it. Each completed cycle inserts two
// fresh columns next to the URL column, stamped with the run time, so
// older observations shift right instead of being overwritten.
package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/akarpov/shelfwatch"
	"google.golang.org/api/sheets/v4"
)

// DefaultHeaderMarker is the cell content that anchors the URL column.
const DefaultHeaderMarker = "Ссылка"

// Compile-time interface verification.
var _ shelfwatch.Ledger = (*LedgerService)(nil)

// LedgerService implements shelfwatch.Ledger on top of a Google Sheets
// spreadsheet.
type LedgerService struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	sheetID       int64
	headerMarker  string
	urlColumn     int64 // zero-based
}

// LedgerOption configures a LedgerService.
type LedgerOption func(*LedgerService)

// WithSheet selects the sheet tab by name and grid id. The grid id is
// required for column inserts; it is 0 for the first tab.
func WithSheet(name string, id int64) LedgerOption {
	return func(s *LedgerService) {
		s.sheetName = name
		s.sheetID = id
	}
}

// WithHeaderMarker overrides the header cell content that anchors the
// URL column.
func WithHeaderMarker(marker string) LedgerOption {
	return func(s *LedgerService) { s.headerMarker = marker }
}

// WithURLColumn sets the zero-based index of the URL column.
func WithURLColumn(index int64) LedgerOption {
	return func(s *LedgerService) { s.urlColumn = index }
}

// NewLedgerService creates a LedgerService for one spreadsheet.
func NewLedgerService(svc *sheets.Service, spreadsheetID string, opts ...LedgerOption) *LedgerService {
	s := &LedgerService{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     "Sheet1",
		headerMarker:  DefaultHeaderMarker,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadURLs returns the URLs below the header marker, in row order.
// Blank rows inside the range read as empty strings.
func (s *LedgerService) ReadURLs(ctx context.Context) ([]string, error) {
	column, _, err := s.readURLColumn(ctx)
	if err != nil {
		return nil, err
	}
	return column, nil
}

// WriteRecords inserts two fresh columns next to the URL column and
// fills them with the records, in one batchUpdate. The header row is
// stamped with the run time. The Discounted flag is not rendered; the
// ledger stores values only.
func (s *LedgerService) WriteRecords(ctx context.Context, records []shelfwatch.Record) error {
	_, headerRow, err := s.readURLColumn(ctx)
	if err != nil {
		return err
	}

	insertAt := s.urlColumn + 1

	rows := make([]*sheets.RowData, 0, len(records)+1)
	rows = append(rows, textRow(time.Now().Format("02.01.2006 15:04"), ""))
	for _, record := range records {
		rows = append(rows, textRow(record.Quantity, record.Price))
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				InsertDimension: &sheets.InsertDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:    s.sheetID,
						Dimension:  "COLUMNS",
						StartIndex: insertAt,
						EndIndex:   insertAt + 2,
					},
				},
			},
			{
				UpdateCells: &sheets.UpdateCellsRequest{
					Start: &sheets.GridCoordinate{
						SheetId:     s.sheetID,
						RowIndex:    headerRow,
						ColumnIndex: insertAt,
					},
					Rows:   rows,
					Fields: "userEnteredValue",
				},
			},
		},
	}

	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	return err
}

// ReplaceURL rewrites the cell holding oldURL. Matching is exact.
func (s *LedgerService) ReplaceURL(ctx context.Context, oldURL, newURL string) error {
	column, headerRow, err := s.readURLColumn(ctx)
	if err != nil {
		return err
	}

	for i, url := range column {
		if url != oldURL {
			continue
		}

		// Sheet rows are 1-based; the first URL sits just below the header.
		cell := fmt.Sprintf("%s!%s%d", s.sheetName, columnLetter(s.urlColumn), headerRow+int64(i)+2)
		_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, cell, &sheets.ValueRange{
			Values: [][]any{{newURL}},
		}).ValueInputOption("RAW").Context(ctx).Do()
		return err
	}

	return shelfwatch.Errorf(shelfwatch.ENOTFOUND, "url not tracked: %s", oldURL)
}

// readURLColumn reads the URL column and splits it at the header
// marker. Returns the URLs below the marker and the marker's zero-based
// row index.
func (s *LedgerService) readURLColumn(ctx context.Context) ([]string, int64, error) {
	letter := columnLetter(s.urlColumn)
	readRange := fmt.Sprintf("%s!%s:%s", s.sheetName, letter, letter)

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, 0, err
	}

	headerRow := int64(-1)
	var urls []string
	for i, row := range resp.Values {
		value := ""
		if len(row) > 0 {
			if str, ok := row[0].(string); ok {
				value = str
			}
		}
		if headerRow < 0 {
			if value == s.headerMarker {
				headerRow = int64(i)
			}
			continue
		}
		urls = append(urls, value)
	}

	if headerRow < 0 {
		return nil, 0, shelfwatch.Errorf(shelfwatch.EINVALID, "header marker %q not found in column %s", s.headerMarker, letter)
	}

	return urls, headerRow, nil
}

// textRow builds a two-cell row of string values.
func textRow(a, b string) *sheets.RowData {
	return &sheets.RowData{Values: []*sheets.CellData{textCell(a), textCell(b)}}
}

func textCell(value string) *sheets.CellData {
	return &sheets.CellData{UserEnteredValue: &sheets.ExtendedValue{StringValue: &value}}
}

// columnLetter converts a zero-based column index to its A1 letter.
func columnLetter(index int64) string {
	letters := ""
	for index >= 0 {
		letters = string(rune('A'+index%26)) + letters
		index = index/26 - 1
	}
	return letters
}
