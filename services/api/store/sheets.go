package store

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheets is the Google Sheets backend: one spreadsheet, one worksheet per
// table. All cell addressing uses the A1 notation derived from the 1-based
// positions the port speaks.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// NewSheets builds a backend from service-account credentials JSON.
func NewSheets(ctx context.Context, spreadsheetID, credentialsJSON string) (*Sheets, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON([]byte(credentialsJSON)),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &Sheets{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
	}, nil
}

// Rows returns every row of the worksheet, header included.
func (s *Sheets) Rows(ctx context.Context, table string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, table).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, v := range raw {
			row = append(row, fmt.Sprint(v))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FindRow scans the given column for the first matching cell. One read
// round trip; the scan itself is local.
func (s *Sheets) FindRow(ctx context.Context, table string, col int, value string) (int, error) {
	colRange := fmt.Sprintf("%s!%s:%s", table, columnLetter(col), columnLetter(col))
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, colRange).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", colRange, err)
	}
	for i, raw := range resp.Values {
		if len(raw) > 0 && fmt.Sprint(raw[0]) == value {
			return i + 1, nil
		}
	}
	return 0, ErrRowNotFound
}

// UpdateCell overwrites a single cell with a raw (unparsed) value.
func (s *Sheets) UpdateCell(ctx context.Context, table string, row, col int, value string) error {
	target := fmt.Sprintf("%s!%s%d", table, columnLetter(col), row)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, target, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", target, err)
	}
	return nil
}

// AppendRows adds rows after the last non-empty row of the worksheet.
func (s *Sheets) AppendRows(ctx context.Context, table string, rows [][]string) error {
	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		cells := make([]interface{}, 0, len(row))
		for _, c := range row {
			cells = append(cells, c)
		}
		values = append(values, cells)
	}
	vr := &sheets.ValueRange{Values: values}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, table+"!A1", vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", table, err)
	}
	return nil
}

// DeleteRow removes a row via a dimension delete; later rows shift up.
func (s *Sheets) DeleteRow(ctx context.Context, table string, row int) error {
	sheetID, err := s.sheetID(ctx, table)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d of %s: %w", row, table, err)
	}
	return nil
}

func (s *Sheets) sheetID(ctx context.Context, table string) (int64, error) {
	s.mu.Lock()
	if id, ok := s.sheetIDs[table]; ok {
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("spreadsheet metadata: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			s.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok := s.sheetIDs[table]
	if !ok {
		return 0, fmt.Errorf("worksheet %s not found", table)
	}
	return id, nil
}

// columnLetter converts a 1-based column position to A1 letters.
func columnLetter(col int) string {
	if col < 1 {
		return "A"
	}
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	return letters
}
