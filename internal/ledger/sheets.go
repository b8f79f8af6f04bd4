package ledger

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore maps each tab to a sheet whose first row holds the schema's
// column labels; data rows start at row 2 and the sheet row number is the
// Row.ID. The Sheets API has no server-side conditional write, so UpdateIf
// serializes read-compare-write through an in-process mutex. That is only a
// correct guard while this process is the sole writer to the spreadsheet.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	schemas       map[string]Schema

	mu sync.Mutex
}

func NewSheetsStore(ctx context.Context, spreadsheetID, credentialsFile string) (*SheetsStore, error) {
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to create sheets client: %w", err)
	}
	return &SheetsStore{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		schemas:       Schemas,
	}, nil
}

func (s *SheetsStore) Append(ctx context.Context, tab string, fields map[string]string) error {
	schema, err := s.schema(tab)
	if err != nil {
		return err
	}

	values := make([]interface{}, len(schema))
	for i, col := range schema {
		values[i] = fields[col.Key]
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{values}}
	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, tab, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("ledger: failed to append row to %s: %w", tab, err)
	}
	return nil
}

func (s *SheetsStore) Rows(ctx context.Context, tab string) ([]Row, error) {
	schema, err := s.schema(tab)
	if err != nil {
		return nil, err
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, tab).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to read %s: %w", tab, err)
	}

	rows := make([]Row, 0)
	for i, raw := range resp.Values {
		if i == 0 {
			// header row
			continue
		}
		fields := make(map[string]string, len(schema))
		for j, col := range schema {
			if j < len(raw) {
				fields[col.Key] = fmt.Sprint(raw[j])
			} else {
				fields[col.Key] = ""
			}
		}
		rows = append(rows, Row{ID: i + 1, Fields: fields})
	}
	return rows, nil
}

func (s *SheetsStore) Find(ctx context.Context, tab, key, value string) (*Row, error) {
	rows, err := s.Rows(ctx, tab)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Fields[key] == value {
			return &rows[i], nil
		}
	}
	return nil, ErrRowNotFound
}

func (s *SheetsStore) Update(ctx context.Context, tab string, rowID int, key, value string) error {
	cell, err := s.cellRange(tab, rowID, key)
	if err != nil {
		return err
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, cell, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("ledger: failed to update %s: %w", cell, err)
	}
	return nil
}

func (s *SheetsStore) UpdateIf(ctx context.Context, tab string, rowID int, key, expect, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, err := s.cellRange(tab, rowID, key)
	if err != nil {
		return false, err
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, cell).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("ledger: failed to read %s: %w", cell, err)
	}

	current := ""
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		current = fmt.Sprint(resp.Values[0][0])
	}
	if current != expect {
		return false, nil
	}

	if err := s.Update(ctx, tab, rowID, key, value); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SheetsStore) schema(tab string) (Schema, error) {
	schema, ok := s.schemas[tab]
	if !ok {
		return nil, fmt.Errorf("ledger: unknown tab %q", tab)
	}
	return schema, nil
}

func (s *SheetsStore) cellRange(tab string, rowID int, key string) (string, error) {
	schema, err := s.schema(tab)
	if err != nil {
		return "", err
	}
	idx := schema.Index(key)
	if idx < 0 {
		return "", fmt.Errorf("ledger: unknown field %q in tab %q", key, tab)
	}
	return tab + "!" + columnLetter(idx) + strconv.Itoa(rowID), nil
}

func columnLetter(idx int) string {
	letter := ""
	for idx >= 0 {
		letter = string(rune('A'+idx%26)) + letter
		idx = idx/26 - 1
	}
	return letter
}
