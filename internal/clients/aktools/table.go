package aktools

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fanwj03/YieldMapper/internal/models"
)

// DecodeTable reads a JSON array of flat objects, keeping key order as
// column order. A JSON null body decodes to an empty table.
func DecodeTable(r io.Reader) (*models.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	t := &models.Table{}
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return t, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("expected JSON array, got %v", tok)
	}

	index := make(map[string]int)
	for dec.More() {
		row, err := decodeRecord(dec, t, index)
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	// Earlier rows are shorter when a later record introduced a column.
	for i, row := range t.Rows {
		if len(row) < len(t.Columns) {
			t.Rows[i] = append(row, make([]any, len(t.Columns)-len(row))...)
		}
	}
	return t, nil
}

func decodeRecord(dec *json.Decoder, t *models.Table, index map[string]int) ([]any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object record, got %v", tok)
	}

	row := make([]any, len(t.Columns))
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("column %s: %w", key, err)
		}

		col, seen := index[key]
		if !seen {
			col = len(t.Columns)
			index[key] = col
			t.Columns = append(t.Columns, key)
		}
		for len(row) <= col {
			row = append(row, nil)
		}
		row[col] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return row, nil
}
