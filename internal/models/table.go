package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Table is an upstream record array with its column order intact.
// Columns follow first-seen key order; Rows are aligned to Columns with nil
// for keys a record did not carry.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Value returns the cell at (row, col), or nil when out of range.
func (t *Table) Value(row, col int) any {
	if row < 0 || row >= t.Len() || col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return t.Rows[row][col]
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ColumnContaining returns the first column whose name contains any of the
// given fragments, or -1.
func (t *Table) ColumnContaining(fragments ...string) int {
	for i, c := range t.Columns {
		for _, f := range fragments {
			if strings.Contains(c, f) {
				return i
			}
		}
	}
	return -1
}

// RowText joins every cell of a row into one space-separated string.
func (t *Table) RowText(row int) string {
	if row < 0 || row >= t.Len() {
		return ""
	}
	parts := make([]string, 0, len(t.Rows[row]))
	for _, v := range t.Rows[row] {
		parts = append(parts, CellString(v))
	}
	return strings.Join(parts, " ")
}

// CellString renders a cell as text. Missing cells render as "".
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// CellFloat coerces a cell to a finite number. Non-numeric cells report false.
func CellFloat(v any) (float64, bool) {
	var f float64
	var err error
	switch x := v.(type) {
	case json.Number:
		f, err = x.Float64()
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var cellDateLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"20060102",
}

// CellTime coerces a cell to a timestamp in local time. Upstream dates are
// naive wall-clock values: strings are parsed in time.Local and epoch
// milliseconds are read as UTC wall-clock fields then re-anchored to local.
func CellTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range cellDateLayouts {
			if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return ts, true
			}
		}
	case json.Number:
		ms, err := x.Int64()
		if err != nil {
			return time.Time{}, false
		}
		u := time.UnixMilli(ms).UTC()
		return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.Local), true
	}
	return time.Time{}, false
}
