// Package table holds sheet data as header-keyed rows so tables with
// different column sets can be filtered and concatenated.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/facette/natsort"
)

// Row maps a column header to its cell text. A missing key reads as an empty cell.
type Row map[string]string

// Get returns the trimmed value of col.
func (r Row) Get(col string) string {
	return strings.TrimSpace(r[col])
}

func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered set of columns plus rows keyed by those columns.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// FromGrid builds a table from raw cell values whose first row holds the
// headers. Short rows are padded, blank rows skipped and repeated headers
// suffixed so no cell is lost.
func FromGrid(grid [][]string) *Table {
	if len(grid) == 0 {
		return New()
	}
	headers := uniqueHeaders(grid[0])
	t := New(headers...)
	for _, raw := range grid[1:] {
		if isBlank(raw) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(raw) {
				row[h] = raw[i]
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func uniqueHeaders(raw []string) []string {
	seen := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s (%d)", h, n)
		}
		out[i] = h
	}
	return out
}

func isBlank(raw []string) bool {
	for _, c := range raw {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Len returns the number of rows; a nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// HasColumn reports whether col is one of the table's columns.
func (t *Table) HasColumn(col string) bool {
	if t == nil || col == "" {
		return false
	}
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// AddColumn appends col if missing.
func (t *Table) AddColumn(col string) {
	if !t.HasColumn(col) {
		t.Columns = append(t.Columns, col)
	}
}

// DropColumn removes col from the column list and every row.
func (t *Table) DropColumn(col string) {
	for i, c := range t.Columns {
		if c == col {
			t.Columns = append(t.Columns[:i:i], t.Columns[i+1:]...)
			break
		}
	}
	for _, r := range t.Rows {
		delete(r, col)
	}
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return New()
	}
	out := New(t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = r.clone()
	}
	return out
}

// Filter returns a copy holding the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	if t == nil {
		return New()
	}
	out := New(t.Columns...)
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r.clone())
		}
	}
	return out
}

// Equals filters on rows whose trimmed col equals value, ignoring case.
func (t *Table) Equals(col, value string) *Table {
	value = strings.TrimSpace(value)
	return t.Filter(func(r Row) bool {
		return strings.EqualFold(r.Get(col), value)
	})
}

// Values returns the raw values of col in row order.
func (t *Table) Values(col string) []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r[col])
	}
	return out
}

// DistinctSorted returns the distinct non-blank trimmed values of col in
// natural order, so "M13" sorts before "M15" and "M9" before "M11".
func (t *Table) DistinctSorted(col string) []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.Rows {
		v := r.Get(col)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	natsort.Sort(out)
	return out
}

// Concat outer-unions tables: columns keep first-seen order and rows keep
// table order. Cells absent from a row's own table read as empty.
func Concat(tables ...*Table) *Table {
	out := New()
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			out.AddColumn(c)
		}
		for _, r := range t.Rows {
			out.Rows = append(out.Rows, r.clone())
		}
	}
	return out
}

// SortByDate orders rows by the parsed date in col. Unparseable dates sort
// as the earliest possible value; ties keep their original order.
func (t *Table) SortByDate(col string, desc bool) {
	if t == nil {
		return
	}
	keys := make([]time.Time, len(t.Rows))
	idx := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		keys[i], _ = ParseDate(r[col])
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if desc {
			return ka.After(kb)
		}
		return ka.Before(kb)
	})
	rows := make([]Row, len(t.Rows))
	for i, j := range idx {
		rows[i] = t.Rows[j]
	}
	t.Rows = rows
}

// Grid renders the table back into header plus cell rows.
func (t *Table) Grid() [][]string {
	if t == nil {
		return nil
	}
	grid := make([][]string, 0, len(t.Rows)+1)
	grid = append(grid, append([]string(nil), t.Columns...))
	for _, r := range t.Rows {
		line := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			line[i] = r[c]
		}
		grid = append(grid, line)
	}
	return grid
}

// WriteCSV writes the table, header first.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Grid()); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

var dateLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// DayLayout is the date format the club's sheets are written with.
const DayLayout = "02/01/2006"

// ParseDate reads the day-first dates used by the club's forms plus ISO dates.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
