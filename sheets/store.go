// Package sheets reads and writes worksheet rows in remote spreadsheets,
// or in local stand-ins that behave the same way.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/camden-git/clubdash/table"
)

// RowStore is a spreadsheet backend addressed by spreadsheet id and worksheet
// title. Row and column numbers in A1 ranges are 1-based.
type RowStore interface {
	Title(ctx context.Context, spreadsheetID string) (string, error)
	Worksheets(ctx context.Context, spreadsheetID string) ([]string, error)
	ReadGrid(ctx context.Context, spreadsheetID, worksheet string) ([][]string, error)
	AppendRows(ctx context.Context, spreadsheetID, worksheet string, rows [][]string) error
	UpdateRange(ctx context.Context, spreadsheetID, worksheet, a1 string, rows [][]string) error
	AddWorksheet(ctx context.Context, spreadsheetID, title string, headers []string) error
}

// ResolveWorksheet picks the worksheet to read: an exact title match, then
// a match ignoring case and spaces, then the first worksheet.
func ResolveWorksheet(ctx context.Context, store RowStore, spreadsheetID, wanted string) (string, error) {
	titles, err := store.Worksheets(ctx, spreadsheetID)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return "", fmt.Errorf("spreadsheet %s: %w", spreadsheetID, ErrWorksheetNotFound)
	}
	if wanted == "" {
		return titles[0], nil
	}
	for _, t := range titles {
		if t == wanted {
			return t, nil
		}
	}
	key := flatTitle(wanted)
	for _, t := range titles {
		if flatTitle(t) == key {
			return t, nil
		}
	}
	return titles[0], nil
}

func flatTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// HasWorksheet reports whether title exists exactly.
func HasWorksheet(ctx context.Context, store RowStore, spreadsheetID, title string) (bool, error) {
	titles, err := store.Worksheets(ctx, spreadsheetID)
	if err != nil {
		return false, err
	}
	for _, t := range titles {
		if t == title {
			return true, nil
		}
	}
	return false, nil
}

// ReadTable loads a worksheet, resolved with ResolveWorksheet, as a table.
func ReadTable(ctx context.Context, store RowStore, spreadsheetID, worksheet string) (*table.Table, error) {
	ws, err := ResolveWorksheet(ctx, store, spreadsheetID, worksheet)
	if err != nil {
		return nil, err
	}
	grid, err := store.ReadGrid(ctx, spreadsheetID, ws)
	if err != nil {
		return nil, err
	}
	return table.FromGrid(grid), nil
}

// AppendRow appends a single row.
func AppendRow(ctx context.Context, store RowStore, spreadsheetID, worksheet string, row []string) error {
	return store.AppendRows(ctx, spreadsheetID, worksheet, [][]string{row})
}

// UpdateCell writes one cell.
func UpdateCell(ctx context.Context, store RowStore, spreadsheetID, worksheet string, row, col int, value string) error {
	return store.UpdateRange(ctx, spreadsheetID, worksheet, Cell(row, col), [][]string{{value}})
}

// ColumnLetter converts a 1-based column number to its A1 letters.
func ColumnLetter(col int) string {
	if col < 1 {
		return ""
	}
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// Cell returns the A1 reference of a single cell.
func Cell(row, col int) string {
	return ColumnLetter(col) + strconv.Itoa(row)
}

// Span returns the A1 range covering rows x cols starting at (row, col).
func Span(row, col, rows, cols int) string {
	return Cell(row, col) + ":" + Cell(row+rows-1, col+cols-1)
}

// qualify prefixes an A1 range with its quoted worksheet title.
func qualify(worksheet, a1 string) string {
	q := "'" + strings.ReplaceAll(worksheet, "'", "''") + "'"
	if a1 == "" {
		return q
	}
	return q + "!" + a1
}

// parseCell splits "B12" into row 12, column 2.
func parseCell(ref string) (row, col int, err error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
	}
	row, err = strconv.Atoi(ref[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
	}
	return row, col, nil
}

// rangeStart returns the top-left cell of an A1 range such as "A5:H9".
func rangeStart(a1 string) (row, col int, err error) {
	start, _, _ := strings.Cut(a1, ":")
	return parseCell(start)
}
