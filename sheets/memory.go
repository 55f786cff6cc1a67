package sheets

import (
	"context"
	"fmt"
	"sync"
)

type memSheet struct {
	title string
	grid  [][]string
}

type memBook struct {
	title  string
	sheets []*memSheet
}

// MemoryStore keeps spreadsheets in process. Errors registered with Fail are
// returned by every call touching that spreadsheet.
type MemoryStore struct {
	mu    sync.Mutex
	books map[string]*memBook
	fails map[string]error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{books: make(map[string]*memBook), fails: make(map[string]error)}
}

// Put creates or replaces a worksheet with grid, creating the spreadsheet if needed.
func (m *MemoryStore) Put(spreadsheetID, worksheet string, grid [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.books[spreadsheetID]
	if !ok {
		b = &memBook{title: spreadsheetID}
		m.books[spreadsheetID] = b
	}
	copied := copyGrid(grid)
	for _, s := range b.sheets {
		if s.title == worksheet {
			s.grid = copied
			return
		}
	}
	b.sheets = append(b.sheets, &memSheet{title: worksheet, grid: copied})
}

// Fail makes calls against spreadsheetID return err; nil clears it.
func (m *MemoryStore) Fail(spreadsheetID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fails, spreadsheetID)
		return
	}
	m.fails[spreadsheetID] = err
}

// Grid returns a copy of a worksheet's cells, or nil.
func (m *MemoryStore) Grid(spreadsheetID, worksheet string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[spreadsheetID]
	if !ok {
		return nil
	}
	if s := b.sheet(worksheet); s != nil {
		return copyGrid(s.grid)
	}
	return nil
}

func (b *memBook) sheet(title string) *memSheet {
	for _, s := range b.sheets {
		if s.title == title {
			return s
		}
	}
	return nil
}

func (m *MemoryStore) book(spreadsheetID string) (*memBook, error) {
	if err := m.fails[spreadsheetID]; err != nil {
		return nil, err
	}
	b, ok := m.books[spreadsheetID]
	if !ok {
		return nil, fmt.Errorf("open spreadsheet %s: %w", spreadsheetID, ErrSpreadsheetNotFound)
	}
	return b, nil
}

func (m *MemoryStore) worksheet(spreadsheetID, title string) (*memSheet, error) {
	b, err := m.book(spreadsheetID)
	if err != nil {
		return nil, err
	}
	s := b.sheet(title)
	if s == nil {
		return nil, fmt.Errorf("worksheet %q: %w", title, ErrWorksheetNotFound)
	}
	return s, nil
}

func (m *MemoryStore) Title(_ context.Context, spreadsheetID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.book(spreadsheetID)
	if err != nil {
		return "", err
	}
	return b.title, nil
}

func (m *MemoryStore) Worksheets(_ context.Context, spreadsheetID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.book(spreadsheetID)
	if err != nil {
		return nil, err
	}
	titles := make([]string, len(b.sheets))
	for i, s := range b.sheets {
		titles[i] = s.title
	}
	return titles, nil
}

func (m *MemoryStore) ReadGrid(_ context.Context, spreadsheetID, worksheet string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.worksheet(spreadsheetID, worksheet)
	if err != nil {
		return nil, err
	}
	return copyGrid(s.grid), nil
}

func (m *MemoryStore) AppendRows(_ context.Context, spreadsheetID, worksheet string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.worksheet(spreadsheetID, worksheet)
	if err != nil {
		return err
	}
	s.grid = append(s.grid, copyGrid(rows)...)
	return nil
}

func (m *MemoryStore) UpdateRange(_ context.Context, spreadsheetID, worksheet, a1 string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.worksheet(spreadsheetID, worksheet)
	if err != nil {
		return err
	}
	row, col, err := rangeStart(a1)
	if err != nil {
		return err
	}
	s.grid = writeGrid(s.grid, row, col, rows)
	return nil
}

func (m *MemoryStore) AddWorksheet(_ context.Context, spreadsheetID, title string, headers []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.book(spreadsheetID)
	if err != nil {
		return err
	}
	if b.sheet(title) != nil {
		return fmt.Errorf("worksheet %q already exists", title)
	}
	sh := &memSheet{title: title}
	if len(headers) > 0 {
		sh.grid = [][]string{append([]string(nil), headers...)}
	}
	b.sheets = append(b.sheets, sh)
	return nil
}

// writeGrid overwrites cells starting at 1-based (row, col), growing the grid as needed.
func writeGrid(grid [][]string, row, col int, values [][]string) [][]string {
	for i, line := range values {
		r := row - 1 + i
		for len(grid) <= r {
			grid = append(grid, nil)
		}
		for j, v := range line {
			c := col - 1 + j
			for len(grid[r]) <= c {
				grid[r] = append(grid[r], "")
			}
			grid[r][c] = v
		}
	}
	return grid
}

func copyGrid(grid [][]string) [][]string {
	if grid == nil {
		return nil
	}
	out := make([][]string, len(grid))
	for i, r := range grid {
		out[i] = append([]string(nil), r...)
	}
	return out
}
