package sheets

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/camden-git/clubdash/models"
	"github.com/camden-git/clubdash/repository"
)

// LocalStore keeps worksheets in the local SQLite database, for offline
// use and demos. Spreadsheet ids are free-form keys; a spreadsheet exists
// once it has a worksheet.
type LocalStore struct {
	repo repository.WorksheetRepositoryInterface
}

// NewLocalStore wraps a worksheet repository.
func NewLocalStore(repo repository.WorksheetRepositoryInterface) *LocalStore {
	return &LocalStore{repo: repo}
}

func (l *LocalStore) sheet(spreadsheetID, title string) (*models.Worksheet, error) {
	ws, err := l.repo.GetByTitle(spreadsheetID, title)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("worksheet %q: %w", title, ErrWorksheetNotFound)
		}
		return nil, err
	}
	return ws, nil
}

func (l *LocalStore) Title(_ context.Context, spreadsheetID string) (string, error) {
	sheets, err := l.repo.ListBySpreadsheet(spreadsheetID)
	if err != nil {
		return "", err
	}
	if len(sheets) == 0 {
		return "", fmt.Errorf("open spreadsheet %s: %w", spreadsheetID, ErrSpreadsheetNotFound)
	}
	return spreadsheetID, nil
}

func (l *LocalStore) Worksheets(_ context.Context, spreadsheetID string) ([]string, error) {
	sheets, err := l.repo.ListBySpreadsheet(spreadsheetID)
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("open spreadsheet %s: %w", spreadsheetID, ErrSpreadsheetNotFound)
	}
	titles := make([]string, len(sheets))
	for i, s := range sheets {
		titles[i] = s.Title
	}
	return titles, nil
}

func (l *LocalStore) ReadGrid(_ context.Context, spreadsheetID, worksheet string) ([][]string, error) {
	ws, err := l.sheet(spreadsheetID, worksheet)
	if err != nil {
		return nil, err
	}
	rows, err := l.repo.ListRows(ws.ID)
	if err != nil {
		return nil, err
	}
	var grid [][]string
	for _, r := range rows {
		cells, err := r.GetCells()
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", r.RowNumber, worksheet, ErrMalformed)
		}
		for len(grid) < r.RowNumber-1 {
			grid = append(grid, nil)
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

func (l *LocalStore) AppendRows(_ context.Context, spreadsheetID, worksheet string, rows [][]string) error {
	ws, err := l.sheet(spreadsheetID, worksheet)
	if err != nil {
		return err
	}
	return l.repo.AppendRows(ws.ID, rows)
}

func (l *LocalStore) UpdateRange(_ context.Context, spreadsheetID, worksheet, a1 string, rows [][]string) error {
	ws, err := l.sheet(spreadsheetID, worksheet)
	if err != nil {
		return err
	}
	startRow, startCol, err := rangeStart(a1)
	if err != nil {
		return err
	}
	for i, values := range rows {
		rowNumber := startRow + i
		var current []string
		existing, err := l.repo.GetRow(ws.ID, rowNumber)
		switch {
		case err == nil:
			if current, err = existing.GetCells(); err != nil {
				return fmt.Errorf("row %d of %s: %w", rowNumber, worksheet, ErrMalformed)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}
		merged := writeGrid([][]string{current}, 1, startCol, [][]string{values})[0]
		if err := l.repo.UpsertRow(ws.ID, rowNumber, merged); err != nil {
			return err
		}
	}
	return nil
}

func (l *LocalStore) AddWorksheet(_ context.Context, spreadsheetID, title string, headers []string) error {
	return l.repo.Create(&models.Worksheet{SpreadsheetID: spreadsheetID, Title: title}, headers)
}
