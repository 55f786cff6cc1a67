package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/clubdash/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorksheetRepository handles database operations for Worksheet and SheetRow entities
type WorksheetRepository struct {
	DB *gorm.DB
}

// Ensure WorksheetRepository implements WorksheetRepositoryInterface
var _ WorksheetRepositoryInterface = (*WorksheetRepository)(nil)

// NewWorksheetRepository creates a new instance of WorksheetRepository
func NewWorksheetRepository(db *gorm.DB) *WorksheetRepository {
	return &WorksheetRepository{DB: db}
}

// ListBySpreadsheet returns the worksheets of a spreadsheet in position order
func (r *WorksheetRepository) ListBySpreadsheet(spreadsheetID string) ([]models.Worksheet, error) {
	var sheets []models.Worksheet
	err := r.DB.Where("spreadsheet_id = ?", spreadsheetID).Order("position ASC, id ASC").Find(&sheets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list worksheets of %s: %w", spreadsheetID, err)
	}
	return sheets, nil
}

// GetByTitle retrieves a worksheet by spreadsheet and exact title
func (r *WorksheetRepository) GetByTitle(spreadsheetID, title string) (*models.Worksheet, error) {
	var ws models.Worksheet
	err := r.DB.Where("spreadsheet_id = ? AND title = ?", spreadsheetID, title).First(&ws).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get worksheet %s/%s: %w", spreadsheetID, title, err)
	}
	return &ws, nil
}

// Create creates a worksheet placed after the existing ones, with an optional header row
func (r *WorksheetRepository) Create(ws *models.Worksheet, headers []string) error {
	now := time.Now().Unix()
	if ws.CreatedAt == 0 {
		ws.CreatedAt = now
	}
	ws.UpdatedAt = now

	return r.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Worksheet{}).Where("spreadsheet_id = ?", ws.SpreadsheetID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count worksheets of %s: %w", ws.SpreadsheetID, err)
		}
		ws.Position = int(count)
		if err := tx.Create(ws).Error; err != nil {
			return fmt.Errorf("failed to create worksheet %s: %w", ws.Title, err)
		}
		if len(headers) == 0 {
			return nil
		}
		row := models.SheetRow{WorksheetID: ws.ID, RowNumber: 1}
		if err := row.SetCells(headers); err != nil {
			return fmt.Errorf("failed to encode headers for worksheet %s: %w", ws.Title, err)
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to write headers for worksheet %s: %w", ws.Title, err)
		}
		return nil
	})
}

// ListRows returns every stored row of a worksheet ordered by row number
func (r *WorksheetRepository) ListRows(worksheetID uint) ([]models.SheetRow, error) {
	var rows []models.SheetRow
	err := r.DB.Where("worksheet_id = ?", worksheetID).Order("row_num ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rows of worksheet %d: %w", worksheetID, err)
	}
	return rows, nil
}

// AppendRows stores rows after the last used row
func (r *WorksheetRepository) AppendRows(worksheetID uint, cells [][]string) error {
	if len(cells) == 0 {
		return nil
	}
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var last int
		err := tx.Model(&models.SheetRow{}).
			Where("worksheet_id = ?", worksheetID).
			Select("COALESCE(MAX(row_num), 0)").
			Scan(&last).Error
		if err != nil {
			return fmt.Errorf("failed to find last row of worksheet %d: %w", worksheetID, err)
		}
		rows := make([]models.SheetRow, len(cells))
		for i, c := range cells {
			rows[i] = models.SheetRow{WorksheetID: worksheetID, RowNumber: last + 1 + i}
			if err := rows[i].SetCells(c); err != nil {
				return fmt.Errorf("failed to encode row %d: %w", last+1+i, err)
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to append %d rows to worksheet %d: %w", len(rows), worksheetID, err)
		}
		return tx.Model(&models.Worksheet{ID: worksheetID}).Update("updated_at", time.Now().Unix()).Error
	})
}

// UpsertRow replaces the cells of one row, creating it if absent
func (r *WorksheetRepository) UpsertRow(worksheetID uint, rowNumber int, cells []string) error {
	row := models.SheetRow{WorksheetID: worksheetID, RowNumber: rowNumber}
	if err := row.SetCells(cells); err != nil {
		return fmt.Errorf("failed to encode row %d: %w", rowNumber, err)
	}
	err := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "worksheet_id"}, {Name: "row_num"}},
		DoUpdates: clause.AssignmentColumns([]string{"cells"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert row %d of worksheet %d: %w", rowNumber, worksheetID, err)
	}
	return nil
}

// GetRow returns one row, or gorm.ErrRecordNotFound
func (r *WorksheetRepository) GetRow(worksheetID uint, rowNumber int) (*models.SheetRow, error) {
	var row models.SheetRow
	err := r.DB.Where("worksheet_id = ? AND row_num = ?", worksheetID, rowNumber).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get row %d of worksheet %d: %w", rowNumber, worksheetID, err)
	}
	return &row, nil
}
