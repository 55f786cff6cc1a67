package repository

import (
	"github.com/camden-git/clubdash/models"
)

// WorksheetRepositoryInterface defines the methods for locally stored worksheet data
type WorksheetRepositoryInterface interface {
	ListBySpreadsheet(spreadsheetID string) ([]models.Worksheet, error)
	GetByTitle(spreadsheetID, title string) (*models.Worksheet, error)
	Create(ws *models.Worksheet, headers []string) error
	ListRows(worksheetID uint) ([]models.SheetRow, error)
	AppendRows(worksheetID uint, cells [][]string) error
	UpsertRow(worksheetID uint, rowNumber int, cells []string) error
	GetRow(worksheetID uint, rowNumber int) (*models.SheetRow, error)
}
