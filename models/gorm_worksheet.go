package models

import "encoding/json"

// Worksheet is a locally stored worksheet of a spreadsheet.
// It corresponds to the 'worksheets' table.
type Worksheet struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SpreadsheetID string `gorm:"not null;uniqueIndex:idx_spreadsheet_title" json:"spreadsheet_id"`
	Title         string `gorm:"not null;uniqueIndex:idx_spreadsheet_title" json:"title"`
	Position      int    `gorm:"not null;default:0" json:"position"`
	CreatedAt     int64  `gorm:"not null" json:"created_at"` // Unix timestamp
	UpdatedAt     int64  `gorm:"not null" json:"updated_at"` // Unix timestamp

	Rows []SheetRow `gorm:"foreignKey:WorksheetID;constraint:OnDelete:CASCADE" json:"rows,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Worksheet) TableName() string {
	return "worksheets"
}

// SheetRow is one row of a local worksheet, header row included.
// It corresponds to the 'sheet_rows' table.
type SheetRow struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	WorksheetID uint   `gorm:"not null;uniqueIndex:idx_worksheet_row" json:"worksheet_id"`
	RowNumber   int    `gorm:"not null;column:row_num;uniqueIndex:idx_worksheet_row" json:"row_number"` // 1-based, as in A1 notation
	CellsJSON   string `gorm:"not null;column:cells;type:text" json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (SheetRow) TableName() string {
	return "sheet_rows"
}

// GetCells decodes the stored cell values.
func (r *SheetRow) GetCells() ([]string, error) {
	if r.CellsJSON == "" {
		return nil, nil
	}
	var cells []string
	if err := json.Unmarshal([]byte(r.CellsJSON), &cells); err != nil {
		return nil, err
	}
	return cells, nil
}

// SetCells encodes cells for storage.
func (r *SheetRow) SetCells(cells []string) error {
	if cells == nil {
		cells = []string{}
	}
	data, err := json.Marshal(cells)
	if err != nil {
		return err
	}
	r.CellsJSON = string(data)
	return nil
}
