// Package attendance records training and match attendance in the roster
// spreadsheet and summarizes it.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/camden-git/clubdash/cache"
	"github.com/camden-git/clubdash/identity"
	"github.com/camden-git/clubdash/sheets"
	"github.com/camden-git/clubdash/table"
)

const (
	DefaultWorksheet = "Asistencias"

	colDate     = "Fecha"
	colCategory = "Categoria"
	colActivity = "Tipo_Actividad"
	colID       = "DNI"
	colMark     = "Estado_Asistencia"
	colLegacy   = "Presente"

	sheetKeyPrefix  = "attendance_sheet_"
	reportKeyPrefix = "attendance_report_"
)

// Headers is the column layout of the attendance worksheet.
var Headers = []string{colDate, colCategory, colActivity, colID, "Nombre", "Apellido", colMark, "Observaciones"}

// Activities lists the activity types offered when taking attendance.
var Activities = []string{"Entrenamiento", "Partido", "Preparación Física", "Reunión Técnica"}

var (
	ErrNoEntries   = errors.New("attendance list is empty")
	ErrInvalidMark = errors.New("invalid attendance mark")
)

// Mark is a player's attendance state for one session.
type Mark string

const (
	Present Mark = "Presente"
	Absent  Mark = "Ausente"
	Injured Mark = "Lesionado"
)

// ParseMark accepts the sheet value ignoring case.
func ParseMark(s string) (Mark, error) {
	for _, m := range []Mark{Present, Absent, Injured} {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMark, s)
}

// Entry is one player's line in a session.
type Entry struct {
	ID        string `json:"dni"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Mark      Mark   `json:"mark"`
	Notes     string `json:"notes,omitempty"`
}

// Session is a full attendance list for one activity.
type Session struct {
	Date     time.Time `json:"date"`
	Category string    `json:"category"`
	Activity string    `json:"activity"`
	Entries  []Entry   `json:"entries"`
}

// Service reads and writes the attendance worksheet.
type Service struct {
	Store         sheets.RowStore
	SpreadsheetID string
	Worksheet     string
	SheetTTL      time.Duration
	ReportTTL     time.Duration
	Logger        *zap.Logger

	cache *cache.Cache
}

// NewService builds an attendance service. The worksheet lives in the
// roster spreadsheet.
func NewService(store sheets.RowStore, spreadsheetID string, sheetTTL, reportTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Store:         store,
		SpreadsheetID: spreadsheetID,
		Worksheet:     DefaultWorksheet,
		SheetTTL:      sheetTTL,
		ReportTTL:     reportTTL,
		Logger:        logger,
	}
}

// WithCache returns a copy of s that memoizes into c.
func (s *Service) WithCache(c *cache.Cache) *Service {
	cp := *s
	cp.cache = c
	return &cp
}

// EnsureWorksheet returns the attendance worksheet title, creating the
// worksheet with headers on first use.
func (s *Service) EnsureWorksheet(ctx context.Context) (string, error) {
	return cache.Memo(s.cache, sheetKeyPrefix+s.Worksheet, s.SheetTTL, func() (string, error) {
		ok, err := sheets.HasWorksheet(ctx, s.Store, s.SpreadsheetID, s.Worksheet)
		if err != nil {
			return "", err
		}
		if !ok {
			s.Logger.Info("creating attendance worksheet", zap.String("worksheet", s.Worksheet))
			if err := s.Store.AddWorksheet(ctx, s.SpreadsheetID, s.Worksheet, Headers); err != nil {
				return "", fmt.Errorf("failed to create attendance worksheet: %w", err)
			}
		}
		return s.Worksheet, nil
	})
}

// Save writes every entry of sess in one range update after the last used
// row and returns the number of rows written.
func (s *Service) Save(ctx context.Context, sess Session) (int, error) {
	if len(sess.Entries) == 0 {
		return 0, ErrNoEntries
	}
	rows := make([][]string, 0, len(sess.Entries))
	day := sess.Date.Format(table.DayLayout)
	for _, e := range sess.Entries {
		mark, err := ParseMark(string(e.Mark))
		if err != nil {
			return 0, err
		}
		rows = append(rows, []string{
			day,
			strings.TrimSpace(sess.Category),
			strings.TrimSpace(sess.Activity),
			identity.NormalizeID(e.ID),
			strings.TrimSpace(e.FirstName),
			strings.TrimSpace(e.LastName),
			string(mark),
			strings.TrimSpace(e.Notes),
		})
	}

	ws, err := s.EnsureWorksheet(ctx)
	if err != nil {
		return 0, err
	}
	grid, err := s.Store.ReadGrid(ctx, s.SpreadsheetID, ws)
	if err != nil {
		return 0, err
	}
	next := len(grid) + 1
	a1 := sheets.Span(next, 1, len(rows), len(Headers))
	if err := s.Store.UpdateRange(ctx, s.SpreadsheetID, ws, a1, rows); err != nil {
		return 0, fmt.Errorf("failed to save attendance: %w", err)
	}
	s.cache.DeletePrefix(reportKeyPrefix)
	s.Logger.Info("attendance saved",
		zap.String("range", a1),
		zap.String("category", sess.Category),
		zap.Int("rows", len(rows)))
	return len(rows), nil
}

// Report returns attendance rows whose date falls within [from, to], both
// inclusive by calendar day. Nil bounds leave that side open.
func (s *Service) Report(ctx context.Context, from, to *time.Time) (*table.Table, error) {
	key := fmt.Sprintf("%s%s_%s", reportKeyPrefix, dayKey(from), dayKey(to))
	t, err := cache.Memo(s.cache, key, s.ReportTTL, func() (*table.Table, error) {
		ws, err := s.EnsureWorksheet(ctx)
		if err != nil {
			return nil, err
		}
		t, err := sheets.ReadTable(ctx, s.Store, s.SpreadsheetID, ws)
		if err != nil {
			return nil, err
		}
		if from == nil && to == nil {
			return t, nil
		}
		return t.Filter(func(r table.Row) bool {
			d, ok := table.ParseDate(r[colDate])
			if !ok {
				return false
			}
			d = truncateDay(d)
			if from != nil && d.Before(truncateDay(*from)) {
				return false
			}
			if to != nil && d.After(truncateDay(*to)) {
				return false
			}
			return true
		}), nil
	})
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

func dayKey(t *time.Time) string {
	if t == nil {
		return "None"
	}
	return t.Format("2006-01-02")
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
