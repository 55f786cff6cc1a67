package medical

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/camden-git/clubdash/cache"
	"github.com/camden-git/clubdash/identity"
	"github.com/camden-git/clubdash/sheets"
	"github.com/camden-git/clubdash/table"
)

// ReportWorksheet is where staff-entered medical reports are appended.
const ReportWorksheet = "Reportes_Medicos"

var ErrMissingField = errors.New("missing required field")

// ReportHeaders is the column layout of the report worksheet.
var ReportHeaders = []string{
	"ID", "Marca temporal", "nombre_profesional", "email_profesional", "nombre_paciente",
	"DNI", "division", "diagnostico", "Fecha de Atención", "Tipo de lesión", "Severidad",
	"parte_cuerpo", "tratamiento", "tiempo_recuperacion", ColCanTrain, "Estado", "observaciones",
}

// Report is a visit entered from the medical report page.
type Report struct {
	Professional      string    `json:"professional"`
	ProfessionalEmail string    `json:"professional_email"`
	Patient           string    `json:"patient"`
	PatientID         string    `json:"dni"`
	Division          string    `json:"division"`
	Diagnosis         string    `json:"diagnosis"`
	AttendedAt        time.Time `json:"attended_at"`
	InjuryType        string    `json:"injury_type"`
	Severity          string    `json:"severity"`
	BodyPart          string    `json:"body_part"`
	Treatment         string    `json:"treatment"`
	RecoveryTime      string    `json:"recovery_time"`
	CanTrain          string    `json:"can_train"`
	Notes             string    `json:"notes"`
}

// Service reads the medical visits sheet and records new reports.
type Service struct {
	Store         sheets.RowStore
	SpreadsheetID string
	Worksheet     string
	TTL           time.Duration
	Logger        *zap.Logger

	cache *cache.Cache
	now   func() time.Time
}

func NewService(store sheets.RowStore, spreadsheetID, worksheet string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Store:         store,
		SpreadsheetID: spreadsheetID,
		Worksheet:     worksheet,
		TTL:           ttl,
		Logger:        logger,
		now:           time.Now,
	}
}

// WithCache returns a copy of s that memoizes into c.
func (s *Service) WithCache(c *cache.Cache) *Service {
	cp := *s
	cp.cache = c
	return &cp
}

// Table returns the visits sheet.
func (s *Service) Table(ctx context.Context) (*table.Table, error) {
	t, err := cache.Memo(s.cache, "medical_table", s.TTL, func() (*table.Table, error) {
		ws, err := sheets.ResolveWorksheet(ctx, s.Store, s.SpreadsheetID, s.Worksheet)
		if err != nil {
			return nil, err
		}
		return sheets.ReadTable(ctx, s.Store, s.SpreadsheetID, ws)
	})
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// Player returns the history and summary panel for one identifier.
func (s *Service) Player(ctx context.Context, id string) (*table.Table, Summary, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, Summary{}, err
	}
	h := History(t, id)
	return h, Summarize(h), nil
}

// Stats summarizes the visits sheet as of now.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(t, s.now()), nil
}

func (r Report) validate() error {
	for field, v := range map[string]string{
		"professional": r.Professional,
		"patient":      r.Patient,
		"diagnosis":    r.Diagnosis,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	return nil
}

// AddReport appends r to the report worksheet, creating it on first use,
// and returns the generated report id.
func (s *Service) AddReport(ctx context.Context, r Report) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	ok, err := sheets.HasWorksheet(ctx, s.Store, s.SpreadsheetID, ReportWorksheet)
	if err != nil {
		return "", err
	}
	if !ok {
		s.Logger.Info("creating medical report worksheet", zap.String("worksheet", ReportWorksheet))
		if err := s.Store.AddWorksheet(ctx, s.SpreadsheetID, ReportWorksheet, ReportHeaders); err != nil {
			return "", fmt.Errorf("failed to create report worksheet: %w", err)
		}
	}

	now := s.now()
	attended := r.AttendedAt
	if attended.IsZero() {
		attended = now
	}
	id := uuid.NewString()
	row := []string{
		id,
		now.Format("2006-01-02 15:04:05"),
		strings.TrimSpace(r.Professional),
		strings.ToLower(strings.TrimSpace(r.ProfessionalEmail)),
		strings.TrimSpace(r.Patient),
		identity.NormalizeID(r.PatientID),
		NormalizeCategory(r.Division),
		strings.TrimSpace(r.Diagnosis),
		attended.Format(table.DayLayout),
		strings.TrimSpace(r.InjuryType),
		strings.TrimSpace(r.Severity),
		strings.TrimSpace(r.BodyPart),
		strings.TrimSpace(r.Treatment),
		strings.TrimSpace(r.RecoveryTime),
		strings.TrimSpace(r.CanTrain),
		FollowUp(r.Severity),
		strings.TrimSpace(r.Notes),
	}
	if err := sheets.AppendRow(ctx, s.Store, s.SpreadsheetID, ReportWorksheet, row); err != nil {
		return "", fmt.Errorf("failed to save medical report: %w", err)
	}
	s.Logger.Info("medical report saved", zap.String("id", id), zap.String("professional", r.Professional))
	return id, nil
}
