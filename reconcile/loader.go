package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/camden-git/clubdash/database"
	"github.com/camden-git/clubdash/metrics"
	"github.com/camden-git/clubdash/sheets"
	"github.com/camden-git/clubdash/table"
)

// SourceSpec locates one auxiliary sheet.
type SourceSpec struct {
	Label         string
	SpreadsheetID string
	Worksheet     string
}

// RosterReader supplies the authoritative roster.
type RosterReader interface {
	Table(ctx context.Context) (*table.Table, error)
}

// Loader fetches the roster and every source, then reconciles them.
// A source that cannot be fetched contributes no rows and a warning.
type Loader struct {
	Store   sheets.RowStore
	Roster  RosterReader
	Sources []SourceSpec
	Logger  *zap.Logger
	// DB receives an audit row per run when set.
	DB *sql.DB
}

// Load builds the unified view. Credential failures are returned as errors;
// every other per-source failure becomes a warning.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}
	started := time.Now()

	roster, err := l.Roster.Table(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	srcs := make([]Source, 0, len(l.Sources))
	failures := make(map[string]string)
	for _, spec := range l.Sources {
		t, err := sheets.ReadTable(ctx, l.Store, spec.SpreadsheetID, spec.Worksheet)
		if err != nil {
			if errors.Is(err, sheets.ErrCredentials) {
				return nil, err
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			failures[spec.Label] = SourceWarning(spec.Label, err)
			metrics.ReconcileWarnings.WithLabelValues(spec.Label).Inc()
			log.Warn("source unavailable, continuing without it",
				zap.String("source", spec.Label),
				zap.String("spreadsheet_id", spec.SpreadsheetID),
				zap.Error(err))
			t = nil
		}
		srcs = append(srcs, Source{Label: spec.Label, Table: t})
	}

	res, err := Reconcile(roster, srcs)
	for i := range res.Reports {
		if w, ok := failures[res.Reports[i].Label]; ok {
			res.Reports[i].Warning = w
		}
	}
	// an empty roster yields no reports, so warnings follow the source list
	for _, spec := range l.Sources {
		if w, ok := failures[spec.Label]; ok {
			res.Warnings = append(res.Warnings, w)
		}
	}
	if errors.Is(err, ErrNoAuthoritativeSource) {
		res.Warnings = append(res.Warnings, "roster is empty or has no identifier column, register players first")
	}

	for _, rep := range res.Reports {
		metrics.ReconciledRows.WithLabelValues(rep.Label, "matched").Add(float64(rep.Matched))
		metrics.ReconciledRows.WithLabelValues(rep.Label, "dropped").Add(float64(rep.Dropped))
		if rep.Dropped > 0 {
			log.Debug("dropped rows with no roster match",
				zap.String("source", rep.Label),
				zap.Int("dropped", rep.Dropped),
				zap.Int("total", rep.Total))
		}
	}

	l.record(log, started, roster.Len(), res, err)
	log.Info("reconciled sources",
		zap.Int("roster_rows", roster.Len()),
		zap.Int("unified_rows", res.Table.Len()),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("took", time.Since(started)))
	return res, err
}

func (l *Loader) record(log *zap.Logger, started time.Time, rosterRows int, res *Result, recErr error) {
	if l.DB == nil {
		return
	}
	run := database.ReconcileRun{
		StartedAt:   started.Unix(),
		DurationMS:  time.Since(started).Milliseconds(),
		RosterRows:  rosterRows,
		UnifiedRows: res.Table.Len(),
		Warnings:    len(res.Warnings),
		Status:      database.RunStatusOK,
	}
	if recErr != nil {
		run.Status = database.RunStatusNoRoster
	}
	for _, rep := range res.Reports {
		run.Sources = append(run.Sources, database.ReconcileRunSource{
			Label:     rep.Label,
			Total:     rep.Total,
			Matched:   rep.Matched,
			Dropped:   rep.Dropped,
			MatchedBy: string(rep.MatchedBy),
			Warning:   rep.Warning,
		})
	}
	if _, err := database.RecordReconcileRun(l.DB, run); err != nil {
		log.Warn("failed to record reconcile run", zap.Error(err))
	}
}

// SourceWarning renders a fetch failure for display next to the page.
func SourceWarning(label string, err error) string {
	switch {
	case sheets.IsRateLimit(err):
		return fmt.Sprintf("%s: too many requests to the spreadsheet service, slow down and retry in a minute", label)
	case errors.Is(err, sheets.ErrPermissionDenied):
		return fmt.Sprintf("%s: the service account has no access to this spreadsheet", label)
	case errors.Is(err, sheets.ErrSpreadsheetNotFound):
		return fmt.Sprintf("%s: spreadsheet not found", label)
	case errors.Is(err, sheets.ErrWorksheetNotFound):
		return fmt.Sprintf("%s: worksheet not found", label)
	default:
		return fmt.Sprintf("%s: %v", label, err)
	}
}
