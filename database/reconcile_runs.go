package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const (
	RunStatusOK       = "ok"
	RunStatusNoRoster = "no_roster"
)

// ReconcileRunSource is the per-source outcome of one run.
type ReconcileRunSource struct {
	Label     string `json:"label"`
	Total     int    `json:"total"`
	Matched   int    `json:"matched"`
	Dropped   int    `json:"dropped"`
	MatchedBy string `json:"matched_by"`
	Warning   string `json:"warning,omitempty"`
}

// ReconcileRun is one audit entry of the reconciler.
type ReconcileRun struct {
	ID          int64                `json:"id"`
	StartedAt   int64                `json:"started_at"` // Unix timestamp
	DurationMS  int64                `json:"duration_ms"`
	RosterRows  int                  `json:"roster_rows"`
	UnifiedRows int                  `json:"unified_rows"`
	Warnings    int                  `json:"warnings"`
	Status      string               `json:"status"`
	Sources     []ReconcileRunSource `json:"sources,omitempty"`
}

// RecordReconcileRun inserts a run and its sources, returning the run id
func RecordReconcileRun(db *sql.DB, run ReconcileRun) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for RecordReconcileRun: %w", err)
	}
	defer tx.Rollback()

	sqlStr, args, err := psql.Insert("reconcile_runs").
		Columns("started_at", "duration_ms", "roster_rows", "unified_rows", "warnings", "status").
		Values(run.StartedAt, run.DurationMS, run.RosterRows, run.UnifiedRows, run.Warnings, run.Status).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL query for RecordReconcileRun: %w", err)
	}
	res, err := tx.Exec(sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reconcile run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get reconcile run id: %w", err)
	}

	if len(run.Sources) > 0 {
		ins := psql.Insert("reconcile_run_sources").
			Columns("run_id", "label", "total", "matched", "dropped", "matched_by", "warning")
		for _, s := range run.Sources {
			ins = ins.Values(id, s.Label, s.Total, s.Matched, s.Dropped, s.MatchedBy, s.Warning)
		}
		sqlStr, args, err = ins.ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build SQL query for reconcile run sources: %w", err)
		}
		if _, err = tx.Exec(sqlStr, args...); err != nil {
			return 0, fmt.Errorf("failed to insert sources of reconcile run %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reconcile run: %w", err)
	}
	return id, nil
}

// ListReconcileRuns returns the most recent runs, newest first, with their sources
func ListReconcileRuns(db *sql.DB, limit uint64) ([]ReconcileRun, error) {
	if limit == 0 {
		limit = 50
	}
	sqlStr, args, err := psql.Select("id", "started_at", "duration_ms", "roster_rows", "unified_rows", "warnings", "status").
		From("reconcile_runs").
		OrderBy("started_at DESC", "id DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for ListReconcileRuns: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconcile runs: %w", err)
	}
	defer rows.Close()

	var runs []ReconcileRun
	index := make(map[int64]int)
	for rows.Next() {
		var r ReconcileRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.DurationMS, &r.RosterRows, &r.UnifiedRows, &r.Warnings, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan reconcile run: %w", err)
		}
		index[r.ID] = len(runs)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reconcile runs: %w", err)
	}
	if len(runs) == 0 {
		return runs, nil
	}

	ids := make([]int64, 0, len(runs))
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	sqlStr, args, err = psql.Select("run_id", "label", "total", "matched", "dropped", "matched_by", "warning").
		From("reconcile_run_sources").
		Where(sq.Eq{"run_id": ids}).
		OrderBy("run_id", "label").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for reconcile run sources: %w", err)
	}
	srcRows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconcile run sources: %w", err)
	}
	defer srcRows.Close()

	for srcRows.Next() {
		var runID int64
		var s ReconcileRunSource
		if err := srcRows.Scan(&runID, &s.Label, &s.Total, &s.Matched, &s.Dropped, &s.MatchedBy, &s.Warning); err != nil {
			return nil, fmt.Errorf("failed to scan reconcile run source: %w", err)
		}
		if i, ok := index[runID]; ok {
			runs[i].Sources = append(runs[i].Sources, s)
		}
	}
	if err := srcRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reconcile run sources: %w", err)
	}
	return runs, nil
}

// GetReconcileRun retrieves one run by id, or sql.ErrNoRows
func GetReconcileRun(db *sql.DB, id int64) (ReconcileRun, error) {
	sqlStr, args, err := psql.Select("id", "started_at", "duration_ms", "roster_rows", "unified_rows", "warnings", "status").
		From("reconcile_runs").
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return ReconcileRun{}, fmt.Errorf("failed to build SQL query for GetReconcileRun: %w", err)
	}
	var r ReconcileRun
	err = db.QueryRow(sqlStr, args...).Scan(&r.ID, &r.StartedAt, &r.DurationMS, &r.RosterRows, &r.UnifiedRows, &r.Warnings, &r.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return ReconcileRun{}, sql.ErrNoRows
		}
		return ReconcileRun{}, fmt.Errorf("failed to query or scan reconcile run %d: %w", id, err)
	}
	return r, nil
}
