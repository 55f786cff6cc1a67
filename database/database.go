package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

func InitDB(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable write-ahead Logging for better concurrency
	_, err = db.Exec("PRAGMA journal_mode=WAL;")
	if err != nil {
		zap.L().Warn("failed to set WAL mode", zap.Error(err))
	}
	if _, err = db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		zap.L().Warn("failed to enable foreign keys", zap.Error(err))
	}

	sqlStmt := `
	CREATE TABLE IF NOT EXISTS reconcile_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		roster_rows INTEGER NOT NULL,
		unified_rows INTEGER NOT NULL,
		warnings INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS reconcile_run_sources (
		run_id INTEGER NOT NULL REFERENCES reconcile_runs(id) ON DELETE CASCADE,
		label TEXT NOT NULL,
		total INTEGER NOT NULL,
		matched INTEGER NOT NULL,
		dropped INTEGER NOT NULL,
		matched_by TEXT NOT NULL,
		warning TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, label)
	);
	CREATE INDEX IF NOT EXISTS idx_reconcile_runs_started ON reconcile_runs(started_at);
	`
	_, err = db.Exec(sqlStmt)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create reconcile tables: %w", err)
	}

	zap.L().Info("database initialized", zap.String("path", dataSourceName))
	return db, nil
}
