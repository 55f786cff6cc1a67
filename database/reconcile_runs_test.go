package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndListReconcileRuns(t *testing.T) {
	db := newTestDB(t)

	first, err := RecordReconcileRun(db, ReconcileRun{
		StartedAt: 100, DurationMS: 12, RosterRows: 2, UnifiedRows: 3, Status: RunStatusOK,
		Sources: []ReconcileRunSource{
			{Label: "medica", Total: 2, Matched: 1, Dropped: 1, MatchedBy: "identifier"},
			{Label: "fisica", Total: 0, MatchedBy: "none", Warning: "fisica: spreadsheet not found"},
		},
	})
	require.NoError(t, err)
	second, err := RecordReconcileRun(db, ReconcileRun{StartedAt: 200, Status: RunStatusNoRoster})
	require.NoError(t, err)

	runs, err := ListReconcileRuns(db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Empty(t, runs[0].Sources)
	assert.Equal(t, first, runs[1].ID)
	require.Len(t, runs[1].Sources, 2)
	assert.Equal(t, "fisica", runs[1].Sources[0].Label)
	assert.Equal(t, 1, runs[1].Sources[1].Dropped)

	got, err := GetReconcileRun(db, first)
	require.NoError(t, err)
	assert.Equal(t, 3, got.UnifiedRows)

	_, err = GetReconcileRun(db, 999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListReconcileRunsEmpty(t *testing.T) {
	runs, err := ListReconcileRuns(newTestDB(t), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
