package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cptcheck/internal/engine"
	"github.com/leapstack-labs/cptcheck/pkg/core"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(startedAt time.Time) *Run {
	return NewRun(SourceCLI, startedAt, 1500*time.Millisecond, []*engine.Result{
		{
			Path:  "a.xml",
			Hash:  "abc",
			IsCPT: true,
			Diagnostics: []lint.Diagnostic{
				{RuleID: "CP01", Severity: core.SeverityError, Message: "Conusdiameter is niet ingevuld"},
				{RuleID: "CT01", Severity: core.SeverityError, Message: "boom", Failed: true},
			},
		},
		{Path: "b.xml", Hash: "def", IsCPT: true, Diagnostics: []lint.Diagnostic{}},
		{Path: "c.xml", Error: "read c.xml: no such file", Err: errors.New("no such file")},
	})
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	assert.NotNil(t, store.DB())
	assert.NoError(t, store.Close())

	assert.NoError(t, NewSQLiteStore(nil).Close(), "closing an unopened store is a no-op")
}

func TestSQLiteStore_OpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := OpenAndMigrate(context.Background(), path, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.FileExists(t, path)
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	version, err := store.GetMigrationVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	// Re-running is a no-op.
	require.NoError(t, store.Migrate(ctx))

	for _, table := range []string{"validation_runs", "file_results", "diagnostics"} {
		rows, err := store.db.QueryContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	assert.EqualError(t, store.Migrate(ctx), "database not opened")
	assert.EqualError(t, store.RecordRun(ctx, &Run{}), "database not opened")
	_, err := store.ListRuns(ctx, 0)
	assert.EqualError(t, err, "database not opened")
	_, err = store.GetRun(ctx, "x")
	assert.EqualError(t, err, "database not opened")
	_, err = store.DeleteRunsBefore(ctx, time.Now())
	assert.EqualError(t, err, "database not opened")
}

func TestNewRun_Summarizes(t *testing.T) {
	run := sampleRun(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	assert.Equal(t, engine.Summary{Files: 3, Passed: 1, Findings: 1, Failures: 1, Errors: 1}, run.Summary)
	require.Len(t, run.Files, 3)
	assert.Equal(t, "read c.xml: no such file", run.Files[2].Error)
}

func TestSQLiteStore_RecordAndGetRun(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	run := sampleRun(started)
	require.NoError(t, store.RecordRun(ctx, run))
	require.NotEmpty(t, run.ID)

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, SourceCLI, got.Source)
	assert.True(t, started.Equal(got.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, run.Summary, got.Summary)

	require.Len(t, got.Files, 3)
	assert.Equal(t, "a.xml", got.Files[0].Path)
	assert.Equal(t, "abc", got.Files[0].Hash)
	assert.True(t, got.Files[0].IsCPT)
	assert.Equal(t, run.Files[0].Diagnostics, got.Files[0].Diagnostics)
	assert.Empty(t, got.Files[1].Diagnostics)
	assert.False(t, got.Files[2].IsCPT)
	assert.Equal(t, "read c.xml: no such file", got.Files[2].Error)
}

func TestSQLiteStore_GetRunByPrefix(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first := sampleRun(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	first.ID = "aaaa-1111"
	second := sampleRun(time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC))
	second.ID = "aaaa-2222"
	require.NoError(t, store.RecordRun(ctx, first))
	require.NoError(t, store.RecordRun(ctx, second))

	got, err := store.GetRun(ctx, "aaaa-2")
	require.NoError(t, err)
	assert.Equal(t, "aaaa-2222", got.ID)

	_, err = store.GetRun(ctx, "aaaa")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	_, err = store.GetRun(ctx, "zzzz")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = store.GetRun(ctx, "  ")
	assert.ErrorIs(t, err, ErrRunNotFound)

	// LIKE wildcards in the ID are literal.
	_, err = store.GetRun(ctx, "aaaa_")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := range 3 {
		require.NoError(t, store.RecordRun(ctx, sampleRun(base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt), "newest first")
	assert.True(t, runs[1].StartedAt.After(runs[2].StartedAt))
	assert.Nil(t, runs[0].Files)

	runs, err = store.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLiteStore_ListRunsEmpty(t *testing.T) {
	store := setupTestStore(t)

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestSQLiteStore_DeleteRunsBefore(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	old := sampleRun(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	recent := sampleRun(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.RecordRun(ctx, old))
	require.NoError(t, store.RecordRun(ctx, recent))

	n, err := store.DeleteRunsBefore(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.GetRun(ctx, old.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	var orphans int
	require.NoError(t, store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM diagnostics WHERE run_id = ?", old.ID).Scan(&orphans))
	assert.Zero(t, orphans, "diagnostics are deleted with their run")

	got, err := store.GetRun(ctx, recent.ID)
	require.NoError(t, err)
	assert.Len(t, got.Files, 3)
}

func TestSQLiteStore_RecordResults(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run, err := RecordResults(ctx, store, SourceServe, time.Now(), time.Second, []*engine.Result{
		{Path: "upload.xml", IsCPT: true, Diagnostics: []lint.Diagnostic{}},
	})
	require.NoError(t, err)

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, SourceServe, got.Source)
	assert.Equal(t, 1, got.Summary.Passed)
}

func TestSQLiteStore_RecordRunRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewSQLiteStoreWithDB(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO validation_runs").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO file_results").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	run := sampleRun(time.Now())
	err = store.RecordRun(context.Background(), run)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "a.xml")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_RecordRunBeginFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin().WillReturnError(assert.AnError)

	err = NewSQLiteStoreWithDB(db, nil).RecordRun(context.Background(), &Run{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_QueryErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewSQLiteStoreWithDB(db, nil)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM validation_runs").WillReturnError(assert.AnError)
	_, err = store.ListRuns(ctx, 5)
	assert.ErrorIs(t, err, assert.AnError)

	mock.ExpectQuery("SELECT (.+) FROM validation_runs").WillReturnError(assert.AnError)
	_, err = store.GetRun(ctx, "abc")
	assert.ErrorIs(t, err, assert.AnError)

	mock.ExpectExec("DELETE FROM validation_runs").WillReturnError(assert.AnError)
	_, err = store.DeleteRunsBefore(ctx, time.Now())
	assert.ErrorIs(t, err, assert.AnError)

	assert.NoError(t, mock.ExpectationsWereMet())
}
