package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/cptcheck/pkg/core"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
)

const (
	insertRunSQL = `INSERT INTO validation_runs
		(id, source, started_at, duration_ms, files, passed, findings, failures, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertFileSQL = `INSERT INTO file_results
		(run_id, position, path, hash, is_cpt, error)
		VALUES (?, ?, ?, ?, ?, ?)`
	insertDiagnosticSQL = `INSERT INTO diagnostics
		(run_id, file_position, position, rule_id, severity, message, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	runColumns = `id, source, started_at, duration_ms, files, passed, findings, failures, errors`
)

// RecordRun stores a run with all of its files and diagnostics in one
// transaction. An empty run ID is filled in.
func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run) (err error) {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if run == nil {
		return fmt.Errorf("nil run")
	}
	if run.ID == "" {
		run.ID = generateID()
	}
	if run.Source == "" {
		run.Source = SourceCLI
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, insertRunSQL,
		run.ID, run.Source, run.StartedAt.UTC(), run.Duration.Milliseconds(),
		run.Summary.Files, run.Summary.Passed, run.Summary.Findings,
		run.Summary.Failures, run.Summary.Errors)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, f := range run.Files {
		if _, err = tx.ExecContext(ctx, insertFileSQL,
			run.ID, i, f.Path, f.Hash, boolToInt(f.IsCPT), f.Error); err != nil {
			return fmt.Errorf("failed to insert file %s: %w", f.Path, err)
		}
		for j, d := range f.Diagnostics {
			if _, err = tx.ExecContext(ctx, insertDiagnosticSQL,
				run.ID, i, j, d.RuleID, d.Severity.String(), d.Message, boolToInt(d.Failed)); err != nil {
				return fmt.Errorf("failed to insert diagnostic %s for %s: %w", d.RuleID, f.Path, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	s.logger.Debug("recorded run",
		slog.String("id", run.ID),
		slog.String("source", run.Source),
		slog.Int("files", len(run.Files)))
	return nil
}

// ListRuns returns the most recent runs, newest first, without their files.
// A limit of zero or less returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT ` + runColumns + ` FROM validation_runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun retrieves a run with its files and diagnostics. id may be any
// unique prefix of a run ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty ID", ErrRunNotFound)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM validation_runs WHERE id = ? OR id LIKE ? ESCAPE '\' LIMIT 2`,
		id, escapeLike(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		matches = append(matches, run)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run *Run
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		run = matches[0]
	default:
		// An exact match wins over a prefix shared with another run.
		for _, m := range matches {
			if m.ID == id {
				run = m
			}
		}
		if run == nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
		}
	}

	if run.Files, err = s.runFiles(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *SQLiteStore) runFiles(ctx context.Context, runID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, hash, is_cpt, error FROM file_results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run files: %w", err)
	}
	files := make([]FileRecord, 0)
	for rows.Next() {
		var (
			f     FileRecord
			isCPT int
		)
		if err := rows.Scan(&f.Path, &f.Hash, &isCPT, &f.Error); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan file result: %w", err)
		}
		f.IsCPT = isCPT != 0
		f.Diagnostics = []lint.Diagnostic{}
		files = append(files, f)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run files: %w", err)
	}

	diagRows, err := s.db.QueryContext(ctx,
		`SELECT file_position, rule_id, severity, message, failed FROM diagnostics
		 WHERE run_id = ? ORDER BY file_position, position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get diagnostics: %w", err)
	}
	defer func() { _ = diagRows.Close() }()

	for diagRows.Next() {
		var (
			pos      int
			d        lint.Diagnostic
			severity string
			failed   int
		)
		if err := diagRows.Scan(&pos, &d.RuleID, &severity, &d.Message, &failed); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		if pos < 0 || pos >= len(files) {
			continue
		}
		if sev, ok := core.ParseSeverity(severity); ok {
			d.Severity = sev
		}
		d.Failed = failed != 0
		files[pos].Diagnostics = append(files[pos].Diagnostics, d)
	}
	if err := diagRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get diagnostics: %w", err)
	}
	return files, nil
}

// DeleteRunsBefore removes runs started before cutoff and reports how many
// were removed. Files and diagnostics go with them.
func (s *SQLiteStore) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM validation_runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	s.logger.Debug("pruned runs", slog.Int64("deleted", n), slog.Time("before", cutoff))
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		durationMS int64
	)
	err := row.Scan(&run.ID, &run.Source, &run.StartedAt, &durationMS,
		&run.Summary.Files, &run.Summary.Passed, &run.Summary.Findings,
		&run.Summary.Failures, &run.Summary.Errors)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.StartedAt = run.StartedAt.UTC()
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
