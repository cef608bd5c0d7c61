// Package state records validation runs in a SQLite history database.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/cptcheck/internal/engine"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
)

// ErrRunNotFound is returned when no run matches an ID.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousID is returned when an ID prefix matches several runs.
var ErrAmbiguousID = errors.New("run ID prefix is ambiguous")

// Run sources.
const (
	SourceCLI   = "cli"
	SourceWatch = "watch"
	SourceServe = "serve"
)

// Run is one recorded validation run.
type Run struct {
	ID        string         `json:"id" yaml:"id"`
	Source    string         `json:"source" yaml:"source"`
	StartedAt time.Time      `json:"started_at" yaml:"started_at"`
	Duration  time.Duration  `json:"duration" yaml:"duration"`
	Summary   engine.Summary `json:"summary" yaml:"summary"`

	// Files is only populated by GetRun.
	Files []FileRecord `json:"files,omitempty" yaml:"files,omitempty"`
}

// FileRecord is the stored outcome for one file of a run.
type FileRecord struct {
	Path        string            `json:"path" yaml:"path"`
	Hash        string            `json:"hash,omitempty" yaml:"hash,omitempty"`
	IsCPT       bool              `json:"is_cpt" yaml:"is_cpt"`
	Error       string            `json:"error,omitempty" yaml:"error,omitempty"`
	Diagnostics []lint.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

// NewRun builds a run from engine results.
func NewRun(source string, startedAt time.Time, duration time.Duration, results []*engine.Result) *Run {
	run := &Run{
		Source:    source,
		StartedAt: startedAt.UTC(),
		Duration:  duration,
		Summary:   engine.Summarize(results),
		Files:     make([]FileRecord, 0, len(results)),
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		run.Files = append(run.Files, FileRecord{
			Path:        r.Path,
			Hash:        r.Hash,
			IsCPT:       r.IsCPT,
			Error:       r.Error,
			Diagnostics: r.Diagnostics,
		})
	}
	return run
}

// Store persists validation runs.
type Store interface {
	RecordRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// RecordResults builds a run from engine results and records it in store.
func RecordResults(ctx context.Context, store Store, source string, startedAt time.Time, duration time.Duration, results []*engine.Result) (*Run, error) {
	run := NewRun(source, startedAt, duration, results)
	if err := store.RecordRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}
