// Package engine loads registration request files and validates them against
// the registered lint rules.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/cptcheck/pkg/core"
	"github.com/leapstack-labs/cptcheck/pkg/document"
	"github.com/leapstack-labs/cptcheck/pkg/lint"

	// Register all rules.
	_ "github.com/leapstack-labs/cptcheck/pkg/lint/rules"
)

// Engine validates documents.
type Engine struct {
	analyzer    *lint.Analyzer
	minSeverity core.Severity
	workers     int
	logger      *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Lint controls which rules run and their severity (optional)
	Lint *lint.Config
	// MinSeverity drops diagnostics less severe than this (nil = keep all)
	MinSeverity *core.Severity
	// Workers bounds concurrent file validation (0 = one per file)
	Workers int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates a new engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	minSeverity := core.SeverityHint
	if cfg.MinSeverity != nil {
		minSeverity = *cfg.MinSeverity
	}
	return &Engine{
		analyzer:    lint.NewAnalyzer(cfg.Lint),
		minSeverity: minSeverity,
		workers:     cfg.Workers,
		logger:      logger,
	}
}

// Analyzer returns the analyzer used for every document.
func (e *Engine) Analyzer() *lint.Analyzer {
	return e.analyzer
}

// Result is the validation outcome of one file.
type Result struct {
	Path        string            `json:"path" yaml:"path"`
	Hash        string            `json:"hash,omitempty" yaml:"hash,omitempty"`
	IsCPT       bool              `json:"is_cpt" yaml:"is_cpt"`
	Diagnostics []lint.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	Error       string            `json:"error,omitempty" yaml:"error,omitempty"`
	Duration    time.Duration     `json:"-" yaml:"-"`

	// Err is the load or parse failure, if any.
	Err error `json:"-" yaml:"-"`
}

// Passed reports whether the file loaded and produced no diagnostics.
func (r *Result) Passed() bool {
	return r.Err == nil && len(r.Diagnostics) == 0
}

// Messages returns the diagnostic texts in rule order.
func (r *Result) Messages() []string {
	return lint.Messages(r.Diagnostics)
}

// ValidateBytes parses content and runs the rules. name is used for
// reporting only.
func (e *Engine) ValidateBytes(name string, content []byte) *Result {
	start := time.Now()
	result := &Result{
		Path:        name,
		Hash:        computeHash(content),
		Diagnostics: []lint.Diagnostic{},
	}

	doc, err := document.ParseBytes(content)
	if err != nil {
		result.fail(fmt.Errorf("parse %s: %w", name, err))
		result.Duration = time.Since(start)
		e.logger.Warn("document rejected", "path", name, "error", err)
		return result
	}

	result.IsCPT = doc.IsCPT()
	if !result.IsCPT {
		e.logger.Warn("not a CPT registration request", "path", name)
	}

	for _, d := range e.analyzer.Analyze(doc) {
		if d.Severity.AtLeast(e.minSeverity) {
			result.Diagnostics = append(result.Diagnostics, d)
		}
	}
	result.Duration = time.Since(start)

	e.logger.Debug("document validated",
		"path", name,
		"diagnostics", len(result.Diagnostics),
		"duration_ms", result.Duration.Milliseconds())
	return result
}

// ValidateFile reads and validates a single file.
func (e *Engine) ValidateFile(ctx context.Context, path string) *Result {
	if err := ctx.Err(); err != nil {
		r := &Result{Path: path, Diagnostics: []lint.Diagnostic{}}
		r.fail(err)
		return r
	}

	content, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the user
	if err != nil {
		r := &Result{Path: path, Diagnostics: []lint.Diagnostic{}}
		r.fail(fmt.Errorf("read %s: %w", path, err))
		e.logger.Warn("failed to read file", "path", path, "error", err)
		return r
	}
	return e.ValidateBytes(path, content)
}

// ValidateFiles validates paths concurrently and returns results in input
// order. A file that fails to load does not stop the others; only context
// cancellation returns an error.
func (e *Engine) ValidateFiles(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.ValidateFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Info("validation completed", "files", len(paths), "summary", Summarize(results).String())
	return results, nil
}

func (r *Result) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

// computeHash returns the hex SHA-256 of content.
func computeHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
