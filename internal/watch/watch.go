// Package watch re-validates registration requests when they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/cptcheck/internal/engine"
)

// DefaultDebounce is the quiet period used when Config.Debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// Handler receives the results of one validation round.
type Handler func(results []*engine.Result)

// Config holds watcher configuration.
type Config struct {
	Engine *engine.Engine
	// Debounce is the quiet period after the last change before files are
	// re-validated.
	Debounce time.Duration
	// Initial validates every watched file once before waiting for changes.
	Initial bool
	// OnResults is called from the watch loop after each round.
	OnResults Handler
	Logger    *slog.Logger
}

// Watcher watches files and directories for changes to XML files.
type Watcher struct {
	engine    *engine.Engine
	debounce  time.Duration
	initial   bool
	onResults Handler
	logger    *slog.Logger
}

// New creates a watcher. Engine is required.
func New(cfg Config) *Watcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	onResults := cfg.OnResults
	if onResults == nil {
		onResults = func([]*engine.Result) {}
	}
	return &Watcher{
		engine:    cfg.Engine,
		debounce:  debounce,
		initial:   cfg.Initial,
		onResults: onResults,
		logger:    logger,
	}
}

// scope decides which changed files belong to the watch.
type scope struct {
	dirs  []string
	files map[string]bool
}

func (s scope) includes(path string) bool {
	path = filepath.Clean(path)
	if s.files[path] {
		return true
	}
	if !engine.IsXMLFile(path) {
		return false
	}
	for _, dir := range s.dirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Run watches paths until ctx is cancelled. Directories are watched
// recursively for *.xml files; explicit files are watched through their
// parent directory, so editors that replace files on save are handled.
func (w *Watcher) Run(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return errors.New("nothing to watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	sc := scope{files: make(map[string]bool)}
	for _, p := range paths {
		p = filepath.Clean(p)
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() {
			sc.dirs = append(sc.dirs, p)
			if err := watchDirRecursive(fsw, p); err != nil {
				return fmt.Errorf("watch %s: %w", p, err)
			}
			continue
		}
		sc.files[p] = true
		if err := fsw.Add(filepath.Dir(p)); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
	}

	if w.initial {
		files, err := engine.ExpandPaths(paths)
		if err != nil {
			return err
		}
		if err := w.validate(ctx, files); err != nil {
			return nil //nolint:nilerr // cancelled during the first round
		}
	}

	w.logger.Info("watching for changes", "paths", paths, "debounce", w.debounce.String())

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !hidden(event.Name) && sc.includesDir(event.Name) {
					if err := watchDirRecursive(fsw, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !sc.includes(event.Name) {
				continue
			}
			w.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			pending[filepath.Clean(event.Name)] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			files := drain(pending)
			if err := w.validate(ctx, files); err != nil {
				return nil //nolint:nilerr // cancelled mid-round
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) validate(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	results, err := w.engine.ValidateFiles(ctx, files)
	if err != nil {
		return err
	}
	w.onResults(results)
	return nil
}

func (s scope) includesDir(path string) bool {
	path = filepath.Clean(path)
	for _, dir := range s.dirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// drain returns the pending paths sorted and empties the set.
func drain(pending map[string]bool) []string {
	files := make([]string, 0, len(pending))
	for p := range pending {
		files = append(files, p)
		delete(pending, p)
	}
	sort.Strings(files)
	return files
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// watchDirRecursive adds a directory and its non-hidden subdirectories to the watcher.
func watchDirRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && hidden(path) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
