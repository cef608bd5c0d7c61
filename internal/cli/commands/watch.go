package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cptcheck/internal/engine"
	"github.com/leapstack-labs/cptcheck/internal/state"
	"github.com/leapstack-labs/cptcheck/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file|dir>...",
		Short: "Re-validate registration requests when they change",
		Long: `Validate the given files once, then keep watching them and validate
every file that is written again.

Directories are watched recursively for *.xml files; directories created
later are picked up too. Changes are collected until nothing has changed for
the debounce period. Stop with Ctrl-C.`,
		Example: `  # Watch a directory
  cptcheck watch ./requests

  # Coalesce bursts of writes for a full second
  cptcheck watch ./requests --debounce 1s

  # Keep every round in the history database
  cptcheck watch ./requests --record`,
		Args: cobra.MinimumNArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().Duration("debounce", 0, "Quiet period before re-validating (default from config)")
	cmd.Flags().Bool("record", false, "Store each round in the history database")
	cmd.Flags().StringP("format", "f", "", "Output format: text, markdown, json, yaml")
	cmd.Flags().StringSlice("disable", nil, "Rule IDs to disable")
	cmd.Flags().String("severity", "", "Minimum severity to report: error, warning, info, hint")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()
	r := cmdCtx.Renderer

	eng, err := cmdCtx.Engine()
	if err != nil {
		return err
	}

	var store state.Store
	if cmdCtx.Cfg.Record {
		s, err := cmdCtx.OpenStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		store = s
	}

	w := watch.New(watch.Config{
		Engine:   eng,
		Debounce: cmdCtx.Cfg.Watch.Debounce,
		Initial:  true,
		Logger:   cmdCtx.Logger,
		OnResults: func(results []*engine.Result) {
			report := ValidateReport{Files: results, Summary: engine.Summarize(results)}
			if store != nil {
				run, err := state.RecordResults(ctx, store, state.SourceWatch, time.Now(), totalDuration(results), results)
				if err != nil {
					cmdCtx.Logger.Error("failed to record run", "error", err)
				} else {
					report.RunID = run.ID
				}
			}
			if err := renderReport(r, report); err != nil {
				cmdCtx.Logger.Error("failed to render results", "error", err)
			}
		},
	})

	r.Muted("Watching for changes, press Ctrl-C to stop")
	return w.Run(ctx, args)
}

// totalDuration adds up the time spent on each file.
func totalDuration(results []*engine.Result) time.Duration {
	var d time.Duration
	for _, res := range results {
		d += res.Duration
	}
	return d
}
