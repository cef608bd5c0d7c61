package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cptcheck/internal/cli/output"
	"github.com/leapstack-labs/cptcheck/internal/engine"
	"github.com/leapstack-labs/cptcheck/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int           // Number of runs to list
	Prune time.Duration // Delete runs older than this
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded validation runs",
		Long: `List the validation runs stored with --record, newest first, or show the
files and diagnostics of one run. A run can be named by any unique prefix of
its ID.`,
		Example: `  # Last 20 runs
  cptcheck history

  # One run in detail
  cptcheck history 3f2a

  # Delete runs older than 30 days
  cptcheck history --prune 720h`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of runs to list (0 = all)")
	cmd.Flags().DurationVar(&opts.Prune, "prune", 0, "Delete runs older than this duration")
	cmd.Flags().StringP("format", "f", "", "Output format: text, markdown, json, yaml")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string, opts *HistoryOptions) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()
	r := cmdCtx.Renderer

	store, err := cmdCtx.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if opts.Prune > 0 {
		n, err := store.DeleteRunsBefore(ctx, time.Now().Add(-opts.Prune))
		if err != nil {
			return err
		}
		r.Success(fmt.Sprintf("Deleted %d run(s) older than %s", n, opts.Prune))
		return nil
	}

	if len(args) == 1 {
		run, err := store.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		return renderRun(r, run)
	}

	runs, err := store.ListRuns(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if ok, err := r.Structured(runs); ok {
		return err
	}
	if len(runs) == 0 {
		r.Muted("No recorded runs")
		return nil
	}

	r.Header("Validation History")
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			run.Source,
			strconv.Itoa(run.Summary.Files),
			strconv.Itoa(run.Summary.Passed),
			strconv.Itoa(run.Summary.Findings),
			strconv.Itoa(run.Summary.Failures),
			strconv.Itoa(run.Summary.Errors),
		})
	}
	r.Table([]string{"Run", "Started", "Source", "Files", "Passed", "Findings", "Failures", "Unreadable"}, rows)
	return nil
}

func renderRun(r *output.Renderer, run *state.Run) error {
	if ok, err := r.Structured(run); ok {
		return err
	}

	mode := r.EffectiveMode()
	r.Header("Run " + run.ID)
	r.Println(output.FormatKeyValue(mode, "Started", run.StartedAt.Local().Format(time.DateTime)))
	r.Println(output.FormatKeyValue(mode, "Source", run.Source))
	r.Println(output.FormatKeyValue(mode, "Duration", run.Duration.String()))
	r.Println("")

	results := make([]*engine.Result, 0, len(run.Files))
	for _, f := range run.Files {
		results = append(results, &engine.Result{
			Path:        f.Path,
			Hash:        f.Hash,
			IsCPT:       f.IsCPT,
			Diagnostics: f.Diagnostics,
			Error:       f.Error,
		})
	}
	// The stored summary is authoritative: the rebuilt results carry no Err.
	report := ValidateReport{Files: results, Summary: run.Summary}
	if mode == output.ModeMarkdown {
		renderReportMarkdown(r, report)
	} else {
		renderReportText(r, report)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
