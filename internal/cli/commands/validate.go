package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cptcheck/internal/cli/output"
	"github.com/leapstack-labs/cptcheck/internal/engine"
	"github.com/leapstack-labs/cptcheck/internal/state"
	"github.com/leapstack-labs/cptcheck/pkg/core"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
)

// ValidateReport is the structured output of validate and watch.
type ValidateReport struct {
	Files   []*engine.Result `json:"files" yaml:"files"`
	Summary engine.Summary   `json:"summary" yaml:"summary"`
	RunID   string           `json:"run_id,omitempty" yaml:"run_id,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file|dir>...",
		Short: "Check CPT registration requests for missing values",
		Long: `Validate BRO CPT registration requests against the completeness rules.

Directories are searched recursively for *.xml files. Every file is parsed and
checked; a file that cannot be read or parsed is reported and the others are
still validated.

The command exits with status 1 when any file has diagnostics or could not be
read.`,
		Example: `  # Validate one file
  cptcheck validate request.xml

  # Validate a directory, JSON output
  cptcheck validate ./requests --format json

  # Skip the dissipation checks, only report errors
  cptcheck validate ./requests --disable DT01,DT02,DT03 --severity error

  # Store the outcome in the history database
  cptcheck validate ./requests --record`,
		Args: cobra.MinimumNArgs(1),
		RunE: runValidate,
	}

	cmd.Flags().StringP("format", "f", "", "Output format: text, markdown, json, yaml")
	cmd.Flags().StringSlice("disable", nil, "Rule IDs to disable")
	cmd.Flags().StringSlice("rule", nil, "Run only these rule IDs")
	cmd.Flags().String("severity", "", "Minimum severity to report: error, warning, info, hint")
	cmd.Flags().Bool("record", false, "Store the run in the history database")
	cmd.Flags().Bool("parallel", false, "Evaluate the rules of a document concurrently")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()

	eng, err := cmdCtx.Engine()
	if err != nil {
		return err
	}

	paths, err := engine.ExpandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no XML files found")
	}

	started := time.Now()
	results, err := eng.ValidateFiles(ctx, paths)
	if err != nil {
		return err
	}

	report := ValidateReport{
		Files:   results,
		Summary: engine.Summarize(results),
	}

	if cmdCtx.Cfg.Record {
		store, err := cmdCtx.OpenStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		run, err := state.RecordResults(ctx, store, state.SourceCLI, started, time.Since(started), results)
		if err != nil {
			return err
		}
		report.RunID = run.ID
	}

	if err := renderReport(cmdCtx.Renderer, report); err != nil {
		return err
	}

	if !report.Summary.Clean() {
		return ErrIssuesFound
	}
	return nil
}

// renderReport writes validation results in the renderer's mode.
func renderReport(r *output.Renderer, report ValidateReport) error {
	if ok, err := r.Structured(report); ok {
		return err
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		renderReportMarkdown(r, report)
	} else {
		renderReportText(r, report)
	}

	if report.RunID != "" {
		r.Muted("Recorded run " + report.RunID)
	}
	return nil
}

func renderReportText(r *output.Renderer, report ValidateReport) {
	styles := r.Styles()

	for _, res := range report.Files {
		switch {
		case res.Err != nil || res.Error != "":
			r.Println(styles.Bold.Render(res.Path))
			r.Printf("  %s  %s\n", styles.Error.Render("unreadable"), res.Error)
			r.Println("")
		case len(res.Diagnostics) > 0:
			r.Println(styles.Bold.Render(res.Path))
			for _, d := range res.Diagnostics {
				r.Printf("  %s  %s  %s\n",
					styles.Key.Render(d.RuleID),
					severityLabel(r, d),
					d.Message)
			}
			r.Println("")
		}
	}

	s := report.Summary
	line := s.String()
	if s.Clean() {
		r.Println(styles.Success.Render(line))
	} else {
		r.Println(styles.Warning.Render(line))
	}
}

func renderReportMarkdown(r *output.Renderer, report ValidateReport) {
	r.Println("# Validation Results")
	r.Println("")

	for _, res := range report.Files {
		switch {
		case res.Err != nil || res.Error != "":
			r.Printf("## %s\n\n", res.Path)
			r.Printf("- **unreadable:** %s\n\n", res.Error)
		case len(res.Diagnostics) > 0:
			r.Printf("## %s\n\n", res.Path)
			for _, d := range res.Diagnostics {
				kind := d.Severity.String()
				if d.Failed {
					kind = "failed"
				}
				r.Printf("- **%s** (`%s`): %s\n", d.RuleID, kind, d.Message)
			}
			r.Println("")
		}
	}

	r.Printf("**Summary:** %s\n", report.Summary.String())
}

// severityLabel renders a fixed-width severity, or "failed" for a rule that
// could not run.
func severityLabel(r *output.Renderer, d lint.Diagnostic) string {
	styles := r.Styles()
	if d.Failed {
		return styles.Error.Render("failed ")
	}
	label := fmt.Sprintf("%-7s", d.Severity.String())
	switch d.Severity {
	case core.SeverityError:
		return styles.Error.Render(label)
	case core.SeverityWarning:
		return styles.Warning.Render(label)
	case core.SeverityInfo:
		return styles.Info.Render(label)
	default:
		return styles.Muted.Render(label)
	}
}
