package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cptcheck/internal/cli/config"
	"github.com/leapstack-labs/cptcheck/internal/cli/output"
	"github.com/leapstack-labs/cptcheck/internal/state"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
)

// Health check states.
const (
	statusPass = "pass"
	statusWarn = "warn"
	statusFail = "error"
)

// HealthCheck is the result of one doctor check.
type HealthCheck struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
	Detail string `json:"detail" yaml:"detail"`
}

// DoctorOutput is the structured output of the doctor command.
type DoctorOutput struct {
	ConfigFile string        `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	Checks     []HealthCheck `json:"checks" yaml:"checks"`
	Problems   int           `json:"problems" yaml:"problems"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the cptcheck setup",
		Long: `Check the configuration, the rule selection and the history database.

Checks that fail make the command exit non-zero; warnings do not.`,
		Example: `  # Run the checks
  cptcheck doctor

  # Output as JSON
  cptcheck doctor --format json`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}

	cmd.Flags().StringP("format", "f", "", "Output format: text, markdown, json, yaml")

	return cmd
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContext(cmd)
	out := diagnose(cmd.Context(), cmdCtx.Cfg)

	if err := renderDoctor(cmdCtx.Renderer, out); err != nil {
		return err
	}
	if out.Problems > 0 {
		return ErrIssuesFound
	}
	return nil
}

// diagnose runs every check against cfg.
func diagnose(ctx context.Context, cfg *config.Config) *DoctorOutput {
	out := &DoctorOutput{ConfigFile: config.GetConfigFileUsed()}
	add := func(name, status, detail string) {
		out.Checks = append(out.Checks, HealthCheck{Name: name, Status: status, Detail: detail})
		if status == statusFail {
			out.Problems++
		}
	}

	if out.ConfigFile == "" {
		add("config", statusWarn, "no cptcheck.yaml found, using defaults (run 'cptcheck init')")
	} else {
		add("config", statusPass, out.ConfigFile)
	}

	if err := cfg.ValidateRuleIDs(); err != nil {
		add("rules", statusFail, err.Error())
	} else {
		enabled := len(lint.NewAnalyzer(cfg.LintConfig()).Rules())
		switch {
		case enabled == 0:
			add("rules", statusFail, "every rule is disabled")
		case enabled < lint.Count():
			add("rules", statusPass, fmt.Sprintf("%d of %d rules enabled", enabled, lint.Count()))
		default:
			add("rules", statusPass, fmt.Sprintf("all %d rules enabled", enabled))
		}
	}

	status, detail := checkHistory(ctx, cfg.StatePath)
	add("history", status, detail)

	return out
}

// checkHistory opens an existing history database. A missing one is fine:
// it is created by the first --record run.
func checkHistory(ctx context.Context, path string) (status, detail string) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return statusPass, fmt.Sprintf("%s not created yet", path)
	}

	store := state.NewSQLiteStore(nil)
	if err := store.Open(path); err != nil {
		return statusFail, err.Error()
	}
	defer func() { _ = store.Close() }()

	version, err := store.GetMigrationVersion(ctx)
	if err != nil {
		return statusFail, fmt.Sprintf("%s: %v", path, err)
	}
	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		return statusWarn, fmt.Sprintf("%s: schema version %d, %v", path, version, err)
	}
	return statusPass, fmt.Sprintf("%s: schema version %d, %d run(s)", path, version, len(runs))
}

func renderDoctor(r *output.Renderer, out *DoctorOutput) error {
	if ok, err := r.Structured(out); ok {
		return err
	}

	mode := r.EffectiveMode()
	styles := r.Styles()
	r.Header("cptcheck Doctor")
	for _, check := range out.Checks {
		if mode == output.ModeMarkdown {
			r.Printf("- **%s** (%s): %s\n", check.Name, check.Status, check.Detail)
			continue
		}
		icon := styles.Success.Render("✓")
		switch check.Status {
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusFail:
			icon = styles.Error.Render("✗")
		}
		r.Printf("%s %s: %s\n", icon, styles.Bold.Render(check.Name), check.Detail)
	}
	r.Println("")
	if out.Problems > 0 {
		r.Printf("%d problem(s) found\n", out.Problems)
	} else {
		r.Println("No problems found")
	}
	return nil
}
