package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cptcheck/internal/cli/config"
	"github.com/leapstack-labs/cptcheck/internal/cli/output"
	"github.com/leapstack-labs/cptcheck/internal/engine"
	"github.com/leapstack-labs/cptcheck/internal/state"
)

// ErrIssuesFound is returned by commands that validated documents and found
// diagnostics or unreadable files. The root command maps it to exit code 1.
var ErrIssuesFound = errors.New("validation issues found")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the config, logger and renderer for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// Engine builds a validation engine from the lint settings. Unknown rule IDs
// are rejected.
func (c *CommandContext) Engine() (*engine.Engine, error) {
	if err := c.Cfg.ValidateRuleIDs(); err != nil {
		return nil, err
	}
	return engine.New(engine.Config{
		Lint:        c.Cfg.LintConfig(),
		MinSeverity: c.Cfg.MinSeverity(),
		Workers:     c.Cfg.Workers,
		Logger:      c.Logger,
	}), nil
}

// OpenStore opens the history database and applies migrations.
func (c *CommandContext) OpenStore(ctx context.Context) (*state.SQLiteStore, error) {
	c.Logger.Debug("opening history", "path", c.Cfg.StatePath)
	return state.OpenAndMigrate(ctx, c.Cfg.StatePath, c.Logger)
}

// getConfig returns the loaded configuration, or the defaults when the
// command runs outside the root command.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}
