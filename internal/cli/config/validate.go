package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/cptcheck/pkg/core"
	"github.com/leapstack-labs/cptcheck/pkg/lint"
)

var validOutputs = map[string]bool{
	"":         true,
	"auto":     true,
	"text":     true,
	"markdown": true,
	"json":     true,
	"yaml":     true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if !validOutputs[c.OutputFormat] {
		errs = append(errs, fmt.Errorf("output: unknown format %q (want auto, text, markdown, json or yaml)", c.OutputFormat))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers: must not be negative, got %d", c.Workers))
	}
	if c.Lint.MinSeverity != "" {
		if _, ok := core.ParseSeverity(c.Lint.MinSeverity); !ok {
			errs = append(errs, fmt.Errorf("lint.min_severity: unknown severity %q", c.Lint.MinSeverity))
		}
	}
	for id, sev := range c.Lint.Severity {
		if _, ok := core.ParseSeverity(sev); !ok {
			errs = append(errs, fmt.Errorf("lint.severity.%s: unknown severity %q", id, sev))
		}
	}
	if c.Server.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes: must not be negative"))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce: must not be negative"))
	}

	return errors.Join(errs...)
}

// ValidateRuleIDs checks that every rule ID named in the lint config is
// registered. Call it after the rules have been registered.
func (c *Config) ValidateRuleIDs() error {
	var unknown []string
	check := func(id string) {
		if _, ok := lint.GetByID(strings.ToUpper(id)); !ok {
			unknown = append(unknown, id)
		}
	}
	for _, id := range c.Lint.Disabled {
		check(id)
	}
	for _, id := range c.Lint.Only {
		check(id)
	}
	for id := range c.Lint.Severity {
		check(id)
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown rule ID(s): %s\nHint: run 'cptcheck rules' to list available rules", strings.Join(unknown, ", "))
	}
	return nil
}

// LintConfig builds the analyzer configuration.
func (c *Config) LintConfig() *lint.Config {
	lc := lint.NewConfig().Disable(c.Lint.Disabled...).Only(c.Lint.Only...)
	for id, name := range c.Lint.Severity {
		if sev, ok := core.ParseSeverity(name); ok {
			lc.SetSeverity(strings.ToUpper(id), sev)
		}
	}
	if c.Lint.Parallel {
		lc.WithParallel(c.Workers)
	}
	return lc
}

// MinSeverity returns the configured report threshold, or nil to report
// everything.
func (c *Config) MinSeverity() *core.Severity {
	if c.Lint.MinSeverity == "" {
		return nil
	}
	sev, ok := core.ParseSeverity(c.Lint.MinSeverity)
	if !ok {
		return nil
	}
	return &sev
}

// ParseLogLevel converts a level name to a slog level. Empty means warn.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("log_level: unknown level %q", s)
	}
}
