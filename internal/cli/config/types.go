// Package config provides configuration management for the cptcheck CLI.
//
// Configuration is layered with koanf: built-in defaults, then cptcheck.yaml,
// then CPTCHECK_* environment variables, then command-line flags.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	OutputFormat string        `koanf:"output"`
	Verbose      bool          `koanf:"verbose"`
	LogLevel     string        `koanf:"log_level"`
	Workers      int           `koanf:"workers"`
	StatePath    string        `koanf:"state_path"`
	Record       bool          `koanf:"record"`
	Lint         LintConfig    `koanf:"lint"`
	Server       ServerConfig  `koanf:"server"`
	Watch        WatchConfig   `koanf:"watch"`
	Profiles     ProfileConfig `koanf:"profiles"`

	// ConfigDir is the directory of the config file used, or the working
	// directory when there is none. Relative paths are resolved against it.
	ConfigDir string `koanf:"-"`
}

// LintConfig selects rules and adjusts their severity.
type LintConfig struct {
	Disabled    []string          `koanf:"disabled"`
	Only        []string          `koanf:"only"`
	Severity    map[string]string `koanf:"severity"`
	MinSeverity string            `koanf:"min_severity"`
	Parallel    bool              `koanf:"parallel"`
}

// ServerConfig holds configuration for the HTTP validation service.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// WatchConfig holds configuration for watch mode.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// ProfileConfig maps a profile name to lint overrides, selected with
// --profile.
type ProfileConfig map[string]LintConfig

// Default configuration values.
const (
	DefaultOutput          = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel        = "warn"
	DefaultStateFile       = ".cptcheck/history.db"
	DefaultServerAddr      = "127.0.0.1:8080"
	DefaultMaxBodyBytes    = 32 << 20
	DefaultReadTimeout     = 30 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultDebounce        = 200 * time.Millisecond
)

// Default returns the built-in configuration, for commands run without
// LoadConfig (tests, mostly).
func Default() *Config {
	return &Config{
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		StatePath:    DefaultStateFile,
		Server: ServerConfig{
			Addr:            DefaultServerAddr,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			ReadTimeout:     DefaultReadTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Watch: WatchConfig{Debounce: DefaultDebounce},
	}
}
