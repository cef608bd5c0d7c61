package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// envPrefix is the prefix of environment variables read into the config.
const envPrefix = "CPTCHECK_"

var configNames = []string{"cptcheck.yaml", "cptcheck.yml", ".cptcheck.yaml"}

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"format":         "output",
	"state":          "state_path",
	"disable":        "lint.disabled",
	"rule":           "lint.only",
	"severity":       "lint.min_severity",
	"parallel":       "lint.parallel",
	"addr":           "server.addr",
	"max-body-bytes": "server.max_body_bytes",
	"debounce":       "watch.debounce",
}

// Package-level config file tracking
var (
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// configExistsIn returns the config file in dir, if any.
func configExistsIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configExistsIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// ResetConfig forgets the loaded config. Used for testing.
func ResetConfig() {
	configFileUsed = ""
	currentConfig = nil
}

// defaults returns the built-in configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"output":                  DefaultOutput,
		"verbose":                 false,
		"log_level":               DefaultLogLevel,
		"workers":                 0,
		"state_path":              DefaultStateFile,
		"record":                  false,
		"lint.parallel":           false,
		"lint.min_severity":       "hint",
		"server.addr":             DefaultServerAddr,
		"server.max_body_bytes":   DefaultMaxBodyBytes,
		"server.read_timeout":     DefaultReadTimeout.String(),
		"server.shutdown_timeout": DefaultShutdownTimeout.String(),
		"watch.debounce":          DefaultDebounce.String(),
	}
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithProfile(cfgFile, "", flags)
}

// LoadConfigWithProfile loads configuration and applies the lint overrides of
// the named profile, if any.
func LoadConfigWithProfile(cfgFile, profile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	cwd, _ := os.Getwd()
	if cfgFile == "" && cwd != "" {
		cfgFile = findConfigUpward(cwd)
	}
	configFileUsed = cfgFile
	configDir := cwd
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			configDir = filepath.Dir(abs)
		}
	}

	// 3. Load environment variables (CPTCHECK_ prefix)
	// Transform: CPTCHECK_LINT__PARALLEL -> lint.parallel
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			return FlagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve paths relative to the config file
	cfg.ConfigDir = configDir
	cfg.StatePath = resolvePathRelativeTo(expandEnvVars(cfg.StatePath), configDir)
	cfg.Server.Addr = expandEnvVars(cfg.Server.Addr)
	cfg.Lint.Disabled = normalizeIDs(cfg.Lint.Disabled)
	cfg.Lint.Only = normalizeIDs(cfg.Lint.Only)

	if profile != "" {
		overrides, ok := cfg.Profiles[profile]
		if !ok {
			return nil, fmt.Errorf("profile %q not found in config", profile)
		}
		cfg.Lint = MergeLintConfig(cfg.Lint, overrides)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg
	return &cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// FlagKey returns the config key a command-line flag is loaded into.
func FlagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	// Transform kebab-case to snake_case for config keys
	return strings.ReplaceAll(name, "-", "_")
}

// EnvVar returns the environment variable that sets a config key.
func EnvVar(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

// Keys lists every config key, sorted.
func Keys() []string {
	keys := []string{"lint.disabled", "lint.only", "lint.severity"}
	for key := range defaults() {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// IsKey reports whether key is a config key.
func IsKey(key string) bool {
	return slices.Contains(Keys(), key)
}

// normalizeIDs upper-cases rule IDs and drops blanks.
func normalizeIDs(ids []string) []string {
	var out []string
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// MergeLintConfig merges two lint configs, with override taking precedence.
// Disabled lists are combined; Only is replaced when the override sets it.
func MergeLintConfig(base, override LintConfig) LintConfig {
	merged := LintConfig{
		Disabled:    append(append([]string{}, base.Disabled...), normalizeIDs(override.Disabled)...),
		Only:        base.Only,
		Severity:    make(map[string]string, len(base.Severity)+len(override.Severity)),
		MinSeverity: base.MinSeverity,
		Parallel:    base.Parallel || override.Parallel,
	}
	for k, v := range base.Severity {
		merged.Severity[k] = v
	}
	for k, v := range override.Severity {
		merged.Severity[k] = v
	}
	if len(override.Only) > 0 {
		merged.Only = normalizeIDs(override.Only)
	}
	if override.MinSeverity != "" {
		merged.MinSeverity = override.MinSeverity
	}
	return merged
}
