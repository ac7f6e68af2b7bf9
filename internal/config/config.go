package config

import (
	"errors"
	"fmt"
	"strings"

	"dario.cat/mergo"
	"go.uber.org/zap/zapcore"

	"github.com/eugenenazirov/yzconfig/internal/logging"
	"github.com/eugenenazirov/yzconfig/internal/overlay"
	"github.com/eugenenazirov/yzconfig/internal/settings"
)

const (
	// EnvPrefix namespaces the CLI's own environment variables.
	EnvPrefix = "YZCONFIG_"

	defaultOutput = OutputYAML
)

// Supported output formats.
const (
	OutputYAML = "yaml"
	OutputJSON = "json"
)

// Config aggregates the CLI's runtime configuration.
// Precedence: CLI flags > Environment variables > Defaults
type Config struct {
	LogLevel  string `yaml:"LOG_LEVEL"`
	Output    string `yaml:"OUTPUT"`
	SearchDir string `yaml:"SEARCH_DIR"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	LogLevel  *string
	Output    *string
	SearchDir *string
}

var schema = overlay.NewSchema("yzconfig-cli").
	Field("LOG_LEVEL", logging.DefaultLevel).
	Field("OUTPUT", defaultOutput).
	Field("SEARCH_DIR", "")

// Load resolves configuration from the process environment and overrides.
func Load(overrides *CLIOverrides) (Config, error) {
	return LoadFrom(settings.NewEnv(), overrides)
}

// LoadFrom resolves configuration from src, whose names carry EnvPrefix, and
// applies overrides on top.
func LoadFrom(src settings.Source, overrides *CLIOverrides) (Config, error) {
	inst, err := overlay.New(schema, EnvPrefix, src)
	if err != nil {
		return Config{}, fmt.Errorf("load environment config: %w", err)
	}

	var cfg Config
	if err := inst.Decode(&cfg); err != nil {
		return Config{}, err
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		if err := mergo.Merge(&cfg, overrides.config(), mergo.WithOverride); err != nil {
			return Config{}, fmt.Errorf("merge CLI overrides: %w", err)
		}
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, &settings.ConfigurationError{Message: err.Error(), Err: err}
	}

	return cfg, nil
}

func (o *CLIOverrides) config() Config {
	var cfg Config
	if o.LogLevel != nil {
		cfg.LogLevel = strings.TrimSpace(*o.LogLevel)
	}
	if o.Output != nil {
		cfg.Output = strings.TrimSpace(*o.Output)
	}
	if o.SearchDir != nil {
		cfg.SearchDir = strings.TrimSpace(*o.SearchDir)
	}
	return cfg
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if err := overlay.Assert(cfg.Output == OutputYAML || cfg.Output == OutputJSON,
		"OUTPUT must be %q or %q, got %q", OutputYAML, OutputJSON, cfg.Output); err != nil {
		return err
	}
	_, err := zapcore.ParseLevel(cfg.LogLevel)
	return overlay.Assert(err == nil, "LOG_LEVEL %q is not a valid level", cfg.LogLevel)
}

// IsConfigurationError reports whether err stems from invalid settings.
func IsConfigurationError(err error) bool {
	var cfgErr *settings.ConfigurationError
	return errors.As(err, &cfgErr)
}
