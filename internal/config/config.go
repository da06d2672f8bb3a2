// Package config loads workspace configuration from a .codegraph.yaml file
// at the workspace root, falling back to defaults when none exists.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
)

// Extractor selection values.
const (
	ExtractorHeuristic = "heuristic"
	ExtractorGrammar   = "grammar"
)

// Config is the complete workspace configuration.
type Config struct {
	// DBPath is the SQLite database location, relative to the workspace
	// root unless absolute.
	DBPath string `mapstructure:"db_path"`

	// Include / Exclude are '/'-separated globs with '**' support, applied
	// to workspace-relative paths.
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`

	// Extractor selects the symbol extractor: "heuristic" (default,
	// brace-counting) or "grammar" (tree-sitter).
	Extractor string `mapstructure:"extractor"`

	LogLevel string `mapstructure:"log_level"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		DBPath: ".codegraph/graph.db",
		Include: []string{
			"**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx",
		},
		Exclude: []string{
			"**/*.d.ts", "**/*.test.ts", "**/*.spec.ts", "**/*.test.js",
		},
		Extractor: ExtractorHeuristic,
		LogLevel:  "info",
	}
}

// Load reads .codegraph.yaml from root. A missing file is not an error; an
// unreadable or invalid one is.
func Load(root string) (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetConfigName(".codegraph")
	v.SetConfigType("yaml")
	v.AddConfigPath(root)
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("include", def.Include)
	v.SetDefault("exclude", def.Exclude)
	v.SetDefault("extractor", def.Extractor)
	v.SetDefault("log_level", def.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Extractor != ExtractorHeuristic && cfg.Extractor != ExtractorGrammar {
		return nil, fmt.Errorf("unknown extractor %q (want %q or %q)",
			cfg.Extractor, ExtractorHeuristic, ExtractorGrammar)
	}
	return cfg, nil
}

// SlogLevel maps the configured log level to slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
