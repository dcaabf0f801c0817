// Package config provides configuration loading for codelens.
//
// Configuration Hierarchy (highest to lowest priority):
//  1. Environment variables (CODELENS_*)
//  2. Config file (--config, else .codelens.yaml in the working directory, else $HOME)
//  3. Built-in defaults
//
// Nested keys map to environment variables with underscores, e.g.
// analysis.max_file_size → CODELENS_ANALYSIS_MAX_FILE_SIZE.
package config

import (
	"log/slog"
	"strings"
)

// Config represents the complete codelens configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// AnalysisConfig bounds per-run work.
type AnalysisConfig struct {
	MaxFileSize int64 `yaml:"max_file_size" mapstructure:"max_file_size"` // bytes; larger files are skipped
	Workers     int   `yaml:"workers" mapstructure:"workers"`             // 0 means one per CPU
}

// PathsConfig defines which files directory expansion leaves out.
type PathsConfig struct {
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns to ignore
}

// LogConfig configures diagnostics written to stderr or a rotated file.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`             // debug, info, warn, error
	File       string `yaml:"file" mapstructure:"file"`               // empty means stderr
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // megabytes before rotation
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // rotated files kept
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // days rotated files are kept
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MaxFileSize: 10 * 1024 * 1024,
			Workers:     0,
		},
		Paths: PathsConfig{
			Ignore: []string{
				"**/node_modules/**",
				"**/.venv/**",
				"**/__pycache__/**",
				"**/.git/**",
			},
		},
		Log: LogConfig{
			Level:      "warn",
			File:       "",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
	}
}

var logLevels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// SlogLevel maps Level to a slog level. Unknown values fall back to warn.
func (c LogConfig) SlogLevel() slog.Level {
	if level, ok := logLevels[strings.ToLower(c.Level)]; ok {
		return level
	}
	return slog.LevelWarn
}
