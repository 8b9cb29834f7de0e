package logger

import (
	"errors"
	"strings"
)

// Config defines the logger configuration
type Config struct {
	Level            string     `mapstructure:"level"`            // debug, info, warn, error
	Format           string     `mapstructure:"format"`           // json, console
	Output           string     `mapstructure:"output"`           // stderr, file, both, discard
	File             FileConfig `mapstructure:"file"`
	EnableCaller     bool       `mapstructure:"enablecaller"`     // enable caller info
	EnableStacktrace bool       `mapstructure:"enablestacktrace"` // enable stacktrace for error level
}

// FileConfig defines file output configuration
type FileConfig struct {
	Filename   string `mapstructure:"filename"`   // log file path
	MaxSize    int    `mapstructure:"maxsize"`    // max size in MB
	MaxAge     int    `mapstructure:"maxage"`     // max age in days
	MaxBackups int    `mapstructure:"maxbackups"` // max backup files
	Compress   bool   `mapstructure:"compress"`   // compress rotated files
}

// DefaultConfig returns the CLI default: warnings and above on stderr.
// Stdout is reserved for rendered output.
func DefaultConfig() *Config {
	return &Config{
		Level:            "warn",
		Format:           "console",
		Output:           "stderr",
		EnableCaller:     false,
		EnableStacktrace: false,
		File: FileConfig{
			Filename:   "logs/execview.log",
			MaxSize:    10,
			MaxAge:     14,
			MaxBackups: 3,
			Compress:   true,
		},
	}
}

var validLevels = []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}

// Validate validates the logger configuration
func (c *Config) Validate() error {
	levelValid := false
	for _, level := range validLevels {
		if strings.ToLower(c.Level) == level {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return errors.New("invalid log level, must be one of: debug, info, warn, error, dpanic, panic, fatal")
	}

	if c.Format != "json" && c.Format != "console" {
		return errors.New("invalid log format, must be 'json' or 'console'")
	}

	switch c.Output {
	case "stderr", "file", "both", "discard":
	default:
		return errors.New("invalid log output, must be 'stderr', 'file', 'both' or 'discard'")
	}

	// File settings only matter when a file is written
	if c.Output == "file" || c.Output == "both" {
		if c.File.Filename == "" {
			return errors.New("log file filename is required when output is 'file' or 'both'")
		}
		if c.File.MaxSize <= 0 {
			return errors.New("log file maxsize must be greater than 0")
		}
		if c.File.MaxAge <= 0 {
			return errors.New("log file maxage must be greater than 0")
		}
		if c.File.MaxBackups < 0 {
			return errors.New("log file maxbackups must be greater than or equal to 0")
		}
	}

	return nil
}
