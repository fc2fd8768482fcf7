// Package config loads the application configuration: compiled
// defaults, then an optional YAML file, then environment variable
// overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ekayaprod/mailto/message"
)

// defaultMaxUpload is 50 MB in bytes.
const defaultMaxUpload = 50 << 20

// Config holds the complete application configuration.
type Config struct {
	Decode  DecodeConfig  `yaml:"decode"`
	Serve   ServeConfig   `yaml:"serve"`
	Logging LoggingConfig `yaml:"logging"`
}

// DecodeConfig tunes the property string decoding heuristics.
type DecodeConfig struct {
	PrintableThreshold float64 `yaml:"printable_threshold"`
	ShortStringMin     int     `yaml:"short_string_min"`
}

// ServeConfig holds HTTP server configuration.
type ServeConfig struct {
	Listen         string `yaml:"listen"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load returns the defaults overridden by environment variables. A
// .env file in the working directory is folded into the environment
// first.
func Load() *Config {
	_ = godotenv.Load()
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg
}

// LoadFromFile layers a YAML file between the defaults and the
// environment overrides. Returns an error when the file cannot be
// read or parsed.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvVars()
	return cfg, nil
}

// Options returns the decode thresholds in the form the message
// dispatcher takes.
func (c *Config) Options() message.Options {
	return message.Options{
		PrintableThreshold: c.Decode.PrintableThreshold,
		ShortStringMin:     c.Decode.ShortStringMin,
	}
}

// LogLevel maps the configured level name to a slog.Level, defaulting
// to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// applyDefaults sets the default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Decode.PrintableThreshold = 0.7
	c.Decode.ShortStringMin = 5
	c.Serve.Listen = ":8080"
	c.Serve.MaxUploadBytes = defaultMaxUpload
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration fields with MAILTO_* variables.
// Only set, parseable values override.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("MAILTO_PRINTABLE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Decode.PrintableThreshold = f
		}
	}
	if v := os.Getenv("MAILTO_SHORT_STRING_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Decode.ShortStringMin = n
		}
	}
	if v := os.Getenv("MAILTO_LISTEN"); v != "" {
		c.Serve.Listen = v
	}
	if v := os.Getenv("MAILTO_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Serve.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("MAILTO_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
