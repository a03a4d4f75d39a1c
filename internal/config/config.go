package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration. Values come from an
// optional YAML file, with environment variables taking precedence.
type Config struct {
	// Port is the HTTP listen port.
	Port string `yaml:"port"`

	// DBPath is the sqlite database file path.
	DBPath string `yaml:"db_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// RetentionDays controls how long old schedules are kept before the
	// nightly janitor deletes them. Zero or negative disables cleanup.
	RetentionDays int `yaml:"retention_days"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:          "8080",
		DBPath:        "daybreak.db",
		LogLevel:      "info",
		RetentionDays: 90,
	}
}

// Normalize fills in missing values with defaults so partially-filled
// config files still behave correctly.
func (c *Config) Normalize() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.DBPath == "" {
		c.DBPath = "daybreak.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Load reads configuration from the YAML file at path, then applies
// DAYBREAK_* environment overrides. A missing file is not an error; an
// empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// fall through to env overrides
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(cfg)
	cfg.Normalize()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DAYBREAK_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DAYBREAK_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DAYBREAK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DAYBREAK_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RetentionDays = n
		}
	}
}
