// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

// Package config loads host process configuration from defaults, an optional
// YAML file, and command-line flag overrides, in that order of precedence.
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the host process configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	Seed     SeedConfig     `koanf:"seed"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `koanf:"url"`

	// ConnectAttempts bounds the startup connect retry loop.
	ConnectAttempts uint64 `koanf:"connect_attempts"`
}

// MetricsConfig configures the observability endpoint. An empty Addr disables
// the server.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// SeedConfig points at the world seed file. When File is empty, rooms are
// loaded from the room repository instead.
type SeedConfig struct {
	File string `koanf:"file"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		Database: DatabaseConfig{ConnectAttempts: 5},
		Metrics:  MetricsConfig{Addr: "127.0.0.1:9100"},
		Log:      LogConfig{Format: "json", Level: "info"},
	}
}

// flagKeys maps command-line flag names to config paths.
var flagKeys = map[string]string{
	"db-url":       "database.url",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"seed-file":    "seed.file",
}

// Load builds a Config from defaults, the YAML file at path (optional, may be
// empty), and changed flags in flags (optional, may be nil).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			if mapped, ok := flagKeys[key]; ok {
				return mapped, value
			}
			return key, value
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").With("log_format", c.Log.Format).
			Errorf("log format must be 'json' or 'text'")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").With("log_level", c.Log.Level).
			Errorf("log level must be one of debug, info, warn, error")
	}
	if c.Database.ConnectAttempts == 0 {
		return oops.Code("CONFIG_INVALID").Errorf("database connect_attempts must be positive")
	}
	return nil
}
