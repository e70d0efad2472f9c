// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads portal settings from a YAML file and command-line
// flags. Flags that were set explicitly override the file; flag defaults
// fill any key the file leaves out.
package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/portal/internal/auth"
	"github.com/holomush/portal/internal/logging"
	"github.com/holomush/portal/internal/xdg"
)

// Verifier and durable-area backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// DatabaseURLEnv is read when database.url is not configured.
const DatabaseURLEnv = "DATABASE_URL"

// Config is the resolved portal configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Session  SessionConfig  `koanf:"session"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MetricsConfig controls the observability server. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig holds the PostgreSQL connection string.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// AuthConfig selects the credential verifier and service behaviour.
type AuthConfig struct {
	Verifier      string        `koanf:"verifier"`
	UsersFile     string        `koanf:"users_file"`
	UnifiedErrors bool          `koanf:"unified_errors"`
	Latency       LatencyConfig `koanf:"latency"`
}

// LatencyConfig holds the simulated service delays.
type LatencyConfig struct {
	Authenticate time.Duration `koanf:"authenticate"`
	Validate     time.Duration `koanf:"validate"`
	Refresh      time.Duration `koanf:"refresh"`
}

// SessionConfig selects where remembered sessions live.
type SessionConfig struct {
	Durable             string `koanf:"durable"`
	File                string `koanf:"file"`
	RevalidateOnRestore bool   `koanf:"revalidate_on_restore"`
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"log-format":                     "log.format",
	"log-level":                      "log.level",
	"metrics-addr":                   "metrics.addr",
	"database-url":                   "database.url",
	"verifier":                       "auth.verifier",
	"users-file":                     "auth.users_file",
	"unified-errors":                 "auth.unified_errors",
	"latency-authenticate":           "auth.latency.authenticate",
	"latency-validate":               "auth.latency.validate",
	"latency-refresh":                "auth.latency.refresh",
	"session-durable":                "session.durable",
	"session-file":                   "session.file",
	"session-revalidate-on-restore": "session.revalidate_on_restore",
}

// RegisterFlags adds every configuration flag, with its default, to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	latency := auth.DefaultLatency

	fs.String("log-format", "text", "log format: json or text")
	fs.String("log-level", "warn", "log level: debug, info, warn or error")
	fs.String("metrics-addr", "", "serve /metrics and health probes on this address (empty disables)")
	fs.String("database-url", "", "PostgreSQL URL (default $"+DatabaseURLEnv+")")
	fs.String("verifier", BackendMemory, "credential verifier: memory or postgres")
	fs.String("users-file", "", "YAML users file for the memory verifier (default: built-in demo users)")
	fs.Bool("unified-errors", false, "report one message for unknown email and wrong password")
	fs.Duration("latency-authenticate", latency.Authenticate, "simulated sign-in delay")
	fs.Duration("latency-validate", latency.Validate, "simulated token check delay")
	fs.Duration("latency-refresh", latency.Refresh, "simulated token refresh delay")
	fs.String("session-durable", BackendFile, "remembered session storage: file or postgres")
	fs.String("session-file", "", "remembered session file (default $XDG_STATE_HOME/portal/session.yaml)")
	fs.Bool("session-revalidate-on-restore", true, "check the stored token when restoring a session")
}

// Load reads path (or the default config file when path is empty and one
// exists), overlays fs, and returns the validated result.
func Load(fs *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	path, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	flags := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	})
	if err := k.Load(flags, nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv(DatabaseURLEnv)
	}
	if cfg.Session.Durable == BackendFile && cfg.Session.File == "" {
		if cfg.Session.File, err = xdg.SessionFile(); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolvePath returns path, or the default config file if it exists.
func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	def, err := xdg.ConfigFile()
	if err != nil {
		return "", nil //nolint:nilerr // no HOME means no default file
	}
	if _, err := os.Stat(def); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.Code("CONFIG_LOAD_FAILED").With("path", def).Wrap(err)
	}
	return def, nil
}

// Validate rejects unknown enum values, negative delays and postgres
// backends without a database URL.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"json", "text"}, c.Log.Format) {
		return invalid("log.format", c.Log.Format, "json, text")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", c.Log.Level, "debug, info, warn, error")
	}
	if !slices.Contains([]string{BackendMemory, BackendPostgres}, c.Auth.Verifier) {
		return invalid("auth.verifier", c.Auth.Verifier, "memory, postgres")
	}
	if !slices.Contains([]string{BackendFile, BackendPostgres}, c.Session.Durable) {
		return invalid("session.durable", c.Session.Durable, "file, postgres")
	}
	for key, d := range map[string]time.Duration{
		"auth.latency.authenticate": c.Auth.Latency.Authenticate,
		"auth.latency.validate":     c.Auth.Latency.Validate,
		"auth.latency.refresh":      c.Auth.Latency.Refresh,
	} {
		if d < 0 {
			return oops.Code("CONFIG_INVALID").With("key", key).Errorf("%s must not be negative, got %s", key, d)
		}
	}
	if c.NeedsDatabase() && c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			With("key", "database.url").
			Errorf("database.url or $%s is required for the postgres backend", DatabaseURLEnv)
	}
	return nil
}

// NeedsDatabase reports whether any configured backend is PostgreSQL.
func (c *Config) NeedsDatabase() bool {
	return c.Auth.Verifier == BackendPostgres || c.Session.Durable == BackendPostgres
}

// ServiceOptions converts the auth settings into service options.
func (c *Config) ServiceOptions() auth.Options {
	opts := auth.DefaultOptions()
	opts.UnifiedErrors = c.Auth.UnifiedErrors
	opts.Latency = auth.Latency{
		Authenticate: c.Auth.Latency.Authenticate,
		Validate:     c.Auth.Latency.Validate,
		Refresh:      c.Auth.Latency.Refresh,
	}
	return opts
}

func invalid(key, value, allowed string) error {
	return oops.Code("CONFIG_INVALID").
		With("key", key).
		With("value", value).
		Errorf("invalid %s %q (expected one of %s)", key, value, allowed)
}
