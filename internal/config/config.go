// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

// Package config loads and validates service configuration. Values are
// merged from three layers, lowest precedence first: flag defaults, an
// optional YAML config file, and explicitly set command-line flags. The
// DATABASE_URL environment variable overrides database.url.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default values for serve flags.
const (
	DefaultListenAddr  = ":8080"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultLogFormat   = "json"
	DefaultLogLevel    = "info"
	DefaultCookieName  = "beacon_session"
	DefaultHashAlg     = "argon2id"
	DefaultSessionTTL  = 24 * time.Hour
	DefaultAnonDomain  = "anonymous.user"
)

// Config holds the full service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig configures the public HTTP API listener.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig configures the observability listener.
// An empty addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// SessionConfig configures session issuance and the session cookie.
type SessionConfig struct {
	TTL          time.Duration `koanf:"ttl"`
	CookieName   string        `koanf:"cookie_name"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

// AuthConfig configures the credential workflows.
type AuthConfig struct {
	PasswordHash        string `koanf:"password_hash"`
	RegistrationEnabled bool   `koanf:"registration_enabled"`
	AnonymousDomain     string `koanf:"anonymous_domain"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// RegisterFlags registers the serve command's configuration flags on the
// given flag set. Flag names mirror the koanf key paths.
func RegisterFlags(f *pflag.FlagSet) {
	f.String("server.addr", DefaultListenAddr, "HTTP API listen address")
	f.String("metrics.addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	f.String("database.url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	f.Duration("session.ttl", DefaultSessionTTL, "session lifetime")
	f.String("session.cookie_name", DefaultCookieName, "session cookie name")
	f.Bool("session.cookie_secure", false, "mark the session cookie Secure")
	f.String("auth.password_hash", DefaultHashAlg, "password hash algorithm (argon2id or bcrypt)")
	f.Bool("auth.registration_enabled", true, "accept new registrations")
	f.String("auth.anonymous_domain", DefaultAnonDomain, "reserved email domain for guest accounts")
	f.String("log.format", DefaultLogFormat, "log format (json or text)")
	f.String("log.level", DefaultLogLevel, "log level (debug, info, warn, error)")
}

// Load merges the optional YAML file at path with the flag set and returns
// the validated configuration. An empty path skips the file layer.
func Load(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	// Flags the user set explicitly win over the file; unset flags only
	// contribute their defaults where the file is silent.
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration is internally consistent. The
// database URL is checked by commands that need it, not here, so read-only
// commands work without one.
func (cfg *Config) Validate() error {
	if cfg.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr is required")
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log.format must be 'json' or 'text', got %q", cfg.Log.Format)
	}
	switch cfg.Auth.PasswordHash {
	case "argon2id", "bcrypt":
	default:
		return oops.Code("CONFIG_INVALID").Errorf("auth.password_hash must be 'argon2id' or 'bcrypt', got %q", cfg.Auth.PasswordHash)
	}
	if cfg.Session.TTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session.ttl must be positive, got %s", cfg.Session.TTL)
	}
	if cfg.Session.CookieName == "" {
		return oops.Code("CONFIG_INVALID").Errorf("session.cookie_name is required")
	}
	return nil
}
