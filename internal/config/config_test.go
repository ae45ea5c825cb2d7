// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconauth/beacon/pkg/errutil"
)

func newFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(f)
	return f
}

func TestLoadDefaults(t *testing.T) {
	f := newFlags(t)

	cfg, err := Load("", f)
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultMetricsAddr, cfg.Metrics.Addr)
	assert.Equal(t, DefaultSessionTTL, cfg.Session.TTL)
	assert.Equal(t, DefaultCookieName, cfg.Session.CookieName)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, DefaultHashAlg, cfg.Auth.PasswordHash)
	assert.True(t, cfg.Auth.RegistrationEnabled)
	assert.Equal(t, DefaultAnonDomain, cfg.Auth.AnonymousDomain)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "beacon.yaml")
	data := []byte(`
server:
  addr: ":9090"
session:
  ttl: 1h
  cookie_secure: true
auth:
  password_hash: bcrypt
log:
  format: text
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path, newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, "bcrypt", cfg.Auth.PasswordHash)
	assert.Equal(t, "text", cfg.Log.Format)
	// Untouched keys keep their flag defaults.
	assert.Equal(t, DefaultMetricsAddr, cfg.Metrics.Addr)
	assert.Equal(t, DefaultCookieName, cfg.Session.CookieName)
}

func TestLoadFlagOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "beacon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600))

	f := newFlags(t)
	require.NoError(t, f.Parse([]string{"--server.addr", ":7070"}))

	cfg, err := Load(path, f)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoadEnvOverridesDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env@localhost:5432/beacon")

	f := newFlags(t)
	require.NoError(t, f.Parse([]string{"--database.url", "postgres://flag@localhost:5432/beacon"}))

	cfg, err := Load("", f)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env@localhost:5432/beacon", cfg.Database.URL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/beacon.yaml", newFlags(t))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_FAILED")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:  ServerConfig{Addr: ":8080"},
			Session: SessionConfig{TTL: time.Hour, CookieName: "beacon_session"},
			Auth:    AuthConfig{PasswordHash: "argon2id"},
			Log:     LogConfig{Format: "json"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing addr", func(t *testing.T) {
		cfg := base()
		cfg.Server.Addr = ""
		errutil.AssertErrorCode(t, cfg.Validate(), "CONFIG_INVALID")
	})

	t.Run("bad log format", func(t *testing.T) {
		cfg := base()
		cfg.Log.Format = "xml"
		errutil.AssertErrorCode(t, cfg.Validate(), "CONFIG_INVALID")
	})

	t.Run("bad hash algorithm", func(t *testing.T) {
		cfg := base()
		cfg.Auth.PasswordHash = "md5"
		errutil.AssertErrorCode(t, cfg.Validate(), "CONFIG_INVALID")
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		cfg := base()
		cfg.Session.TTL = 0
		errutil.AssertErrorCode(t, cfg.Validate(), "CONFIG_INVALID")
	})

	t.Run("missing cookie name", func(t *testing.T) {
		cfg := base()
		cfg.Session.CookieName = ""
		errutil.AssertErrorCode(t, cfg.Validate(), "CONFIG_INVALID")
	})
}
