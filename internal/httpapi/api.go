// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

// Package httpapi exposes the authentication workflows over HTTP. The
// browser-facing contract is JSON in, JSON out, with the session carried in
// an HttpOnly cookie rather than a bearer header.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/beaconauth/beacon/internal/auth"
	"github.com/beaconauth/beacon/internal/observability"
)

const defaultCookieName = "beacon_session"

// Options configures the API surface.
type Options struct {
	// CookieName is the session cookie name. Defaults to "beacon_session".
	CookieName string
	// CookieSecure marks the session cookie Secure. Leave false only for
	// plain-HTTP development setups.
	CookieSecure bool
	// AnonymousDomain is the reserved email domain identifying guest
	// accounts. Defaults to auth.DefaultAnonymousDomain.
	AnonymousDomain string
}

// API handles the authentication HTTP endpoints.
type API struct {
	registration *auth.RegistrationService
	sessions     *auth.Service
	opts         Options
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewAPI creates a new API with a no-op logger.
// Returns an error if any required dependency is nil.
func NewAPI(registration *auth.RegistrationService, sessions *auth.Service, opts Options) (*API, error) {
	return NewAPIWithLogger(registration, sessions, opts, slog.New(slog.DiscardHandler))
}

// NewAPIWithLogger creates a new API with the provided logger.
// Returns an error if any required dependency is nil.
func NewAPIWithLogger(registration *auth.RegistrationService, sessions *auth.Service, opts Options, logger *slog.Logger) (*API, error) {
	if registration == nil {
		return nil, oops.Errorf("registration service is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if opts.CookieName == "" {
		opts.CookieName = defaultCookieName
	}
	if opts.AnonymousDomain == "" {
		opts.AnonymousDomain = auth.DefaultAnonymousDomain
	}
	return &API{
		registration: registration,
		sessions:     sessions,
		opts:         opts,
		logger:       logger,
	}, nil
}

// SetMetrics attaches request outcome counters. Without it the API serves
// requests but records nothing.
func (a *API) SetMetrics(m *observability.Metrics) {
	a.metrics = m
}

// Routes returns the handler for all authentication endpoints.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", a.handleRegister)
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.HandleFunc("POST /api/logout", a.handleLogout)
	mux.HandleFunc("GET /api/session", a.handleSession)
	return mux
}
