// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

package httpapi

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/beaconauth/beacon/internal/auth"
	"github.com/beaconauth/beacon/pkg/errutil"
)

// User-facing response messages. These are shown verbatim in the UI, so
// changing them is a product decision, not a refactor.
const (
	MsgRegisterSuccess      = "Account created successfully"
	MsgRegisterFailed       = "Registration failed. Please try again."
	MsgEmailTaken           = "An account with this email already exists"
	MsgRegistrationDisabled = "Registration is currently disabled"
	MsgInvalidCredentials   = "Invalid email or password"
	MsgLoginFailed          = "Sign in failed. Please try again."
	MsgInvalidBody          = "Invalid request body"
)

// maxBodyBytes bounds credential payloads. Email plus password never comes
// close to this.
const maxBodyBytes = 1 << 16

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// messageResponse is the body shape for every success and error answer: the
// UI reads a single "message" key on all paths.
type messageResponse struct {
	Message string `json:"message"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	Anonymous     bool   `json:"anonymous,omitempty"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !a.decodeJSON(w, r, &req) {
		a.countRegistration("invalid")
		return
	}

	account, err := a.registration.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch errutil.Code(err) {
		case "AUTH_INVALID_EMAIL":
			a.countRegistration("invalid")
			a.writeError(w, http.StatusBadRequest, auth.MsgInvalidEmail)
		case "AUTH_INVALID_PASSWORD":
			a.countRegistration("invalid")
			a.writeError(w, http.StatusBadRequest, auth.MsgPasswordTooShort)
		case "AUTH_EMAIL_TAKEN":
			a.countRegistration("duplicate")
			a.writeError(w, http.StatusBadRequest, MsgEmailTaken)
		case "AUTH_REGISTRATION_DISABLED":
			a.countRegistration("disabled")
			a.writeError(w, http.StatusForbidden, MsgRegistrationDisabled)
		default:
			a.countRegistration("error")
			errutil.LogError(a.logger, "registration failed", err)
			a.writeError(w, http.StatusInternalServerError, MsgRegisterFailed)
		}
		return
	}

	a.countRegistration("success")
	a.logger.Info("registration handled",
		"event", "http_register",
		"account_id", account.ID.String(),
	)
	a.writeJSON(w, http.StatusCreated, messageResponse{Message: MsgRegisterSuccess})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !a.decodeJSON(w, r, &req) {
		a.countLogin("invalid")
		return
	}

	session, token, err := a.sessions.Login(r.Context(), req.Email, req.Password, r.UserAgent(), clientIP(r))
	if err != nil {
		switch errutil.Code(err) {
		case "AUTH_INVALID_EMAIL", "AUTH_INVALID_PASSWORD", "AUTH_INVALID_CREDENTIALS":
			// Validation failures and unknown accounts collapse into one
			// answer so the response does not reveal which field was wrong.
			a.countLogin("denied")
			a.writeError(w, http.StatusUnauthorized, MsgInvalidCredentials)
		default:
			a.countLogin("error")
			errutil.LogError(a.logger, "login failed", err)
			a.writeError(w, http.StatusInternalServerError, MsgLoginFailed)
		}
		return
	}

	a.setSessionCookie(w, token, session.ExpiresAt)
	a.countLogin("success")

	account, err := a.sessions.AccountByID(r.Context(), session.AccountID)
	if err != nil {
		// The session is already issued; answer with what we know.
		errutil.LogError(a.logger, "account lookup after login failed", err)
		a.writeJSON(w, http.StatusOK, sessionResponse{
			Authenticated: true,
			Email:         req.Email,
			ExpiresAt:     session.ExpiresAt.UTC().Format(time.RFC3339),
		})
		return
	}

	a.writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Email:         account.Email,
		Anonymous:     account.IsAnonymous(a.opts.AnonymousDomain),
		ExpiresAt:     session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Logout is idempotent: a missing, invalid, or expired cookie still gets
	// a 204 and a cleared cookie.
	cookie, err := r.Cookie(a.opts.CookieName)
	if err != nil {
		a.clearSessionCookie(w)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	session, err := a.sessions.ValidateSession(r.Context(), cookie.Value)
	if err != nil {
		a.clearSessionCookie(w)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := a.sessions.Logout(r.Context(), session.ID); err != nil {
		if errutil.Code(err) != "SESSION_NOT_FOUND" {
			errutil.LogError(a.logger, "logout failed", err)
			a.writeError(w, http.StatusInternalServerError, "Logout failed. Please try again.")
			return
		}
	}

	a.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(a.opts.CookieName)
	if err != nil {
		a.writeJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}

	session, err := a.sessions.ValidateSession(r.Context(), cookie.Value)
	if err != nil {
		switch errutil.Code(err) {
		case "SESSION_INVALID", "SESSION_EXPIRED", "SESSION_TOKEN_EMPTY":
			a.clearSessionCookie(w)
			a.writeJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		default:
			errutil.LogError(a.logger, "session validation failed", err)
			a.writeError(w, http.StatusInternalServerError, "Session check failed. Please try again.")
		}
		return
	}

	account, err := a.sessions.AccountByID(r.Context(), session.AccountID)
	if err != nil {
		errutil.LogError(a.logger, "account lookup failed", err)
		a.writeError(w, http.StatusInternalServerError, "Session check failed. Please try again.")
		return
	}

	a.writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Email:         account.Email,
		Anonymous:     account.IsAnonymous(a.opts.AnonymousDomain),
		ExpiresAt:     session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// decodeJSON decodes the request body into v. On failure it writes a 400
// response and returns false.
func (a *API) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return false
	}
	return true
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write error means the client went away
	json.NewEncoder(w).Encode(v)
}

func (a *API) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, messageResponse{Message: msg})
}

func (a *API) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.opts.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   a.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) countRegistration(status string) {
	if a.metrics != nil {
		a.metrics.RegistrationsTotal.WithLabelValues(status).Inc()
	}
}

func (a *API) countLogin(status string) {
	if a.metrics != nil {
		a.metrics.LoginsTotal.WithLabelValues(status).Inc()
	}
}

// clientIP extracts the caller's address, preferring the first hop recorded
// by a reverse proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
