// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// dummyPasswordHash is used when an account doesn't exist to prevent timing
// attacks. We still run password verification to make response time
// consistent. This is NOT a real credential - it's a fake hash that will
// never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service provides authentication operations: login, logout, and session
// validation.
type Service struct {
	accounts AccountRepository
	sessions SessionRepository
	hasher   PasswordHasher
	expiry   time.Duration
	logger   *slog.Logger
}

// NewAuthService creates a new Service with a no-op logger.
// Returns an error if any required dependency is nil.
func NewAuthService(accounts AccountRepository, sessions SessionRepository, hasher PasswordHasher) (*Service, error) {
	return NewAuthServiceWithLogger(accounts, sessions, hasher, slog.New(slog.DiscardHandler))
}

// NewAuthServiceWithLogger creates a new Service with the provided logger.
// Returns an error if any required dependency is nil.
func NewAuthServiceWithLogger(accounts AccountRepository, sessions SessionRepository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{
		accounts: accounts,
		sessions: sessions,
		hasher:   hasher,
		expiry:   DefaultSessionExpiry,
		logger:   logger,
	}, nil
}

// SetSessionExpiry overrides the session lifetime used for new sessions.
func (s *Service) SetSessionExpiry(d time.Duration) {
	if d > 0 {
		s.expiry = d
	}
}

// Login authenticates an account and creates a session.
// Returns the session, plaintext token, and any error.
//
// Unknown email and wrong password both surface as AUTH_INVALID_CREDENTIALS
// so callers cannot distinguish the two, and a dummy hash is verified when
// the account is missing so response time does not leak existence either.
func (s *Service) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*Session, string, error) {
	creds := Credentials{Email: email, Password: password}
	if err := creds.Validate(); err != nil {
		return nil, "", err
	}

	account, lookupErr := s.accounts.GetByEmail(ctx, email)

	// Determine which hash to verify against (real, or dummy when absent).
	var targetHash string
	var accountExists bool

	if lookupErr != nil {
		if errors.Is(lookupErr, ErrNotFound) {
			targetHash = dummyPasswordHash
			accountExists = false
		} else {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get account by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = account.PasswordHash
		accountExists = true
	}

	// Always verify, even against the dummy hash.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		// A stored hash that cannot be parsed fails closed: the caller sees
		// invalid credentials, and the parse failure is logged server-side.
		if accountExists {
			s.logger.Warn("stored password hash is malformed",
				"event", "hash_verify_failed",
				"account_id", account.ID.String(),
				"error", verifyErr.Error(),
			)
		}
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
	}

	if !accountExists || !valid {
		return nil, "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
	}

	// Transparently upgrade legacy hashes (e.g., bcrypt to argon2id).
	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			// Best effort, login succeeds regardless.
			_ = s.accounts.UpdatePasswordHash(ctx, account.ID, newHash) //nolint:errcheck
		}
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	expiresAt := time.Now().Add(s.expiry)
	session, err := NewSession(account.ID, tokenHash, userAgent, ipAddress, expiresAt)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	s.logger.Info("login succeeded",
		"event", "login",
		"account_id", account.ID.String(),
		"session_id", session.ID.String(),
	)

	return session, token, nil
}

// Logout invalidates a session. Subsequent validation of that session's
// token fails.
func (s *Service) Logout(ctx context.Context, sessionID ulid.ULID) error {
	err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("SESSION_NOT_FOUND").
				With("session_id", sessionID.String()).
				Wrap(err)
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
	return nil
}

// ValidateSession validates a session token and returns the session if
// valid. Also updates the LastSeenAt timestamp. This is the "current
// session" query the presentation layer re-runs after every mutating call.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}

	tokenHash := HashSessionToken(token)

	session, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Errorf("invalid session token")
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpired() {
		return nil, oops.Code("SESSION_EXPIRED").Errorf("session has expired")
	}

	// Best effort, validation succeeds regardless.
	now := time.Now()
	_ = s.sessions.UpdateLastSeen(ctx, session.ID, now) //nolint:errcheck

	return session, nil
}

// AccountByID returns the account a validated session belongs to.
func (s *Service) AccountByID(ctx context.Context, id ulid.ULID) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("ACCOUNT_NOT_FOUND").
				With("account_id", id.String()).
				Wrap(err)
		}
		return nil, oops.Code("AUTH_LOOKUP_FAILED").
			With("operation", "get account by id").
			Wrap(err)
	}
	return account, nil
}

// SweepExpired deletes expired sessions. The serve loop runs this on a
// ticker.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_SWEEP_FAILED").Wrap(err)
	}
	if n > 0 {
		s.logger.Info("expired sessions removed",
			"event", "session_sweep",
			"deleted", n,
		)
	}
	return n, nil
}
