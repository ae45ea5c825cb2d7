// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// RegistrationService creates new accounts. Each step of Register is a hard
// gate: validation, duplicate check, hashing, and persistence run strictly in
// that order and the first failure returns immediately.
type RegistrationService struct {
	accounts AccountRepository
	hasher   PasswordHasher
	enabled  bool
	logger   *slog.Logger
}

// NewRegistrationService creates a new RegistrationService with a no-op
// logger. Returns an error if any required dependency is nil.
func NewRegistrationService(accounts AccountRepository, hasher PasswordHasher) (*RegistrationService, error) {
	return NewRegistrationServiceWithLogger(accounts, hasher, slog.New(slog.DiscardHandler))
}

// NewRegistrationServiceWithLogger creates a new RegistrationService with the
// provided logger. Returns an error if any required dependency is nil.
func NewRegistrationServiceWithLogger(accounts AccountRepository, hasher PasswordHasher, logger *slog.Logger) (*RegistrationService, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &RegistrationService{
		accounts: accounts,
		hasher:   hasher,
		enabled:  true,
		logger:   logger,
	}, nil
}

// SetRegistrationEnabled toggles whether new registrations are accepted.
func (s *RegistrationService) SetRegistrationEnabled(enabled bool) {
	s.enabled = enabled
}

// IsRegistrationEnabled returns true if registration is open.
func (s *RegistrationService) IsRegistrationEnabled() bool {
	return s.enabled
}

// Register validates the credentials, checks for an existing account, hashes
// the password, and persists the new account. The duplicate pre-check is
// advisory; the database uniqueness constraint is the last line of defense
// against a concurrent registration, and its violation surfaces here as
// AUTH_EMAIL_TAKEN as well.
func (s *RegistrationService) Register(ctx context.Context, email, password string) (*Account, error) {
	if !s.enabled {
		return nil, oops.Code("AUTH_REGISTRATION_DISABLED").
			Errorf("registration is currently disabled")
	}

	creds := Credentials{Email: email, Password: password}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	_, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		return nil, oops.Code("AUTH_EMAIL_TAKEN").
			With("email", email).
			Errorf("an account with this email already exists")
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check existing account").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_HASH_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(email, hash)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "construct account").
			Wrap(err)
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			// Lost the race against a concurrent registration for the same
			// email; the store's uniqueness constraint rejected the insert.
			return nil, oops.Code("AUTH_EMAIL_TAKEN").
				With("email", email).
				Wrap(err)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "persist account").
			Wrap(err)
	}

	s.logger.Info("account registered",
		"event", "account_registered",
		"account_id", account.ID.String(),
	)

	return account, nil
}
