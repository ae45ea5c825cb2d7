// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultAnonymousDomain is the reserved domain suffix for guest identities.
// An account whose email ends in "@" + this domain is an ordinary account to
// the workflows; only session introspection labels it as anonymous.
const DefaultAnonymousDomain = "anonymous.user"

// Account is a persisted identity record keyed by unique email. It stores
// only a password hash, never the plaintext password.
type Account struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount creates a validated Account. The email must already have passed
// credential validation; the hash must come from a PasswordHasher.
func NewAccount(email, passwordHash string) (*Account, error) {
	if email == "" {
		return nil, oops.Code("ACCOUNT_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Account{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsAnonymous reports whether the account's email belongs to the reserved
// guest domain.
func (a *Account) IsAnonymous(domain string) bool {
	if domain == "" {
		domain = DefaultAnonymousDomain
	}
	return strings.HasSuffix(a.Email, "@"+domain)
}

// AccountRepository manages account persistence. Accounts own the email
// uniqueness invariant: Create must fail with ErrEmailTaken when the email
// is already registered.
type AccountRepository interface {
	// Create stores a new account. Returns ErrEmailTaken (wrapped) if the
	// email is already registered.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by email (exact match, case-sensitive
	// as stored). Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// UpdatePasswordHash replaces the stored hash, used when a legacy hash
	// is transparently upgraded at login.
	UpdatePasswordHash(ctx context.Context, id ulid.ULID, passwordHash string) error
}
