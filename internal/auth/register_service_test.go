// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/beaconauth/beacon/internal/auth"
	"github.com/beaconauth/beacon/internal/auth/mocks"
	"github.com/beaconauth/beacon/pkg/errutil"
)

func TestNewRegistrationService_NilDependencies(t *testing.T) {
	tests := []struct {
		name        string
		accounts    auth.AccountRepository
		hasher      auth.PasswordHasher
		expectError string
	}{
		{
			name:        "nil accounts repository",
			accounts:    nil,
			hasher:      mocks.NewMockPasswordHasher(t),
			expectError: "accounts repository is required",
		},
		{
			name:        "nil password hasher",
			accounts:    mocks.NewMockAccountRepository(t),
			hasher:      nil,
			expectError: "password hasher is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := auth.NewRegistrationService(tt.accounts, tt.hasher)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestRegistrationService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("successful registration persists account", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewRegistrationService(accountRepo, hasher)
		require.NoError(t, err)

		accountRepo.On("GetByEmail", ctx, "user@example.com").Return(nil, auth.ErrNotFound)
		hasher.On("Hash", "secret1").Return("$argon2id$v=19$m=65536,t=1,p=4$salt$hash", nil)
		accountRepo.On("Create", ctx, mock.MatchedBy(func(a *auth.Account) bool {
			return a.Email == "user@example.com" && a.PasswordHash != "secret1"
		})).Return(nil)

		account, err := svc.Register(ctx, "user@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", account.Email)
		assert.NotZero(t, account.ID)
	})

	t.Run("invalid email fails before any repository call", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewRegistrationService(accountRepo, hasher)
		require.NoError(t, err)

		account, err := svc.Register(ctx, "not-an-email", "secret1")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_EMAIL")
	})

	t.Run("short password fails before any repository call", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewRegistrationService(accountRepo, hasher)
		require.NoError(t, err)

		account, err := svc.Register(ctx, "user@example.com", "12345")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_PASSWORD")
	})

	t.Run("existing email is rejected", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewRegistrationService(accountRepo, hasher)
		require.NoError(t, err)

		existing := &auth.Account{Email: "user@example.com"}
		accountRepo.On("GetByEmail", ctx, "user@example.com").Return(existing, nil)

		account, err := svc.Register(ctx, "user@example.com", "secret1")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_EMAIL_TAKEN")
	})

	t.Run("lost uniqueness race surfaces as email taken", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewRegistrationService(accountRepo, hasher)
		require.NoError(t, err)

		accountRepo.On("GetByEmail", ctx, "user@example.com").Return(nil, auth.ErrNotFound)
		hasher.On("Hash", "secret1").Return("hashed", nil)
		accountRepo.On("Create", ctx, mock.AnythingOfType("*auth.Account")).Return(auth.ErrEmailTaken)

		account, err := svc.Register(ctx, "user@example.com", "secret1")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_EMAIL_TAKEN")
	})

	t.Run("lookup failure is not email taken", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewRegistrationService(accountRepo, hasher)
		require.NoError(t, err)

		accountRepo.On("GetByEmail", ctx, "user@example.com").Return(nil, errors.New("connection refused"))

		account, err := svc.Register(ctx, "user@example.com", "secret1")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_REGISTER_FAILED")
	})

	t.Run("hash failure aborts registration", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewRegistrationService(accountRepo, hasher)
		require.NoError(t, err)

		accountRepo.On("GetByEmail", ctx, "user@example.com").Return(nil, auth.ErrNotFound)
		hasher.On("Hash", "secret1").Return("", errors.New("out of memory"))

		account, err := svc.Register(ctx, "user@example.com", "secret1")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_HASH_FAILED")
	})

	t.Run("disabled registration rejects immediately", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewRegistrationService(accountRepo, hasher)
		require.NoError(t, err)

		svc.SetRegistrationEnabled(false)
		assert.False(t, svc.IsRegistrationEnabled())

		account, err := svc.Register(ctx, "user@example.com", "secret1")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_REGISTRATION_DISABLED")
	})
}
