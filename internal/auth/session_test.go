// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconauth/beacon/internal/auth"
)

func TestNewSession(t *testing.T) {
	accountID := ulid.Make()
	expiresAt := time.Now().Add(24 * time.Hour)

	t.Run("creates session", func(t *testing.T) {
		session, err := auth.NewSession(accountID, "tokenhash", "Mozilla/5.0", "192.168.1.1", expiresAt)
		require.NoError(t, err)

		assert.NotZero(t, session.ID)
		assert.Equal(t, accountID, session.AccountID)
		assert.Equal(t, "tokenhash", session.TokenHash)
		assert.Equal(t, "Mozilla/5.0", session.UserAgent)
		assert.Equal(t, "192.168.1.1", session.IPAddress)
		assert.Equal(t, expiresAt, session.ExpiresAt)
		assert.False(t, session.CreatedAt.IsZero())
	})

	t.Run("rejects empty token hash", func(t *testing.T) {
		session, err := auth.NewSession(accountID, "", "Mozilla/5.0", "192.168.1.1", expiresAt)
		require.Error(t, err)
		assert.Nil(t, session)
	})

	t.Run("rejects zero expiry", func(t *testing.T) {
		session, err := auth.NewSession(accountID, "tokenhash", "Mozilla/5.0", "192.168.1.1", time.Time{})
		require.Error(t, err)
		assert.Nil(t, session)
	})
}

func TestSession_IsExpired(t *testing.T) {
	accountID := ulid.Make()

	t.Run("future expiry is not expired", func(t *testing.T) {
		session, err := auth.NewSession(accountID, "hash", "", "", time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, session.IsExpired())
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		session, err := auth.NewSession(accountID, "hash", "", "", time.Now().Add(time.Millisecond))
		require.NoError(t, err)
		assert.True(t, session.IsExpiredAt(time.Now().Add(time.Second)))
	})
}

func TestGenerateSessionToken(t *testing.T) {
	t.Run("token is 32 bytes hex-encoded", func(t *testing.T) {
		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.Len(t, token, 64)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, token, hash)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		token1, _, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		token2, _, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.NotEqual(t, token1, token2)
	})

	t.Run("hash matches HashSessionToken", func(t *testing.T) {
		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.Equal(t, auth.HashSessionToken(token), hash)
	})
}

func TestVerifySessionToken(t *testing.T) {
	token, hash, err := auth.GenerateSessionToken()
	require.NoError(t, err)

	t.Run("matching token verifies", func(t *testing.T) {
		ok, err := auth.VerifySessionToken(token, hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("different token fails", func(t *testing.T) {
		other, _, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		ok, err := auth.VerifySessionToken(other, hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty token fails", func(t *testing.T) {
		ok, _ := auth.VerifySessionToken("", hash)
		assert.False(t, ok)
	})
}
