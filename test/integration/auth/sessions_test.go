// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

//go:build integration

package auth_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/beaconauth/beacon/internal/auth"
	"github.com/beaconauth/beacon/pkg/errutil"
)

var _ = Describe("Sessions", func() {
	BeforeEach(func() {
		_, err := env.Registration.Register(env.ctx, "user@example.com", "secret1")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanupAccounts(env.ctx, env.pool)
	})

	It("logs in and validates the issued token", func() {
		session, token, err := env.Auth.Login(env.ctx, "user@example.com", "secret1", "ginkgo", "127.0.0.1")
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(HaveLen(64))

		validated, err := env.Auth.ValidateSession(env.ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(validated.ID).To(Equal(session.ID))
		Expect(validated.AccountID).To(Equal(session.AccountID))
	})

	It("rejects a wrong password and an unknown email the same way", func() {
		_, _, err := env.Auth.Login(env.ctx, "user@example.com", "wrong-password", "", "")
		Expect(errutil.Code(err)).To(Equal("AUTH_INVALID_CREDENTIALS"))

		_, _, err = env.Auth.Login(env.ctx, "nobody@example.com", "secret1", "", "")
		Expect(errutil.Code(err)).To(Equal("AUTH_INVALID_CREDENTIALS"))
	})

	It("invalidates the session on logout", func() {
		session, token, err := env.Auth.Login(env.ctx, "user@example.com", "secret1", "", "")
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Auth.Logout(env.ctx, session.ID)).To(Succeed())

		_, err = env.Auth.ValidateSession(env.ctx, token)
		Expect(errutil.Code(err)).To(Equal("SESSION_INVALID"))
	})

	It("sweeps expired sessions", func() {
		account, err := env.Accounts.GetByEmail(env.ctx, "user@example.com")
		Expect(err).NotTo(HaveOccurred())

		_, tokenHash, err := auth.GenerateSessionToken()
		Expect(err).NotTo(HaveOccurred())
		expired, err := auth.NewSession(account.ID, tokenHash, "", "", time.Now().Add(-time.Minute))
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Sessions.Create(env.ctx, expired)).To(Succeed())

		n, err := env.Auth.SweepExpired(env.ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeNumerically(">=", 1))

		_, err = env.Sessions.GetByID(env.ctx, expired.ID)
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("lists sessions for an account newest first", func() {
		s1, _, err := env.Auth.Login(env.ctx, "user@example.com", "secret1", "first", "")
		Expect(err).NotTo(HaveOccurred())
		s2, _, err := env.Auth.Login(env.ctx, "user@example.com", "secret1", "second", "")
		Expect(err).NotTo(HaveOccurred())

		sessions, err := env.Sessions.GetByAccount(env.ctx, s1.AccountID)
		Expect(err).NotTo(HaveOccurred())
		Expect(sessions).To(HaveLen(2))
		Expect(sessions[0].ID).To(Equal(s2.ID))
		Expect(sessions[1].ID).To(Equal(s1.ID))
	})

	It("deletes sessions when the account is removed", func() {
		session, _, err := env.Auth.Login(env.ctx, "user@example.com", "secret1", "", "")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.pool.Exec(env.ctx, "DELETE FROM accounts WHERE id = $1", session.AccountID.String())
		Expect(err).NotTo(HaveOccurred())

		_, err = env.Sessions.GetByID(env.ctx, session.ID)
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})
