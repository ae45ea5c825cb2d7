// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

//go:build integration

package auth_test

import (
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/beaconauth/beacon/internal/auth"
	"github.com/beaconauth/beacon/pkg/errutil"
)

var _ = Describe("Registration", func() {
	AfterEach(func() {
		cleanupAccounts(env.ctx, env.pool)
	})

	It("creates an account with a hashed password", func() {
		account, err := env.Registration.Register(env.ctx, "user@example.com", "secret1")
		Expect(err).NotTo(HaveOccurred())
		Expect(account.ID).NotTo(BeZero())
		Expect(account.PasswordHash).NotTo(ContainSubstring("secret1"))
		Expect(account.PasswordHash).To(HavePrefix("$argon2id$"))

		stored, err := env.Accounts.GetByEmail(env.ctx, "user@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.ID).To(Equal(account.ID))
	})

	It("rejects a duplicate email via the uniqueness constraint", func() {
		_, err := env.Registration.Register(env.ctx, "user@example.com", "secret1")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.Registration.Register(env.ctx, "user@example.com", "different1")
		Expect(err).To(HaveOccurred())
		Expect(errutil.Code(err)).To(Equal("AUTH_EMAIL_TAKEN"))
	})

	It("rejects a concurrent duplicate insert at the store level", func() {
		// Bypass the service's advisory pre-check to prove the database
		// constraint alone stops the duplicate.
		first, err := auth.NewAccount("race@example.com", "hash-one")
		Expect(err).NotTo(HaveOccurred())
		second, err := auth.NewAccount("race@example.com", "hash-two")
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Accounts.Create(env.ctx, first)).To(Succeed())
		err = env.Accounts.Create(env.ctx, second)
		Expect(err).To(MatchError(auth.ErrEmailTaken))
	})

	It("stores emails case-sensitively", func() {
		_, err := env.Registration.Register(env.ctx, "User@Example.com", "secret1")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.Accounts.GetByEmail(env.ctx, "user@example.com")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})
