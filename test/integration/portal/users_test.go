// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package portal_test

import (
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/portal/internal/auth"
	authpg "github.com/holomush/portal/internal/auth/postgres"
	"github.com/holomush/portal/pkg/errutil"
)

var _ = Describe("UserRepository", func() {
	var (
		repo   *authpg.UserRepository
		hasher *auth.Argon2idHasher
	)

	BeforeEach(func(ctx SpecContext) {
		truncate(ctx)
		repo = authpg.NewUserRepository(env.pool)

		var err error
		hasher, err = auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32})
		Expect(err).NotTo(HaveOccurred())
	})

	newUser := func(email string) *auth.User {
		hash, err := hasher.Hash("correct-horse")
		Expect(err).NotTo(HaveOccurred())
		user, err := auth.NewUser(ulid.Make().String(), email, "", hash)
		Expect(err).NotTo(HaveOccurred())
		return user
	}

	It("round-trips a user by exact email", func(ctx SpecContext) {
		user := newUser("alice@example.com")
		Expect(repo.Create(ctx, user)).To(Succeed())

		got, err := repo.GetByEmail(ctx, "alice@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(user.ID))
		Expect(got.PasswordHash).To(Equal(user.PasswordHash))
		Expect(got.LockedUntil).To(BeNil())

		_, err = repo.GetByEmail(ctx, "ALICE@example.com")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("reports a duplicate email", func(ctx SpecContext) {
		Expect(repo.Create(ctx, newUser("alice@example.com"))).To(Succeed())

		err := repo.Create(ctx, newUser("alice@example.com"))
		Expect(err).To(HaveOccurred())
		Expect(errutil.HasCode(err, "AUTH_EMAIL_TAKEN")).To(BeTrue())
	})

	It("locks an account after repeated failures", func(ctx SpecContext) {
		Expect(repo.Create(ctx, newUser("alice@example.com"))).To(Succeed())

		verifier, err := auth.NewHashedVerifier(repo, hasher)
		Expect(err).NotTo(HaveOccurred())

		for range auth.LockoutThreshold {
			_, err := verifier.Verify(ctx, "alice@example.com", "wrong-password")
			Expect(errutil.HasCode(err, auth.CodeInvalidPassword)).To(BeTrue())
		}

		stored, err := repo.GetByEmail(ctx, "alice@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.FailedAttempts).To(Equal(auth.LockoutThreshold))
		Expect(stored.LockedUntil).NotTo(BeNil())
		Expect(*stored.LockedUntil).To(BeTemporally(">", time.Now()))

		_, err = verifier.Verify(ctx, "alice@example.com", "correct-horse")
		Expect(errutil.HasCode(err, auth.CodeAccountLocked)).To(BeTrue())
	})
})
