// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package portal_test

import (
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/portal/internal/auth"
	"github.com/holomush/portal/internal/session"
	sessionpg "github.com/holomush/portal/internal/session/postgres"
)

var _ = Describe("Postgres durable area", func() {
	var demo auth.UserEntry

	BeforeEach(func(ctx SpecContext) {
		truncate(ctx)

		users, err := auth.DemoUsers()
		Expect(err).NotTo(HaveOccurred())
		demo = users[0]
	})

	newStore := func() *session.Store {
		durable, err := sessionpg.NewArea(env.pool, sessionpg.DefaultAreaName)
		Expect(err).NotTo(HaveOccurred())
		store, err := session.NewStore(durable, session.NewMemoryArea())
		Expect(err).NotTo(HaveOccurred())
		return store
	}

	newService := func(store *session.Store) *auth.Service {
		users, err := auth.DemoUsers()
		Expect(err).NotTo(HaveOccurred())
		verifier, err := auth.NewMemoryVerifier(users)
		Expect(err).NotTo(HaveOccurred())

		opts := auth.DefaultOptions()
		opts.Latency = auth.Latency{}
		svc, err := auth.NewService(verifier, store, opts)
		Expect(err).NotTo(HaveOccurred())
		return svc
	}

	It("keeps a remembered session across store instances", func(ctx SpecContext) {
		first := newStore()
		result, err := newService(first).Authenticate(ctx, demo.Email, demo.Password, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Success).To(BeTrue())
		Expect(first.SetSession(ctx, session.Durable, result.Token, demo.Email)).To(Succeed())

		second := newStore()
		active, err := second.Active(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(active).NotTo(BeNil())
		Expect(active.Kind).To(Equal(session.Durable))
		Expect(active.Token).To(Equal(result.Token))
		Expect(active.Email).To(Equal(demo.Email))

		svc := newService(second)
		ok, err := svc.ValidateToken(ctx, active.Token)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		refreshed, ok, err := svc.RefreshToken(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(second.Token(ctx)).To(Equal(refreshed))

		Expect(svc.Logout(ctx)).To(Succeed())
		authenticated, err := newStore().IsAuthenticated(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(authenticated).To(BeFalse())
	})

	It("isolates named areas", func(ctx SpecContext) {
		a, err := sessionpg.NewArea(env.pool, "a")
		Expect(err).NotTo(HaveOccurred())
		b, err := sessionpg.NewArea(env.pool, "b")
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Set(ctx, session.KeyToken, "token-a")).To(Succeed())
		_, ok, err := b.Get(ctx, session.KeyToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		Expect(a.Set(ctx, session.KeyToken, "token-a2")).To(Succeed())
		v, ok, err := a.Get(ctx, session.KeyToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("token-a2"))
	})
})
