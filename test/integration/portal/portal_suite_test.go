// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package portal_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/portal/internal/store"
)

func TestPortal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Portal Integration Suite")
}

// testEnv holds the database shared by the suite.
type testEnv struct {
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
	url       string
}

var env *testEnv

var _ = BeforeSuite(func() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("portal_test"),
		postgres.WithUsername("portal"),
		postgres.WithPassword("portal"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	Expect(err).NotTo(HaveOccurred())

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())

	migrator, err := store.NewMigrator(url)
	Expect(err).NotTo(HaveOccurred())
	Expect(migrator.Up()).To(Succeed())
	Expect(migrator.Close()).To(Succeed())

	pool, err := store.Connect(ctx, url)
	Expect(err).NotTo(HaveOccurred())

	env = &testEnv{container: container, pool: pool, url: url}
})

var _ = AfterSuite(func() {
	if env == nil {
		return
	}
	env.pool.Close()
	Expect(env.container.Terminate(context.Background())).To(Succeed())
})

// truncate empties both portal tables between tests.
func truncate(ctx context.Context) {
	_, err := env.pool.Exec(ctx, `TRUNCATE users, session_values`)
	Expect(err).NotTo(HaveOccurred())
}
