// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"golang.org/x/term"

	"github.com/holomush/portal/internal/auth"
	"github.com/holomush/portal/internal/observability"
	"github.com/holomush/portal/internal/store"
)

// Deps contains injectable dependencies for the CLI commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// PoolFactory opens a database pool.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, url string, logger *slog.Logger) (Pool, error)

	// MigratorFactory opens a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (Migrator, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// Hasher hashes seeded passwords and verifies postgres logins.
	// Default: auth.NewArgon2idHasher
	Hasher auth.PasswordHasher

	// NewID generates user IDs for seeded accounts that have none.
	// Default: a ULID for the current time
	NewID func() string

	// ReadPassword and IsTerminal read a password without echo.
	// Default: golang.org/x/term
	ReadPassword func(fd int) ([]byte, error)
	IsTerminal   func(fd int) bool
}

// Pool is the subset of pgxpool.Pool used by the postgres backends.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Migrator is the subset of store.Migrator used by the migrate and seed commands.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Pending() ([]uint, error)
	Close() error
}

// ObservabilityServer is the subset of observability.Server used by run.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.PoolFactory == nil {
		d.PoolFactory = func(ctx context.Context, url string, logger *slog.Logger) (Pool, error) {
			pool, err := store.Connect(ctx, url, store.WithConnectLogger(logger))
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(url string) (Migrator, error) {
			m, err := store.NewMigrator(url)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready, logger)
		}
	}
	if d.Hasher == nil {
		d.Hasher = auth.NewArgon2idHasher()
	}
	if d.NewID == nil {
		d.NewID = func() string {
			return ulid.Make().String()
		}
	}
	if d.ReadPassword == nil {
		d.ReadPassword = term.ReadPassword
	}
	if d.IsTerminal == nil {
		d.IsTerminal = term.IsTerminal
	}
	return d
}

// shutdownTimeout bounds the observability server shutdown.
const shutdownTimeout = 5 * time.Second
