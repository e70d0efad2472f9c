// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/portal/internal/auth"
	authpg "github.com/holomush/portal/internal/auth/postgres"
	"github.com/holomush/portal/pkg/errutil"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout   time.Duration
	usersFile string
	migrate   bool
}

// userCreator stores a new user.
type userCreator interface {
	Create(ctx context.Context, user *auth.User) error
}

func newSeedCmd(c *cli) *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users into PostgreSQL with hashed passwords",
		Long: `Read a users file (or the built-in demo users), hash every password with
argon2id and insert the accounts into the users table. Accounts whose email
already exists are skipped, so the command can be run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, c, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().StringVar(&cfg.usersFile, "from", "", "users file to seed (default: auth.users_file, then the built-in demo users)")
	cmd.Flags().BoolVar(&cfg.migrate, "migrate", true, "apply pending migrations first")

	return cmd
}

func runSeed(cmd *cobra.Command, c *cli, cfg *seedConfig) error {
	url, err := databaseURL(c.cfg)
	if err != nil {
		return err
	}

	path := cfg.usersFile
	if path == "" {
		path = c.cfg.Auth.UsersFile
	}
	users, err := c.users(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	if cfg.migrate {
		if err := withMigrator(cmd, c, func(_ *cobra.Command, m Migrator) error { return m.Up() }); err != nil {
			return err
		}
	}

	pool, err := c.deps.PoolFactory(ctx, url, c.logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	created, skipped, err := seedUsers(ctx, authpg.NewUserRepository(pool), c.deps, users)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users (%d already present)\n", created, skipped)
	return nil
}

// seedUsers hashes and stores each entry. Existing emails are counted as skipped.
func seedUsers(ctx context.Context, repo userCreator, deps Deps, entries []auth.UserEntry) (created, skipped int, err error) {
	for _, entry := range entries {
		id := entry.ID
		if id == "" {
			id = deps.NewID()
		}

		hash, err := deps.Hasher.Hash(entry.Password)
		if err != nil {
			return created, skipped, oops.Code("SEED_FAILED").With("email", entry.Email).Wrap(err)
		}

		user, err := auth.NewUser(id, entry.Email, entry.Name, hash)
		if err != nil {
			return created, skipped, oops.Code("SEED_FAILED").With("email", entry.Email).Wrap(err)
		}

		if err := repo.Create(ctx, user); err != nil {
			if errutil.HasCode(err, "AUTH_EMAIL_TAKEN") {
				skipped++
				continue
			}
			return created, skipped, oops.Code("SEED_FAILED").With("email", entry.Email).Wrap(err)
		}
		created++
	}
	return created, skipped, nil
}
