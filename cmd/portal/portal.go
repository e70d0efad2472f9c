// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"path/filepath"

	"github.com/samber/oops"

	"github.com/holomush/portal/internal/auth"
	authpg "github.com/holomush/portal/internal/auth/postgres"
	"github.com/holomush/portal/internal/config"
	"github.com/holomush/portal/internal/session"
	sessionpg "github.com/holomush/portal/internal/session/postgres"
	"github.com/holomush/portal/internal/shell"
	"github.com/holomush/portal/internal/xdg"
)

// portal is the wired application for one command invocation.
type portal struct {
	pool    Pool
	store   *session.Store
	service *auth.Service
	app     *shell.App
}

// Close releases the database pool, if any.
func (p *portal) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// open wires storage, the verifier, the auth service and the shell from the
// loaded configuration. recorder may be nil.
func (c *cli) open(ctx context.Context, recorder shell.Recorder) (_ *portal, err error) {
	p := &portal{}
	defer func() {
		if err != nil {
			p.Close()
		}
	}()

	if c.cfg.NeedsDatabase() {
		if p.pool, err = c.deps.PoolFactory(ctx, c.cfg.Database.URL, c.logger); err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
		}
	}

	durable, err := c.durableArea(p.pool)
	if err != nil {
		return nil, err
	}
	if p.store, err = session.NewStore(durable, session.NewMemoryArea()); err != nil {
		return nil, err
	}

	verifier, err := c.verifier(p.pool)
	if err != nil {
		return nil, err
	}
	if p.service, err = auth.NewServiceWithLogger(verifier, p.store, c.cfg.ServiceOptions(), c.logger); err != nil {
		return nil, err
	}

	opts := []shell.Option{
		shell.WithLogger(c.logger),
		shell.WithRevalidateOnRestore(c.cfg.Session.RevalidateOnRestore),
		shell.WithTerminal(c.deps.ReadPassword, c.deps.IsTerminal),
	}
	if recorder != nil {
		opts = append(opts, shell.WithRecorder(recorder))
	}
	if p.app, err = shell.New(p.service, p.store, opts...); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *cli) durableArea(pool Pool) (session.Area, error) {
	switch c.cfg.Session.Durable {
	case config.BackendPostgres:
		return sessionpg.NewArea(pool, sessionpg.DefaultAreaName)
	default:
		if err := xdg.EnsureDir(filepath.Dir(c.cfg.Session.File)); err != nil {
			return nil, err
		}
		return session.NewFileArea(c.cfg.Session.File)
	}
}

func (c *cli) verifier(pool Pool) (auth.CredentialVerifier, error) {
	if c.cfg.Auth.Verifier == config.BackendPostgres {
		return auth.NewHashedVerifierWithLogger(authpg.NewUserRepository(pool), c.deps.Hasher, c.logger)
	}

	users, err := c.users(c.cfg.Auth.UsersFile)
	if err != nil {
		return nil, err
	}
	return auth.NewMemoryVerifier(users)
}

// users loads path, or the built-in demo users when path is empty.
func (c *cli) users(path string) ([]auth.UserEntry, error) {
	if path == "" {
		return auth.DemoUsers()
	}
	return auth.LoadUsersFile(path)
}
