// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres provides a PostgreSQL-backed session area.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/holomush/portal/internal/session"
)

// DefaultAreaName names the row namespace used when none is given.
const DefaultAreaName = "durable"

// poolIface is the subset of pgxpool.Pool used by Area.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Area stores session values in the session_values table, scoped by name.
type Area struct {
	pool poolIface
	name string
}

var _ session.Area = (*Area)(nil)

// NewArea creates an Area. An empty name selects DefaultAreaName.
func NewArea(pool poolIface, name string) (*Area, error) {
	if pool == nil {
		return nil, oops.Errorf("pool is required")
	}
	if name == "" {
		name = DefaultAreaName
	}
	return &Area{pool: pool, name: name}, nil
}

// Get returns the value stored under key.
func (a *Area) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := a.pool.QueryRow(ctx,
		`SELECT value FROM session_values WHERE area = $1 AND key = $2`,
		a.name, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, oops.Code("SESSION_DB_READ_FAILED").
			With("area", a.name).
			With("key", key).
			Wrap(err)
	}
	return value, true, nil
}

// Set upserts value under key.
func (a *Area) Set(ctx context.Context, key, value string) error {
	_, err := a.pool.Exec(ctx,
		`INSERT INTO session_values (area, key, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (area, key) DO UPDATE SET value = $3, updated_at = now()`,
		a.name, key, value)
	if err != nil {
		return oops.Code("SESSION_DB_WRITE_FAILED").
			With("area", a.name).
			With("key", key).
			Wrap(err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (a *Area) Remove(ctx context.Context, key string) error {
	_, err := a.pool.Exec(ctx,
		`DELETE FROM session_values WHERE area = $1 AND key = $2`,
		a.name, key)
	if err != nil {
		return oops.Code("SESSION_DB_WRITE_FAILED").
			With("area", a.name).
			With("key", key).
			Wrap(err)
	}
	return nil
}
