// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Default connection retry policy.
const (
	DefaultConnectAttempts  = 5
	DefaultConnectBaseDelay = 200 * time.Millisecond
)

type connectConfig struct {
	attempts  uint64
	baseDelay time.Duration
	logger    *slog.Logger
}

// ConnectOption configures Connect.
type ConnectOption func(*connectConfig)

// WithConnectAttempts sets how many pings are tried before giving up.
func WithConnectAttempts(n uint64) ConnectOption {
	return func(c *connectConfig) { c.attempts = n }
}

// WithConnectBaseDelay sets the first backoff delay; later delays double.
func WithConnectBaseDelay(d time.Duration) ConnectOption {
	return func(c *connectConfig) { c.baseDelay = d }
}

// WithConnectLogger sets the logger for retry messages.
func WithConnectLogger(l *slog.Logger) ConnectOption {
	return func(c *connectConfig) { c.logger = l }
}

// pinger is the part of *pgxpool.Pool used to probe the server.
type pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a pool for databaseURL and pings it with exponential backoff.
func Connect(ctx context.Context, databaseURL string, opts ...ConnectOption) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, oops.Code("STORE_URL_EMPTY").Errorf("database URL is required")
	}

	cfg := connectConfig{
		attempts:  DefaultConnectAttempts,
		baseDelay: DefaultConnectBaseDelay,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("STORE_CONFIG_INVALID").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").Wrap(err)
	}

	if err := ping(ctx, pool, cfg); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func ping(ctx context.Context, p pinger, cfg connectConfig) error {
	if cfg.attempts == 0 {
		cfg.attempts = 1
	}
	backoff := retry.WithMaxRetries(cfg.attempts-1, retry.NewExponential(cfg.baseDelay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := p.Ping(ctx); err != nil {
			cfg.logger.WarnContext(ctx, "database not reachable",
				"event", "db_ping_failed",
				"attempt", attempt,
				"error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("STORE_CONNECT_FAILED").With("attempts", attempt).Wrap(err)
	}
	return nil
}
