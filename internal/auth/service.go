// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/portal/internal/session"
	"github.com/holomush/portal/pkg/errutil"
)

// SessionStore is the session storage used by Service.
type SessionStore interface {
	Active(ctx context.Context) (*session.Session, error)
	SetToken(ctx context.Context, kind session.Kind, token string) error
	Email(ctx context.Context) (string, error)
	IsAuthenticated(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
}

// Result is the outcome of Authenticate. It is never persisted.
type Result struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    Identity `json:"user"`
	Message string   `json:"message,omitempty"`
	Code    string   `json:"code,omitempty"`
}

// Latency holds the simulated round-trip delay of each remote call.
type Latency struct {
	Authenticate time.Duration
	Validate     time.Duration
	Refresh      time.Duration
}

// DefaultLatency mirrors the delays of the demo backend.
var DefaultLatency = Latency{
	Authenticate: 800 * time.Millisecond,
	Validate:     300 * time.Millisecond,
	Refresh:      500 * time.Millisecond,
}

// Options configure a Service.
type Options struct {
	Latency Latency

	// UnifiedErrors answers unknown accounts and wrong passwords with the
	// same message.
	UnifiedErrors bool

	// Clock stamps issued tokens. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultOptions returns Options with DefaultLatency and distinct messages.
func DefaultOptions() Options {
	return Options{Latency: DefaultLatency}
}

// Service authenticates users and manages the stored session token.
type Service struct {
	verifier CredentialVerifier
	sessions SessionStore
	opts     Options
	logger   *slog.Logger
}

// NewService creates a Service that discards its logs.
func NewService(verifier CredentialVerifier, sessions SessionStore, opts Options) (*Service, error) {
	return NewServiceWithLogger(verifier, sessions, opts, slog.New(slog.DiscardHandler))
}

// NewServiceWithLogger creates a Service with a logger.
func NewServiceWithLogger(verifier CredentialVerifier, sessions SessionStore, opts Options, logger *slog.Logger) (*Service, error) {
	if verifier == nil {
		return nil, oops.Errorf("credential verifier is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session store is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{verifier: verifier, sessions: sessions, opts: opts, logger: logger}, nil
}

// Authenticate checks the credentials and issues a token on success.
// Rejected credentials produce a Result with Success false and a
// user-facing Message. Verifier faults are returned as errors.
// The caller persists the session; rememberMe is only logged here.
func (s *Service) Authenticate(ctx context.Context, email, password string, rememberMe bool) (*Result, error) {
	attempt := ulid.Make().String()

	if err := wait(ctx, s.opts.Latency.Authenticate); err != nil {
		return nil, err
	}

	identity, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		code := errutil.CodeOf(err)
		message, rejected := s.rejectionMessage(code)
		if !rejected {
			errutil.LogError(s.logger, "credential verification failed", err)
			return nil, oops.Code("AUTH_FAILED").
				With("attempt", attempt).
				With("operation", "verify credentials").
				Wrap(err)
		}
		s.logger.InfoContext(ctx, "authentication rejected",
			"event", "auth_rejected",
			"attempt", attempt,
			"code", code,
			"remember_me", rememberMe)
		return &Result{Success: false, Message: message, Code: code}, nil
	}

	token, err := GenerateToken(s.opts.Clock())
	if err != nil {
		return nil, oops.Code("AUTH_FAILED").
			With("attempt", attempt).
			With("operation", "generate token").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "authentication succeeded",
		"event", "auth_succeeded",
		"attempt", attempt,
		"user_id", identity.ID,
		"remember_me", rememberMe)
	return &Result{Success: true, Token: token, User: *identity}, nil
}

func (s *Service) rejectionMessage(code string) (string, bool) {
	switch code {
	case CodeInvalidPassword:
		if s.opts.UnifiedErrors {
			return MessageUnified, true
		}
		return MessageInvalidPassword, true
	case CodeAccountNotFound:
		if s.opts.UnifiedErrors {
			return MessageUnified, true
		}
		return MessageAccountNotFound, true
	case CodeAccountLocked:
		return MessageAccountLocked, true
	default:
		return "", false
	}
}

// ValidateToken reports whether token was issued by this package. Only the
// prefix is checked.
func (s *Service) ValidateToken(ctx context.Context, token string) (bool, error) {
	if err := wait(ctx, s.opts.Latency.Validate); err != nil {
		return false, err
	}
	return HasTokenPrefix(token), nil
}

// RefreshToken replaces the stored token with a new one in the area that
// holds the session. ok is false when no session is stored.
func (s *Service) RefreshToken(ctx context.Context) (string, bool, error) {
	active, err := s.sessions.Active(ctx)
	if err != nil {
		return "", false, oops.With("operation", "read active session").Wrap(err)
	}
	if active == nil {
		return "", false, nil
	}

	if err := wait(ctx, s.opts.Latency.Refresh); err != nil {
		return "", false, err
	}

	token, err := GenerateToken(s.opts.Clock())
	if err != nil {
		return "", false, oops.Code("AUTH_REFRESH_FAILED").With("operation", "generate token").Wrap(err)
	}
	if err := s.sessions.SetToken(ctx, active.Kind, token); err != nil {
		return "", false, oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "store token").
			With("area", active.Kind.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "token refreshed", "event", "token_refreshed", "area", active.Kind.String())
	return token, true, nil
}

// Logout removes the session from both areas.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").Wrap(err)
	}
	s.logger.InfoContext(ctx, "logged out", "event", "logout")
	return nil
}

// IsAuthenticated reports whether any area holds a token.
func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.sessions.IsAuthenticated(ctx)
}

// CurrentUserEmail returns the stored email, or "" when none is stored.
func (s *Service) CurrentUserEmail(ctx context.Context) (string, error) {
	return s.sessions.Email(ctx)
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return oops.Code("AUTH_CANCELED").Wrap(ctx.Err())
	case <-timer.C:
		return nil
	}
}
