// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// CredentialVerifier checks an email/password pair.
//
// Rejected credentials are reported as oops errors carrying
// CodeAccountNotFound, CodeInvalidPassword or CodeAccountLocked. Any other
// error is a fault.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*Identity, error)
}

// MemoryVerifier matches credentials against a fixed list of users using
// exact, case-sensitive comparison.
type MemoryVerifier struct {
	users []UserEntry
}

// NewMemoryVerifier creates a MemoryVerifier over a copy of users.
func NewMemoryVerifier(users []UserEntry) (*MemoryVerifier, error) {
	if len(users) == 0 {
		return nil, oops.Errorf("at least one user is required")
	}
	return &MemoryVerifier{users: append([]UserEntry(nil), users...)}, nil
}

// Verify implements CredentialVerifier.
func (v *MemoryVerifier) Verify(_ context.Context, email, password string) (*Identity, error) {
	for _, u := range v.users {
		if u.Email == email && u.Password == password {
			id := u.Identity()
			return &id, nil
		}
	}
	for _, u := range v.users {
		if u.Email == email {
			return nil, oops.Code(CodeInvalidPassword).Errorf("invalid password")
		}
	}
	return nil, oops.Code(CodeAccountNotFound).Errorf("no account for email")
}

// HashedVerifier verifies argon2id password hashes held by a UserRepository
// and locks accounts after LockoutThreshold consecutive failures.
type HashedVerifier struct {
	users  UserRepository
	hasher PasswordHasher
	logger *slog.Logger
}

// NewHashedVerifier creates a HashedVerifier that discards its logs.
func NewHashedVerifier(users UserRepository, hasher PasswordHasher) (*HashedVerifier, error) {
	return NewHashedVerifierWithLogger(users, hasher, slog.New(slog.DiscardHandler))
}

// NewHashedVerifierWithLogger creates a HashedVerifier with a logger.
func NewHashedVerifierWithLogger(users UserRepository, hasher PasswordHasher, logger *slog.Logger) (*HashedVerifier, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &HashedVerifier{users: users, hasher: hasher, logger: logger}, nil
}

// Verify implements CredentialVerifier. A dummy hash is verified for unknown
// emails so both paths do the same work.
func (v *HashedVerifier) Verify(ctx context.Context, email, password string) (*Identity, error) {
	user, lookupErr := v.users.GetByEmail(ctx, email)

	targetHash := dummyPasswordHash
	switch {
	case lookupErr == nil && user != nil:
		targetHash = user.PasswordHash
	case lookupErr == nil, errors.Is(lookupErr, ErrNotFound):
		user = nil
	default:
		return nil, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	valid, verifyErr := v.hasher.Verify(password, targetHash)
	if user == nil {
		return nil, oops.Code(CodeAccountNotFound).Errorf("no account for email")
	}
	if verifyErr != nil {
		return nil, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(verifyErr)
	}

	if user.IsLocked() {
		return nil, oops.Code(CodeAccountLocked).
			With("user_id", user.ID).
			With("remaining", LockoutRemaining(user.LockedUntil).String()).
			Errorf("account is temporarily locked")
	}

	if !valid {
		user.RecordFailure()
		v.update(ctx, user, "record failure")
		if user.IsLocked() {
			return nil, oops.Code(CodeAccountLocked).
				With("user_id", user.ID).
				Errorf("account locked after %d failed attempts", user.FailedAttempts)
		}
		return nil, oops.Code(CodeInvalidPassword).With("user_id", user.ID).Errorf("invalid password")
	}

	if user.FailedAttempts > 0 || user.LockedUntil != nil {
		user.RecordSuccess()
		v.update(ctx, user, "reset failures")
	}

	id := user.Identity()
	return &id, nil
}

// update persists lockout bookkeeping. Failures are logged, not returned.
func (v *HashedVerifier) update(ctx context.Context, user *User, operation string) {
	if err := v.users.Update(ctx, user); err != nil {
		v.logger.WarnContext(ctx, "failed to update user",
			"event", "user_update_failed",
			"operation", operation,
			"user_id", user.ID,
			"error", err)
	}
}
