// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/portal/internal/validation"
)

// Identity is the public view of an authenticated user.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	ID    string `json:"id"`
}

// User is a stored account.
type User struct {
	ID             string
	Email          string
	Name           string
	PasswordHash   string
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUser creates a User with a validated email and a non-empty hash.
func NewUser(id, email, name, passwordHash string) (*User, error) {
	if id == "" {
		return nil, oops.Code("AUTH_INVALID_USER").Errorf("user id cannot be empty")
	}
	if !validation.Email(email) {
		return nil, oops.Code("AUTH_INVALID_USER").With("email", email).Errorf("invalid email address")
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_USER").Errorf("password hash cannot be empty")
	}
	now := time.Now()
	return &User{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Identity returns the public identity of u. An empty name falls back to
// NameFromEmail.
func (u *User) Identity() Identity {
	name := u.Name
	if name == "" {
		name = NameFromEmail(u.Email)
	}
	return Identity{Email: u.Email, Name: name, ID: u.ID}
}

// IsLocked returns true if the user is currently locked out.
func (u *User) IsLocked() bool {
	return IsLockedOut(u.LockedUntil)
}

// RecordFailure increments the failure counter and sets the lockout once the
// threshold is reached.
func (u *User) RecordFailure() {
	u.FailedAttempts++
	u.LockedUntil = ComputeLockoutTime(u.FailedAttempts)
	u.UpdatedAt = time.Now()
}

// RecordSuccess resets the failure counter and lockout.
func (u *User) RecordSuccess() {
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.UpdatedAt = time.Now()
}

// NameFromEmail returns the part of email before the first "@", or the whole
// string when there is none.
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// UserRepository manages user persistence.
type UserRepository interface {
	// GetByEmail retrieves a user by exact email.
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create stores a new user.
	Create(ctx context.Context, user *User) error

	// Update updates an existing user.
	Update(ctx context.Context, user *User) error
}
