// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Error codes reported by verifiers for rejected credentials.
const (
	CodeAccountNotFound = "AUTH_ACCOUNT_NOT_FOUND"
	CodeInvalidPassword = "AUTH_INVALID_PASSWORD"
	CodeAccountLocked   = "AUTH_ACCOUNT_LOCKED"
)

// User-facing messages for rejected credentials.
const (
	MessageInvalidPassword = "Invalid password. Please try again."
	MessageAccountNotFound = "No account found with this email address."
	MessageAccountLocked   = "Account is temporarily locked. Please try again later."
	MessageUnified         = "Invalid email or password."
)
