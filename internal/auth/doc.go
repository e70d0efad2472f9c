// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth authenticates users and manages the token lifecycle of the
// stored session.
//
// # Verifiers
//
// Credential checks go through a CredentialVerifier:
//   - MemoryVerifier - exact-match lookup over users loaded from a users file
//   - HashedVerifier - argon2id hashes behind a UserRepository, with lockout
//
// Verifiers report rejected credentials with the CodeAccountNotFound,
// CodeInvalidPassword and CodeAccountLocked oops codes. Any other error is a
// fault.
//
// # Service
//
// Service turns verifier outcomes into Results, issues opaque tokens that
// carry TokenPrefix, and validates, refreshes and clears the session held by
// the injected SessionStore.
package auth
