// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package session stores the authenticated session in one of two key-value areas.
//
// # Areas
//
// The durable area survives process restarts (a YAML file or a PostgreSQL
// table). The ephemeral area lives only as long as the process. A session is
// two keys, KeyToken and KeyEmail, written together into exactly one area
// chosen at login time by the "remember me" flag.
//
// # Store
//
// Store is the adapter used by the auth service, the login form and the app
// shell. Reads prefer the durable area. Active reports the single area that
// holds the session and rejects the state where both areas do.
package session
