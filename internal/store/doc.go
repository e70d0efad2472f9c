// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package store bootstraps the PostgreSQL backend: it opens a connection pool
// with retries and manages the embedded schema migrations for the users and
// session_values tables.
package store
