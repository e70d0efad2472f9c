// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"sync"
)

// Fixed keys used in both areas.
const (
	KeyToken = "authToken"
	KeyEmail = "userEmail"
)

// Kind selects one of the two storage areas.
type Kind int

// Storage areas.
const (
	Durable Kind = iota
	Ephemeral
)

// String returns the area name used in logs and errors.
func (k Kind) String() string {
	switch k {
	case Durable:
		return "durable"
	case Ephemeral:
		return "ephemeral"
	default:
		return "unknown"
	}
}

// KindFor returns Durable when rememberMe is set and Ephemeral otherwise.
func KindFor(rememberMe bool) Kind {
	if rememberMe {
		return Durable
	}
	return Ephemeral
}

// Area is a string key-value persistence area.
type Area interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// MemoryArea is an Area held in process memory.
type MemoryArea struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryArea creates an empty MemoryArea.
func NewMemoryArea() *MemoryArea {
	return &MemoryArea{values: make(map[string]string)}
}

// Get returns the value for key.
func (a *MemoryArea) Get(_ context.Context, key string) (string, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (a *MemoryArea) Set(_ context.Context, key, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[key] = value
	return nil
}

// Remove deletes key.
func (a *MemoryArea) Remove(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.values, key)
	return nil
}
