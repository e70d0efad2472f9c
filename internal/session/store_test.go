// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/portal/internal/session"
	"github.com/holomush/portal/pkg/errutil"
)

// failingArea returns the configured errors from each operation.
type failingArea struct {
	getErr    error
	setErr    error
	removeErr error
	removed   []string
}

func (f *failingArea) Get(_ context.Context, _ string) (string, bool, error) {
	return "", false, f.getErr
}

func (f *failingArea) Set(_ context.Context, _, _ string) error {
	return f.setErr
}

func (f *failingArea) Remove(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	return f.removeErr
}

func newTestStore(t *testing.T) (*session.Store, *session.MemoryArea, *session.MemoryArea) {
	t.Helper()
	durable := session.NewMemoryArea()
	ephemeral := session.NewMemoryArea()
	store, err := session.NewStore(durable, ephemeral)
	require.NoError(t, err)
	return store, durable, ephemeral
}

func value(t *testing.T, area session.Area, key string) string {
	t.Helper()
	v, _, err := area.Get(context.Background(), key)
	require.NoError(t, err)
	return v
}

func TestNewStore_NilAreas(t *testing.T) {
	_, err := session.NewStore(nil, session.NewMemoryArea())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "durable area is required")

	_, err = session.NewStore(session.NewMemoryArea(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ephemeral area is required")
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, session.Durable, session.KindFor(true))
	assert.Equal(t, session.Ephemeral, session.KindFor(false))
	assert.Equal(t, "durable", session.Durable.String())
	assert.Equal(t, "ephemeral", session.Ephemeral.String())
	assert.Equal(t, "unknown", session.Kind(9).String())
}

func TestStore_SetSession(t *testing.T) {
	ctx := context.Background()

	t.Run("ephemeral session lands only in the ephemeral area", func(t *testing.T) {
		store, durable, ephemeral := newTestStore(t)

		require.NoError(t, store.SetSession(ctx, session.Ephemeral, "mock-jwt-token-1-abc", "test@example.com"))

		assert.Equal(t, "mock-jwt-token-1-abc", value(t, ephemeral, session.KeyToken))
		assert.Equal(t, "test@example.com", value(t, ephemeral, session.KeyEmail))
		assert.Empty(t, value(t, durable, session.KeyToken))
		assert.Empty(t, value(t, durable, session.KeyEmail))
	})

	t.Run("durable session lands only in the durable area", func(t *testing.T) {
		store, durable, ephemeral := newTestStore(t)

		require.NoError(t, store.SetSession(ctx, session.Durable, "mock-jwt-token-2-abc", "test@example.com"))

		assert.Equal(t, "mock-jwt-token-2-abc", value(t, durable, session.KeyToken))
		assert.Equal(t, "test@example.com", value(t, durable, session.KeyEmail))
		assert.Empty(t, value(t, ephemeral, session.KeyToken))
	})

	t.Run("new session removes the pair from the other area", func(t *testing.T) {
		store, durable, ephemeral := newTestStore(t)

		require.NoError(t, store.SetSession(ctx, session.Durable, "old", "old@example.com"))
		require.NoError(t, store.SetSession(ctx, session.Ephemeral, "new", "new@example.com"))

		assert.Empty(t, value(t, durable, session.KeyToken))
		assert.Empty(t, value(t, durable, session.KeyEmail))
		assert.Equal(t, "new", value(t, ephemeral, session.KeyToken))
	})

	t.Run("invalid kind", func(t *testing.T) {
		store, _, _ := newTestStore(t)
		err := store.SetSession(ctx, session.Kind(42), "t", "e@example.com")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_INVALID_KIND")
	})

	t.Run("write failure is reported", func(t *testing.T) {
		broken := &failingArea{setErr: errors.New("disk full")}
		store, err := session.NewStore(broken, session.NewMemoryArea())
		require.NoError(t, err)

		err = store.SetSession(ctx, session.Durable, "t", "e@example.com")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_WRITE_FAILED")
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestStore_ReadPriority(t *testing.T) {
	ctx := context.Background()
	store, durable, ephemeral := newTestStore(t)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, ephemeral.Set(ctx, session.KeyToken, "ephemeral-token"))
	require.NoError(t, ephemeral.Set(ctx, session.KeyEmail, "eph@example.com"))

	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ephemeral-token", token)

	require.NoError(t, durable.Set(ctx, session.KeyToken, "durable-token"))
	require.NoError(t, durable.Set(ctx, session.KeyEmail, "dur@example.com"))

	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "durable-token", token)

	email, err := store.Email(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dur@example.com", email)
}

func TestStore_EmptyDurableValueFallsThrough(t *testing.T) {
	ctx := context.Background()
	store, durable, ephemeral := newTestStore(t)

	require.NoError(t, durable.Set(ctx, session.KeyToken, ""))
	require.NoError(t, ephemeral.Set(ctx, session.KeyToken, "ephemeral-token"))

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ephemeral-token", token)
}

func TestStore_IsAuthenticated(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	ok, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetSession(ctx, session.Ephemeral, "tok", "test@example.com"))

	ok, err = store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()

	for _, kind := range []session.Kind{session.Durable, session.Ephemeral} {
		t.Run("clears a "+kind.String()+" session", func(t *testing.T) {
			store, _, _ := newTestStore(t)
			require.NoError(t, store.SetSession(ctx, kind, "tok", "test@example.com"))

			require.NoError(t, store.Clear(ctx))

			ok, err := store.IsAuthenticated(ctx)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	t.Run("idempotent when nothing is stored", func(t *testing.T) {
		store, _, _ := newTestStore(t)
		require.NoError(t, store.Clear(ctx))
		require.NoError(t, store.Clear(ctx))
	})

	t.Run("attempts every removal and joins failures", func(t *testing.T) {
		durable := &failingArea{removeErr: errors.New("durable gone")}
		ephemeral := &failingArea{removeErr: errors.New("ephemeral gone")}
		store, err := session.NewStore(durable, ephemeral)
		require.NoError(t, err)

		err = store.Clear(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "durable gone")
		assert.Contains(t, err.Error(), "ephemeral gone")
		assert.Equal(t, []string{session.KeyToken, session.KeyEmail}, durable.removed)
		assert.Equal(t, []string{session.KeyToken, session.KeyEmail}, ephemeral.removed)
	})
}

func TestStore_Active(t *testing.T) {
	ctx := context.Background()

	t.Run("no session", func(t *testing.T) {
		store, _, _ := newTestStore(t)
		active, err := store.Active(ctx)
		require.NoError(t, err)
		assert.Nil(t, active)
	})

	t.Run("reports the area holding the session", func(t *testing.T) {
		store, _, _ := newTestStore(t)
		require.NoError(t, store.SetSession(ctx, session.Durable, "tok", "test@example.com"))

		active, err := store.Active(ctx)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, session.Durable, active.Kind)
		assert.Equal(t, "tok", active.Token)
		assert.Equal(t, "test@example.com", active.Email)
	})

	t.Run("both areas populated is inconsistent", func(t *testing.T) {
		store, durable, ephemeral := newTestStore(t)
		require.NoError(t, durable.Set(ctx, session.KeyToken, "a"))
		require.NoError(t, durable.Set(ctx, session.KeyEmail, "a@example.com"))
		require.NoError(t, ephemeral.Set(ctx, session.KeyToken, "b"))
		require.NoError(t, ephemeral.Set(ctx, session.KeyEmail, "b@example.com"))

		active, err := store.Active(ctx)
		require.Error(t, err)
		assert.Nil(t, active)
		errutil.AssertErrorCode(t, err, session.ErrInconsistent)
	})

	t.Run("token without email is inconsistent", func(t *testing.T) {
		store, _, ephemeral := newTestStore(t)
		require.NoError(t, ephemeral.Set(ctx, session.KeyToken, "orphan"))

		_, err := store.Active(ctx)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, session.ErrInconsistent)
	})

	t.Run("read failure", func(t *testing.T) {
		store, err := session.NewStore(&failingArea{getErr: errors.New("io error")}, session.NewMemoryArea())
		require.NoError(t, err)

		_, err = store.Active(ctx)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_READ_FAILED")
	})
}

func TestStore_SetToken(t *testing.T) {
	ctx := context.Background()
	store, durable, ephemeral := newTestStore(t)
	require.NoError(t, store.SetSession(ctx, session.Ephemeral, "first", "test@example.com"))

	require.NoError(t, store.SetToken(ctx, session.Ephemeral, "second"))

	assert.Equal(t, "second", value(t, ephemeral, session.KeyToken))
	assert.Equal(t, "test@example.com", value(t, ephemeral, session.KeyEmail))
	assert.Empty(t, value(t, durable, session.KeyToken))
}
