// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/holomush/portal/internal/auth"
	"github.com/holomush/portal/internal/login"
	"github.com/holomush/portal/internal/session"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, email, password string, rememberMe bool) (*auth.Result, error) {
	args := m.Called(ctx, email, password, rememberMe)
	r, _ := args.Get(0).(*auth.Result)
	return r, args.Error(1)
}

type mockSessionWriter struct {
	mock.Mock
}

func (m *mockSessionWriter) SetSession(ctx context.Context, kind session.Kind, token, email string) error {
	return m.Called(ctx, kind, token, email).Error(0)
}

type countingRecorder struct {
	outcomes []string
}

func (r *countingRecorder) RecordLoginAttempt(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

// demoForm wires a form to the demo users and a real in-memory store.
func demoForm(t *testing.T, onSuccess func(auth.Identity)) (*login.Form, *session.Store, session.Area, session.Area) {
	t.Helper()
	users, err := auth.DemoUsers()
	require.NoError(t, err)
	verifier, err := auth.NewMemoryVerifier(users)
	require.NoError(t, err)

	durable := session.NewMemoryArea()
	ephemeral := session.NewMemoryArea()
	store, err := session.NewStore(durable, ephemeral)
	require.NoError(t, err)

	svc, err := auth.NewService(verifier, store, auth.Options{})
	require.NoError(t, err)

	form, err := login.NewForm(svc, store, onSuccess)
	require.NoError(t, err)
	return form, store, durable, ephemeral
}

func stored(t *testing.T, area session.Area, key string) string {
	t.Helper()
	v, _, err := area.Get(context.Background(), key)
	require.NoError(t, err)
	return v
}

func TestNewForm_NilDependencies(t *testing.T) {
	_, err := login.NewForm(nil, &mockSessionWriter{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authenticator is required")

	_, err = login.NewForm(&mockAuthenticator{}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session writer is required")
}

func TestForm_InitialState(t *testing.T) {
	form, err := login.NewForm(&mockAuthenticator{}, &mockSessionWriter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, login.Idle, form.State())
	assert.Empty(t, form.Message())
	assert.False(t, form.Submitting())
}

func TestForm_ValidationNeverCallsService(t *testing.T) {
	tests := []struct {
		name  string
		creds login.Credentials
		want  string
	}{
		{"empty email", login.Credentials{Password: "password123"}, login.MessageRequired},
		{"empty password", login.Credentials{Email: "test@example.com"}, login.MessageRequired},
		{"both empty", login.Credentials{}, login.MessageRequired},
		{"malformed email", login.Credentials{Email: "invalid-email", Password: "password123"}, login.MessageInvalidEmail},
		{"short password", login.Credentials{Email: "test@example.com", Password: "short"}, login.MessagePasswordLength},
		{"seven characters", login.Credentials{Email: "test@example.com", Password: "1234567"}, login.MessagePasswordLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authn := &mockAuthenticator{}
			writer := &mockSessionWriter{}
			recorder := &countingRecorder{}
			form, err := login.NewForm(authn, writer, nil, login.WithRecorder(recorder))
			require.NoError(t, err)

			out := form.Submit(context.Background(), tt.creds)

			assert.Equal(t, login.Failed, out.State)
			assert.Equal(t, tt.want, out.Message)
			assert.Equal(t, tt.want, form.Message())
			assert.False(t, form.Submitting())
			assert.Nil(t, out.Identity)
			assert.Equal(t, []string{login.OutcomeInvalid}, recorder.outcomes)
			authn.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			writer.AssertNotCalled(t, "SetSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestForm_SuccessfulLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("without remember me the session is ephemeral", func(t *testing.T) {
		var got []auth.Identity
		form, _, durable, ephemeral := demoForm(t, func(id auth.Identity) { got = append(got, id) })

		out := form.Submit(ctx, login.Credentials{Email: "test@example.com", Password: "password123"})

		require.Equal(t, login.Success, out.State)
		assert.Empty(t, out.Message)
		assert.True(t, auth.HasTokenPrefix(stored(t, ephemeral, session.KeyToken)))
		assert.Equal(t, "test@example.com", stored(t, ephemeral, session.KeyEmail))
		assert.Empty(t, stored(t, durable, session.KeyToken))

		require.Len(t, got, 1)
		assert.Equal(t, "test@example.com", got[0].Email)
		assert.Equal(t, "Test User", got[0].Name)
	})

	t.Run("with remember me the session is durable", func(t *testing.T) {
		form, _, durable, ephemeral := demoForm(t, nil)

		out := form.Submit(ctx, login.Credentials{Email: "admin@example.com", Password: "Admin@123", RememberMe: true})

		require.Equal(t, login.Success, out.State)
		assert.True(t, auth.HasTokenPrefix(stored(t, durable, session.KeyToken)))
		assert.Equal(t, "admin@example.com", stored(t, durable, session.KeyEmail))
		assert.Empty(t, stored(t, ephemeral, session.KeyToken))
	})

	t.Run("empty name falls back to the email local part", func(t *testing.T) {
		authn := &mockAuthenticator{}
		authn.On("Authenticate", ctx, "jane@example.com", "password123", false).
			Return(&auth.Result{Success: true, Token: "mock-jwt-token-1-a", User: auth.Identity{Email: "jane@example.com"}}, nil)
		writer := &mockSessionWriter{}
		writer.On("SetSession", ctx, session.Ephemeral, "mock-jwt-token-1-a", "jane@example.com").Return(nil)

		var got auth.Identity
		form, err := login.NewForm(authn, writer, func(id auth.Identity) { got = id })
		require.NoError(t, err)

		out := form.Submit(ctx, login.Credentials{Email: "jane@example.com", Password: "password123"})
		require.Equal(t, login.Success, out.State)
		assert.Equal(t, "jane", got.Name)
		writer.AssertExpectations(t)
	})
}

func TestForm_RejectedCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		called := false
		form, store, _, _ := demoForm(t, func(auth.Identity) { called = true })

		out := form.Submit(ctx, login.Credentials{Email: "test@example.com", Password: "wrongpassword"})

		assert.Equal(t, login.Failed, out.State)
		assert.Equal(t, "Invalid password. Please try again.", out.Message)
		assert.False(t, called)
		ok, err := store.IsAuthenticated(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown account", func(t *testing.T) {
		form, _, _, _ := demoForm(t, nil)

		out := form.Submit(ctx, login.Credentials{Email: "nonexistent@example.com", Password: "password123"})

		assert.Equal(t, login.Failed, out.State)
		assert.Equal(t, "No account found with this email address.", out.Message)
	})

	t.Run("missing message falls back", func(t *testing.T) {
		authn := &mockAuthenticator{}
		authn.On("Authenticate", ctx, "test@example.com", "password123", false).
			Return(&auth.Result{Success: false}, nil)

		form, err := login.NewForm(authn, &mockSessionWriter{}, nil)
		require.NoError(t, err)

		out := form.Submit(ctx, login.Credentials{Email: "test@example.com", Password: "password123"})
		assert.Equal(t, login.Failed, out.State)
		assert.Equal(t, login.MessageInvalidFallback, out.Message)
	})
}

func TestForm_Faults(t *testing.T) {
	ctx := context.Background()

	t.Run("service error shows the generic message", func(t *testing.T) {
		authn := &mockAuthenticator{}
		authn.On("Authenticate", ctx, "test@example.com", "password123", true).
			Return(nil, errors.New("database unavailable"))
		recorder := &countingRecorder{}

		var buf bytes.Buffer
		form, err := login.NewForm(authn, &mockSessionWriter{}, nil,
			login.WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))),
			login.WithRecorder(recorder))
		require.NoError(t, err)

		out := form.Submit(ctx, login.Credentials{Email: "test@example.com", Password: "password123", RememberMe: true})

		assert.Equal(t, login.Failed, out.State)
		assert.Equal(t, login.MessageFault, out.Message)
		assert.NotContains(t, out.Message, "database")
		assert.False(t, form.Submitting())
		assert.Contains(t, buf.String(), "database unavailable")
		assert.NotContains(t, buf.String(), "password123")
		assert.Equal(t, []string{login.OutcomeError}, recorder.outcomes)
	})

	t.Run("session write error shows the generic message", func(t *testing.T) {
		authn := &mockAuthenticator{}
		authn.On("Authenticate", ctx, "test@example.com", "password123", false).
			Return(&auth.Result{Success: true, Token: "mock-jwt-token-1-a", User: auth.Identity{Email: "test@example.com", Name: "Test User"}}, nil)
		writer := &mockSessionWriter{}
		writer.On("SetSession", ctx, session.Ephemeral, "mock-jwt-token-1-a", "test@example.com").
			Return(errors.New("quota exceeded"))

		called := false
		form, err := login.NewForm(authn, writer, func(auth.Identity) { called = true })
		require.NoError(t, err)

		out := form.Submit(ctx, login.Credentials{Email: "test@example.com", Password: "password123"})
		assert.Equal(t, login.Failed, out.State)
		assert.Equal(t, login.MessageFault, out.Message)
		assert.False(t, called)
	})
}

func TestForm_ResubmitClearsPreviousError(t *testing.T) {
	ctx := context.Background()
	form, _, _, _ := demoForm(t, nil)

	out := form.Submit(ctx, login.Credentials{Email: "test@example.com", Password: "wrongpassword"})
	require.Equal(t, login.Failed, out.State)

	out = form.Submit(ctx, login.Credentials{Email: "test@example.com", Password: "password123"})
	assert.Equal(t, login.Success, out.State)
	assert.Empty(t, form.Message())
}

func TestForm_OverlappingSubmitsBothReachAuthenticator(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})

	authn := &mockAuthenticator{}
	authn.On("Authenticate", ctx, "test@example.com", "password123", false).
		Run(func(mock.Arguments) { <-release }).
		Return(&auth.Result{Success: false, Message: "No account found with this email address."}, nil).
		Once()
	authn.On("Authenticate", ctx, "test@example.com", "wrongpassword", false).
		Return(&auth.Result{Success: false, Message: "Invalid password. Please try again."}, nil).
		Once()

	form, err := login.NewForm(authn, &mockSessionWriter{}, nil)
	require.NoError(t, err)

	done := make(chan login.Outcome)
	go func() {
		done <- form.Submit(ctx, login.Credentials{Email: "test@example.com", Password: "password123"})
	}()

	require.Eventually(t, func() bool { return form.State() == login.Submitting }, time.Second, time.Millisecond)
	assert.True(t, form.Submitting())

	second := form.Submit(ctx, login.Credentials{Email: "test@example.com", Password: "wrongpassword"})
	assert.Equal(t, login.Failed, second.State)
	assert.Equal(t, "Invalid password. Please try again.", second.Message)

	close(release)
	first := <-done
	assert.Equal(t, login.Failed, first.State)
	assert.Equal(t, "No account found with this email address.", form.Message())
	assert.False(t, form.Submitting())
	authn.AssertNumberOfCalls(t, "Authenticate", 2)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", login.Idle.String())
	assert.Equal(t, "submitting", login.Submitting.String())
	assert.Equal(t, "success", login.Success.String())
	assert.Equal(t, "failed", login.Failed.String())
	assert.Equal(t, "unknown", login.State(99).String())
}
