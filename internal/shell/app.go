// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package shell is the top-level terminal application. It restores the
// stored session on startup and switches between the login form and the
// dashboard.
package shell

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/term"

	"github.com/holomush/portal/internal/auth"
	"github.com/holomush/portal/internal/dashboard"
	"github.com/holomush/portal/internal/login"
	"github.com/holomush/portal/internal/session"
	"github.com/holomush/portal/pkg/errutil"
)

// Restore results, also used as metric labels.
const (
	RestoreNone         = "none"
	RestoreRestored     = "restored"
	RestoreInvalid      = "invalid"
	RestoreInconsistent = "inconsistent"
)

// Service is the auth surface used by the shell.
type Service interface {
	login.Authenticator
	dashboard.Logouter
	ValidateToken(ctx context.Context, token string) (bool, error)
	RefreshToken(ctx context.Context) (string, bool, error)
}

// Store is the session storage used by the shell.
type Store interface {
	login.SessionWriter
	Active(ctx context.Context) (*session.Session, error)
	Clear(ctx context.Context) error
}

// Recorder counts shell events.
type Recorder interface {
	login.Recorder
	RecordSessionRestore(result string)
	RecordTokenRefresh()
}

// App holds the only piece of shell state: the signed-in identity, if any.
type App struct {
	svc        Service
	store      Store
	logger     *slog.Logger
	recorder   Recorder
	revalidate bool

	readPassword func(fd int) ([]byte, error)
	isTerminal   func(fd int) bool

	mu       sync.Mutex
	identity *auth.Identity
}

// Option configures an App during construction.
type Option func(*App)

// WithLogger sets the application logger. The default discards logs.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRecorder counts logins, restores and refreshes through r.
func WithRecorder(r Recorder) Option {
	return func(a *App) {
		a.recorder = r
	}
}

// WithRevalidateOnRestore controls whether Restore checks the stored token
// with the service. Enabled by default.
func WithRevalidateOnRestore(enabled bool) Option {
	return func(a *App) {
		a.revalidate = enabled
	}
}

// WithTerminal replaces the hidden password reader and terminal check.
func WithTerminal(readPassword func(fd int) ([]byte, error), isTerminal func(fd int) bool) Option {
	return func(a *App) {
		if readPassword != nil {
			a.readPassword = readPassword
		}
		if isTerminal != nil {
			a.isTerminal = isTerminal
		}
	}
}

// New creates an App.
func New(svc Service, store Store, opts ...Option) (*App, error) {
	if svc == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if store == nil {
		return nil, oops.Errorf("session store is required")
	}
	a := &App{
		svc:          svc,
		store:        store,
		logger:       slog.New(slog.DiscardHandler),
		revalidate:   true,
		readPassword: term.ReadPassword,
		isTerminal:   term.IsTerminal,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Identity returns the signed-in identity.
func (a *App) Identity() (auth.Identity, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.identity == nil {
		return auth.Identity{}, false
	}
	return *a.identity, true
}

// LoginSucceeded switches the shell to the dashboard for identity.
func (a *App) LoginSucceeded(identity auth.Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.identity = &identity
}

// LoggedOut switches the shell back to the login form.
func (a *App) LoggedOut() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.identity = nil
}

// Restore signs the shell in from the stored session. A split or incomplete
// session, or one whose token fails validation, is cleared and the shell
// stays signed out. The returned string is one of the Restore* results.
func (a *App) Restore(ctx context.Context) (string, error) {
	active, err := a.store.Active(ctx)
	if err != nil {
		if !errutil.HasCode(err, session.ErrInconsistent) {
			return "", oops.With("operation", "read stored session").Wrap(err)
		}
		a.logger.WarnContext(ctx, "stored session is inconsistent, clearing", "event", "session_inconsistent")
		return a.discard(ctx, RestoreInconsistent)
	}
	if active == nil {
		return a.restored(ctx, RestoreNone, nil), nil
	}

	if a.revalidate {
		ok, err := a.svc.ValidateToken(ctx, active.Token)
		if err != nil {
			return "", oops.With("operation", "validate stored token").Wrap(err)
		}
		if !ok {
			return a.discard(ctx, RestoreInvalid)
		}
	}

	identity := auth.Identity{Email: active.Email, Name: auth.NameFromEmail(active.Email)}
	a.LoginSucceeded(identity)
	return a.restored(ctx, RestoreRestored, active), nil
}

func (a *App) discard(ctx context.Context, result string) (string, error) {
	if err := a.store.Clear(ctx); err != nil {
		return "", oops.With("operation", "clear stored session").Wrap(err)
	}
	a.LoggedOut()
	return a.restored(ctx, result, nil), nil
}

func (a *App) restored(ctx context.Context, result string, active *session.Session) string {
	attrs := []any{"event", "session_restore", "result", result}
	if active != nil {
		attrs = append(attrs, "area", active.Kind.String())
	}
	a.logger.InfoContext(ctx, "session restore", attrs...)
	if a.recorder != nil {
		a.recorder.RecordSessionRestore(result)
	}
	return result
}

// Login submits creds through a fresh login form wired to this shell.
func (a *App) Login(ctx context.Context, creds login.Credentials) (login.Outcome, error) {
	opts := []login.FormOption{login.WithLogger(a.logger)}
	if a.recorder != nil {
		opts = append(opts, login.WithRecorder(a.recorder))
	}
	form, err := login.NewForm(a.svc, a.store, a.LoginSucceeded, opts...)
	if err != nil {
		return login.Outcome{}, err
	}
	return form.Submit(ctx, creds), nil
}

// Dashboard returns the dashboard for the signed-in identity.
func (a *App) Dashboard() (*dashboard.Dashboard, error) {
	identity, ok := a.Identity()
	if !ok {
		return nil, oops.Code("SHELL_NOT_SIGNED_IN").Errorf("no user is signed in")
	}
	return dashboard.New(identity, a.svc, a.LoggedOut)
}

// Refresh replaces the stored token. A missing session signs the shell out.
func (a *App) Refresh(ctx context.Context) (bool, error) {
	_, ok, err := a.svc.RefreshToken(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		a.LoggedOut()
		return false, nil
	}
	if a.recorder != nil {
		a.recorder.RecordTokenRefresh()
	}
	return true, nil
}
