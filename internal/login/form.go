// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package login implements the login form: input validation, submission to
// the auth service and persistence of the resulting session.
package login

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/portal/internal/auth"
	"github.com/holomush/portal/internal/session"
	"github.com/holomush/portal/internal/validation"
	"github.com/holomush/portal/pkg/errutil"
)

// Navigation targets offered below the form.
const (
	ForgotPasswordPath = "/forgot-password"
	SignUpPath         = "/signup"
)

// Messages shown by the form.
const (
	MessageRequired        = "Please fill in all required fields"
	MessageInvalidEmail    = "Please enter a valid email address"
	MessagePasswordLength  = "Password must be at least 8 characters long"
	MessageInvalidFallback = "Invalid email or password"
	MessageFault           = "An error occurred. Please try again later."
)

// Outcome labels passed to the Recorder.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid_input"
	OutcomeError    = "error"
)

// State is the lifecycle state of the form.
type State int

// Form states.
const (
	Idle State = iota
	Submitting
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Credentials are the form inputs.
type Credentials struct {
	Email      string
	Password   string
	RememberMe bool
}

// Authenticator checks credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string, rememberMe bool) (*auth.Result, error)
}

// SessionWriter persists an issued session.
type SessionWriter interface {
	SetSession(ctx context.Context, kind session.Kind, token, email string) error
}

// Recorder counts login attempts by outcome.
type Recorder interface {
	RecordLoginAttempt(outcome string)
}

// Outcome is the terminal result of a submission.
type Outcome struct {
	State    State
	Message  string
	Identity *auth.Identity
}

// Form is the login form state machine. It is safe for concurrent use;
// a submission made while another is in flight is refused.
type Form struct {
	authn     Authenticator
	sessions  SessionWriter
	onSuccess func(auth.Identity)
	logger    *slog.Logger
	recorder  Recorder

	mu         sync.Mutex
	state      State
	message    string
	submitting bool
}

// FormOption configures a Form during construction.
type FormOption func(*Form)

// WithLogger sets the form logger. The default discards logs.
func WithLogger(logger *slog.Logger) FormOption {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithRecorder counts attempts through r.
func WithRecorder(r Recorder) FormOption {
	return func(f *Form) {
		f.recorder = r
	}
}

// NewForm creates a Form. onSuccess may be nil.
func NewForm(authn Authenticator, sessions SessionWriter, onSuccess func(auth.Identity), opts ...FormOption) (*Form, error) {
	if authn == nil {
		return nil, oops.Errorf("authenticator is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session writer is required")
	}
	f := &Form{
		authn:     authn,
		sessions:  sessions,
		onSuccess: onSuccess,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// State returns the current state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Message returns the error message shown by the form, or "".
func (f *Form) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Submitting reports whether a submission is in flight. Inputs are disabled
// while it is true.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Submit validates creds, authenticates them and stores the session.
// Validation failures never reach the Authenticator. Overlapping submissions
// are not deduplicated: each reaches the Authenticator and the last to finish
// sets the form state.
func (f *Form) Submit(ctx context.Context, creds Credentials) Outcome {
	f.mu.Lock()
	f.state = Idle
	f.message = ""
	f.submitting = true
	f.mu.Unlock()

	if msg := validate(creds); msg != "" {
		f.record(OutcomeInvalid)
		return f.finish(Failed, msg, nil)
	}

	f.mu.Lock()
	f.state = Submitting
	f.mu.Unlock()

	result, err := f.authn.Authenticate(ctx, creds.Email, creds.Password, creds.RememberMe)
	if err != nil {
		errutil.LogError(f.logger, "login failed", err)
		f.record(OutcomeError)
		return f.finish(Failed, MessageFault, nil)
	}
	if result == nil || !result.Success {
		msg := MessageInvalidFallback
		if result != nil && result.Message != "" {
			msg = result.Message
		}
		f.record(OutcomeRejected)
		return f.finish(Failed, msg, nil)
	}

	kind := session.KindFor(creds.RememberMe)
	if err := f.sessions.SetSession(ctx, kind, result.Token, creds.Email); err != nil {
		errutil.LogError(f.logger, "failed to store session", err)
		f.record(OutcomeError)
		return f.finish(Failed, MessageFault, nil)
	}

	identity := auth.Identity{Email: creds.Email, Name: result.User.Name, ID: result.User.ID}
	if identity.Name == "" {
		identity.Name = auth.NameFromEmail(creds.Email)
	}

	f.logger.InfoContext(ctx, "login succeeded",
		"event", "login_succeeded",
		"user_id", identity.ID,
		"area", kind.String())
	f.record(OutcomeSuccess)
	out := f.finish(Success, "", &identity)

	if f.onSuccess != nil {
		f.onSuccess(identity)
	}
	return out
}

func validate(creds Credentials) string {
	switch {
	case creds.Email == "" || creds.Password == "":
		return MessageRequired
	case !validation.Email(creds.Email):
		return MessageInvalidEmail
	case !validation.Password(creds.Password):
		return MessagePasswordLength
	default:
		return ""
	}
}

func (f *Form) finish(state State, message string, identity *auth.Identity) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.message = message
	f.submitting = false
	return Outcome{State: state, Message: message, Identity: identity}
}

func (f *Form) record(outcome string) {
	if f.recorder != nil {
		f.recorder.RecordLoginAttempt(outcome)
	}
}
