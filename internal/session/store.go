// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// ErrInconsistent is the error code reported when the stored session is split
// across areas or incomplete.
const ErrInconsistent = "SESSION_INCONSISTENT"

// Session is the token/email pair held by one area.
type Session struct {
	Kind  Kind
	Token string
	Email string
}

// Store adapts the durable and ephemeral areas into session operations.
type Store struct {
	durable   Area
	ephemeral Area
}

// NewStore creates a Store over the two areas.
func NewStore(durable, ephemeral Area) (*Store, error) {
	if durable == nil {
		return nil, oops.Errorf("durable area is required")
	}
	if ephemeral == nil {
		return nil, oops.Errorf("ephemeral area is required")
	}
	return &Store{durable: durable, ephemeral: ephemeral}, nil
}

func (s *Store) area(kind Kind) (Area, Area, error) {
	switch kind {
	case Durable:
		return s.durable, s.ephemeral, nil
	case Ephemeral:
		return s.ephemeral, s.durable, nil
	default:
		return nil, nil, oops.Code("SESSION_INVALID_KIND").
			With("kind", int(kind)).
			Errorf("unknown session area")
	}
}

// SetSession writes token and email into the area selected by kind and
// removes any session left in the other area.
func (s *Store) SetSession(ctx context.Context, kind Kind, token, email string) error {
	target, other, err := s.area(kind)
	if err != nil {
		return err
	}

	if err := target.Set(ctx, KeyToken, token); err != nil {
		return oops.Code("SESSION_WRITE_FAILED").With("area", kind.String()).With("key", KeyToken).Wrap(err)
	}
	if err := target.Set(ctx, KeyEmail, email); err != nil {
		return oops.Code("SESSION_WRITE_FAILED").With("area", kind.String()).With("key", KeyEmail).Wrap(err)
	}

	if err := removeBoth(ctx, other); err != nil {
		return oops.Code("SESSION_WRITE_FAILED").
			With("area", otherKind(kind).String()).
			With("operation", "clear other area").
			Wrap(err)
	}
	return nil
}

// SetToken overwrites only the token in the area selected by kind.
func (s *Store) SetToken(ctx context.Context, kind Kind, token string) error {
	target, _, err := s.area(kind)
	if err != nil {
		return err
	}
	if err := target.Set(ctx, KeyToken, token); err != nil {
		return oops.Code("SESSION_WRITE_FAILED").With("area", kind.String()).With("key", KeyToken).Wrap(err)
	}
	return nil
}

// Token returns the first non-empty token, durable area first.
func (s *Store) Token(ctx context.Context) (string, error) {
	return s.firstNonEmpty(ctx, KeyToken)
}

// Email returns the first non-empty email, durable area first.
func (s *Store) Email(ctx context.Context) (string, error) {
	return s.firstNonEmpty(ctx, KeyEmail)
}

func (s *Store) firstNonEmpty(ctx context.Context, key string) (string, error) {
	areas := []struct {
		kind Kind
		area Area
	}{
		{Durable, s.durable},
		{Ephemeral, s.ephemeral},
	}
	for _, a := range areas {
		v, ok, err := a.area.Get(ctx, key)
		if err != nil {
			return "", oops.Code("SESSION_READ_FAILED").With("area", a.kind.String()).With("key", key).Wrap(err)
		}
		if ok && v != "" {
			return v, nil
		}
	}
	return "", nil
}

// IsAuthenticated reports whether any area holds a non-empty token.
func (s *Store) IsAuthenticated(ctx context.Context) (bool, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

// Clear removes both keys from both areas. Every removal is attempted.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	if err := removeBoth(ctx, s.durable); err != nil {
		errs = append(errs, oops.With("area", Durable.String()).Wrap(err))
	}
	if err := removeBoth(ctx, s.ephemeral); err != nil {
		errs = append(errs, oops.With("area", Ephemeral.String()).Wrap(err))
	}
	if len(errs) > 0 {
		return oops.Code("SESSION_CLEAR_FAILED").Wrap(errors.Join(errs...))
	}
	return nil
}

// Active returns the session held by exactly one area, or nil when no area
// holds a token. Both areas holding a token, or a token without an email, is
// reported as ErrInconsistent.
func (s *Store) Active(ctx context.Context) (*Session, error) {
	durable, err := read(ctx, s.durable, Durable)
	if err != nil {
		return nil, err
	}
	ephemeral, err := read(ctx, s.ephemeral, Ephemeral)
	if err != nil {
		return nil, err
	}

	switch {
	case durable.Token != "" && ephemeral.Token != "":
		return nil, oops.Code(ErrInconsistent).
			Errorf("session tokens present in both durable and ephemeral areas")
	case durable.Token != "":
		return complete(durable)
	case ephemeral.Token != "":
		return complete(ephemeral)
	default:
		return nil, nil
	}
}

func complete(s *Session) (*Session, error) {
	if s.Email == "" {
		return nil, oops.Code(ErrInconsistent).
			With("area", s.Kind.String()).
			Errorf("session token stored without an email")
	}
	return s, nil
}

func read(ctx context.Context, area Area, kind Kind) (*Session, error) {
	token, _, err := area.Get(ctx, KeyToken)
	if err != nil {
		return nil, oops.Code("SESSION_READ_FAILED").With("area", kind.String()).With("key", KeyToken).Wrap(err)
	}
	email, _, err := area.Get(ctx, KeyEmail)
	if err != nil {
		return nil, oops.Code("SESSION_READ_FAILED").With("area", kind.String()).With("key", KeyEmail).Wrap(err)
	}
	return &Session{Kind: kind, Token: token, Email: email}, nil
}

func removeBoth(ctx context.Context, area Area) error {
	var errs []error
	if err := area.Remove(ctx, KeyToken); err != nil {
		errs = append(errs, err)
	}
	if err := area.Remove(ctx, KeyEmail); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func otherKind(kind Kind) Kind {
	if kind == Durable {
		return Ephemeral
	}
	return Durable
}
