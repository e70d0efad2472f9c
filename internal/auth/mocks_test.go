// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/holomush/portal/internal/auth"
	"github.com/holomush/portal/internal/session"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, email, password string) (*auth.Identity, error) {
	args := m.Called(ctx, email, password)
	id, _ := args.Get(0).(*auth.Identity)
	return id, args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) Create(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) Update(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Active(ctx context.Context) (*session.Session, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*session.Session)
	return s, args.Error(1)
}

func (m *mockSessionStore) SetToken(ctx context.Context, kind session.Kind, token string) error {
	return m.Called(ctx, kind, token).Error(0)
}

func (m *mockSessionStore) Email(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockSessionStore) IsAuthenticated(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionStore) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
