// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth keeps the dashboard session: the bearer token issued by the
// backend, the login/register flow state and token expiry inspection.
package auth

import (
	"context"
	"fmt"

	"github.com/alexedwards/scs/v2"

	"github.com/DiogoGraciano/instituto-site/internal/model"
)

// Session keys.
const (
	SessionKeyToken     = "auth_token"
	SessionKeyUserName  = "auth_user_name"
	SessionKeyUserEmail = "auth_user_email"
)

// TokenStore persists the bearer token between requests.
type TokenStore interface {
	Token(ctx context.Context) string
	SetToken(ctx context.Context, token string, user model.User) error
	ClearToken(ctx context.Context) error
}

// SessionStore is a TokenStore backed by the scs session.
type SessionStore struct {
	sm *scs.SessionManager
}

// NewSessionStore returns a TokenStore that keeps the token in sm.
func NewSessionStore(sm *scs.SessionManager) *SessionStore {
	return &SessionStore{sm: sm}
}

// Token returns the stored token or "".
func (s *SessionStore) Token(ctx context.Context) string {
	return s.sm.GetString(ctx, SessionKeyToken)
}

// User returns the name and email recorded at login.
func (s *SessionStore) User(ctx context.Context) model.User {
	return model.User{
		Name:  s.sm.GetString(ctx, SessionKeyUserName),
		Email: s.sm.GetString(ctx, SessionKeyUserEmail),
	}
}

// SetToken renews the session id and stores token.
func (s *SessionStore) SetToken(ctx context.Context, token string, user model.User) error {
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session: %w", err)
	}
	s.sm.Put(ctx, SessionKeyToken, token)
	s.sm.Put(ctx, SessionKeyUserName, user.Name)
	s.sm.Put(ctx, SessionKeyUserEmail, user.Email)
	return nil
}

// SetUser records the profile of the signed-in user without touching the
// session id, so requests still carrying the current cookie stay signed in.
func (s *SessionStore) SetUser(ctx context.Context, user model.User) {
	if s.sm.GetString(ctx, SessionKeyUserName) != user.Name {
		s.sm.Put(ctx, SessionKeyUserName, user.Name)
	}
	if s.sm.GetString(ctx, SessionKeyUserEmail) != user.Email {
		s.sm.Put(ctx, SessionKeyUserEmail, user.Email)
	}
}

// ClearToken drops the token and renews the session id. Flash messages put
// after the call survive.
func (s *SessionStore) ClearToken(ctx context.Context) error {
	s.sm.Remove(ctx, SessionKeyToken)
	s.sm.Remove(ctx, SessionKeyUserName)
	s.sm.Remove(ctx, SessionKeyUserEmail)
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session: %w", err)
	}
	return nil
}
