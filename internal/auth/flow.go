// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/model"
)

// State of a Flow.
type State int

// Flow states.
const (
	StateIdle State = iota
	StateLoading
	StateResolved
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateResolved:
		return "resolved"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*model.AuthResult, error)
	Register(ctx context.Context, email, name, password string) (*model.AuthResult, error)
}

// Flow runs one login or register attempt. Each request builds its own Flow;
// only the stored token is shared between them.
type Flow struct {
	auth   Authenticator
	store  TokenStore
	lang   string
	logger *slog.Logger

	State State
	Error string
	User  *model.User
}

// NewFlow returns an idle flow. Error messages are rendered in lang.
func NewFlow(auth Authenticator, store TokenStore, lang string, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{auth: auth, store: store, lang: lang, logger: logger}
}

// Loading reports whether an attempt is in flight.
func (f *Flow) Loading() bool {
	return f.State == StateLoading
}

// Login authenticates and persists the returned token. On failure the
// localized error is recorded and the error is returned.
func (f *Flow) Login(ctx context.Context, email, password string) error {
	return f.run(ctx, "login", func() (*model.AuthResult, error) {
		return f.auth.Login(ctx, email, password)
	})
}

// Register creates an account and persists the returned token.
func (f *Flow) Register(ctx context.Context, email, name, password string) error {
	return f.run(ctx, "register", func() (*model.AuthResult, error) {
		return f.auth.Register(ctx, email, name, password)
	})
}

func (f *Flow) run(ctx context.Context, op string, call func() (*model.AuthResult, error)) error {
	f.State = StateLoading
	f.Error = ""
	f.User = nil

	res, err := call()
	if err == nil {
		err = f.store.SetToken(ctx, res.AccessToken, res.User)
	}
	if err != nil {
		f.State = StateError
		f.Error = apiclient.Describe(err, f.lang)
		f.logger.Warn(op+" failed", "error", err)
		return err
	}

	f.State = StateResolved
	f.User = &res.User
	return nil
}

// Logout clears the stored token and returns the flow to idle.
func (f *Flow) Logout(ctx context.Context) error {
	f.State = StateIdle
	f.Error = ""
	f.User = nil
	return f.store.ClearToken(ctx)
}
