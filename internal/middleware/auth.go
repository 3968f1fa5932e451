// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides the HTTP middleware shared by the public site
// and the admin dashboard.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/auth"
	"github.com/DiogoGraciano/instituto-site/internal/i18n"
	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys.
const (
	ContextKeyUser  ContextKey = "user"
	ContextKeyToken ContextKey = "token"
)

// LoginPath is where RequireToken sends anonymous visitors.
const LoginPath = "/login"

// RequireToken lets the request through only when the session holds a
// bearer token that has not expired. An expired token is dropped and the
// visitor is sent back to the login page with a flash message. Backend
// calls made with the request context carry the token.
func RequireToken(sm *scs.SessionManager, tokens *auth.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := tokens.Token(ctx)
			if token == "" {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			if auth.Expired(token, time.Now()) {
				if err := tokens.ClearToken(ctx); err != nil {
					slog.Error("failed to clear expired token", "error", err, "category", model.EventCategoryAuth)
				}
				session.Flash(ctx, sm, session.FlashError, i18n.T(GetLanguage(r), "auth.session_expired"))
				slog.Info("session expired", "path", r.URL.Path, "category", model.EventCategoryAuth)
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			ctx = context.WithValue(ctx, ContextKeyToken, token)
			ctx = context.WithValue(ctx, ContextKeyUser, tokens.User(ctx))
			ctx = apiclient.WithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectIfAuthenticated sends visitors that already hold a live token to
// target. Used on the login and register pages.
func RedirectIfAuthenticated(tokens *auth.SessionStore, target string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := tokens.Token(r.Context()); token != "" && !auth.Expired(token, time.Now()) {
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUser returns the user stored by RequireToken, or nil.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetToken returns the bearer token stored by RequireToken, or "".
func GetToken(r *http.Request) string {
	token, _ := r.Context().Value(ContextKeyToken).(string)
	return token
}
