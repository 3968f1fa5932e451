// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the cookie session that carries the backend
// access token and one-shot flash messages.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

const (
	flashKey     = "flash"
	flashTypeKey = "flash_type"
)

// Flash types understood by the templates.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// New creates a session manager backed by the SQLite sessions table.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.IdleTimeout = 2 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev

	// The __Host- prefix requires Secure, Path=/ and no Domain.
	if !isDev {
		sm.Cookie.Name = "__Host-session"
		sm.Cookie.Path = "/"
	}
	return sm
}

// Flash stores a message shown on the next rendered page.
func Flash(ctx context.Context, sm *scs.SessionManager, kind, message string) {
	sm.Put(ctx, flashKey, message)
	sm.Put(ctx, flashTypeKey, kind)
}

// PopFlash returns and clears the pending flash message.
func PopFlash(ctx context.Context, sm *scs.SessionManager) (message, kind string) {
	message = sm.PopString(ctx, flashKey)
	kind = sm.PopString(ctx, flashTypeKey)
	if message != "" && kind == "" {
		kind = FlashInfo
	}
	return message, kind
}
