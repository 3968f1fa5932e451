// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiogoGraciano/instituto-site/internal/i18n"
	"github.com/DiogoGraciano/instituto-site/internal/model"
)

func TestAuthHandler_LoginForm(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/login", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="password"`)
}

func TestAuthHandler_Login(t *testing.T) {
	app := newTestApp(t)

	app.login(t)

	assert.Equal(t, 1, app.eventCount(t, model.EventCategoryAuth))

	// The dashboard opens on the first section and shows the welcome flash.
	w := app.do(t, http.MethodGet, "/admin", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/activities", w.Header().Get("Location"))

	page := app.follow(t, w)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), text(i18n.T("pt", "auth.login_success")))
	assert.Contains(t, page.Body.String(), app.backend.User.Name)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/login", url.Values{
		"email":    {"admin@instituto.org"},
		"password": {"wrong"},
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `class="flash flash-error"`)
	assert.Contains(t, body, `value="admin@instituto.org"`, "email is kept")
	assert.Equal(t, 1, app.eventCount(t, model.EventCategoryAuth))

	// Still anonymous.
	w = app.do(t, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestAuthHandler_LoginPage_RedirectsWhenSignedIn(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	w := app.do(t, http.MethodGet, "/login", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("new account", func(t *testing.T) {
		app := newTestApp(t)

		w := app.do(t, http.MethodPost, "/register", url.Values{
			"name":     {"João"},
			"email":    {"joao@instituto.org"},
			"password": {"secret123"},
		})

		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/admin", w.Header().Get("Location"))
	})

	t.Run("email taken", func(t *testing.T) {
		app := newTestApp(t)

		w := app.do(t, http.MethodPost, "/register", url.Values{
			"name":     {"Outra Maria"},
			"email":    {app.backend.User.Email},
			"password": {"secret123"},
		})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), `value="Outra Maria"`)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	w := app.do(t, http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	page := app.follow(t, w)
	assert.Contains(t, page.Body.String(), text(i18n.T("pt", "auth.logged_out")))

	w = app.do(t, http.MethodGet, "/admin", nil)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, 2, app.eventCount(t, model.EventCategoryAuth))
}
