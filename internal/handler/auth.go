// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/DiogoGraciano/instituto-site/internal/auth"
	"github.com/DiogoGraciano/instituto-site/internal/i18n"
	"github.com/DiogoGraciano/instituto-site/internal/middleware"
	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/render"
	"github.com/DiogoGraciano/instituto-site/internal/service"
)

// AuthHandler handles login, registration and logout against the backend.
type AuthHandler struct {
	authenticator  auth.Authenticator
	tokens         *auth.SessionStore
	sessionManager *scs.SessionManager
	renderer       *render.Renderer
	eventService   *service.EventService
	logger         *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authenticator auth.Authenticator, tokens *auth.SessionStore, sm *scs.SessionManager, renderer *render.Renderer, es *service.EventService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		authenticator:  authenticator,
		tokens:         tokens,
		sessionManager: sm,
		renderer:       renderer,
		eventService:   es,
		logger:         logger,
	}
}

// AuthPage holds data for the login and register pages.
type AuthPage struct {
	Email string
	Name  string
	Error string
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)
	renderPage(w, r, h.renderer, http.StatusOK, "auth/login", render.TemplateData{
		Title: i18n.T(lang, "auth.login"),
		Data:  AuthPage{},
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}
	lang := middleware.GetLanguage(r)
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	clientIP := middleware.ClientIP(r)

	flow := auth.NewFlow(h.authenticator, h.tokens, lang, h.logger)
	if err := flow.Login(r.Context(), email, password); err != nil {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Failed login attempt",
			map[string]any{"email": email, "ip": clientIP})
		renderPage(w, r, h.renderer, http.StatusUnauthorized, "auth/login", render.TemplateData{
			Title: i18n.T(lang, "auth.login"),
			Data:  AuthPage{Email: email, Error: flow.Error},
		})
		return
	}

	// Renew the session token to prevent fixation.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		h.logger.Error("failed to renew session token", "error", err)
	}

	h.logger.Info("user logged in", "category", model.EventCategoryAuth, "email", email)
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged in",
		map[string]any{"email": email, "ip": clientIP})
	flashSuccess(w, r, h.renderer, redirectAdmin, i18n.T(lang, "auth.login_success"))
}

// RegisterForm renders the register page.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)
	renderPage(w, r, h.renderer, http.StatusOK, "auth/register", render.TemplateData{
		Title: i18n.T(lang, "auth.register"),
		Data:  AuthPage{},
	})
}

// Register handles POST /register. A successful registration signs the
// user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, "/register") {
		return
	}
	lang := middleware.GetLanguage(r)
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	flow := auth.NewFlow(h.authenticator, h.tokens, lang, h.logger)
	if err := flow.Register(r.Context(), email, name, password); err != nil {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Failed registration",
			map[string]any{"email": email, "ip": middleware.ClientIP(r)})
		renderPage(w, r, h.renderer, http.StatusUnprocessableEntity, "auth/register", render.TemplateData{
			Title: i18n.T(lang, "auth.register"),
			Data:  AuthPage{Email: email, Name: name, Error: flow.Error},
		})
		return
	}

	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		h.logger.Error("failed to renew session token", "error", err)
	}

	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User registered",
		map[string]any{"email": email, "ip": middleware.ClientIP(r)})
	flashSuccess(w, r, h.renderer, redirectAdmin, i18n.T(lang, "auth.register_success"))
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)
	user := h.tokens.User(r.Context())

	flow := auth.NewFlow(h.authenticator, h.tokens, lang, h.logger)
	if err := flow.Logout(r.Context()); err != nil {
		h.logger.Error("failed to clear session token", "error", err)
	}
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		h.logger.Error("failed to renew session token", "error", err)
	}

	if user.Email != "" {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged out",
			map[string]any{"email": user.Email, "ip": middleware.ClientIP(r)})
	}
	flashSuccess(w, r, h.renderer, redirectLogin, i18n.T(lang, "auth.logged_out"))
}
