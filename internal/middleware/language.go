// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/DiogoGraciano/instituto-site/internal/i18n"
)

// ContextKeyLanguage holds the language code of the request.
const ContextKeyLanguage ContextKey = "language"

// LanguageCookieName is the cookie name for language preference.
const LanguageCookieName = "instituto_lang"

// Language creates middleware that detects the display language.
// Priority order:
// 1. Query parameter ?lang=XX (explicit switch, updates the cookie)
// 2. Cookie preference
// 3. Accept-Language header
// 4. defaultLang
func Language(defaultLang string) func(http.Handler) http.Handler {
	if !i18n.IsSupported(defaultLang) {
		defaultLang = i18n.DefaultLanguage
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := defaultLang

			if q := strings.ToLower(r.URL.Query().Get("lang")); q != "" && i18n.IsSupported(q) {
				SetLanguageCookie(w, q)
				lang = q
			} else if c, err := r.Cookie(LanguageCookieName); err == nil && i18n.IsSupported(strings.ToLower(c.Value)) {
				lang = strings.ToLower(c.Value)
			} else if accept := r.Header.Get("Accept-Language"); accept != "" {
				lang = i18n.MatchLanguage(accept)
			}

			ctx := WithLanguage(r.Context(), lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithLanguage returns a copy of ctx carrying lang.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ContextKeyLanguage, lang)
}

// GetLanguage returns the request language, or the default language when
// the Language middleware did not run.
func GetLanguage(r *http.Request) string {
	if lang, ok := r.Context().Value(ContextKeyLanguage).(string); ok && lang != "" {
		return lang
	}
	return i18n.DefaultLanguage
}

// SetLanguageCookie sets the language preference cookie.
func SetLanguageCookie(w http.ResponseWriter, langCode string) {
	http.SetCookie(w, &http.Cookie{
		Name:     LanguageCookieName,
		Value:    langCode,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60, // 1 year
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
