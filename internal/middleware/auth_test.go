// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/auth"
	"github.com/DiogoGraciano/instituto-site/internal/i18n"
	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/session"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

// sessionRequest returns a request whose context carries a loaded session.
func sessionRequest(t *testing.T, sm *scs.SessionManager, target string) *http.Request {
	t.Helper()
	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	return httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
}

func TestRequireToken(t *testing.T) {
	user := model.User{Name: "Maria Admin", Email: "admin@instituto.org"}

	tests := []struct {
		name        string
		token       func(t *testing.T) string
		wantStatus  int
		wantFlash   bool
		wantCalled  bool
		wantToken   bool
		wantCleared bool
	}{
		{
			name:       "no token redirects",
			token:      func(t *testing.T) string { return "" },
			wantStatus: http.StatusSeeOther,
		},
		{
			name:        "expired token redirects with flash",
			token:       func(t *testing.T) string { return signedToken(t, time.Now().Add(-time.Hour)) },
			wantStatus:  http.StatusSeeOther,
			wantFlash:   true,
			wantCleared: true,
		},
		{
			name:       "live token passes",
			token:      func(t *testing.T) string { return signedToken(t, time.Now().Add(time.Hour)) },
			wantStatus: http.StatusOK,
			wantCalled: true,
			wantToken:  true,
		},
		{
			name:       "opaque token passes",
			token:      func(t *testing.T) string { return "opaque-token" },
			wantStatus: http.StatusOK,
			wantCalled: true,
			wantToken:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := scs.New()
			tokens := auth.NewSessionStore(sm)
			req := sessionRequest(t, sm, "/admin")
			token := tt.token(t)
			if token != "" {
				if err := tokens.SetToken(req.Context(), token, user); err != nil {
					t.Fatalf("SetToken() error = %v", err)
				}
			}

			var gotUser *model.User
			var gotToken, backendToken string
			called := false
			handler := RequireToken(sm, tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				gotUser = GetUser(r)
				gotToken = GetToken(r)
				backendToken = apiclient.TokenFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusSeeOther && rec.Header().Get("Location") != LoginPath {
				t.Errorf("Location = %q, want %q", rec.Header().Get("Location"), LoginPath)
			}
			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantToken {
				if gotToken != token {
					t.Errorf("GetToken() = %q, want %q", gotToken, token)
				}
				if backendToken != token {
					t.Errorf("backend token = %q, want %q", backendToken, token)
				}
				if gotUser == nil || gotUser.Email != user.Email {
					t.Errorf("GetUser() = %+v, want %+v", gotUser, user)
				}
			}
			if tt.wantCleared && tokens.Token(req.Context()) != "" {
				t.Error("expired token should be cleared from the session")
			}

			msg, kind := session.PopFlash(req.Context(), sm)
			if tt.wantFlash {
				if kind != session.FlashError {
					t.Errorf("flash kind = %q, want %q", kind, session.FlashError)
				}
				if want := i18n.T(i18n.DefaultLanguage, "auth.session_expired"); msg != want {
					t.Errorf("flash = %q, want %q", msg, want)
				}
			} else if msg != "" {
				t.Errorf("unexpected flash %q", msg)
			}
		})
	}
}

func TestRedirectIfAuthenticated(t *testing.T) {
	sm := scs.New()
	tokens := auth.NewSessionStore(sm)
	handler := RedirectIfAuthenticated(tokens, "/admin")(okHandler())

	t.Run("anonymous sees the page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, sessionRequest(t, sm, "/login"))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("signed in is redirected", func(t *testing.T) {
		req := sessionRequest(t, sm, "/login")
		if err := tokens.SetToken(req.Context(), "opaque-token", model.User{}); err != nil {
			t.Fatalf("SetToken() error = %v", err)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin" {
			t.Errorf("status = %d location = %q", rec.Code, rec.Header().Get("Location"))
		}
	})
}

func TestGetUser(t *testing.T) {
	t.Run("no user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user := GetUser(req); user != nil {
			t.Errorf("GetUser() = %v, want nil", user)
		}
		if token := GetToken(req); token != "" {
			t.Errorf("GetToken() = %q, want empty", token)
		}
	})

	t.Run("user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := context.WithValue(req.Context(), ContextKeyUser, model.User{Name: "Test User", Email: "test@example.com"})
		user := GetUser(req.WithContext(ctx))
		if user == nil {
			t.Fatal("GetUser() = nil, want user")
		}
		if user.Email != "test@example.com" {
			t.Errorf("GetUser().Email = %q, want %q", user.Email, "test@example.com")
		}
	})
}
