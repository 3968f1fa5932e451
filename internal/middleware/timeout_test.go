// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DiogoGraciano/instituto-site/internal/i18n"
)

// slowBackend waits like a handler blocked on the REST backend, giving up
// when the request context ends.
func slowBackend(w http.ResponseWriter, r *http.Request) {
	select {
	case <-time.After(5 * time.Second):
		_, _ = w.Write([]byte("too late"))
	case <-r.Context().Done():
	}
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		target   string
		handler  http.HandlerFunc
		wantCode int
		wantBody string
		wantLoc  string
	}{
		{
			name:   "blog page in time",
			method: http.MethodGet,
			target: "/blog",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<h1>Blog</h1>"))
			},
			wantCode: http.StatusOK,
			wantBody: "<h1>Blog</h1>",
		},
		{
			name:   "admin save redirects in time",
			method: http.MethodPost,
			target: "/admin/activities",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/admin/activities", http.StatusSeeOther)
			},
			wantCode: http.StatusSeeOther,
			wantLoc:  "/admin/activities",
		},
		{
			name:     "slow admin section",
			method:   http.MethodGet,
			target:   "/admin/activities",
			handler:  slowBackend,
			wantCode: http.StatusServiceUnavailable,
			wantBody: i18n.T("pt", "error.timeout"),
		},
		{
			name:     "slow contact submit",
			method:   http.MethodPost,
			target:   "/contato",
			handler:  slowBackend,
			wantCode: http.StatusServiceUnavailable,
			wantBody: i18n.T("pt", "error.timeout"),
		},
		{
			name:     "slow blog in english",
			method:   http.MethodGet,
			target:   "/blog?lang=en",
			handler:  slowBackend,
			wantCode: http.StatusServiceUnavailable,
			wantBody: i18n.T("en", "error.timeout"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Language("pt")(Timeout(50 * time.Millisecond)(tt.handler))
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.target, nil))

			if rr.Code != tt.wantCode {
				t.Errorf("Status = %d, want %d", rr.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rr.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", rr.Body.String(), tt.wantBody)
			}
			if got := rr.Header().Get("Location"); got != tt.wantLoc {
				t.Errorf("Location = %q, want %q", got, tt.wantLoc)
			}
		})
	}
}

func TestTimeout_StartedResponseIsKept(t *testing.T) {
	started := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<p>Atividades</p>"))
		close(started)
		<-r.Context().Done()
	})

	rr := httptest.NewRecorder()
	Timeout(50*time.Millisecond)(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/activities", nil))
	<-started

	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d once the page started", rr.Code, http.StatusOK)
	}
	if body := rr.Body.String(); body != "<p>Atividades</p>" {
		t.Errorf("Body = %q, want the partial page without the timeout message", body)
	}
}

func TestTimeoutWriter(t *testing.T) {
	t.Run("first status wins", func(t *testing.T) {
		rr := httptest.NewRecorder()
		tw := &timeoutWriter{ResponseWriter: rr}

		tw.WriteHeader(http.StatusSeeOther)
		tw.WriteHeader(http.StatusInternalServerError)

		if rr.Code != http.StatusSeeOther {
			t.Errorf("Status = %d, want %d", rr.Code, http.StatusSeeOther)
		}
	})

	t.Run("write implies 200", func(t *testing.T) {
		rr := httptest.NewRecorder()
		tw := &timeoutWriter{ResponseWriter: rr}

		if n, err := tw.Write([]byte("ok")); err != nil || n != 2 {
			t.Fatalf("Write() = %d, %v", n, err)
		}
		if !tw.wroteHeader || rr.Code != http.StatusOK {
			t.Errorf("wroteHeader = %v, Status = %d", tw.wroteHeader, rr.Code)
		}
	})

	t.Run("late writes dropped", func(t *testing.T) {
		rr := httptest.NewRecorder()
		tw := &timeoutWriter{ResponseWriter: rr, timedOut: true}

		if _, err := tw.Write([]byte("late")); err != http.ErrHandlerTimeout {
			t.Errorf("Write() error = %v, want %v", err, http.ErrHandlerTimeout)
		}
		tw.WriteHeader(http.StatusCreated)
		if rr.Body.Len() != 0 || tw.wroteHeader {
			t.Error("writes after timeout should be dropped")
		}
	})
}
