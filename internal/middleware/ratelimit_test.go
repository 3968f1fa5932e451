// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DiogoGraciano/instituto-site/internal/i18n"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter("login", 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("fourth request should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other clients have their own budget")
	}
}

func TestNewRateLimiterDefault(t *testing.T) {
	rl := NewRateLimiter("contact", 0)
	for i := 0; i < 5; i++ {
		if !rl.Allow("ip") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("ip") {
		t.Error("default budget should be 5")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter("contact", 1)
	handler := rl.Middleware(okHandler())

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/contato", nil)
		req.RemoteAddr = "192.0.2.10:4321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := post(); rec.Code != http.StatusOK {
		t.Fatalf("first POST status = %d", rec.Code)
	}
	rec := post()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	want := i18n.T(i18n.DefaultLanguage, "rate.limited") + "\n"
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}

	get := httptest.NewRequest(http.MethodGet, "/contato", nil)
	get.RemoteAddr = "192.0.2.10:4321"
	getRec := httptest.NewRecorder()
	handler.ServeHTTP(getRec, get)
	if getRec.Code != http.StatusOK {
		t.Errorf("GET should not be limited, status = %d", getRec.Code)
	}
}

func TestLimiterCacheResetsWhenFull(t *testing.T) {
	lc := newLimiterCache[int](1, 1)
	for i := 0; i < maxTrackedClients; i++ {
		lc.get(i)
	}
	if lc.size() != maxTrackedClients {
		t.Fatalf("size = %d", lc.size())
	}
	lc.get(-1)
	if lc.size() != 1 {
		t.Errorf("size after overflow = %d, want 1", lc.size())
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "remote without port", remote: "192.0.2.1", want: "192.0.2.1"},
		{name: "x-real-ip", headers: map[string]string{"X-Real-IP": "203.0.113.5"}, remote: "10.0.0.1:1", want: "203.0.113.5"},
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, remote: "10.0.0.1:1", want: "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
