// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	token := signedToken(t, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()})

	got, ok := TokenExpiry(token)
	if !ok {
		t.Fatal("TokenExpiry() ok = false")
	}
	if !got.Equal(exp) {
		t.Errorf("TokenExpiry() = %v, want %v", got, exp)
	}
}

func TestTokenExpiry_NoClaim(t *testing.T) {
	if _, ok := TokenExpiry(signedToken(t, jwt.MapClaims{"sub": "u1"})); ok {
		t.Error("token without exp should report ok = false")
	}
	if _, ok := TokenExpiry("opaque-token"); ok {
		t.Error("opaque token should report ok = false")
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := signedToken(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()})
	future := signedToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})

	if !Expired(past, now) {
		t.Error("past token should be expired")
	}
	if Expired(future, now) {
		t.Error("future token should not be expired")
	}
	if Expired("opaque-token", now) {
		t.Error("opaque token should not be treated as expired")
	}
}
