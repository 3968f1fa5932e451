// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/model"
)

type memoryStore struct {
	token   string
	user    model.User
	setErr  error
	cleared int
}

func (m *memoryStore) Token(context.Context) string { return m.token }

func (m *memoryStore) SetToken(_ context.Context, token string, user model.User) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.token = token
	m.user = user
	return nil
}

func (m *memoryStore) ClearToken(context.Context) error {
	m.token = ""
	m.cleared++
	return nil
}

type stubAuth struct {
	result *model.AuthResult
	err    error
	seen   []string
}

func (s *stubAuth) Login(_ context.Context, email, password string) (*model.AuthResult, error) {
	s.seen = append(s.seen, "login:"+email)
	return s.result, s.err
}

func (s *stubAuth) Register(_ context.Context, email, name, password string) (*model.AuthResult, error) {
	s.seen = append(s.seen, "register:"+email+":"+name)
	return s.result, s.err
}

func TestFlow_LoginSuccess(t *testing.T) {
	store := &memoryStore{}
	auth := &stubAuth{result: &model.AuthResult{AccessToken: "tok", User: model.User{ID: "u1", Name: "Maria"}}}
	f := NewFlow(auth, store, "pt", nil)

	if f.State != StateIdle {
		t.Fatalf("initial state = %v, want idle", f.State)
	}
	if err := f.Login(context.Background(), "maria@instituto.org", "senha"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if f.State != StateResolved {
		t.Errorf("state = %v, want resolved", f.State)
	}
	if store.token != "tok" || store.user.Name != "Maria" {
		t.Errorf("store = %+v", store)
	}
	if f.User == nil || f.User.ID != "u1" {
		t.Errorf("User = %+v", f.User)
	}
}

func TestFlow_LoginFailure(t *testing.T) {
	store := &memoryStore{}
	backendErr := &apiclient.HTTPError{Status: http.StatusUnauthorized, StatusText: "Unauthorized", Body: []byte(`{"message":"Credenciais inválidas"}`)}
	f := NewFlow(&stubAuth{err: backendErr}, store, "pt", nil)

	err := f.Login(context.Background(), "a@b.c", "x")
	if !errors.Is(err, backendErr) {
		t.Fatalf("err = %v, want the backend error", err)
	}
	if f.State != StateError {
		t.Errorf("state = %v, want error", f.State)
	}
	if f.Error != "Credenciais inválidas" {
		t.Errorf("Error = %q", f.Error)
	}
	if store.token != "" {
		t.Error("token must not be stored on failure")
	}
}

func TestFlow_StoreFailure(t *testing.T) {
	store := &memoryStore{setErr: errors.New("session store down")}
	auth := &stubAuth{result: &model.AuthResult{AccessToken: "tok"}}
	f := NewFlow(auth, store, "pt", nil)

	if err := f.Login(context.Background(), "a@b.c", "x"); err == nil {
		t.Fatal("expected error")
	}
	if f.State != StateError || f.Error == "" {
		t.Errorf("state = %v, error = %q", f.State, f.Error)
	}
}

func TestFlow_Register(t *testing.T) {
	store := &memoryStore{}
	auth := &stubAuth{result: &model.AuthResult{AccessToken: "new"}}
	f := NewFlow(auth, store, "en", nil)

	if err := f.Register(context.Background(), "ana@x.org", "Ana", "segredo"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(auth.seen) != 1 || auth.seen[0] != "register:ana@x.org:Ana" {
		t.Errorf("calls = %v", auth.seen)
	}
	if store.token != "new" {
		t.Errorf("token = %q", store.token)
	}
}

func TestFlow_Logout(t *testing.T) {
	store := &memoryStore{token: "tok"}
	f := NewFlow(&stubAuth{}, store, "pt", nil)
	f.State = StateResolved

	if err := f.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if store.token != "" || store.cleared != 1 {
		t.Errorf("store = %+v", store)
	}
	if f.State != StateIdle {
		t.Errorf("state = %v, want idle", f.State)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateIdle:     "idle",
		StateLoading:  "loading",
		StateResolved: "resolved",
		StateError:    "error",
		State(9):      "State(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
