// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/DiogoGraciano/instituto-site/internal/model"
)

// Collections served by Backend.
var collections = []string{"activities", "projects", "partners", "history", "posts", "contacts"}

type failure struct {
	status int
	body   string
}

// Backend is an in-memory stand-in for the institute REST API. Records are
// kept as loose JSON objects so tests can seed any entity.
type Backend struct {
	Server *httptest.Server

	// Token is the bearer token issued on login and required on mutations.
	Token    string
	User     model.User
	Password string

	mu       sync.Mutex
	records  map[string][]map[string]any
	nextID   int
	failures map[string]failure
	calls    map[string]int
	lastBody map[string]string
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		Token:    "test-token",
		User:     model.User{ID: "u1", Name: "Maria Admin", Email: "admin@instituto.org", IsActive: true},
		Password: "secret123",
		records:  make(map[string][]map[string]any),
		failures: make(map[string]failure),
		calls:    make(map[string]int),
		lastBody: make(map[string]string),
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the base URL of the fake.
func (b *Backend) URL() string { return b.Server.URL }

// Seed appends records to a collection. Records without an id get one.
func (b *Backend) Seed(collection string, items ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			panic(err)
		}
		var rec map[string]any
		if err := json.Unmarshal(data, &rec); err != nil {
			panic(err)
		}
		if id, _ := rec["id"].(string); id == "" {
			b.nextID++
			rec["id"] = "seed-" + strconv.Itoa(b.nextID)
		}
		b.records[collection] = append(b.records[collection], rec)
	}
}

// Fail makes every request matching "METHOD /path" answer status with body.
func (b *Backend) Fail(route string, status int, body string) {
	b.mu.Lock()
	b.failures[route] = failure{status: status, body: body}
	b.mu.Unlock()
}

// Recover removes a failure installed with Fail.
func (b *Backend) Recover(route string) {
	b.mu.Lock()
	delete(b.failures, route)
	b.mu.Unlock()
}

// Calls returns how many requests matched "METHOD /path".
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// LastBody returns the raw body of the last request matching "METHOD /path".
func (b *Backend) LastBody(route string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastBody[route]
}

// Records returns a copy of a collection.
func (b *Backend) Records(collection string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.records[collection]...)
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.track)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "timestamp": "2024-01-01T00:00:00Z"})
	})
	r.Post("/auth/login", b.login)
	r.Post("/auth/register", b.register)
	r.Get("/auth/profile", b.profile)
	r.Get("/posts/slug/{slug}", b.postBySlug)

	for _, c := range collections {
		r.Route("/"+c, func(r chi.Router) {
			r.Get("/", b.list(c))
			r.Post("/", b.create(c))
			r.Get("/{id}", b.get(c))
			r.Patch("/{id}", b.update(c))
			r.Delete("/{id}", b.remove(c))
		})
	}
	return r
}

// track counts calls, records bodies and applies injected failures.
func (b *Backend) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + strings.TrimRight(r.URL.Path, "/")
		if r.URL.Path == "/" {
			route = r.Method + " /"
		}
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		b.mu.Lock()
		b.calls[route]++
		b.lastBody[route] = string(body)
		f, failing := b.failures[route]
		b.mu.Unlock()

		if failing {
			if f.body != "" {
				w.Header().Set("Content-Type", "application/json")
			}
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *Backend) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+b.Token
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds struct{ Email, Password string }
	_ = json.NewDecoder(r.Body).Decode(&creds)
	if creds.Email != b.User.Email || creds.Password != b.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Credenciais inválidas"})
		return
	}
	writeJSON(w, http.StatusOK, model.AuthResult{AccessToken: b.Token, User: b.User})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var creds struct{ Email, Password, Name string }
	_ = json.NewDecoder(r.Body).Decode(&creds)
	if creds.Email == b.User.Email {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "E-mail já cadastrado"})
		return
	}
	writeJSON(w, http.StatusCreated, model.AuthResult{
		AccessToken: b.Token,
		User:        model.User{ID: "u2", Name: creds.Name, Email: creds.Email, IsActive: true},
	})
}

func (b *Backend) profile(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, b.User)
}

func (b *Backend) postBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rec := range b.records["posts"] {
		if rec["slug"] == slug {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post não encontrado"})
}

func (b *Backend) list(c string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c == "contacts" && !b.authorized(r) {
			unauthorized(w)
			return
		}
		category := r.URL.Query().Get("category")

		b.mu.Lock()
		out := make([]map[string]any, 0, len(b.records[c]))
		for _, rec := range b.records[c] {
			if category != "" && rec["category"] != category {
				continue
			}
			out = append(out, rec)
		}
		b.mu.Unlock()

		writeJSON(w, http.StatusOK, out)
	}
}

func (b *Backend) find(c, id string) (int, map[string]any) {
	for i, rec := range b.records[c] {
		if rec["id"] == id {
			return i, rec
		}
	}
	return -1, nil
}

func (b *Backend) get(c string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		_, rec := b.find(c, chi.URLParam(r, "id"))
		b.mu.Unlock()
		if rec == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (b *Backend) create(c string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c != "contacts" && !b.authorized(r) {
			unauthorized(w)
			return
		}
		rec, err := decodeRecord(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}

		b.mu.Lock()
		b.nextID++
		rec["id"] = fmt.Sprintf("%s-%d", c, b.nextID)
		b.records[c] = append(b.records[c], rec)
		b.mu.Unlock()

		writeJSON(w, http.StatusCreated, rec)
	}
}

func (b *Backend) update(c string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(r) {
			unauthorized(w)
			return
		}
		patch, err := decodeRecord(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		_, rec := b.find(c, chi.URLParam(r, "id"))
		if rec == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
			return
		}
		for k, v := range patch {
			rec[k] = v
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (b *Backend) remove(c string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(r) {
			unauthorized(w)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		i, _ := b.find(c, chi.URLParam(r, "id"))
		if i < 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
			return
		}
		b.records[c] = append(b.records[c][:i], b.records[c][i+1:]...)
		w.WriteHeader(http.StatusNoContent)
	}
}

// decodeRecord reads a JSON or multipart body into a loose record. Repeated
// "name[]" parts become arrays, JSON-looking values stay strings and file
// parts are stored as "/uploads/<filename>".
func decodeRecord(r *http.Request) (map[string]any, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		rec := make(map[string]any)
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return rec, nil
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}
	rec := make(map[string]any)
	for name, values := range r.MultipartForm.Value {
		if strings.HasSuffix(name, "[]") {
			rec[strings.TrimSuffix(name, "[]")] = values
			continue
		}
		rec[name] = values[0]
	}
	for name, files := range r.MultipartForm.File {
		rec[name] = "/uploads/" + files[0].Filename
	}
	return rec, nil
}
