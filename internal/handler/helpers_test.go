// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"html/template"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/DiogoGraciano/instituto-site/internal/admin"
	"github.com/DiogoGraciano/instituto-site/internal/auth"
	"github.com/DiogoGraciano/instituto-site/internal/cache"
	"github.com/DiogoGraciano/instituto-site/internal/imaging"
	"github.com/DiogoGraciano/instituto-site/internal/middleware"
	"github.com/DiogoGraciano/instituto-site/internal/render"
	"github.com/DiogoGraciano/instituto-site/internal/scheduler"
	"github.com/DiogoGraciano/instituto-site/internal/service"
	"github.com/DiogoGraciano/instituto-site/internal/testutil"
	"github.com/DiogoGraciano/instituto-site/internal/version"
	"github.com/DiogoGraciano/instituto-site/web"
)

// testApp wires the handlers against the fake backend the same way the
// server does, minus CSRF and rate limiting.
type testApp struct {
	backend   *testutil.Backend
	db        *sql.DB
	sm        *scs.SessionManager
	cache     *cache.MemoryCache
	site      *service.SiteService
	events    *service.EventService
	scheduler *scheduler.Scheduler
	router    http.Handler

	cookies []*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	backend := testutil.NewBackend(t)
	api := testutil.TestAPI(t, backend.URL())
	db := testutil.TestDB(t)
	logger := testutil.TestLoggerSilent()

	sm := scs.New()
	tokens := auth.NewSessionStore(sm)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	require.NoError(t, err)
	renderer, err := render.New(render.Config{TemplatesFS: templatesFS, SessionManager: sm, Logger: logger})
	require.NoError(t, err)

	mc := cache.NewMemoryCache(cache.MemoryOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mc.Close() })

	site := service.NewSiteService(api, mc, service.SiteOptions{PostsPerPage: 6, Logger: logger})
	events := service.NewEventService(db, logger)
	sections := admin.Sections(api)

	sched := scheduler.New(logger, time.Second)
	require.NoError(t, sched.Register("cache_warm", "Warm the content cache", "@every 1h", site.Warm))

	front := NewFrontendHandler(site, events, renderer, Donation{PixKey: "pix@instituto.org", Bank: "Banco"}, logger)
	authH := NewAuthHandler(api, tokens, sm, renderer, events, logger)
	adminH := NewAdminHandler(AdminConfig{
		Profiles:     api,
		Sections:     sections,
		Site:         site,
		Tokens:       tokens,
		Renderer:     renderer,
		EventService: events,
		Images:       imaging.NewProcessor(800),
		Logger:       logger,
	})
	eventsH := NewEventsHandler(events, renderer, sections)
	schedH := NewSchedulerHandler(sched, renderer, events, sections, mc)
	cacheH := NewCacheHandler(site, mc, renderer, events)
	health := NewHealthHandler(db, api, tokens, &version.Info{Version: "v1.0.0"})

	r := chi.NewRouter()
	r.Use(middleware.Language("pt"))
	r.Use(sm.LoadAndSave)

	r.Get("/", front.Home)
	r.Get("/historia", front.History)
	r.Get("/blog", front.Blog)
	r.Get("/blog/{slug}", front.Post)
	r.Post("/contato", front.Contact)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RedirectIfAuthenticated(tokens, "/admin"))
		r.Get("/login", authH.LoginForm)
		r.Post("/login", authH.Login)
		r.Get("/register", authH.RegisterForm)
		r.Post("/register", authH.Register)
	})
	r.Post("/logout", authH.Logout)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireToken(sm, tokens))
		r.Use(adminH.RequireProfile)
		r.Get("/", adminH.Dashboard)
		r.Get("/events", eventsH.List)
		r.Get("/jobs", schedH.List)
		r.Post("/jobs/{name}/run", schedH.Trigger)
		r.Post("/cache/clear", cacheH.Clear)
		r.Get("/{section}", adminH.Section)
		r.Post("/{section}", adminH.Save)
		r.Post("/{section}/{id}", adminH.Save)
		r.Post("/{section}/{id}/delete", adminH.Delete)
	})

	r.Get("/health", health.Health)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.NotFound(front.NotFound)

	return &testApp{
		backend:   backend,
		db:        db,
		sm:        sm,
		cache:     mc,
		site:      site,
		events:    events,
		scheduler: sched,
		router:    r,
	}
}

// do sends a request through the router, carrying the session cookie
// between calls like a browser would.
func (a *testApp) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		a.setCookie(c)
	}
	return w
}

func (a *testApp) setCookie(c *http.Cookie) {
	for i, existing := range a.cookies {
		if existing.Name == c.Name {
			if c.MaxAge < 0 {
				a.cookies = append(a.cookies[:i], a.cookies[i+1:]...)
			} else {
				a.cookies[i] = c
			}
			return
		}
	}
	if c.MaxAge >= 0 {
		a.cookies = append(a.cookies, c)
	}
}

// upload sends a multipart form with one file part.
func (a *testApp) upload(t *testing.T, target string, fields map[string]string, fileField, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile(fileField, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range a.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		a.setCookie(c)
	}
	return w
}

// follow follows a single redirect, which is how flash messages are read.
func (a *testApp) follow(t *testing.T, w *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, w.Code, "expected a redirect, body: %s", w.Body.String())
	return a.do(t, http.MethodGet, w.Header().Get("Location"), nil)
}

// login signs in as the backend's user.
func (a *testApp) login(t *testing.T) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/login", url.Values{
		"email":    {a.backend.User.Email},
		"password": {a.backend.Password},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/admin", w.Header().Get("Location"))
}

// eventCount returns the number of stored events in category.
func (a *testApp) eventCount(t *testing.T, category string) int {
	t.Helper()
	var n int
	err := a.db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM events WHERE category = ?", category).Scan(&n)
	require.NoError(t, err)
	return n
}

// text returns s the way html/template writes it.
func text(s string) string {
	return template.HTMLEscapeString(s)
}
