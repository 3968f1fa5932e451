// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/DiogoGraciano/instituto-site/internal/auth"
	"github.com/DiogoGraciano/instituto-site/internal/handler"
	"github.com/DiogoGraciano/instituto-site/internal/middleware"
)

// requestTimeout bounds a page render including its backend calls.
const requestTimeout = 60 * time.Second

// server holds everything the router needs.
type server struct {
	sessionManager *scs.SessionManager
	tokens         *auth.SessionStore
	static         fs.FS
	metrics        http.Handler

	defaultLang      string
	csrf             middleware.CSRFConfig
	security         middleware.SecurityHeadersConfig
	loginRateLimit   int
	contactRateLimit int

	frontend  *handler.FrontendHandler
	auth      *handler.AuthHandler
	admin     *handler.AdminHandler
	events    *handler.EventsHandler
	scheduler *handler.SchedulerHandler
	cache     *handler.CacheHandler
	health    *handler.HealthHandler
	seo       *handler.SEOHandler
}

// routes builds the HTTP router.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5, "text/html", "text/css", "application/json", "image/svg+xml"))
	r.Use(middleware.StripTrailingSlash)

	// Probes and metrics skip sessions, CSRF and the language cookie.
	r.Get("/health/live", s.health.Liveness)
	r.Get("/health/ready", s.health.Readiness)
	if s.metrics != nil {
		r.With(middleware.NoStore).Handle("/metrics", s.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.StaticCache(time.Hour))
		r.Get("/robots.txt", s.seo.Robots)
		r.Get("/sitemap.xml", s.seo.Sitemap)
	})

	r.With(middleware.StaticCache(7*24*time.Hour)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(s.static)))

	r.Group(func(r chi.Router) {
		r.Use(middleware.SecurityHeaders(s.security))
		r.Use(middleware.Language(s.defaultLang))
		r.Use(middleware.CSRF(s.csrf))
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(s.sessionManager.LoadAndSave)

		r.Get("/health", s.health.Health)

		// Public site
		r.Get("/", s.frontend.Home)
		r.Get("/historia", s.frontend.History)
		r.Get("/blog", s.frontend.Blog)
		r.Get("/blog/{slug}", s.frontend.Post)
		r.With(middleware.NewRateLimiter("contact", s.contactRateLimit).Middleware).
			Post("/contato", s.frontend.Contact)

		// Authentication
		loginLimiter := middleware.NewRateLimiter("login", s.loginRateLimit)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.RedirectIfAuthenticated(s.tokens, "/admin"))
			r.Use(loginLimiter.Middleware)
			r.Get("/login", s.auth.LoginForm)
			r.Post("/login", s.auth.Login)
			r.Get("/register", s.auth.RegisterForm)
			r.Post("/register", s.auth.Register)
		})
		r.Post("/logout", s.auth.Logout)

		// Dashboard
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.RequireToken(s.sessionManager, s.tokens))
			r.Use(s.admin.RequireProfile)

			r.Get("/", s.admin.Dashboard)
			r.Get("/events", s.events.List)
			r.Get("/jobs", s.scheduler.List)
			r.Post("/jobs/{name}/run", s.scheduler.Trigger)
			r.Post("/cache/clear", s.cache.Clear)

			r.Get("/{section}", s.admin.Section)
			r.Post("/{section}", s.admin.Save)
			r.Post("/{section}/{id}", s.admin.Save)
			r.Post("/{section}/{id}/delete", s.admin.Delete)
		})

		r.NotFound(s.frontend.NotFound)
	})

	return r
}
