// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command instituto serves the institute's public site and its admin
// dashboard in front of the institute REST API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DiogoGraciano/instituto-site/internal/admin"
	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/auth"
	"github.com/DiogoGraciano/instituto-site/internal/cache"
	"github.com/DiogoGraciano/instituto-site/internal/config"
	"github.com/DiogoGraciano/instituto-site/internal/handler"
	"github.com/DiogoGraciano/instituto-site/internal/i18n"
	"github.com/DiogoGraciano/instituto-site/internal/imaging"
	"github.com/DiogoGraciano/instituto-site/internal/logging"
	"github.com/DiogoGraciano/instituto-site/internal/middleware"
	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/render"
	"github.com/DiogoGraciano/instituto-site/internal/scheduler"
	"github.com/DiogoGraciano/instituto-site/internal/service"
	"github.com/DiogoGraciano/instituto-site/internal/session"
	"github.com/DiogoGraciano/instituto-site/internal/store"
	"github.com/DiogoGraciano/instituto-site/internal/version"
	"github.com/DiogoGraciano/instituto-site/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// jobTimeout bounds a single scheduled job run.
const jobTimeout = 2 * time.Minute

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "instituto - institute site and dashboard\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INSTITUTO_SESSION_SECRET  Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INSTITUTO_API_URL         Backend API base URL (default: http://localhost:3000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INSTITUTO_DB_PATH         SQLite database path (default: ./data/instituto.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INSTITUTO_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INSTITUTO_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INSTITUTO_REDIS_URL       Redis URL for the content cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INSTITUTO_SITE_URL        Public base URL used in the sitemap (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
	if *showVersion {
		_, _ = fmt.Println(versionInfo.Banner("instituto"))
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(versionInfo *version.Info) error {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(textHandler)
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// From here on WARN and ERROR logs also land in the event log.
	logger = slog.New(logging.NewEventHandler(textHandler, db))
	slog.SetDefault(logger)

	sessionManager := session.New(db, cfg.IsDevelopment())
	tokens := auth.NewSessionStore(sessionManager)

	contentCache := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTL,
		MaxItems:   cfg.CacheMaxSize,
	}, logger)
	defer func() { _ = contentCache.Close() }()
	cacheStats, _ := contentCache.(cache.StatsProvider)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	api := apiclient.NewAPI(apiclient.New(apiclient.Options{
		BaseURL:     cfg.APIURL,
		Timeout:     cfg.APITimeout,
		MaxAttempts: cfg.APIMaxAttempts,
		BackoffBase: cfg.APIBackoffBase,
		Logger:      logger,
		Metrics:     apiclient.NewMetrics(registry),
	}))

	site := service.NewSiteService(api, contentCache, service.SiteOptions{
		CacheTTL: cfg.CacheTTL,
		Logger:   logger,
	})
	eventService := service.NewEventService(db, logger)
	sections := admin.Sections(api)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}

	sched := scheduler.New(logger, jobTimeout)
	if err := registerJobs(sched, cfg, api, site, eventService); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// Warm the cache in the background so the first visitor does not wait.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := site.Warm(ctx); err != nil {
			slog.Warn("initial cache warm failed", "error", err)
		}
	}()

	srvDeps := &server{
		sessionManager: sessionManager,
		tokens:         tokens,
		static:         staticFS,
		metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

		defaultLang:      cfg.DefaultLang,
		csrf:             middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerAddr()),
		security:         middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment(), mediaOrigin(cfg.APIURL)...),
		loginRateLimit:   cfg.LoginRateLimit,
		contactRateLimit: cfg.ContactRateLimit,

		frontend: handler.NewFrontendHandler(site, eventService, renderer, handler.Donation{
			PixKey:  cfg.DonationPixKey,
			Bank:    cfg.DonationBank,
			Agency:  cfg.DonationAgency,
			Account: cfg.DonationAccount,
			Holder:  cfg.DonationHolder,
		}, logger),
		auth: handler.NewAuthHandler(api, tokens, sessionManager, renderer, eventService, logger),
		admin: handler.NewAdminHandler(handler.AdminConfig{
			Profiles:     api,
			Sections:     sections,
			Site:         site,
			Tokens:       tokens,
			Renderer:     renderer,
			EventService: eventService,
			Images:       imaging.NewProcessor(cfg.UploadMaxWidth),
			MaxUpload:    cfg.UploadMaxBytes,
			Logger:       logger,
		}),
		events:    handler.NewEventsHandler(eventService, renderer, sections),
		scheduler: handler.NewSchedulerHandler(sched, renderer, eventService, sections, cacheStats),
		cache:     handler.NewCacheHandler(site, cacheStats, renderer, eventService),
		health:    handler.NewHealthHandler(db, api, tokens, versionInfo),
		seo:       handler.NewSEOHandler(site, cfg.PublicURL(), cfg.RobotsDisallowAll, logger),
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           srvDeps.routes(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      90 * time.Second, // Longer than the request timeout to let slow backends answer
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.String(), "api", cfg.APIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// Scheduled job names.
const (
	jobCacheWarm   = "cache_warm"
	jobHealthCheck = "backend_health"
	jobEventPrune  = "event_prune"
)

// healthChecker is the part of the API the health job needs.
type healthChecker interface {
	HealthCheck(ctx context.Context) (*apiclient.Health, error)
}

// registerJobs adds the background jobs to s.
func registerJobs(s *scheduler.Scheduler, cfg *config.Config, api healthChecker, site *service.SiteService, events *service.EventService) error {
	jobs := []struct {
		name, description, spec string
		fn                      scheduler.JobFunc
	}{
		{jobCacheWarm, "Load public content into the cache", cfg.CacheWarmSpec, site.Warm},
		{jobHealthCheck, "Check that the backend API answers", cfg.HealthCheckSpec, func(ctx context.Context) error {
			if _, err := api.HealthCheck(ctx); err != nil {
				_ = events.LogEvent(ctx, model.EventLevelError, model.EventCategoryAPI, "Backend health check failed",
					map[string]any{"error": err.Error()})
				return err
			}
			return nil
		}},
		{jobEventPrune, "Delete old event log entries", cfg.EventPruneSpec, func(ctx context.Context) error {
			n, err := events.DeleteOldEvents(ctx, cfg.EventRetention)
			if err != nil {
				return err
			}
			if n > 0 {
				slog.Info("pruned event log", "deleted", n, "retention", cfg.EventRetention)
			}
			return nil
		}},
	}

	for _, j := range jobs {
		if err := s.Register(j.name, j.description, j.spec, j.fn); err != nil {
			return fmt.Errorf("registering job %s: %w", j.name, err)
		}
	}
	return nil
}

// mediaOrigin returns the origin of the backend so images it serves pass
// the content security policy.
func mediaOrigin(apiURL string) []string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return []string{u.Scheme + "://" + u.Host}
}
