// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the site configuration from INSTITUTO_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// knownWeakSecrets contains example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration.
type Config struct {
	// Backend API
	APIURL         string        `env:"API_URL" envDefault:"http://localhost:3000"`
	APITimeout     time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	APIMaxAttempts int           `env:"API_MAX_ATTEMPTS" envDefault:"3"`
	APIBackoffBase time.Duration `env:"API_BACKOFF_BASE" envDefault:"2s"`

	// Server
	DBPath        string `env:"DB_PATH" envDefault:"./data/instituto.db"`
	SessionSecret string `env:"SESSION_SECRET,required"`
	ServerHost    string `env:"SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8080"`
	Env           string `env:"ENV" envDefault:"development"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	DefaultLang   string `env:"DEFAULT_LANG" envDefault:"pt"`

	// Crawlers
	SiteURL           string `env:"SITE_URL"`
	RobotsDisallowAll bool   `env:"ROBOTS_DISALLOW_ALL"`

	// Cache
	RedisURL     string        `env:"REDIS_URL"`
	CachePrefix  string        `env:"CACHE_PREFIX" envDefault:"instituto:"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	CacheMaxSize int           `env:"CACHE_MAX_SIZE" envDefault:"1000"`

	// Donation section
	DonationPixKey  string `env:"DONATION_PIX_KEY"`
	DonationBank    string `env:"DONATION_BANK"`
	DonationAgency  string `env:"DONATION_AGENCY"`
	DonationAccount string `env:"DONATION_ACCOUNT"`
	DonationHolder  string `env:"DONATION_HOLDER" envDefault:"Instituto"`

	// Rate limits, requests per minute per client IP
	LoginRateLimit   int `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	ContactRateLimit int `env:"CONTACT_RATE_LIMIT" envDefault:"5"`

	// Uploads
	UploadMaxBytes int64 `env:"UPLOAD_MAX_BYTES" envDefault:"10485760"`
	UploadMaxWidth int   `env:"UPLOAD_MAX_WIDTH" envDefault:"1920"`

	// Scheduled jobs, cron syntax
	CacheWarmSpec   string        `env:"CACHE_WARM_SPEC" envDefault:"*/10 * * * *"`
	HealthCheckSpec string        `env:"HEALTH_CHECK_SPEC" envDefault:"*/5 * * * *"`
	EventPruneSpec  string        `env:"EVENT_PRUNE_SPEC" envDefault:"0 3 * * *"`
	EventRetention  time.Duration `env:"EVENT_RETENTION" envDefault:"720h"`
}

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "INSTITUTO_"

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// PublicURL returns the absolute base URL of the site, falling back to the
// listen address when SITE_URL is unset.
func (c Config) PublicURL() string {
	if c.SiteURL != "" {
		return strings.TrimSuffix(c.SiteURL, "/")
	}
	return "http://" + c.ServerAddr()
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// DonationEnabled reports whether any donation detail is configured.
func (c Config) DonationEnabled() bool {
	return c.DonationPixKey != "" || c.DonationAccount != ""
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadDotEnv loads variables from the given files if they exist. Variables
// already set in the environment win.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			slog.Debug("loaded environment file", "file", f)
		}
	}
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("%sSESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			EnvPrefix, MinSessionSecretLength, len(c.SessionSecret))
	}
	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("%sSESSION_SECRET is a known default value and must not be used", EnvPrefix)
		}
	}
	if !hasMinimumEntropy(c.SessionSecret) {
		slog.Warn(EnvPrefix + "SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%sAPI_URL must be an absolute http(s) URL, got %q", EnvPrefix, c.APIURL)
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")

	if c.APIMaxAttempts < 1 {
		return errors.New(EnvPrefix + "API_MAX_ATTEMPTS must be at least 1")
	}
	if c.APITimeout <= 0 {
		return errors.New(EnvPrefix + "API_TIMEOUT must be positive")
	}
	if c.DefaultLang != "pt" && c.DefaultLang != "en" {
		return fmt.Errorf("%sDEFAULT_LANG must be pt or en, got %q", EnvPrefix, c.DefaultLang)
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes.
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
