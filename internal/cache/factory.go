// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// Config selects and tunes the cache backend.
type Config struct {
	RedisURL        string
	Prefix          string
	DefaultTTL      time.Duration
	MaxItems        int
	CleanupInterval time.Duration
}

// New returns a Redis cache when RedisURL is set and reachable, and a memory
// cache otherwise. An unreachable Redis is logged and not fatal.
func New(cfg Config, logger *slog.Logger) Cacher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(RedisOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.Prefix,
			DefaultTTL: cfg.DefaultTTL,
		})
		if err == nil {
			logger.Info("using redis cache", "prefix", rc.prefix)
			return rc
		}
		logger.Warn("redis unavailable, falling back to memory cache", "error", err)
	}

	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	return NewMemoryCache(MemoryOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxItems:        cfg.MaxItems,
		CleanupInterval: cfg.CleanupInterval,
	})
}
