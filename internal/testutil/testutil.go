// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers: quiet loggers, a migrated
// temporary database and an in-memory fake of the institute backend.
package testutil

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/store"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a logger that only outputs errors.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError + 4,
	}))
}

// TestDB creates a temporary database with migrations applied. It is closed
// when the test ends.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// TestAPI returns an API client for baseURL that retries quickly.
func TestAPI(t *testing.T, baseURL string) *apiclient.API {
	t.Helper()
	return apiclient.NewAPI(apiclient.New(apiclient.Options{
		BaseURL:     baseURL,
		Timeout:     2 * time.Second,
		MaxAttempts: 2,
		BackoffBase: time.Millisecond,
		Logger:      TestLoggerSilent(),
	}))
}
