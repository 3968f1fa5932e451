// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DiogoGraciano/instituto-site/internal/model"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs the site's SQL statements.
type Queries struct {
	db DBTX
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// CreateEventParams are the columns of a new event.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

const createEvent = `
INSERT INTO events (level, category, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?)
`

// CreateEvent inserts an event and returns its id.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (int64, error) {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	if arg.CreatedAt.IsZero() {
		arg.CreatedAt = time.Now()
	}
	res, err := q.db.ExecContext(ctx, createEvent, arg.Level, arg.Category, arg.Message, arg.Metadata, arg.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("inserting event: %w", err)
	}
	return res.LastInsertId()
}

// ListEventsParams selects a page of events, optionally filtered by level.
type ListEventsParams struct {
	Level  string
	Limit  int
	Offset int
}

const listEvents = `
SELECT id, level, category, message, metadata, created_at
FROM events
WHERE (? = '' OR level = ?)
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?
`

// ListEvents returns events newest first.
func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, arg.Level, arg.Level, arg.Limit, arg.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

const countEvents = `SELECT COUNT(*) FROM events WHERE (? = '' OR level = ?)`

// CountEvents counts events, optionally filtered by level.
func (q *Queries) CountEvents(ctx context.Context, level string) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, countEvents, level, level).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

const deleteEventsBefore = `DELETE FROM events WHERE created_at < ?`

// DeleteEventsBefore removes events older than cutoff and returns how many were removed.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEventsBefore, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting events: %w", err)
	}
	return res.RowsAffected()
}
