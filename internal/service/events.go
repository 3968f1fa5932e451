// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/store"
	"github.com/DiogoGraciano/instituto-site/internal/uikit"
)

// EventService records audit events and lists them for the dashboard.
type EventService struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{queries: store.New(db), logger: logger}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, metadata map[string]any) error {
	metadataJSON := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		Metadata:  metadataJSON,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.logger.Error("failed to log event", "error", err)
		return err
	}
	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, metadata)
}

// LogAdminEvent logs a dashboard mutation.
func (s *EventService) LogAdminEvent(ctx context.Context, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryAdmin, message, metadata)
}

// LogAuthEvent logs an authentication event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, metadata)
}

// DefaultEventsPerPage is the dashboard event list page size.
const DefaultEventsPerPage = 20

// EventPage is one page of the event list.
type EventPage struct {
	Events     []model.Event
	Pagination uikit.Pagination
}

// List returns a page of events, newest first, optionally filtered by level.
func (s *EventService) List(ctx context.Context, level string, page, perPage int) (*EventPage, error) {
	if perPage <= 0 {
		perPage = DefaultEventsPerPage
	}
	total, err := s.queries.CountEvents(ctx, level)
	if err != nil {
		return nil, err
	}
	totalPages := uikit.CalculateTotalPages(int(total), perPage)
	page = uikit.ClampPage(page, totalPages)

	events, err := s.queries.ListEvents(ctx, store.ListEventsParams{
		Level:  level,
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	})
	if err != nil {
		return nil, err
	}

	query := map[string][]string{}
	if level != "" {
		query["level"] = []string{level}
	}
	return &EventPage{
		Events:     events,
		Pagination: uikit.BuildPagination(page, totalPages, "/admin/events", query),
	}, nil
}

// DeleteOldEvents removes events older than the given duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queries.DeleteEventsBefore(ctx, time.Now().Add(-olderThan))
}
