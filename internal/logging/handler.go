// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that copies WARN and ERROR records
// into the local event log shown on the admin dashboard.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/store"
)

// writeTimeout bounds a single event insert.
const writeTimeout = 2 * time.Second

// EventHandler is a slog.Handler that wraps another handler and also writes
// records at or above its level to the events table.
type EventHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
}

// NewEventHandler wraps inner. WARN and above reach the event log.
func NewEventHandler(inner slog.Handler, db *sql.DB) *EventHandler {
	return NewEventHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventHandlerWithLevel wraps inner with a custom minimum level.
func NewEventHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventHandler {
	return &EventHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.write(r)
	}
	return nil
}

// WithAttrs implements slog.Handler. The attributes also land in the event
// metadata.
func (h *EventHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &EventHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   merged,
	}
}

// WithGroup implements slog.Handler.
func (h *EventHandler) WithGroup(name string) slog.Handler {
	return &EventHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

// write persists the record. The request context is not used so that a
// cancelled request still leaves its trace.
func (h *EventHandler) write(r slog.Record) {
	attrs := h.collect(r)

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	_, _ = h.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  category(r.Message, attrs),
		Message:   r.Message,
		Metadata:  metadata(attrs),
		CreatedAt: r.Time,
	})
}

func (h *EventHandler) collect(r slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	return attrs
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// category returns the explicit "category" attribute or infers one from the
// message.
func category(msg string, attrs []slog.Attr) string {
	for _, a := range attrs {
		if a.Key == "category" {
			return a.Value.String()
		}
	}

	msg = strings.ToLower(msg)
	switch {
	case containsAny(msg, "auth", "login", "logout", "token", "register"):
		return model.EventCategoryAuth
	case containsAny(msg, "contact"):
		return model.EventCategoryContact
	case containsAny(msg, "cache", "redis"):
		return model.EventCategoryCache
	case containsAny(msg, "backend", "api ", "request failed"):
		return model.EventCategoryAPI
	case containsAny(msg, "admin", "create", "update", "delete"):
		return model.EventCategoryAdmin
	default:
		return model.EventCategorySystem
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// metadata encodes the attributes except "category" as a flat JSON object of
// strings. Groups are flattened with dotted keys.
func metadata(attrs []slog.Attr) string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Key == "category" {
			continue
		}
		flatten(m, "", a)
	}
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func flatten(m map[string]string, prefix string, a slog.Attr) {
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			flatten(m, key, ga)
		}
		return
	}
	m[key] = v.String()
}
