// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/DiogoGraciano/instituto-site/internal/admin"
	"github.com/DiogoGraciano/instituto-site/internal/i18n"
	"github.com/DiogoGraciano/instituto-site/internal/middleware"
	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/render"
	"github.com/DiogoGraciano/instituto-site/internal/service"
	"github.com/DiogoGraciano/instituto-site/internal/uikit"
)

// eventLevels are the values accepted by the level filter.
var eventLevels = []string{model.EventLevelInfo, model.EventLevelWarning, model.EventLevelError}

// EventsHandler handles event log viewing routes.
type EventsHandler struct {
	eventService *service.EventService
	renderer     *render.Renderer
	sections     []admin.Section
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(es *service.EventService, renderer *render.Renderer, sections []admin.Section) *EventsHandler {
	return &EventsHandler{
		eventService: es,
		renderer:     renderer,
		sections:     sections,
	}
}

// EventView is one row of the event list.
type EventView struct {
	Level     string
	Category  string
	Message   string
	Details   string
	CreatedAt time.Time
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Nav        AdminNav
	Events     []EventView
	Level      string
	Levels     []string
	Pagination uikit.Pagination
}

// formatMetadata converts JSON metadata to readable text format.
// Example: {"section":"posts","user":"a@b.c"} -> "section: posts, user: a@b.c"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata
	}
	if len(data) == 0 {
		return ""
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		var strValue string
		switch v := data[key].(type) {
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			strValue = strconv.FormatBool(v)
		default:
			if b, err := json.Marshal(v); err == nil {
				strValue = string(b)
			}
		}
		parts = append(parts, key+": "+strValue)
	}
	return strings.Join(parts, ", ")
}

// List handles GET /admin/events - displays a paginated list of events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)

	level := r.URL.Query().Get("level")
	if !slices.Contains(eventLevels, level) {
		level = ""
	}

	page, err := h.eventService.List(r.Context(), level, uikit.ParsePageParam(r), service.DefaultEventsPerPage)
	if err != nil {
		slog.Error("failed to list events", "error", err)
		h.renderer.RenderError(w, r, http.StatusInternalServerError)
		return
	}

	views := make([]EventView, 0, len(page.Events))
	for _, e := range page.Events {
		views = append(views, EventView{
			Level:     e.Level,
			Category:  e.Category,
			Message:   e.Message,
			Details:   formatMetadata(e.Metadata),
			CreatedAt: e.CreatedAt,
		})
	}

	renderPage(w, r, h.renderer, http.StatusOK, "admin/events", render.TemplateData{
		Title: i18n.T(lang, "admin.events"),
		Data: EventsListData{
			Nav:        AdminNav{Sections: h.sections, Active: "events"},
			Events:     views,
			Level:      level,
			Levels:     eventLevels,
			Pagination: page.Pagination,
		},
		Breadcrumbs: uikit.Trail("admin.events",
			uikit.Breadcrumb{Label: "nav.dashboard", URL: redirectAdmin}),
	})
}
