// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/DiogoGraciano/instituto-site/internal/cache"
	"github.com/DiogoGraciano/instituto-site/internal/i18n"
	"github.com/DiogoGraciano/instituto-site/internal/middleware"
	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/render"
	"github.com/DiogoGraciano/instituto-site/internal/service"
)

// CacheHandler handles cache management routes.
type CacheHandler struct {
	site         *service.SiteService
	stats        cache.StatsProvider
	renderer     *render.Renderer
	eventService *service.EventService
}

// NewCacheHandler creates a new CacheHandler. stats may be nil.
func NewCacheHandler(site *service.SiteService, stats cache.StatsProvider, renderer *render.Renderer, es *service.EventService) *CacheHandler {
	return &CacheHandler{
		site:         site,
		stats:        stats,
		renderer:     renderer,
		eventService: es,
	}
}

// Clear handles POST /admin/cache/clear. Every cached section is dropped
// and the counters start over.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)

	h.site.InvalidateAll(r.Context())

	meta := map[string]any{}
	if h.stats != nil {
		before := h.stats.Stats()
		meta["hits"] = before.Hits
		meta["misses"] = before.Misses
		h.stats.ResetStats()
	}
	if user := middleware.GetUser(r); user != nil && user.Email != "" {
		meta["user"] = user.Email
	}
	_ = h.eventService.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategoryCache, "Cache cleared", meta)

	flashSuccess(w, r, h.renderer, redirectAdminJobs, i18n.T(lang, "admin.cache_cleared"))
}
