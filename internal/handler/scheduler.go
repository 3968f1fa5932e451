// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DiogoGraciano/instituto-site/internal/admin"
	"github.com/DiogoGraciano/instituto-site/internal/cache"
	"github.com/DiogoGraciano/instituto-site/internal/i18n"
	"github.com/DiogoGraciano/instituto-site/internal/middleware"
	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/render"
	"github.com/DiogoGraciano/instituto-site/internal/scheduler"
	"github.com/DiogoGraciano/instituto-site/internal/service"
	"github.com/DiogoGraciano/instituto-site/internal/uikit"
)

// SchedulerHandler handles the scheduled jobs page.
type SchedulerHandler struct {
	scheduler    *scheduler.Scheduler
	renderer     *render.Renderer
	eventService *service.EventService
	sections     []admin.Section
	cacheStats   cache.StatsProvider
}

// NewSchedulerHandler creates a new SchedulerHandler.
// cacheStats may be nil when the cache does not count hits.
func NewSchedulerHandler(s *scheduler.Scheduler, renderer *render.Renderer, es *service.EventService, sections []admin.Section, cacheStats cache.StatsProvider) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler:    s,
		renderer:     renderer,
		eventService: es,
		sections:     sections,
		cacheStats:   cacheStats,
	}
}

// SchedulerListData holds all data for the jobs page.
type SchedulerListData struct {
	Nav   AdminNav
	Jobs  []scheduler.JobInfo
	Cache *cache.Stats
}

// List handles GET /admin/jobs - displays all scheduled jobs.
func (h *SchedulerHandler) List(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)
	data := SchedulerListData{
		Nav:  AdminNav{Sections: h.sections, Active: "jobs"},
		Jobs: h.scheduler.List(),
	}
	if h.cacheStats != nil {
		stats := h.cacheStats.Stats()
		data.Cache = &stats
	}
	renderPage(w, r, h.renderer, http.StatusOK, "admin/jobs", render.TemplateData{
		Title: i18n.T(lang, "admin.jobs"),
		Data:  data,
		Breadcrumbs: uikit.Trail("admin.jobs",
			uikit.Breadcrumb{Label: "nav.dashboard", URL: redirectAdmin}),
	})
}

// Trigger handles POST /admin/jobs/{name}/run - runs a job immediately.
func (h *SchedulerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)
	name := chi.URLParam(r, "name")

	err := h.scheduler.Trigger(name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		flashError(w, r, h.renderer, redirectAdminJobs, i18n.T(lang, "admin.job_not_found"))
		return
	case errors.Is(err, scheduler.ErrTriggerLimited):
		flashError(w, r, h.renderer, redirectAdminJobs, i18n.T(lang, "admin.job_limited"))
		return
	}

	meta := map[string]any{"job": name}
	if user := middleware.GetUser(r); user != nil && user.Email != "" {
		meta["user"] = user.Email
	}
	if err != nil {
		meta["error"] = err.Error()
		_ = h.eventService.LogEvent(r.Context(), model.EventLevelError, model.EventCategorySystem, "Manual job run failed", meta)
		flashError(w, r, h.renderer, redirectAdminJobs, name+": "+err.Error())
		return
	}

	_ = h.eventService.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategorySystem, "Manual job run", meta)
	flashSuccess(w, r, h.renderer, redirectAdminJobs, i18n.T(lang, "admin.job_triggered", name))
}
