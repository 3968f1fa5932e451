// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/seo"
	"github.com/DiogoGraciano/instituto-site/internal/service"
)

// SEOHandler serves robots.txt and the sitemap.
type SEOHandler struct {
	site        *service.SiteService
	siteURL     string
	disallowAll bool
	logger      *slog.Logger
}

// NewSEOHandler creates a new SEOHandler. disallowAll blocks every crawler,
// for staging deployments.
func NewSEOHandler(site *service.SiteService, siteURL string, disallowAll bool, logger *slog.Logger) *SEOHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SEOHandler{
		site:        site,
		siteURL:     siteURL,
		disallowAll: disallowAll,
		logger:      logger,
	}
}

// Robots handles GET /robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	content := seo.NewRobotsBuilder(seo.RobotsConfig{
		SiteURL:     h.siteURL,
		DisallowAll: h.disallowAll,
	}).Build()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(content))
}

// Sitemap handles GET /sitemap.xml. When the posts cannot be loaded the
// fixed pages are still listed.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	builder := seo.NewSitemapBuilder(h.siteURL)
	builder.AddHomepage()
	builder.AddPage("/historia", seo.ChangeFreqMonthly, "0.8")
	builder.AddPage("/blog", seo.ChangeFreqDaily, "0.8")

	posts, err := h.site.AllPosts(r.Context())
	if err != nil {
		h.logger.Warn("sitemap without posts", "category", model.EventCategoryAPI, "error", err)
	}
	for _, category := range model.Categories(posts) {
		builder.AddCategory(category)
	}
	for _, p := range posts {
		builder.AddPost(seo.SitemapPost{Slug: p.Slug, UpdatedAt: postUpdated(p)})
	}

	out, err := builder.Build()
	if err != nil {
		h.logger.Error("failed to build sitemap", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(out)
}

// postUpdated returns the last change of a post, or the zero time when the
// backend sent no parsable date.
func postUpdated(p model.BlogPost) time.Time {
	for _, v := range []string{p.UpdatedAt, p.CreatedAt, p.Date} {
		if v == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339, time.DateOnly} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
