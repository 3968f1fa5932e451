// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/i18n"
	"github.com/DiogoGraciano/instituto-site/internal/middleware"
	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/render"
	"github.com/DiogoGraciano/instituto-site/internal/service"
	"github.com/DiogoGraciano/instituto-site/internal/session"
	"github.com/DiogoGraciano/instituto-site/internal/uikit"
)

// Blog listing query parameters.
const (
	queryCategory = "categoria"
	querySearch   = "q"
)

// Donation holds the details shown in the donation section.
type Donation struct {
	PixKey  string
	Bank    string
	Agency  string
	Account string
	Holder  string
}

// Enabled reports whether there is anything to show.
func (d Donation) Enabled() bool {
	return d.PixKey != "" || d.Account != ""
}

// FrontendHandler serves the public pages.
type FrontendHandler struct {
	site     *service.SiteService
	events   *service.EventService
	renderer *render.Renderer
	donation Donation
	logger   *slog.Logger
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(site *service.SiteService, events *service.EventService, renderer *render.Renderer, donation Donation, logger *slog.Logger) *FrontendHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrontendHandler{
		site:     site,
		events:   events,
		renderer: renderer,
		donation: donation,
		logger:   logger,
	}
}

// ContactForm is the state of the contact form.
type ContactForm struct {
	Values model.ContactInput
	Errors map[string]string
}

// HomePage holds data for the home page.
type HomePage struct {
	Home         service.HomeData
	Donation     Donation
	ShowDonation bool
	Contact      ContactForm
}

// BlogPage holds data for the blog listing.
type BlogPage struct {
	Blog       service.BlogData
	Pagination uikit.Pagination
}

// Home handles GET /.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.renderHome(w, r, http.StatusOK, ContactForm{}, "")
}

func (h *FrontendHandler) renderHome(w http.ResponseWriter, r *http.Request, status int, contact ContactForm, flash string) {
	lang := middleware.GetLanguage(r)
	data := render.TemplateData{
		Data: HomePage{
			Home:         h.site.Home(r.Context(), lang),
			Donation:     h.donation,
			ShowDonation: h.donation.Enabled(),
			Contact:      contact,
		},
	}
	if flash != "" {
		data.Flash = flash
		data.FlashType = session.FlashError
	}
	renderPage(w, r, h.renderer, status, "pages/home", data)
}

// History handles GET /historia.
func (h *FrontendHandler) History(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)
	renderPage(w, r, h.renderer, http.StatusOK, "pages/history", render.TemplateData{
		Title: i18n.T(lang, "history.title"),
		Data:  h.site.History(r.Context(), lang),
	})
}

// Blog handles GET /blog.
func (h *FrontendHandler) Blog(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)
	query := r.URL.Query()

	data := h.site.Blog(r.Context(), lang, service.BlogQuery{
		Page:     uikit.ParsePageParam(r),
		Category: query.Get(queryCategory),
		Search:   query.Get(querySearch),
	})

	renderPage(w, r, h.renderer, http.StatusOK, "pages/blog", render.TemplateData{
		Title: i18n.T(lang, "blog.title"),
		Data: BlogPage{
			Blog:       data,
			Pagination: uikit.BuildPagination(data.CurrentPage, data.TotalPages, "/blog", query),
		},
	})
}

// Post handles GET /blog/{slug}.
func (h *FrontendHandler) Post(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)
	slug := chi.URLParam(r, "slug")

	data, err := h.site.Post(r.Context(), slug)
	if errors.Is(err, service.ErrPostNotFound) {
		h.renderer.RenderError(w, r, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Warn("failed to load post", "slug", slug, "error", err)
		renderPage(w, r, h.renderer, http.StatusBadGateway, "pages/error", render.TemplateData{
			Title: i18n.T(lang, "page.error"),
			Data:  render.ErrorPage{Status: http.StatusBadGateway, Message: apiclient.Describe(err, lang)},
		})
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "pages/post", render.TemplateData{
		Title: data.Post.Title,
		Data:  data,
	})
}

// Contact handles POST /contato. Invalid input re-renders the home page
// with the field errors; a backend failure re-renders it with the message.
func (h *FrontendHandler) Contact(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, contactAnchor) {
		return
	}
	lang := middleware.GetLanguage(r)

	in := model.ContactInput{
		Name:    r.FormValue("name"),
		Phone:   r.FormValue("phone"),
		Subject: r.FormValue("subject"),
		Message: r.FormValue("message"),
	}

	if errs := service.ValidateContact(lang, in); len(errs) > 0 {
		h.renderHome(w, r, http.StatusUnprocessableEntity, ContactForm{Values: in, Errors: errs}, "")
		return
	}

	if err := h.site.SubmitContact(r.Context(), in); err != nil {
		_ = h.events.LogEvent(r.Context(), model.EventLevelWarning, model.EventCategoryContact,
			"Contact submission failed", map[string]any{"error": err.Error()})
		h.renderHome(w, r, http.StatusBadGateway, ContactForm{Values: in}, apiclient.Describe(err, lang))
		return
	}

	_ = h.events.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategoryContact,
		"Contact message received", map[string]any{"subject": in.Subject, "ip": middleware.ClientIP(r)})
	flashSuccess(w, r, h.renderer, contactAnchor, i18n.T(lang, "contact.sent"))
}

// NotFound renders the 404 page.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderError(w, r, http.StatusNotFound)
}
