// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DiogoGraciano/instituto-site/internal/admin"
	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/auth"
	"github.com/DiogoGraciano/instituto-site/internal/i18n"
	"github.com/DiogoGraciano/instituto-site/internal/imaging"
	"github.com/DiogoGraciano/instituto-site/internal/middleware"
	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/render"
	"github.com/DiogoGraciano/instituto-site/internal/service"
	"github.com/DiogoGraciano/instituto-site/internal/uikit"
)

// sectionPrefixes maps a dashboard section to the site cache it feeds.
var sectionPrefixes = map[string]string{
	"activities": service.PrefixActivities,
	"projects":   service.PrefixProjects,
	"partners":   service.PrefixPartners,
	"history":    service.PrefixHistory,
	"posts":      service.PrefixPosts,
}

// ProfileFetcher returns the user owning a bearer token.
type ProfileFetcher interface {
	Profile(ctx context.Context, token string) (*model.User, error)
}

// AdminNav is the sidebar state shared by every dashboard page.
type AdminNav struct {
	Sections []admin.Section
	Active   string
}

// SectionPage holds data for one dashboard section.
type SectionPage struct {
	Nav           AdminNav
	Section       admin.Section
	Table         admin.Table
	LoadError     string
	Form          *admin.Form
	PendingDelete string
	DeleteError   string
}

// AdminHandler serves the CRUD dashboard.
type AdminHandler struct {
	profiles     ProfileFetcher
	sections     []admin.Section
	site         *service.SiteService
	tokens       *auth.SessionStore
	renderer     *render.Renderer
	eventService *service.EventService
	images       *imaging.Processor
	maxUpload    int64
	logger       *slog.Logger
}

// AdminConfig holds the dependencies of an AdminHandler.
type AdminConfig struct {
	Profiles     ProfileFetcher
	Sections     []admin.Section
	Site         *service.SiteService
	Tokens       *auth.SessionStore
	Renderer     *render.Renderer
	EventService *service.EventService
	Images       *imaging.Processor
	// MaxUpload bounds the request body of a form submission.
	MaxUpload int64
	Logger    *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = 10 << 20
	}
	return &AdminHandler{
		profiles:     cfg.Profiles,
		sections:     cfg.Sections,
		site:         cfg.Site,
		tokens:       cfg.Tokens,
		renderer:     cfg.Renderer,
		eventService: cfg.EventService,
		images:       cfg.Images,
		maxUpload:    cfg.MaxUpload,
		logger:       cfg.Logger,
	}
}

// Nav returns the sidebar with active highlighted.
func (h *AdminHandler) Nav(active string) AdminNav {
	return AdminNav{Sections: h.sections, Active: active}
}

// RequireProfile confirms the stored token with the backend on every page
// load. When the profile cannot be fetched the token is dropped and the
// visitor is sent to the login page. Form posts are not checked.
func (h *AdminHandler) RequireProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		lang := middleware.GetLanguage(r)

		user, err := h.profiles.Profile(ctx, middleware.GetToken(r))
		if err != nil {
			h.logger.Warn("profile check failed", "category", model.EventCategoryAuth, "error", err)
			if clearErr := h.tokens.ClearToken(ctx); clearErr != nil {
				h.logger.Error("failed to clear token", "error", clearErr)
			}
			_ = h.eventService.LogAuthEvent(ctx, model.EventLevelWarning, "Session rejected by backend",
				map[string]any{"ip": middleware.ClientIP(r)})
			flashError(w, r, h.renderer, redirectLogin, apiclient.Describe(err, lang))
			return
		}

		h.tokens.SetUser(ctx, *user)
		ctx = context.WithValue(ctx, middleware.ContextKeyUser, *user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Dashboard handles GET /admin by opening the first section.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if len(h.sections) == 0 {
		h.renderer.RenderError(w, r, http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/admin/"+h.sections[0].Key(), http.StatusSeeOther)
}

func (h *AdminHandler) section(w http.ResponseWriter, r *http.Request) (admin.Section, bool) {
	s, ok := admin.Lookup(h.sections, chi.URLParam(r, "section"))
	if !ok {
		h.renderer.RenderError(w, r, http.StatusNotFound)
	}
	return s, ok
}

// loadPage loads the table of s into a fresh page.
func (h *AdminHandler) loadPage(ctx context.Context, lang string, s admin.Section) SectionPage {
	page := SectionPage{Nav: h.Nav(s.Key()), Section: s}
	table, err := s.Table(ctx)
	page.Table = table
	if err != nil {
		page.LoadError = apiclient.Describe(err, lang)
	}
	return page
}

func (h *AdminHandler) renderSection(w http.ResponseWriter, r *http.Request, status int, page SectionPage) {
	lang := middleware.GetLanguage(r)
	renderPage(w, r, h.renderer, status, "admin/section", render.TemplateData{
		Title: i18n.T(lang, page.Section.Title()),
		Data:  page,
		Breadcrumbs: uikit.Trail(page.Section.Title(),
			uikit.Breadcrumb{Label: "nav.dashboard", URL: redirectAdmin}),
	})
}

// Section handles GET /admin/{section}. The query opens the dialogs:
// ?new opens an empty form, ?edit={id} a populated one and ?delete={id}
// the delete confirmation.
func (h *AdminHandler) Section(w http.ResponseWriter, r *http.Request) {
	s, ok := h.section(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	lang := middleware.GetLanguage(r)
	query := r.URL.Query()
	page := h.loadPage(ctx, lang, s)

	switch {
	case query.Has("new") && s.Editable():
		page.Form = s.NewForm()
		page.Form.OpenNew()

	case query.Get("edit") != "" && s.Editable():
		id := query.Get("edit")
		values, err := s.EditValues(ctx, id)
		if err != nil {
			h.logger.Warn("failed to load record", "section", s.Key(), "id", id, "error", err)
			page.LoadError = apiclient.Describe(err, lang)
			break
		}
		page.Form = s.NewForm()
		page.Form.OpenEdit(id, values)

	case query.Get("delete") != "":
		page.PendingDelete = query.Get("delete")
		page.Table.RequestDelete(page.PendingDelete)
	}

	h.renderSection(w, r, http.StatusOK, page)
}

// Save handles POST /admin/{section} and POST /admin/{section}/{id}.
// Row add/remove buttons post an "action" and re-render the open form
// without submitting it.
func (h *AdminHandler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := h.section(w, r)
	if !ok {
		return
	}
	if !s.Editable() {
		h.renderer.RenderError(w, r, http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	lang := middleware.GetLanguage(r)
	id := chi.URLParam(r, "id")
	sectionURL := "/admin/" + s.Key()

	form := s.NewForm()
	if id == "" {
		form.OpenNew()
	} else {
		form.OpenEdit(id, nil)
	}

	in, err := h.readInput(w, r, form)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			form.Load(in)
			form.Banner = i18n.T(lang, "error.invalid_image")
			page := h.loadPage(ctx, lang, s)
			page.Form = form
			h.renderSection(w, r, http.StatusUnprocessableEntity, page)
			return
		}
		h.logger.Warn("failed to read form", "section", s.Key(), "error", err)
		flashError(w, r, h.renderer, sectionURL, i18n.T(lang, "error.invalid_form"))
		return
	}

	if action := in.Values.Get("action"); action != "" {
		form.Load(in)
		form.Apply(action)
		page := h.loadPage(ctx, lang, s)
		page.Form = form
		h.renderSection(w, r, http.StatusOK, page)
		return
	}

	s.Prepare(&in)
	err = form.Submit(ctx, lang, in, func(ctx context.Context, payload any) error {
		if id == "" {
			return s.Create(ctx, payload)
		}
		return s.Update(ctx, id, payload)
	})
	if err != nil {
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, admin.ErrInvalid) {
			status = http.StatusBadGateway
			h.logger.Warn("failed to save record", "section", s.Key(), "id", id, "error", err)
		}
		page := h.loadPage(ctx, lang, s)
		page.Form = form
		h.renderSection(w, r, status, page)
		return
	}

	msgKey, message := "msg.created", "Created "+s.Key()+" record"
	if id != "" {
		msgKey, message = "msg.updated", "Updated "+s.Key()+" record"
	}
	h.afterMutation(r, s, message, id)
	flashSuccess(w, r, h.renderer, sectionURL, i18n.T(lang, msgKey, i18n.T(lang, s.Singular())))
}

// Delete handles POST /admin/{section}/{id}/delete. A failure keeps the
// confirmation open with the error.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.section(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	lang := middleware.GetLanguage(r)
	id := chi.URLParam(r, "id")

	page := h.loadPage(ctx, lang, s)
	page.Table.RequestDelete(id)
	if err := page.Table.ConfirmDelete(ctx, lang, s.Delete); err != nil {
		h.logger.Warn("failed to delete record", "section", s.Key(), "id", id, "error", err)
		page.PendingDelete = id
		page.DeleteError = apiclient.Describe(err, lang)
		h.renderSection(w, r, http.StatusBadGateway, page)
		return
	}

	h.afterMutation(r, s, "Deleted "+s.Key()+" record", id)
	flashSuccess(w, r, h.renderer, "/admin/"+s.Key(), i18n.T(lang, "msg.deleted", i18n.T(lang, s.Singular())))
}

// afterMutation drops the cached public content fed by s and records the change.
func (h *AdminHandler) afterMutation(r *http.Request, s admin.Section, message, id string) {
	if prefix, ok := sectionPrefixes[s.Key()]; ok {
		h.site.Invalidate(r.Context(), prefix)
	}
	meta := h.actor(r)
	meta["section"] = s.Key()
	if id != "" {
		meta["id"] = id
	}
	_ = h.eventService.LogAdminEvent(r.Context(), message, meta)
}

func (h *AdminHandler) actor(r *http.Request) map[string]any {
	meta := map[string]any{}
	if user := middleware.GetUser(r); user != nil && user.Email != "" {
		meta["user"] = user.Email
	}
	return meta
}

// readInput parses the submission of form. Uploaded images are normalized
// before they are handed to the form.
func (h *AdminHandler) readInput(w http.ResponseWriter, r *http.Request, form *admin.Form) (admin.Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(maxFormMemoryBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return admin.Input{}, fmt.Errorf("parsing multipart form: %w", err)
		}
		if err := r.ParseForm(); err != nil {
			return admin.Input{}, fmt.Errorf("parsing form: %w", err)
		}
	}

	in := admin.Input{Values: r.PostForm, Files: map[string]apiclient.FormFile{}}
	for _, field := range form.Fields {
		if !field.IsFile() {
			continue
		}
		file, err := h.readFile(r, field.Name)
		if err != nil {
			return in, err
		}
		if file != nil {
			in.Files[field.Name] = *file
		}
	}
	return in, nil
}

// readFile returns the normalized upload of one file field, or nil when
// nothing was chosen or the form was not multipart.
func (h *AdminHandler) readFile(r *http.Request, name string) (*apiclient.FormFile, error) {
	f, header, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	if h.images == nil {
		return &apiclient.FormFile{
			Field:       name,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}, nil
	}

	res, err := h.images.Normalize(bytes.NewReader(data))
	if err != nil {
		h.logger.Warn("rejected upload", "field", name, "filename", header.Filename, "error", err)
		return nil, imaging.ErrUnsupportedFormat
	}
	if res.Resized {
		h.logger.Debug("downscaled upload", "field", name, "width", res.Width, "height", res.Height)
	}
	return &apiclient.FormFile{
		Field:       name,
		Filename:    res.Filename,
		ContentType: res.ContentType,
		Data:        res.Data,
	}, nil
}
