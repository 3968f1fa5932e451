// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the HTML templates of the site and renders pages
// with the request-scoped data every layout needs.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/DiogoGraciano/instituto-site/internal/i18n"
	"github.com/DiogoGraciano/instituto-site/internal/middleware"
	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/session"
	"github.com/DiogoGraciano/instituto-site/internal/uikit"
)

// groups maps a template directory to the layout its pages are wrapped in.
var groups = []struct {
	dir    string
	layout string
}{
	{dir: "pages", layout: "layouts/site.html"},
	{dir: "auth", layout: "layouts/auth.html"},
	{dir: "admin", layout: "layouts/admin.html"},
}

const baseLayout = "layouts/base.html"

// Renderer handles template rendering with caching.
type Renderer struct {
	mu          sync.RWMutex
	templates   map[string]*template.Template
	templatesFS fs.FS
	sm          *scs.SessionManager
	isDev       bool
	logger      *slog.Logger
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS    fs.FS
	SessionManager *scs.SessionManager
	// IsDev re-parses the templates on every render.
	IsDev  bool
	Logger *slog.Logger
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := &Renderer{
		templatesFS: cfg.TemplatesFS,
		sm:          cfg.SessionManager,
		isDev:       cfg.IsDev,
		logger:      cfg.Logger,
	}

	templates, err := parseTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, err
	}
	r.templates = templates
	return r, nil
}

// parseTemplates parses every page of every group together with the base
// layout, the group layout and the shared partials.
func parseTemplates(templatesFS fs.FS) (map[string]*template.Template, error) {
	partials, err := templateFiles(templatesFS, "partials")
	if err != nil {
		return nil, fmt.Errorf("getting partials: %w", err)
	}

	out := make(map[string]*template.Template)
	for _, g := range groups {
		pages, err := templateFiles(templatesFS, g.dir)
		if err != nil {
			return nil, fmt.Errorf("getting %s templates: %w", g.dir, err)
		}
		for _, page := range pages {
			name := g.dir + "/" + strings.TrimSuffix(path.Base(page), ".html")

			files := []string{baseLayout, g.layout}
			files = append(files, partials...)
			files = append(files, page)

			tmpl, err := parseSet(templatesFS, files)
			if err != nil {
				return nil, fmt.Errorf("parsing template %s: %w", name, err)
			}
			out[name] = tmpl
		}
	}
	return out, nil
}

// parseSet parses files into one template set. renderField executes a
// partial of the same set chosen at run time, which lets a form loop over
// its fields and dispatch on each field's partial name.
func parseSet(templatesFS fs.FS, files []string) (*template.Template, error) {
	var tmpl *template.Template

	funcs := templateFuncs()
	funcs["renderField"] = func(name string, data any) (template.HTML, error) {
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
			return "", err
		}
		return template.HTML(buf.String()), nil //nolint:gosec // output of html/template is already escaped
	}

	tmpl = template.New("").Funcs(funcs)
	return tmpl.ParseFS(templatesFS, files...)
}

// templateFiles returns all .html files in a directory.
func templateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		// Directory might not exist yet, that's ok
		return nil, nil
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// templateFuncs returns the helpers shared by every template set.
func templateFuncs() template.FuncMap {
	funcs := uikit.TemplateFuncs()
	funcs["T"] = i18n.T
	funcs["otherLang"] = func(lang string) string {
		if lang == "en" {
			return "pt"
		}
		return "en"
	}
	funcs["fieldID"] = func(name string) string {
		return "field-" + strings.NewReplacer(".", "-", "[", "", "]", "").Replace(name)
	}
	return funcs
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Lang        string
	Data        any
	Flash       string
	FlashType   string
	CurrentYear int
	CurrentPath string
	User        *model.User
	Breadcrumbs []uikit.Breadcrumb
}

// Has reports whether the named template exists.
func (r *Renderer) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[name]
	return ok
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	if r.isDev {
		templates, err := parseTemplates(r.templatesFS)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.templates = templates
		r.mu.Unlock()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %s not found", name)
	}
	return tmpl, nil
}

// Render renders a template with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status code. The flash
// message is popped from the session and the language and signed-in user
// are taken from the request context.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, err := r.lookup(name)
	if err != nil {
		return err
	}

	data.CurrentYear = time.Now().Year()
	data.CurrentPath = req.URL.Path
	if data.Lang == "" {
		data.Lang = middleware.GetLanguage(req)
	}
	if data.User == nil {
		data.User = middleware.GetUser(req)
	}
	if r.sm != nil && data.Flash == "" {
		data.Flash, data.FlashType = session.PopFlash(req.Context(), r.sm)
	}

	// Render to buffer first to catch errors
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

// ErrorPage is the data of pages/error.
type ErrorPage struct {
	Status  int
	Message string
}

// RenderError renders the error page for status, falling back to plain
// text when the page itself cannot be rendered.
func (r *Renderer) RenderError(w http.ResponseWriter, req *http.Request, status int) {
	lang := middleware.GetLanguage(req)
	key := "page.error"
	if status == http.StatusNotFound {
		key = "page.not_found"
	}
	msg := i18n.T(lang, key)

	err := r.RenderStatus(w, req, status, "pages/error", TemplateData{
		Title: msg,
		Lang:  lang,
		Data:  ErrorPage{Status: status, Message: msg},
	})
	if err != nil {
		r.logger.Error("failed to render error page", "status", status, "error", err)
		http.Error(w, msg, status)
	}
}

// Flash stores a flash message for the next rendered page.
func (r *Renderer) Flash(req *http.Request, kind, message string) {
	if r.sm != nil {
		session.Flash(req.Context(), r.sm, kind, message)
	}
}
