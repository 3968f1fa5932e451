// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service assembles the data of the public pages from the backend
// API, caching what it can and turning backend failures into per-section
// messages.
package service

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/cache"
	"github.com/DiogoGraciano/instituto-site/internal/i18n"
	"github.com/DiogoGraciano/instituto-site/internal/model"
)

// ErrPostNotFound is returned by Post when no post has the requested slug.
var ErrPostNotFound = errors.New("post not found")

// Cache key prefixes. Admin mutations invalidate by prefix.
const (
	PrefixActivities = "activities:"
	PrefixProjects   = "projects:"
	PrefixPartners   = "partners:"
	PrefixHistory    = "history:"
	PrefixPosts      = "posts:"
)

// RelatedPostsLimit is the number of related posts shown under an article.
const RelatedPostsLimit = 3

// Section is one independently loaded block of a page. Error holds the
// localized failure message when the block could not be loaded.
type Section[T any] struct {
	Items []T
	Error string
}

// Empty reports whether the section loaded without items.
func (s Section[T]) Empty() bool { return s.Error == "" && len(s.Items) == 0 }

// HomeData feeds the home page.
type HomeData struct {
	Activities Section[model.Activity]
	Projects   Section[model.Project]
	Partners   Section[model.Partner]
}

// HistoryData feeds the history page.
type HistoryData struct {
	History    model.History
	Paragraphs []template.HTML
	Error      string
}

// Empty reports whether there is nothing to show.
func (h HistoryData) Empty() bool {
	return h.Error == "" && len(h.Paragraphs) == 0 && len(h.History.Milestones) == 0
}

// BlogQuery selects the blog listing.
type BlogQuery struct {
	Page     int
	Category string
	Search   string
}

// BlogData feeds the blog listing.
type BlogData struct {
	Posts          []model.BlogPost
	Categories     []string
	ActiveCategory string
	Search         string
	CurrentPage    int
	TotalPages     int
	ShowPagination bool
	Error          string
}

// PostData feeds the article page.
type PostData struct {
	Post        model.BlogPost
	Body        template.HTML
	ReadingTime int
	Related     []model.BlogPost
}

// SiteOptions tunes a SiteService.
type SiteOptions struct {
	CacheTTL     time.Duration
	PostsPerPage int
	Logger       *slog.Logger
}

// SiteService loads page data from the backend through a cache.
type SiteService struct {
	api    *apiclient.API
	logger *slog.Logger

	activities *cache.TypedCache[[]model.Activity]
	projects   *cache.TypedCache[[]model.Project]
	partners   *cache.TypedCache[[]model.Partner]
	history    *cache.TypedCache[[]model.History]
	posts      *cache.TypedCache[[]model.BlogPost]
	pages      *cache.TypedCache[model.BlogPage]
	bySlug     *cache.TypedCache[model.BlogPost]

	policy   *bluemonday.Policy
	markdown goldmark.Markdown
	perPage  int
}

// NewSiteService creates a SiteService.
func NewSiteService(api *apiclient.API, c cache.Cacher, opts SiteOptions) *SiteService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PostsPerPage <= 0 {
		opts.PostsPerPage = apiclient.DefaultPostsPerPage
	}
	ttl := opts.CacheTTL
	return &SiteService{
		api:        api,
		logger:     opts.Logger,
		activities: cache.NewTypedCache[[]model.Activity](c, PrefixActivities, ttl),
		projects:   cache.NewTypedCache[[]model.Project](c, PrefixProjects, ttl),
		partners:   cache.NewTypedCache[[]model.Partner](c, PrefixPartners, ttl),
		history:    cache.NewTypedCache[[]model.History](c, PrefixHistory, ttl),
		posts:      cache.NewTypedCache[[]model.BlogPost](c, PrefixPosts+"all:", ttl),
		pages:      cache.NewTypedCache[model.BlogPage](c, PrefixPosts+"page:", ttl),
		bySlug:     cache.NewTypedCache[model.BlogPost](c, PrefixPosts+"slug:", ttl),
		policy:     bluemonday.UGCPolicy(),
		markdown:   goldmark.New(),
		perPage:    opts.PostsPerPage,
	}
}

func loadSection[T any](ctx context.Context, c *cache.TypedCache[[]T], list func(context.Context) ([]T, error), lang string) Section[T] {
	items, err := c.GetOrLoad(ctx, "list", list)
	if err != nil {
		return Section[T]{Error: apiclient.Describe(err, lang)}
	}
	return Section[T]{Items: items}
}

// Home loads the three home sections concurrently. A failing section carries
// its message and does not affect the others.
func (s *SiteService) Home(ctx context.Context, lang string) HomeData {
	var (
		data HomeData
		g    errgroup.Group
	)
	g.Go(func() error {
		data.Activities = loadSection(ctx, s.activities, s.api.Activities.List, lang)
		return nil
	})
	g.Go(func() error {
		data.Projects = loadSection(ctx, s.projects, s.api.Projects.List, lang)
		return nil
	})
	g.Go(func() error {
		data.Partners = loadSection(ctx, s.partners, s.api.Partners.List, lang)
		return nil
	})
	_ = g.Wait()
	return data
}

// History merges every history record and renders its paragraphs.
func (s *SiteService) History(ctx context.Context, lang string) HistoryData {
	records, err := s.history.GetOrLoad(ctx, "list", s.api.History.List)
	if err != nil {
		return HistoryData{Error: apiclient.Describe(err, lang)}
	}

	merged := model.MergeHistory(records)
	data := HistoryData{History: merged}
	for _, p := range merged.Content {
		if strings.TrimSpace(p) == "" {
			continue
		}
		data.Paragraphs = append(data.Paragraphs, s.renderMarkdown(p))
	}
	return data
}

// renderMarkdown converts a paragraph to sanitized HTML.
func (s *SiteService) renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src)) //nolint:gosec // escaped above
	}
	return template.HTML(s.policy.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized by bluemonday
}

// SanitizeHTML cleans backend-provided post HTML.
func (s *SiteService) SanitizeHTML(body string) template.HTML {
	return template.HTML(s.policy.Sanitize(body)) //nolint:gosec // sanitized by bluemonday
}

// Blog loads one page of the listing and applies the search and category
// filters to it. Pagination is only offered for the unfiltered listing.
func (s *SiteService) Blog(ctx context.Context, lang string, q BlogQuery) BlogData {
	if q.Page < 1 {
		q.Page = 1
	}
	q.Search = strings.TrimSpace(q.Search)
	all := apiclient.IsAllCategories(q.Category)

	data := BlogData{
		ActiveCategory: q.Category,
		Search:         q.Search,
		CurrentPage:    q.Page,
		TotalPages:     1,
	}
	if all {
		data.ActiveCategory = ""
	}

	var (
		page    model.BlogPage
		pageErr error
		every   []model.BlogPost
		g       errgroup.Group
	)
	g.Go(func() error {
		key := strconv.Itoa(q.Page) + ":" + data.ActiveCategory
		page, pageErr = s.pages.GetOrLoad(ctx, key, func(ctx context.Context) (model.BlogPage, error) {
			p, err := s.api.FetchBlogPosts(ctx, q.Page, s.perPage, data.ActiveCategory)
			if err != nil {
				return model.BlogPage{}, err
			}
			return *p, nil
		})
		return nil
	})
	g.Go(func() error {
		var err error
		every, err = s.posts.GetOrLoad(ctx, "list", s.api.FetchAllBlogPosts)
		if err != nil {
			s.logger.Debug("category list unavailable", "error", err)
		}
		return nil
	})
	_ = g.Wait()

	if pageErr != nil {
		data.Error = apiclient.Describe(pageErr, lang)
		return data
	}

	data.Categories = model.Categories(every)
	if len(data.Categories) == 0 {
		data.Categories = model.Categories(page.Posts)
	}

	for _, p := range page.Posts {
		if !all && p.Category != data.ActiveCategory {
			continue
		}
		if model.MatchesSearch(p, q.Search) {
			data.Posts = append(data.Posts, p)
		}
	}

	data.CurrentPage = max(page.CurrentPage, 1)
	data.TotalPages = max(page.TotalPages, 1)
	data.ShowPagination = all && q.Search == "" && len(data.Posts) > 0
	return data
}

// AllPosts returns every published post from the shared post list cache.
func (s *SiteService) AllPosts(ctx context.Context) ([]model.BlogPost, error) {
	return s.posts.GetOrLoad(ctx, "list", s.api.FetchAllBlogPosts)
}

// Post loads an article by slug together with its related posts. Failing to
// load related posts is logged and leaves Related empty.
func (s *SiteService) Post(ctx context.Context, slug string) (*PostData, error) {
	post, err := s.bySlug.GetOrLoad(ctx, slug, func(ctx context.Context) (model.BlogPost, error) {
		p, err := s.api.FetchBlogPostBySlug(ctx, slug)
		if err != nil {
			return model.BlogPost{}, err
		}
		if p == nil {
			return model.BlogPost{}, ErrPostNotFound
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}

	data := &PostData{
		Post:        post,
		Body:        s.SanitizeHTML(post.Content),
		ReadingTime: model.ReadingTime(post.Content),
	}

	every, err := s.posts.GetOrLoad(ctx, "list", s.api.FetchAllBlogPosts)
	if err != nil {
		s.logger.Warn("related posts unavailable", "slug", slug, "error", err)
		return data, nil
	}
	data.Related = model.RelatedPosts(post, every, RelatedPostsLimit)
	return data, nil
}

// ContactFields lists the required contact form fields with their label keys.
var ContactFields = []struct{ Name, Label string }{
	{"name", "field.name"},
	{"phone", "field.phone"},
	{"subject", "field.subject"},
	{"message", "field.message"},
}

// ValidateContact returns the localized errors of the contact form, keyed
// by field name. An empty map means the input is valid.
func ValidateContact(lang string, in model.ContactInput) map[string]string {
	values := map[string]string{
		"name":    in.Name,
		"phone":   in.Phone,
		"subject": in.Subject,
		"message": in.Message,
	}
	errs := make(map[string]string)
	for _, f := range ContactFields {
		if strings.TrimSpace(values[f.Name]) == "" {
			errs[f.Name] = i18n.T(lang, "error.field_required", i18n.T(lang, f.Label))
		}
	}
	return errs
}

// SubmitContact sends a contact message to the backend.
func (s *SiteService) SubmitContact(ctx context.Context, in model.ContactInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)

	if _, err := s.api.CreateContact(ctx, in); err != nil {
		s.logger.Warn("contact submission failed", "category", model.EventCategoryContact, "error", err)
		return err
	}
	return nil
}

// Invalidate drops the cached content behind prefix. It is called after a
// dashboard mutation.
func (s *SiteService) Invalidate(ctx context.Context, prefix string) {
	var err error
	switch prefix {
	case PrefixActivities:
		err = s.activities.Invalidate(ctx)
	case PrefixProjects:
		err = s.projects.Invalidate(ctx)
	case PrefixPartners:
		err = s.partners.Invalidate(ctx)
	case PrefixHistory:
		err = s.history.Invalidate(ctx)
	case PrefixPosts:
		err = errors.Join(s.posts.Invalidate(ctx), s.pages.Invalidate(ctx), s.bySlug.Invalidate(ctx))
	default:
		return
	}
	if err != nil {
		s.logger.Warn("cache invalidation failed", "prefix", prefix, "error", err)
	}
}

// InvalidateAll drops every cached page block.
func (s *SiteService) InvalidateAll(ctx context.Context) {
	for _, prefix := range []string{PrefixActivities, PrefixProjects, PrefixPartners, PrefixHistory, PrefixPosts} {
		s.Invalidate(ctx, prefix)
	}
}

// Warm loads the home, history and blog data into the cache.
func (s *SiteService) Warm(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { _, err := s.activities.GetOrLoad(ctx, "list", s.api.Activities.List); return err })
	g.Go(func() error { _, err := s.projects.GetOrLoad(ctx, "list", s.api.Projects.List); return err })
	g.Go(func() error { _, err := s.partners.GetOrLoad(ctx, "list", s.api.Partners.List); return err })
	g.Go(func() error { _, err := s.history.GetOrLoad(ctx, "list", s.api.History.List); return err })
	g.Go(func() error { _, err := s.posts.GetOrLoad(ctx, "list", s.api.FetchAllBlogPosts); return err })
	return g.Wait()
}
