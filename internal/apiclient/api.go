// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/DiogoGraciano/instituto-site/internal/model"
)

// Backend collection paths.
const (
	PathActivities = "/activities"
	PathProjects   = "/projects"
	PathPartners   = "/partners"
	PathHistory    = "/history"
	PathPosts      = "/posts"
	PathContacts   = "/contacts"
	PathLogin      = "/auth/login"
	PathRegister   = "/auth/register"
	PathProfile    = "/auth/profile"
)

// DefaultPostsPerPage is the page size of the public blog listing.
const DefaultPostsPerPage = 6

// API groups the resource clients and the endpoints that are not plain CRUD.
type API struct {
	client *Client
	logger *slog.Logger

	Activities *Resource[model.Activity]
	Projects   *Resource[model.Project]
	Partners   *Resource[model.Partner]
	History    *Resource[model.History]
	Posts      *Resource[model.BlogPost]
	Contacts   *Resource[model.Contact]
}

// NewAPI wires the resource clients on top of c. Entities carrying an image
// are sent as multipart forms; history and contacts are sent as JSON.
func NewAPI(c *Client) *API {
	return &API{
		client:     c,
		logger:     c.logger,
		Activities: NewResource[model.Activity](c, "activities", PathActivities, MultipartCodec{}, "error.load_activities"),
		Projects:   NewResource[model.Project](c, "projects", PathProjects, MultipartCodec{}, "error.load_projects"),
		Partners:   NewResource[model.Partner](c, "partners", PathPartners, MultipartCodec{}, "error.load_partners"),
		History:    NewResource[model.History](c, "history", PathHistory, JSONCodec{}, "error.load_history"),
		Posts:      NewResource[model.BlogPost](c, "posts", PathPosts, MultipartCodec{}, "error.load_posts"),
		Contacts:   NewResource[model.Contact](c, "contacts", PathContacts, JSONCodec{}, "error.load_contacts"),
	}
}

// Client returns the underlying HTTP client.
func (a *API) Client() *Client {
	return a.client
}

// IsAllCategories reports whether category means "no filter".
func IsAllCategories(category string) bool {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "", "todos", "all":
		return true
	}
	return false
}

type paginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// FetchBlogPosts returns one page of posts. The backend may answer with a
// {data, pagination} envelope, an already flat {posts, totalPages,
// currentPage} object, or a bare array that is paged here.
func (a *API) FetchBlogPosts(ctx context.Context, page, limit int, category string) (*model.BlogPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPostsPerPage
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	if !IsAllCategories(category) {
		query.Set("category", category)
	}

	resp, err := a.client.Do(ctx, &Request{Method: http.MethodGet, Path: PathPosts, Query: query})
	if err != nil {
		return nil, a.fail("fetch blog posts", "error.load_posts", err)
	}

	result, err := parseBlogPage(resp.Body, page, limit)
	if err != nil {
		return nil, a.fail("fetch blog posts", "error.load_posts", err)
	}
	return result, nil
}

func parseBlogPage(body []byte, page, limit int) (*model.BlogPage, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("blog listing is not valid JSON")
	}
	root := gjson.ParseBytes(body)

	switch {
	case root.IsArray():
		var all []model.BlogPost
		if err := json.Unmarshal(body, &all); err != nil {
			return nil, fmt.Errorf("decoding posts: %w", err)
		}
		return pageLocally(all, page, limit), nil

	case root.Get("data").IsArray():
		var env struct {
			Data       []model.BlogPost `json:"data"`
			Pagination paginationMeta   `json:"pagination"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decoding posts envelope: %w", err)
		}
		meta := env.Pagination
		if meta.Page < 1 {
			meta.Page = page
		}
		if meta.TotalPages < 1 {
			per := meta.Limit
			if per < 1 {
				per = limit
			}
			meta.TotalPages = totalPages(meta.Total, per)
		}
		return &model.BlogPage{Posts: env.Data, TotalPages: meta.TotalPages, CurrentPage: meta.Page}, nil

	case root.Get("posts").Exists():
		var flat model.BlogPage
		if err := json.Unmarshal(body, &flat); err != nil {
			return nil, fmt.Errorf("decoding posts page: %w", err)
		}
		if flat.CurrentPage < 1 {
			flat.CurrentPage = page
		}
		if flat.TotalPages < 1 {
			flat.TotalPages = 1
		}
		return &flat, nil
	}
	return nil, fmt.Errorf("unexpected blog listing shape")
}

func pageLocally(all []model.BlogPost, page, limit int) *model.BlogPage {
	start := (page - 1) * limit
	end := start + limit
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return &model.BlogPage{
		Posts:       all[start:end],
		TotalPages:  totalPages(len(all), limit),
		CurrentPage: page,
	}
}

func totalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// FetchAllBlogPosts lists every post, used for search and related posts.
func (a *API) FetchAllBlogPosts(ctx context.Context) ([]model.BlogPost, error) {
	return a.Posts.List(ctx)
}

// FetchBlogPostBySlug returns the post with the given slug, or nil when the
// backend answers 404.
func (a *API) FetchBlogPostBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	post, err := Get[model.BlogPost](ctx, a.client, PathPosts+"/slug/"+url.PathEscape(slug), nil)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, a.fail("fetch blog post", "error.load_post", err)
	}
	return &post, nil
}

// CreateContact submits the public contact form.
func (a *API) CreateContact(ctx context.Context, in model.ContactInput) (*model.Contact, error) {
	return a.Contacts.Create(ctx, in)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Login exchanges credentials for a bearer token.
func (a *API) Login(ctx context.Context, email, password string) (*model.AuthResult, error) {
	return a.authenticate(ctx, "login", PathLogin, "auth.login_failed", credentials{Email: email, Password: password})
}

// Register creates an account and returns its bearer token.
func (a *API) Register(ctx context.Context, email, name, password string) (*model.AuthResult, error) {
	return a.authenticate(ctx, "register", PathRegister, "auth.register_failed", credentials{Email: email, Password: password, Name: name})
}

func (a *API) authenticate(ctx context.Context, op, path, key string, creds credentials) (*model.AuthResult, error) {
	body, _, err := JSONCodec{}.Encode(creds)
	if err != nil {
		return nil, a.fail(op, key, err)
	}
	res, err := Send[model.AuthResult](ctx, a.client, &Request{Method: http.MethodPost, Path: path, Body: body})
	if err != nil {
		return nil, a.fail(op, key, err)
	}
	if res.AccessToken == "" {
		return nil, a.fail(op, key, fmt.Errorf("response carries no access token"))
	}
	return &res, nil
}

// Profile returns the user owning token.
func (a *API) Profile(ctx context.Context, token string) (*model.User, error) {
	user, err := Get[model.User](WithToken(ctx, token), a.client, PathProfile, nil)
	if err != nil {
		return nil, a.fail("profile", "auth.profile_failed", err)
	}
	return &user, nil
}

// UploadFile sends one file as the "image" part to path and returns the stored URL.
func (a *API) UploadFile(ctx context.Context, path string, file FormFile) (string, error) {
	file.Field = "image"
	form := &FormData{}
	form.AddFile(file)
	body, contentType, err := MultipartCodec{}.Encode(form)
	if err != nil {
		return "", a.fail("upload", "error.upload", err)
	}
	res, err := Send[struct {
		URL string `json:"url"`
	}](ctx, a.client, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
		Header: http.Header{"Content-Type": {contentType}},
	})
	if err != nil {
		return "", a.fail("upload", "error.upload", err)
	}
	return res.URL, nil
}

// Health is the backend root status document.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HealthCheck queries the backend root. A non-JSON answer counts as healthy.
func (a *API) HealthCheck(ctx context.Context) (*Health, error) {
	resp, err := a.client.Do(ctx, &Request{Method: http.MethodGet, Path: "/"})
	if err != nil {
		return nil, a.fail("health check", "error.health", err)
	}
	h := &Health{Status: "ok"}
	if resp.IsJSON() {
		if err := json.Unmarshal(resp.Body, h); err != nil {
			return nil, a.fail("health check", "error.health", err)
		}
	}
	return h, nil
}

func (a *API) fail(op, key string, err error) error {
	a.logger.Error("backend operation failed", "op", op, "error", err)
	return &ServiceError{Op: op, Key: key, Err: err}
}
