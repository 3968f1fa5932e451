// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package admin

import (
	"context"
	"strconv"
	"strings"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/model"
	"github.com/DiogoGraciano/instituto-site/internal/uikit"
	"github.com/DiogoGraciano/instituto-site/internal/util"
)

// Store is the backend collection behind a section.
type Store[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, payload any) (*T, error)
	Update(ctx context.Context, id string, payload any) (*T, error)
	Delete(ctx context.Context, id string) error
}

// Table is the type-erased view of a Manager used by handlers and templates.
type Table interface {
	View() View
	Header() []string
	Rows() []Row
	ConfirmOpen() bool
	RequestDelete(id string)
	CancelDelete()
	ConfirmDelete(ctx context.Context, lang string, del func(ctx context.Context, id string) error) error
}

// Section is one dashboard tab.
type Section interface {
	Key() string
	Title() string
	Singular() string
	Editable() bool
	NewForm() *Form
	Prepare(in *Input)
	Table(ctx context.Context) (Table, error)
	EditValues(ctx context.Context, id string) (map[string]Value, error)
	Create(ctx context.Context, payload any) error
	Update(ctx context.Context, id string, payload any) error
	Delete(ctx context.Context, id string) error
}

type section[T Identifiable] struct {
	key      string
	title    string
	singular string
	mode     Mode
	fields   []Field
	columns  []string
	render   func(T) []string
	values   func(T) map[string]Value
	prepare  func(in *Input)
	readOnly bool
	store    Store[T]
}

func (s *section[T]) Key() string      { return s.key }
func (s *section[T]) Title() string    { return s.title }
func (s *section[T]) Singular() string { return s.singular }
func (s *section[T]) Editable() bool   { return !s.readOnly }

func (s *section[T]) NewForm() *Form {
	return NewForm(s.singular, s.mode, s.fields)
}

func (s *section[T]) Prepare(in *Input) {
	if s.prepare != nil {
		s.prepare(in)
	}
}

func (s *section[T]) Table(ctx context.Context) (Table, error) {
	m := NewManager(s.title, s.columns, s.render)
	m.CanAdd = !s.readOnly
	m.CanEdit = !s.readOnly
	items, err := s.store.List(ctx)
	if err != nil {
		m.SetItems(nil)
		return m, err
	}
	m.SetItems(items)
	return m, nil
}

func (s *section[T]) EditValues(ctx context.Context, id string) (map[string]Value, error) {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.values(*item), nil
}

func (s *section[T]) Create(ctx context.Context, payload any) error {
	_, err := s.store.Create(ctx, payload)
	return err
}

func (s *section[T]) Update(ctx context.Context, id string, payload any) error {
	_, err := s.store.Update(ctx, id, payload)
	return err
}

func (s *section[T]) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Sections returns the dashboard tabs in display order.
func Sections(api *apiclient.API) []Section {
	return []Section{
		ActivitiesSection(api.Activities),
		ProjectsSection(api.Projects),
		PartnersSection(api.Partners),
		HistorySection(api.History),
		PostsSection(api.Posts),
		ContactsSection(api.Contacts),
	}
}

// Lookup finds the section with key.
func Lookup(sections []Section, key string) (Section, bool) {
	for _, s := range sections {
		if s.Key() == key {
			return s, true
		}
	}
	return nil, false
}

// ActivitiesSection manages activities.
func ActivitiesSection(store Store[model.Activity]) Section {
	return &section[model.Activity]{
		key:      "activities",
		title:    "resource.activities",
		singular: "resource.activity",
		mode:     ModeMultipart,
		fields: []Field{
			{Name: "title", Label: "field.title", Kind: KindText, Required: true},
			{Name: "description", Label: "field.description", Kind: KindTextarea},
			{Name: "image", Label: "field.image", Kind: KindFile, Accept: "image/*"},
		},
		columns: []string{"field.title", "field.description", "field.image"},
		render: func(a model.Activity) []string {
			return []string{a.Title, uikit.Truncate(a.Description, 60), a.Image}
		},
		values: func(a model.Activity) map[string]Value {
			return map[string]Value{
				"title":       {Text: a.Title},
				"description": {Text: a.Description},
				"image":       {Text: a.Image},
			}
		},
		store: store,
	}
}

// ProjectsSection manages projects.
func ProjectsSection(store Store[model.Project]) Section {
	return &section[model.Project]{
		key:      "projects",
		title:    "resource.projects",
		singular: "resource.project",
		mode:     ModeMultipart,
		fields: []Field{
			{Name: "title", Label: "field.title", Kind: KindText, Required: true},
			{Name: "description", Label: "field.description", Kind: KindTextarea, Required: true},
			{Name: "image", Label: "field.image", Kind: KindFile, Accept: "image/*"},
		},
		columns: []string{"field.title", "field.description", "field.image"},
		render: func(p model.Project) []string {
			return []string{p.Title, uikit.Truncate(p.Description, 60), p.Image}
		},
		values: func(p model.Project) map[string]Value {
			return map[string]Value{
				"title":       {Text: p.Title},
				"description": {Text: p.Description},
				"image":       {Text: p.Image},
			}
		},
		store: store,
	}
}

// PartnersSection manages partners.
func PartnersSection(store Store[model.Partner]) Section {
	return &section[model.Partner]{
		key:      "partners",
		title:    "resource.partners",
		singular: "resource.partner",
		mode:     ModeMultipart,
		fields: []Field{
			{Name: "name", Label: "field.name", Kind: KindText, Required: true},
			{Name: "description", Label: "field.description", Kind: KindTextarea},
			{Name: "logo", Label: "field.logo", Kind: KindFile, Accept: "image/*"},
		},
		columns: []string{"field.name", "field.description", "field.logo"},
		render: func(p model.Partner) []string {
			return []string{p.Name, uikit.Truncate(p.Description, 60), p.Logo}
		},
		values: func(p model.Partner) map[string]Value {
			return map[string]Value{
				"name":        {Text: p.Name},
				"description": {Text: p.Description},
				"logo":        {Text: p.Logo},
			}
		},
		store: store,
	}
}

// HistorySection manages history records. They carry no image and are sent as JSON.
func HistorySection(store Store[model.History]) Section {
	return &section[model.History]{
		key:      "history",
		title:    "resource.history",
		singular: "resource.history_item",
		mode:     ModeJSON,
		fields: []Field{
			{Name: "title", Label: "field.title", Kind: KindText, Required: true},
			{Name: "foundationYear", Label: "field.foundation_year", Kind: KindText, Placeholder: "1998"},
			{Name: "content", Label: "field.content", Kind: KindArray, Required: true},
			{Name: "milestones", Label: "field.milestones", Kind: KindMilestones},
		},
		columns: []string{"field.title", "field.foundation_year", "field.milestones"},
		render: func(h model.History) []string {
			return []string{h.Title, h.FoundationYear, strconv.Itoa(len(h.Milestones))}
		},
		values: func(h model.History) map[string]Value {
			return map[string]Value{
				"title":          {Text: h.Title},
				"foundationYear": {Text: h.FoundationYear},
				"content":        {List: h.Content},
				"milestones":     {Milestones: h.Milestones},
			}
		},
		store: store,
	}
}

// PostsSection manages blog posts. An empty slug is derived from the title.
func PostsSection(store Store[model.BlogPost]) Section {
	return &section[model.BlogPost]{
		key:      "posts",
		title:    "resource.posts",
		singular: "resource.post",
		mode:     ModeMultipart,
		fields: []Field{
			{Name: "title", Label: "field.title", Kind: KindText, Required: true},
			{Name: "slug", Label: "field.slug", Kind: KindText, Placeholder: "minha-noticia"},
			{Name: "excerpt", Label: "field.excerpt", Kind: KindTextarea, Required: true},
			{Name: "content", Label: "field.post_content", Kind: KindTextarea, Required: true},
			{Name: "image", Label: "field.image", Kind: KindFile, Accept: "image/*"},
			{Name: "author", Label: "field.author", Kind: KindText, Required: true},
			{Name: "authorImage", Label: "field.author_image", Kind: KindText},
			{Name: "date", Label: "field.date", Kind: KindDate, Required: true},
			{Name: "category", Label: "field.category", Kind: KindText, Required: true},
			{Name: "tags", Label: "field.tags", Kind: KindArray},
		},
		columns: []string{"field.title", "field.category", "field.author", "field.date"},
		render: func(p model.BlogPost) []string {
			return []string{p.Title, p.Category, p.Author, dateOnly(p.Date)}
		},
		values: func(p model.BlogPost) map[string]Value {
			return map[string]Value{
				"title":       {Text: p.Title},
				"slug":        {Text: p.Slug},
				"excerpt":     {Text: p.Excerpt},
				"content":     {Text: p.Content},
				"image":       {Text: p.Image},
				"author":      {Text: p.Author},
				"authorImage": {Text: p.AuthorImage},
				"date":        {Text: dateOnly(p.Date)},
				"category":    {Text: p.Category},
				"tags":        {List: p.Tags},
			}
		},
		prepare: func(in *Input) {
			if in.Values == nil {
				in.Values = make(map[string][]string)
			}
			slug := strings.TrimSpace(in.Values.Get("slug"))
			switch {
			case slug == "":
				in.Values.Set("slug", util.Slugify(in.Values.Get("title")))
			case !util.IsValidSlug(slug):
				in.Values.Set("slug", util.Slugify(slug))
			}
		},
		store: store,
	}
}

// ContactsSection lists visitor messages. Contacts are created from the
// public site only, so the dashboard can read and delete them.
func ContactsSection(store Store[model.Contact]) Section {
	return &section[model.Contact]{
		key:      "contacts",
		title:    "resource.contacts",
		singular: "resource.contact",
		mode:     ModeJSON,
		columns:  []string{"field.name", "field.phone", "field.subject", "field.message", "field.created_at"},
		render: func(c model.Contact) []string {
			return []string{c.Name, c.Phone, c.Subject, uikit.Truncate(c.Message, 80), dateOnly(c.CreatedAt)}
		},
		values: func(model.Contact) map[string]Value {
			return map[string]Value{}
		},
		readOnly: true,
		store:    store,
	}
}

func dateOnly(s string) string {
	if t, ok := uikit.ParseDate(s); ok {
		return t.Format("2006-01-02")
	}
	return s
}
