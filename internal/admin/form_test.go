// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiogoGraciano/instituto-site/internal/apiclient"
	"github.com/DiogoGraciano/instituto-site/internal/model"
)

func postFields() []Field {
	return []Field{
		{Name: "title", Label: "field.title", Kind: KindText, Required: true},
		{Name: "excerpt", Label: "field.excerpt", Kind: KindTextarea},
		{Name: "image", Label: "field.image", Kind: KindFile, Required: true},
		{Name: "tags", Label: "field.tags", Kind: KindArray},
	}
}

func TestForm_RequiredFieldBlocksSubmit(t *testing.T) {
	f := NewForm("resource.post", ModeMultipart, postFields())
	f.OpenNew()

	called := false
	err := f.Submit(context.Background(), "pt", Input{Values: url.Values{"title": {"  "}}},
		func(context.Context, any) error {
			called = true
			return nil
		})

	assert.ErrorIs(t, err, ErrInvalid)
	assert.False(t, called, "submitter must not be called")
	assert.Equal(t, "Título é obrigatório", f.Errors["title"])
	_, fileErr := f.Errors["image"]
	assert.False(t, fileErr, "file fields are exempt from the required check")
	assert.True(t, f.Open)
}

func TestForm_RequiredMessageIsLocalized(t *testing.T) {
	f := NewForm("resource.post", ModeMultipart, postFields())
	_ = f.Submit(context.Background(), "en", Input{}, func(context.Context, any) error { return nil })
	assert.Equal(t, "Title is required", f.Errors["title"])
}

func TestForm_MultipartPayload(t *testing.T) {
	f := NewForm("resource.post", ModeMultipart, postFields())
	f.OpenNew()

	var got *apiclient.FormData
	in := Input{
		Values: url.Values{
			"title":   {"Festa"},
			"excerpt": {"Resumo"},
			"tags":    {"eventos", "  ", " comunidade "},
		},
		Files: map[string]apiclient.FormFile{"image": {Filename: "f.png", ContentType: "image/png", Data: []byte("png")}},
	}
	err := f.Submit(context.Background(), "pt", in, func(_ context.Context, payload any) error {
		got = payload.(*apiclient.FormData)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Festa"}, got.Values("title"))
	assert.Equal(t, []string{"eventos", "comunidade"}, got.Values("tags[]"))
	require.Len(t, got.Files, 1)
	assert.Equal(t, "image", got.Files[0].Field)

	assert.False(t, f.Open, "successful submit closes the form")
	assert.Empty(t, f.Values)
	assert.Empty(t, f.Errors)
}

func TestForm_JSONPayload(t *testing.T) {
	fields := []Field{
		{Name: "title", Label: "field.title", Kind: KindText, Required: true},
		{Name: "content", Label: "field.content", Kind: KindArray},
		{Name: "milestones", Label: "field.milestones", Kind: KindMilestones},
		{Name: "image", Label: "field.image", Kind: KindFile},
	}
	f := NewForm("resource.history_item", ModeJSON, fields)

	var payload map[string]any
	in := Input{Values: url.Values{
		"title":            {"Nossa história"},
		"content":          {"Primeiro", ""},
		"milestones.year":  {"1998", ""},
		"milestones.event": {"Fundação", ""},
	}}
	err := f.Submit(context.Background(), "pt", in, func(_ context.Context, p any) error {
		payload = p.(map[string]any)
		return nil
	})
	require.NoError(t, err)

	b, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": "Nossa história",
		"content": ["Primeiro"],
		"milestones": [{"year": "1998", "event": "Fundação"}]
	}`, string(b))
}

func TestForm_FailedSubmitKeepsValues(t *testing.T) {
	f := NewForm("resource.post", ModeMultipart, postFields())
	f.OpenEdit("p1", map[string]Value{"title": {Text: "Antigo"}})

	backendErr := &apiclient.HTTPError{
		Status:     http.StatusConflict,
		StatusText: "Conflict",
		Body:       []byte(`{"message":"slug já existe"}`),
	}
	err := f.Submit(context.Background(), "pt", Input{Values: url.Values{"title": {"Novo"}}},
		func(context.Context, any) error { return backendErr })

	require.Error(t, err)
	assert.True(t, f.Open)
	assert.Equal(t, "p1", f.EditID)
	assert.Equal(t, "slug já existe", f.Banner)
	assert.Equal(t, "Novo", f.Value("title").Text)

	f.DismissBanner()
	assert.Empty(t, f.Banner)
}

func TestForm_FailedSubmitWithoutBody(t *testing.T) {
	f := NewForm("resource.post", ModeMultipart, postFields())
	err := f.Submit(context.Background(), "pt", Input{Values: url.Values{"title": {"x"}}},
		func(context.Context, any) error { return errors.New("boom") })

	require.Error(t, err)
	assert.Equal(t, "boom", f.Banner)
}

func TestForm_Apply(t *testing.T) {
	fields := []Field{
		{Name: "tags", Kind: KindArray},
		{Name: "milestones", Kind: KindMilestones},
		{Name: "title", Kind: KindText},
	}
	f := NewForm("x", ModeJSON, fields)
	f.Load(Input{Values: url.Values{"tags": {"a", "b", "c"}}})

	assert.True(t, f.Apply("add:tags"))
	assert.Equal(t, []string{"a", "b", "c", ""}, f.Value("tags").List)

	assert.True(t, f.Apply("remove:tags:1"))
	assert.Equal(t, []string{"a", "c", ""}, f.Value("tags").List)

	assert.True(t, f.Apply("add:milestones"))
	assert.Equal(t, []model.Milestone{{}}, f.Value("milestones").Milestones)

	assert.False(t, f.Apply("remove:tags:9"))
	assert.False(t, f.Apply("add:title"))
	assert.False(t, f.Apply("add:unknown"))
	assert.False(t, f.Apply("bogus"))
}
