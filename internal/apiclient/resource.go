// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// Resource is a typed CRUD client for one backend collection.
// Mutations carry the bearer token found in the request context.
type Resource[T any] struct {
	client  *Client
	name    string
	path    string
	codec   Codec
	loadKey string
	logger  *slog.Logger
}

// NewResource creates a resource client for the collection at path.
// loadKey is the i18n key reported when a read fails.
func NewResource[T any](c *Client, name, path string, codec Codec, loadKey string) *Resource[T] {
	return &Resource[T]{
		client:  c,
		name:    name,
		path:    path,
		codec:   codec,
		loadKey: loadKey,
		logger:  c.logger,
	}
}

// Name returns the resource name used in logs.
func (r *Resource[T]) Name() string {
	return r.name
}

// Codec returns the payload codec used by Create and Update.
func (r *Resource[T]) Codec() Codec {
	return r.codec
}

// List fetches the whole collection. Both a bare array and a {data: [...]}
// envelope are accepted.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	resp, err := r.client.Do(ctx, &Request{Method: http.MethodGet, Path: r.path})
	if err != nil {
		return nil, r.fail("list", r.loadKey, err)
	}
	items, err := decodeList[T](resp.Body)
	if err != nil {
		return nil, r.fail("list", r.loadKey, err)
	}
	return items, nil
}

// Get fetches one record by id.
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	item, err := Get[T](ctx, r.client, r.itemPath(id), nil)
	if err != nil {
		return nil, r.fail("get", r.loadKey, err)
	}
	return &item, nil
}

// Create posts a new record.
func (r *Resource[T]) Create(ctx context.Context, payload any) (*T, error) {
	return r.mutate(ctx, "create", http.MethodPost, r.path, payload)
}

// Update patches the record with the given id.
func (r *Resource[T]) Update(ctx context.Context, id string, payload any) (*T, error) {
	return r.mutate(ctx, "update", http.MethodPatch, r.itemPath(id), payload)
}

// Delete removes the record with the given id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Do(ctx, &Request{Method: http.MethodDelete, Path: r.itemPath(id)}); err != nil {
		return r.fail("delete", "error.delete", err)
	}
	return nil
}

func (r *Resource[T]) mutate(ctx context.Context, op, method, path string, payload any) (*T, error) {
	body, contentType, err := r.codec.Encode(payload)
	if err != nil {
		return nil, r.fail(op, "error.save", err)
	}

	item, err := Send[T](ctx, r.client, &Request{
		Method: method,
		Path:   path,
		Body:   body,
		Header: http.Header{"Content-Type": {contentType}},
	})
	if err != nil {
		return nil, r.fail(op, "error.save", err)
	}
	return &item, nil
}

func (r *Resource[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func (r *Resource[T]) fail(op, key string, err error) error {
	r.logger.Error("backend operation failed",
		"resource", r.name,
		"op", op,
		"error", err)
	return &ServiceError{Op: op + " " + r.name, Key: key, Err: err}
}

// decodeList accepts either a JSON array or an object whose data field is an array.
func decodeList[T any](body []byte) ([]T, error) {
	raw := body
	if gjson.ValidBytes(body) {
		if data := gjson.GetBytes(body, "data"); data.IsArray() {
			raw = []byte(data.Raw)
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding list: %w", err)
	}
	return items, nil
}
