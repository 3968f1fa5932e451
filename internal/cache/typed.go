// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// TypedCache stores values of T as JSON in a Cacher. Concurrent misses on
// the same key share one load.
type TypedCache[T any] struct {
	cache      Cacher
	prefix     string
	defaultTTL time.Duration
	group      singleflight.Group
}

// NewTypedCache returns a typed view of cache whose keys are namespaced by prefix.
func NewTypedCache[T any](cache Cacher, prefix string, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{cache: cache, prefix: prefix, defaultTTL: defaultTTL}
}

func (c *TypedCache[T]) key(k string) string {
	return c.prefix + k
}

// Get returns the cached value and whether it was found.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var value T
	data, err := c.cache.Get(ctx, c.key(key))
	if err != nil {
		return value, false
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false
	}
	return value, true
}

// Set stores value with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache value: %w", err)
	}
	return c.cache.Set(ctx, c.key(key), data, c.defaultTTL)
}

// GetOrLoad returns the cached value or calls load, caching its result.
// Load errors are returned as-is and nothing is cached.
func (c *TypedCache[T]) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := load(ctx)
		if err != nil {
			return value, err
		}
		_ = c.Set(ctx, key, value)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops every key of this typed cache.
func (c *TypedCache[T]) Invalidate(ctx context.Context) error {
	return c.cache.DeleteByPrefix(ctx, c.prefix)
}
