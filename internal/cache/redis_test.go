// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisCache, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: m.Addr()}), "test:", time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c, m
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c, m := newTestRedis(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	assert.True(t, m.Exists("test:k"), "key must carry the prefix")

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	ok, err := c.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "k"))
	ok, _ = c.Has(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCache_TTL(t *testing.T) {
	c, m := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 5*time.Second))
	m.FastForward(6 * time.Second)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_DeleteByPrefixAndClear(t *testing.T) {
	c, m := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, m.Set("other:keep", "x"))
	for _, k := range []string{"posts:1", "posts:2", "home"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), 0))
	}

	require.NoError(t, c.DeleteByPrefix(ctx, "posts:"))
	assert.False(t, m.Exists("test:posts:1"))
	assert.True(t, m.Exists("test:home"))
	assert.Equal(t, 1, c.Stats().Items)

	require.NoError(t, c.Clear(ctx))
	assert.False(t, m.Exists("test:home"))
	assert.True(t, m.Exists("other:keep"), "keys outside the prefix are untouched")
}

func TestRedisCache_Stats(t *testing.T) {
	c, _ := newTestRedis(t)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	s := c.Stats()
	assert.Equal(t, "redis", s.Backend)
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, int64(1), s.Sets)

	c.ResetStats()
	assert.Zero(t, c.Stats().Hits)
}

func TestNew_FallsBackToMemory(t *testing.T) {
	c := New(Config{RedisURL: "redis://127.0.0.1:1/0", DefaultTTL: time.Minute}, nil)
	defer func() { _ = c.Close() }()
	_, ok := c.(*MemoryCache)
	assert.True(t, ok, "unreachable redis should fall back to memory")
}

func TestNew_UsesRedis(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	c := New(Config{RedisURL: "redis://" + m.Addr() + "/0", Prefix: "site:"}, nil)
	defer func() { _ = c.Close() }()
	_, ok := c.(*RedisCache)
	assert.True(t, ok)
}
