// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestTypedCache_GetOrLoad(t *testing.T) {
	mc := NewMemoryCache(MemoryOptions{DefaultTTL: time.Minute})
	defer func() { _ = mc.Close() }()
	tc := NewTypedCache[[]item](mc, "activities:", time.Minute)
	ctx := context.Background()

	var loads atomic.Int32
	load := func(context.Context) ([]item, error) {
		loads.Add(1)
		return []item{{ID: "1", Title: "Capoeira"}}, nil
	}

	for range 3 {
		got, err := tc.GetOrLoad(ctx, "all", load)
		if err != nil {
			t.Fatalf("GetOrLoad: %v", err)
		}
		if len(got) != 1 || got[0].Title != "Capoeira" {
			t.Fatalf("GetOrLoad = %+v", got)
		}
	}
	if n := loads.Load(); n != 1 {
		t.Errorf("load called %d times, want 1", n)
	}
	if ok, _ := mc.Has(ctx, "activities:all"); !ok {
		t.Error("value should be stored under the typed prefix")
	}
}

func TestTypedCache_LoadErrorIsNotCached(t *testing.T) {
	mc := NewMemoryCache(MemoryOptions{})
	defer func() { _ = mc.Close() }()
	tc := NewTypedCache[item](mc, "x:", 0)
	ctx := context.Background()

	boom := errors.New("backend down")
	if _, err := tc.GetOrLoad(ctx, "k", func(context.Context) (item, error) { return item{}, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, ok := tc.Get(ctx, "k"); ok {
		t.Error("failed load must not be cached")
	}
}

func TestTypedCache_ConcurrentMissesShareLoad(t *testing.T) {
	mc := NewMemoryCache(MemoryOptions{})
	defer func() { _ = mc.Close() }()
	tc := NewTypedCache[item](mc, "x:", 0)

	release := make(chan struct{})
	var loads atomic.Int32
	load := func(context.Context) (item, error) {
		loads.Add(1)
		<-release
		return item{ID: "1"}, nil
	}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = tc.GetOrLoad(context.Background(), "k", load)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := loads.Load(); n != 1 {
		t.Errorf("load called %d times, want 1", n)
	}
}

func TestTypedCache_Invalidate(t *testing.T) {
	mc := NewMemoryCache(MemoryOptions{})
	defer func() { _ = mc.Close() }()
	posts := NewTypedCache[item](mc, "posts:", 0)
	home := NewTypedCache[item](mc, "home:", 0)
	ctx := context.Background()

	_ = posts.Set(ctx, "a", item{ID: "a"})
	_ = home.Set(ctx, "a", item{ID: "h"})

	if err := posts.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := posts.Get(ctx, "a"); ok {
		t.Error("posts entry should be gone")
	}
	if got, ok := home.Get(ctx, "a"); !ok || got.ID != "h" {
		t.Error("other typed caches are untouched")
	}
}
