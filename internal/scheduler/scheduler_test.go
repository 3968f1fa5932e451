// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRegister_InvalidSchedule(t *testing.T) {
	s := New(quietLogger(), time.Second)

	err := s.Register("bad", "", "every now and then", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	s := New(quietLogger(), time.Second)
	noop := func(context.Context) error { return nil }

	if err := s.Register("warm", "", "@every 1h", noop); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Register("warm", "", "@every 1h", noop); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestTrigger_RecordsOutcome(t *testing.T) {
	s := New(quietLogger(), time.Second)
	var runs atomic.Int32
	boom := errors.New("backend down")

	_ = s.Register("health", "Backend health", "*/5 * * * *", func(context.Context) error {
		runs.Add(1)
		return boom
	})

	if err := s.Trigger("health"); !errors.Is(err, boom) {
		t.Fatalf("Trigger error = %v, want %v", err, boom)
	}
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}

	jobs := s.List()
	if len(jobs) != 1 {
		t.Fatalf("len(List) = %d", len(jobs))
	}
	if jobs[0].LastError != "backend down" || jobs[0].LastRun.IsZero() {
		t.Errorf("job info = %+v", jobs[0])
	}
}

func TestTrigger_RateLimited(t *testing.T) {
	s := New(quietLogger(), time.Second)
	_ = s.Register("warm", "", "@every 1h", func(context.Context) error { return nil })

	if err := s.Trigger("warm"); err != nil {
		t.Fatalf("first Trigger: %v", err)
	}
	if err := s.Trigger("warm"); !errors.Is(err, ErrTriggerLimited) {
		t.Errorf("second Trigger = %v, want ErrTriggerLimited", err)
	}
}

func TestTrigger_UnknownJob(t *testing.T) {
	s := New(quietLogger(), time.Second)
	if err := s.Trigger("nope"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Trigger = %v, want ErrJobNotFound", err)
	}
}

func TestRun_TimeoutBoundsJob(t *testing.T) {
	s := New(quietLogger(), 20*time.Millisecond)
	_ = s.Register("slow", "", "@every 1h", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	err := s.Trigger("slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("job was not bounded by the timeout")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(quietLogger(), time.Second)
	_ = s.Register("warm", "", "@every 1h", func(context.Context) error { return nil })

	s.Start()
	jobs := s.List()
	if len(jobs) != 1 || jobs[0].NextRun.IsZero() {
		t.Errorf("expected next run to be scheduled: %+v", jobs)
	}
	s.Stop()
}
