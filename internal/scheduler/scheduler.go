// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the site's background jobs (cache warm-up, backend
// health probing and event log pruning) on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

// ErrJobNotFound is returned for unknown job names.
var ErrJobNotFound = errors.New("job not found")

// ErrTriggerLimited is returned when a job is triggered manually too often.
var ErrTriggerLimited = errors.New("manual trigger rate limited")

// JobFunc is the body of a job. It receives a context bounded by the job timeout.
type JobFunc func(ctx context.Context) error

type job struct {
	name        string
	description string
	schedule    string
	fn          JobFunc
	entryID     cron.EntryID
	limiter     *rate.Limiter

	mu       sync.Mutex
	lastRun  time.Time
	lastErr  error
	duration time.Duration
	running  bool
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	NextRun     time.Time
	LastRun     time.Time
	LastError   string
	Duration    time.Duration
	Running     bool
}

// Scheduler wraps a cron instance with a registry of named jobs.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration

	mu   sync.RWMutex
	jobs map[string]*job
}

// New creates a scheduler. Each job run is bounded by timeout.
func New(logger *slog.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger))),
		logger:  logger,
		timeout: timeout,
		jobs:    make(map[string]*job),
	}
}

// Register adds a job under name. The schedule uses standard five-field cron
// syntax or a descriptor such as "@every 5m".
func (s *Scheduler) Register(name, description, schedule string, fn JobFunc) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q for %s: %w", schedule, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	j := &job{
		name:        name,
		description: description,
		schedule:    schedule,
		fn:          fn,
		// One manual run per minute, with a burst of one.
		limiter: rate.NewLimiter(rate.Every(time.Minute), 1),
	}
	id, err := s.cron.AddFunc(schedule, func() { _ = s.run(j) })
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", name, err)
	}
	j.entryID = id
	s.jobs[name] = j

	s.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

// Start begins running the registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish and stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// run executes j unless it is already running.
func (s *Scheduler) run(j *job) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		s.logger.Debug("job still running, skipping", "name", j.name)
		return nil
	}
	j.running = true
	j.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := j.fn(ctx)
	elapsed := time.Since(start)

	j.mu.Lock()
	j.running = false
	j.lastRun = start
	j.lastErr = err
	j.duration = elapsed
	j.mu.Unlock()

	if err != nil {
		s.logger.Warn("scheduled job failed", "category", "system", "job", j.name, "error", err)
	} else {
		s.logger.Debug("scheduled job finished", "job", j.name, "duration", elapsed)
	}
	return err
}

// Trigger runs a job immediately on the caller's goroutine.
func (s *Scheduler) Trigger(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if !j.limiter.Allow() {
		return ErrTriggerLimited
	}

	s.logger.Info("manually triggering job", "name", name)
	return s.run(j)
}

// List returns the registered jobs sorted by name.
func (s *Scheduler) List() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)

		j.mu.Lock()
		info := JobInfo{
			Name:        j.name,
			Description: j.description,
			Schedule:    j.schedule,
			NextRun:     entry.Next,
			LastRun:     j.lastRun,
			Duration:    j.duration,
			Running:     j.running,
		}
		if j.lastErr != nil {
			info.LastError = j.lastErr.Error()
		}
		j.mu.Unlock()

		out = append(out, info)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}
