// Package scheduler registers alarm triggers and runs the delivery loop.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/manav03panchal/waketime/internal/logging"
)

// DefaultPollInterval is how often the loop looks for due registrations.
const DefaultPollInterval = 10 * time.Second

// TickFunc runs one poll. The scheduler never runs two ticks at once.
type TickFunc func(ctx context.Context) error

// Scheduler drives a TickFunc on a fixed interval using cron.
type Scheduler struct {
	cron      *cron.Cron
	interval  time.Duration
	tick      TickFunc
	lastCheck time.Time
	mu        sync.Mutex
	tickMu    sync.Mutex
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a scheduler that calls tick every interval.
func NewScheduler(interval time.Duration, tick TickFunc) *Scheduler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		interval: interval,
		tick:     tick,
	}
}

// Interval returns the poll interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start runs one tick immediately, so missed alarms are caught up at
// startup, then schedules the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.lastCheck = time.Now()
	s.running = true
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.runTick); err != nil {
		return fmt.Errorf("failed to add poll job: %w", err)
	}

	s.runTick()
	s.cron.Start()

	logging.DebugLog("scheduler started", "interval", s.interval.String())
	return nil
}

// Stop stops the loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	logging.DebugLog("scheduler stopped")
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runTick() {
	s.mu.Lock()
	elapsed := time.Since(s.lastCheck)
	s.lastCheck = time.Now()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}

	// Large gaps mean the machine slept; the persisted bookmark covers them.
	if elapsed > 3*s.interval {
		logging.Info("resuming after pause", logging.KeyDuration, elapsed.Round(time.Second).Milliseconds())
	}

	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	start := time.Now()
	if err := s.tick(ctx); err != nil {
		logging.Warn("poll failed", logging.KeyError, err)
		return
	}
	logging.LogOperation("poll", logging.KeyDuration, time.Since(start).Milliseconds())
}

// Entries returns all scheduled entries.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// NextRun returns the next scheduled tick.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	next := entries[0].Next
	for _, e := range entries[1:] {
		if e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}
