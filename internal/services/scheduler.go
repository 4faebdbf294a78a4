package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Refresher runs one refresh cycle
type Refresher interface {
	RefreshOnce(ctx context.Context) CycleReport
}

// Scheduler triggers a refresh cycle immediately and then on every tick.
// Each cycle runs in its own goroutine, so a slow cycle never delays the
// next tick and cycles may overlap.
type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	cycles  sync.WaitGroup
	running bool
}

// NewScheduler creates a scheduler firing every interval
func NewScheduler(refresher Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start launches the ticker loop. Cancelling ctx or calling Stop ends it.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	// The loop holds one count so Stop cannot return before it exits
	s.cycles.Add(1)
	go s.loop(ctx)

	s.logger.InfoContext(ctx, "scheduler started", slog.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.cycles.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.trigger(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

func (s *Scheduler) trigger(ctx context.Context) {
	s.cycles.Add(1)
	go func() {
		defer s.cycles.Done()
		s.refresher.RefreshOnce(ctx)
	}()
}

// Stop ends the loop, cancels in-flight cycles and waits for them to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.cycles.Wait()
	s.logger.Info("scheduler stopped")
}

// Running reports whether the loop is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
