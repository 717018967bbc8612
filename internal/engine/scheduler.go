package engine

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/store"
)

// Scheduler drives the polling loop. It owns a single timer that is re-armed
// after every cycle from the freshly loaded settings, so admin changes to
// the polling interval take effect on the next cycle without restarting.
type Scheduler struct {
	engine      *Engine
	store       store.Store
	log         *slog.Logger
	minInterval time.Duration
	ready       <-chan struct{}
}

// SchedulerOption configures the Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets a custom logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.log = l
	}
}

// WithReadySignal delays the first cycle until ch closes; the loop still
// exits if the context ends while waiting.
func WithReadySignal(ch <-chan struct{}) SchedulerOption {
	return func(s *Scheduler) {
		s.ready = ch
	}
}

// NewScheduler creates a Scheduler running eng no more often than
// minInterval allows.
func NewScheduler(
	eng *Engine,
	st store.Store,
	minInterval time.Duration,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		engine:      eng,
		store:       st,
		log:         slog.Default(),
		minInterval: minInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks, executing cycles until ctx ends. The first cycle starts as
// soon as the readiness signal (if any) fires; each later cycle is armed
// with the interval read from settings at the end of the previous one.
// Cycle failures and panics are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.ready != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ready:
		}
	}

	s.log.Info("scheduler started")
	s.runCycle(ctx)

	timer := time.NewTimer(s.currentInterval(ctx))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			s.runCycle(ctx)
			timer.Reset(s.currentInterval(ctx))
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("cycle panicked",
				"panic", r, "stack", string(debug.Stack()))
		}
	}()

	if err := s.engine.RunCycle(ctx); err != nil && ctx.Err() == nil {
		s.log.Error("cycle failed", "error", err)
	}
}

// currentInterval re-reads the polling interval from settings, clamped to
// the configured floor. On a settings read failure the floor is used so the
// loop keeps running.
func (s *Scheduler) currentInterval(ctx context.Context) time.Duration {
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		s.log.Error("loading settings for interval failed", "error", err)
		return s.minInterval
	}

	interval := settings.PollInterval()
	if interval < s.minInterval {
		interval = s.minInterval
	}
	return interval
}
