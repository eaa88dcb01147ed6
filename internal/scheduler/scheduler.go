// Package scheduler owns the weekly adaptation trigger. The cron tick is
// the only time-based entry point; manual per-user runs go through the
// API straight to the engine.
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"forgefit/fitness-engine/internal/config"
	"forgefit/fitness-engine/internal/service"

	"github.com/robfig/cron"
)

// Scheduler drives the weekly adaptation batch on a cron cadence.
type Scheduler struct {
	engine service.AdaptationEngine
	cfg    config.SchedulerConfig
	logger *slog.Logger

	cron *cron.Cron
	mu   sync.Mutex // serializes runs; a slow batch must not overlap the next tick
}

// New creates a Scheduler. Start must be called to arm the cron.
func New(engine service.AdaptationEngine, cfg config.SchedulerConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		engine: engine,
		cfg:    cfg,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start arms the cron schedule. With RunOnStart set, a catch-up run fires
// immediately in the background; otherwise a tick missed during downtime
// is simply skipped until the next scheduled one.
func (s *Scheduler) Start(ctx context.Context) error {
	err := s.cron.AddFunc(s.cfg.CronSpec, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("adaptation scheduler started", "cron_spec", s.cfg.CronSpec, "run_on_start", s.cfg.RunOnStart)

	if s.cfg.RunOnStart {
		go s.runOnce(ctx)
	}
	return nil
}

// Stop halts the cron. A run already in flight finishes on its own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("adaptation scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.mu.TryLock() {
		s.logger.Warn("skipping adaptation tick, previous run still in flight")
		return
	}
	defer s.mu.Unlock()

	summary, err := s.engine.RunWeekly(ctx)
	if err != nil {
		s.logger.Error("weekly adaptation run failed", "error", err)
		return
	}
	s.logger.Info("weekly adaptation run complete",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"duration", summary.Finished.Sub(summary.Started).String(),
	)
}
