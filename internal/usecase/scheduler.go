package usecase

import (
	"context"
	"log/slog"
	"time"

	"NotifyNiche/internal/config"
	"NotifyNiche/internal/ports"
)

// Scheduler wires the cron-like driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	current  func() config.Config
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs. current is
// called at every fire so each run uses the latest config snapshot.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, current func() config.Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, current: current, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil || s.current == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled run", "trigger", trigger.Format(time.RFC3339))
		report := s.pipeline.Run(ctx, s.current())
		if !report.Delivered {
			s.logger.Error("scheduled run could not deliver every batch")
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
