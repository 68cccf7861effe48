// Package dispatch renders category groups into notification units and
// delivers them in size-bounded batches with retry.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"NotifyNiche/internal/config"
	"NotifyNiche/internal/domain"
	"NotifyNiche/internal/ports"
)

// Settings is the delivery policy.
type Settings struct {
	BatchSize   int
	MaxAttempts int
	RetryDelay  time.Duration
	BatchDelay  time.Duration
}

// SettingsFromConfig copies the delivery policy out of the notifications block.
func SettingsFromConfig(cfg config.NotificationConfig) Settings {
	return Settings{
		BatchSize:   cfg.BatchSize,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		BatchDelay:  cfg.BatchDelay,
	}
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithStyle overrides icons and colors.
func WithStyle(style Style) Option {
	return func(d *Dispatcher) {
		d.style = style.withDefaults()
	}
}

// Dispatcher sends rendered groups through a Notifier.
type Dispatcher struct {
	notifier ports.Notifier
	settings Settings
	style    Style
	logger   *slog.Logger
}

// New constructs a dispatcher.
func New(notifier ports.Notifier, settings Settings, logger *slog.Logger, opts ...Option) *Dispatcher {
	if settings.BatchSize <= 0 || settings.BatchSize > MaxEmbedsPerMessage {
		settings.BatchSize = MaxEmbedsPerMessage
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		notifier: notifier,
		settings: settings,
		style:    DefaultStyle(),
		logger:   logger.With("component", "dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers every group and reports whether all batches succeeded.
// A failed batch does not stop the remaining ones. Nothing to send counts
// as success.
func (d *Dispatcher) Dispatch(ctx context.Context, groups []domain.CategoryArticles) bool {
	units := Build(groups, d.style)
	if len(units) == 0 {
		d.logger.Info("no new articles to dispatch")
		return true
	}

	batches := Chunk(units, d.settings.BatchSize)
	content := SummaryLine(groups)
	allSent := true

	for i, batch := range batches {
		payload := domain.NotificationPayload{Embeds: batch}
		if i == 0 {
			payload.Content = content
		}

		if err := d.send(ctx, i+1, payload); err != nil {
			allSent = false
			d.logger.Error("batch delivery failed",
				"batch", i+1,
				"batches", len(batches),
				"units", len(batch),
				"error", err,
			)
		} else {
			d.logger.Info("batch delivered", "batch", i+1, "batches", len(batches), "units", len(batch))
		}

		if i < len(batches)-1 && d.settings.BatchDelay > 0 {
			sleep(ctx, d.settings.BatchDelay)
		}
	}

	return allSent
}

func (d *Dispatcher) send(ctx context.Context, batch int, payload domain.NotificationPayload) error {
	_, err := backoff.Retry(ctx,
		func() (struct{}, error) {
			return struct{}{}, d.notifier.Send(ctx, payload)
		},
		backoff.WithBackOff(backoff.NewConstantBackOff(d.settings.RetryDelay)),
		backoff.WithMaxTries(uint(d.settings.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			d.logger.Warn("batch delivery attempt failed, retrying",
				"batch", batch,
				"retry_in", next,
				"error", err,
			)
		}),
	)
	return err
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
