package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"

	"NotifyNiche/internal/config"
	"NotifyNiche/internal/domain"
	"NotifyNiche/internal/infrastructure/content"
	"NotifyNiche/internal/infrastructure/discord"
	"NotifyNiche/internal/infrastructure/feed"
	"NotifyNiche/internal/infrastructure/llm"
	"NotifyNiche/internal/infrastructure/scheduler"
	"NotifyNiche/internal/infrastructure/storage"
	"NotifyNiche/internal/logging"
	"NotifyNiche/internal/ports"
	"NotifyNiche/internal/usecase"
)

// ErrUndelivered is returned by Run when at least one batch could not be sent.
var ErrUndelivered = errors.New("some notifications were not delivered")

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	configPath string
	logger     *slog.Logger
	dryRun     bool
	preview    io.Writer

	db       *sql.DB
	repo     *storage.SQLRepository
	pipeline *usecase.Pipeline
	closers  []func() error
}

// New opens the store and builds the pipeline. Only an unusable database
// is fatal; a missing summarizer just disables summaries.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Application, error) {
	a := &Application{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if a.preview == nil {
		a.preview = os.Stdout
	}

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.repo = storage.NewSQLRepository(db, cfg.Database.Driver)
	a.closers = append(a.closers, db.Close)

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Reader:             feed.NewReader(cfg.Feeds, a.logger),
		Articles:           a.repo,
		Feeds:              a.repo,
		Summarizer:         a.buildSummarizer(ctx),
		Notifier:           a.notifierFactory(),
		Logger:             a.logger.With("component", "pipeline"),
		MaxArticlesPerFeed: cfg.Feeds.MaxArticlesPerFeed,
		DryRun:             a.dryRun,
	})

	return a, nil
}

func (a *Application) buildSummarizer(ctx context.Context) ports.Summarizer {
	sc := a.cfg.Summarizer
	completer, err := llm.NewCompleter(ctx, sc)
	if errors.Is(err, domain.ErrNotConfigured) {
		a.logger.Info("summaries disabled", "enabled", sc.Enabled, "provider", sc.Provider)
		return nil
	}
	if err != nil {
		a.logger.Warn("summarizer unavailable", "provider", sc.Provider, "error", err)
		return nil
	}
	if c, ok := completer.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	var extractor ports.ContentExtractor
	if sc.ContentExtraction {
		extractor = content.NewExtractor(sc.ReaderEndpoint, a.cfg.Feeds.UserAgent, sc.Timeout)
	}

	return llm.NewSummarizer(completer, extractor, a.logger).WithTimeout(sc.Timeout)
}

func (a *Application) notifierFactory() usecase.NotifierFactory {
	if a.dryRun {
		preview := discord.NewPreview(a.preview)
		return func(config.NotificationConfig) ports.Notifier { return preview }
	}
	return func(n config.NotificationConfig) ports.Notifier {
		return discord.NewNotifier(n.WebhookURL, n.Timeout)
	}
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) (usecase.Report, error) {
	report := a.pipeline.Run(ctx, a.cfg)
	if !report.Delivered {
		return report, ErrUndelivered
	}
	return report, nil
}

// Serve runs the pipeline on the configured cron schedule and reloads the
// config file when it changes, until ctx is cancelled or a signal arrives.
func (a *Application) Serve(ctx context.Context) error {
	watcher := config.NewWatcher(a.configPath, a.cfg, a.logger)
	cron := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location(), a.logger)
	jobs := usecase.NewScheduler(cron, a.pipeline, watcher.Current, a.logger.With("component", "scheduler"))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watcher.Watch(gCtx)
	})

	g.Go(func() error {
		if err := jobs.Start(gCtx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		a.logger.Info("scheduler started",
			"cron", a.cfg.Scheduler.CronExpression,
			"timezone", a.cfg.Scheduler.Location().String(),
			"next", cron.Next(),
		)
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := jobs.Stop(shutdownCtx); err != nil {
			a.logger.Warn("scheduler stop timed out", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.logger.Info("received shutdown signal", "signal", sig.String())
			return context.Canceled
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("serve stopped")
	return nil
}

// ListFeeds syncs the configured feeds into the store and prints them as
// a table, optionally for one category.
func (a *Application) ListFeeds(ctx context.Context, category string, w io.Writer) error {
	if !a.dryRun {
		if err := a.repo.SyncFeeds(ctx, usecase.FeedRecords(a.cfg.Categories)); err != nil {
			a.logger.Warn("feed sync failed", "error", err)
		}
	}

	feeds, err := a.repo.ListFeeds(ctx, category)
	if err != nil {
		return fmt.Errorf("list feeds: %w", err)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Category", "Name", "URL", "Enabled"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	for _, f := range feeds {
		table.Append([]string{f.Category, f.Name, f.URL, strconv.FormatBool(f.Enabled)})
	}
	table.Render()
	return nil
}

// Close releases the database and provider clients.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
