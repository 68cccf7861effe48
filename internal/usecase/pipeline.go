package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"NotifyNiche/internal/config"
	"NotifyNiche/internal/dedup"
	"NotifyNiche/internal/dispatch"
	"NotifyNiche/internal/domain"
	"NotifyNiche/internal/ports"
)

// NotifierFactory builds the sink for one run from the notifications block,
// so a reloaded webhook URL takes effect on the next run.
type NotifierFactory func(cfg config.NotificationConfig) ports.Notifier

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Reader     ports.FeedReader
	Articles   ports.ArticleRepository
	Feeds      ports.FeedRepository
	Summarizer ports.Summarizer
	Notifier   NotifierFactory
	Style      *dispatch.Style
	Logger     *slog.Logger

	// MaxArticlesPerFeed is used by Collect; Run takes it from the config.
	MaxArticlesPerFeed int
	// DryRun skips the feed sync and persistence writes.
	DryRun bool
}

// Report summarizes one run.
type Report struct {
	Collected    int
	New          int
	Summarized   int
	Delivered    bool
	Saved        int
	SaveFailures int
	DryRun       bool
	Duration     time.Duration
}

// Pipeline implements the collect, deduplicate, notify and record workflow.
type Pipeline struct {
	reader      ports.FeedReader
	articles    ports.ArticleRepository
	feeds       ports.FeedRepository
	summarizer  ports.Summarizer
	notifier    NotifierFactory
	style       *dispatch.Style
	dedup       *dedup.Deduplicator
	logger      *slog.Logger
	maxArticles int
	dryRun      bool

	mu sync.Mutex
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		reader:      deps.Reader,
		articles:    deps.Articles,
		feeds:       deps.Feeds,
		summarizer:  deps.Summarizer,
		notifier:    deps.Notifier,
		style:       deps.Style,
		dedup:       dedup.New(deps.Articles, logger.With("component", "dedup")),
		logger:      logger,
		maxArticles: deps.MaxArticlesPerFeed,
		dryRun:      deps.DryRun,
	}
}

// Run executes one full pass against cfg. Runs never overlap. Delivered
// articles are recorded whether or not every batch went out.
func (p *Pipeline) Run(ctx context.Context, cfg config.Config) (report Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	report = Report{DryRun: p.dryRun, Delivered: true}
	defer func() {
		report.Duration = time.Since(start)
		p.logger.Info("run finished",
			"collected", report.Collected,
			"new", report.New,
			"summarized", report.Summarized,
			"delivered", report.Delivered,
			"saved", report.Saved,
			"save_failures", report.SaveFailures,
			"dry_run", report.DryRun,
			"duration", report.Duration,
		)
	}()

	if cfg.Categories.Len() == 0 {
		p.logger.Warn("no categories configured")
		return report
	}

	if !p.dryRun {
		p.syncFeeds(ctx, cfg.Categories)
	}

	groups := p.collect(ctx, cfg.Categories, cfg.Feeds.MaxArticlesPerFeed)
	all := domain.Flatten(groups)
	report.Collected = len(all)

	fresh := p.dedup.FilterNew(ctx, all)
	report.New = len(fresh)
	if len(fresh) == 0 {
		p.logger.Info("no new articles")
		return report
	}

	report.Summarized = p.summarize(ctx, fresh)

	if p.notifier == nil {
		p.logger.Error("no notifier configured")
		report.Delivered = false
	} else {
		var opts []dispatch.Option
		if p.style != nil {
			opts = append(opts, dispatch.WithStyle(*p.style))
		}
		d := dispatch.New(p.notifier(cfg.Notifications), dispatch.SettingsFromConfig(cfg.Notifications), p.logger, opts...)
		report.Delivered = d.Dispatch(ctx, domain.Regroup(groups, fresh))
	}

	if !p.dryRun {
		report.Saved, report.SaveFailures = p.persist(ctx, fresh)
	}

	return report
}

func (p *Pipeline) syncFeeds(ctx context.Context, categories config.Categories) {
	if p.feeds == nil {
		return
	}
	records := FeedRecords(categories)
	if err := p.feeds.SyncFeeds(ctx, records); err != nil {
		p.logger.Warn("feed sync failed", "feeds", len(records), "error", err)
		return
	}
	p.debug("feeds synced", "feeds", len(records))
}

// summarize fills Summary and SummaryStatus in place and returns how many
// summaries were produced.
func (p *Pipeline) summarize(ctx context.Context, articles []domain.Article) int {
	if p.summarizer == nil {
		for i := range articles {
			articles[i].SummaryStatus = domain.SummarySkipped
		}
		return 0
	}

	var done int
	for i := range articles {
		summary, err := p.summarizer.Summarize(ctx, articles[i])
		switch {
		case errors.Is(err, domain.ErrNotConfigured):
			articles[i].SummaryStatus = domain.SummarySkipped
		case err != nil:
			articles[i].SummaryStatus = domain.SummaryFailed
			p.logger.Warn("summary failed", "link", articles[i].Link, "error", err)
		default:
			articles[i].Summary = summary
			articles[i].SummaryStatus = domain.SummaryCompleted
			done++
		}
	}
	return done
}

func (p *Pipeline) persist(ctx context.Context, articles []domain.Article) (saved, failed int) {
	if p.articles == nil {
		return 0, 0
	}
	for _, a := range articles {
		if err := p.articles.SaveArticle(ctx, a); err != nil {
			failed++
			p.logger.Error("save article failed", "link", a.Link, "error", err)
			continue
		}
		saved++
	}
	return saved, failed
}
