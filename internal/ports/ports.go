package ports

import (
	"context"
	"time"

	"NotifyNiche/internal/config"
	"NotifyNiche/internal/domain"
)

// FeedReader turns one feed endpoint into a bounded list of articles.
// On failure it returns no articles and a *domain.FeedFetchError.
type FeedReader interface {
	Read(ctx context.Context, endpoint config.FeedEndpoint, maxArticles int) ([]domain.Article, error)
}

// ArticleRepository persists delivered articles for deduplication/history.
type ArticleRepository interface {
	SeenLinks(ctx context.Context, links []string) (map[string]bool, error)
	SaveArticle(ctx context.Context, article domain.Article) error
}

// FeedRepository mirrors the configured feeds into storage.
type FeedRepository interface {
	SyncFeeds(ctx context.Context, feeds []domain.FeedRecord) error
	ListFeeds(ctx context.Context, category string) ([]domain.FeedRecord, error)
}

// Summarizer produces a short summary for an article. It returns
// domain.ErrNotConfigured when no provider is available; any other error is
// a best-effort failure the caller may ignore.
type Summarizer interface {
	Summarize(ctx context.Context, article domain.Article) (string, error)
}

// ContentExtractor fetches the readable text behind an article link.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Notifier delivers a single payload to the messaging sink.
type Notifier interface {
	Send(ctx context.Context, payload domain.NotificationPayload) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
