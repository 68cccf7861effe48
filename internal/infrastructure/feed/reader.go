// Package feed reads RSS and Atom feeds into domain articles.
package feed

import (
	"context"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"NotifyNiche/internal/config"
	"NotifyNiche/internal/domain"
	"NotifyNiche/internal/ports"
)

// DefaultMaxArticles caps entries per feed when the caller passes no limit.
const DefaultMaxArticles = 10

// Reader fetches and normalizes feeds.
type Reader struct {
	client    *http.Client
	userAgent string
	limiter   *HostLimiter
	policy    *bluemonday.Policy
	logger    *slog.Logger
}

var _ ports.FeedReader = (*Reader)(nil)

// NewReader builds a reader from the feeds block.
func NewReader(cfg config.FeedsConfig, logger *slog.Logger) *Reader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		client:    &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		limiter:   NewHostLimiter(cfg.HostInterval),
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With("component", "feed-reader"),
	}
}

// Read fetches one feed and returns at most maxArticles entries in feed
// order. Entries without a link are dropped. On any failure it returns no
// articles and a *domain.FeedFetchError.
func (r *Reader) Read(ctx context.Context, endpoint config.FeedEndpoint, maxArticles int) ([]domain.Article, error) {
	if maxArticles <= 0 {
		maxArticles = DefaultMaxArticles
	}

	if err := r.limiter.Wait(ctx, endpoint.URL); err != nil {
		return nil, &domain.FeedFetchError{URL: endpoint.URL, Err: err}
	}

	fp := gofeed.NewParser()
	fp.Client = r.client
	if r.userAgent != "" {
		fp.UserAgent = r.userAgent
	}

	parsed, err := fp.ParseURLWithContext(endpoint.URL, ctx)
	if err != nil {
		return nil, &domain.FeedFetchError{URL: endpoint.URL, Err: err}
	}

	name := endpoint.Name
	if name == "" {
		name = strings.TrimSpace(parsed.Title)
	}

	articles := make([]domain.Article, 0, min(len(parsed.Items), maxArticles))
	for _, item := range parsed.Items {
		if len(articles) == maxArticles {
			break
		}
		if item == nil {
			continue
		}
		article, ok := r.toArticle(item)
		if !ok {
			continue
		}
		article.FeedURL = endpoint.URL
		article.FeedName = name
		articles = append(articles, article)
	}

	r.logger.Debug("feed read", "url", endpoint.URL, "items", len(parsed.Items), "kept", len(articles))
	return articles, nil
}

func (r *Reader) toArticle(item *gofeed.Item) (domain.Article, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return domain.Article{}, false
	}

	title := r.plainText(item.Title)
	if title == "" {
		title = domain.UntitledTitle
	}

	description := r.plainText(item.Description)
	if content := r.plainText(item.Content); len(content) > len(description) {
		description = content
	}

	article := domain.Article{
		Title:       title,
		Link:        link,
		Description: description,
		Published:   item.Published,
	}

	switch {
	case item.PublishedParsed != nil:
		article.PublishedAt = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		article.PublishedAt = item.UpdatedParsed.UTC()
	}
	if article.Published == "" {
		article.Published = item.Updated
	}

	return article, true
}

// plainText strips markup and entities and collapses whitespace.
func (r *Reader) plainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(r.policy.Sanitize(s))), " ")
}
