package usecase

import (
	"context"
	"errors"

	"NotifyNiche/internal/classifier"
	"NotifyNiche/internal/config"
	"NotifyNiche/internal/domain"
)

// Collect reads and classifies every enabled category in configured order.
// Categories left with no articles are omitted; a failing feed only loses
// its own entries.
func (p *Pipeline) Collect(ctx context.Context, categories config.Categories) []domain.CategoryArticles {
	return p.collect(ctx, categories, p.maxArticles)
}

func (p *Pipeline) collect(ctx context.Context, categories config.Categories, maxArticles int) []domain.CategoryArticles {
	p.debug("collect categories", "categories", categories.Len())

	var groups []domain.CategoryArticles
	for _, name := range categories.Names() {
		cat, _ := categories.Get(name)
		if !cat.Enabled {
			p.debug("skip disabled category", "category", name)
			continue
		}
		if len(cat.Feeds) == 0 {
			p.logger.Warn("category has no feeds", "category", name)
			continue
		}

		var raw []domain.Article
		for _, endpoint := range cat.Feeds {
			if ctx.Err() != nil {
				break
			}
			articles, err := p.reader.Read(ctx, endpoint, maxArticles)
			if err != nil {
				p.logFeedError(name, endpoint, err)
				continue
			}
			for i := range articles {
				articles[i].Category = name
			}
			p.debug("feed produced articles", "category", name, "url", endpoint.URL, "count", len(articles))
			raw = append(raw, articles...)
		}

		kept := classifier.Classify(raw, cat.KeywordFilters)
		p.logger.Info("category collected", "category", name, "fetched", len(raw), "kept", len(kept))
		if len(kept) == 0 {
			continue
		}
		groups = append(groups, domain.CategoryArticles{Name: name, Emoji: cat.Emoji, Articles: kept})
	}

	return groups
}

func (p *Pipeline) logFeedError(category string, endpoint config.FeedEndpoint, err error) {
	var fetchErr *domain.FeedFetchError
	if errors.As(err, &fetchErr) {
		p.logger.Warn("feed fetch failed", "category", category, "url", fetchErr.URL, "error", fetchErr.Err)
		return
	}
	p.logger.Warn("feed read failed", "category", category, "url", endpoint.URL, "error", err)
}

// FeedRecords lists every configured feed in category order. A feed
// inherits its category's enabled flag.
func FeedRecords(categories config.Categories) []domain.FeedRecord {
	var records []domain.FeedRecord
	for _, name := range categories.Names() {
		cat, _ := categories.Get(name)
		for _, endpoint := range cat.Feeds {
			records = append(records, domain.FeedRecord{
				URL:      endpoint.URL,
				Name:     endpoint.Name,
				Category: name,
				Enabled:  cat.Enabled,
			})
		}
	}
	return records
}

func (p *Pipeline) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
