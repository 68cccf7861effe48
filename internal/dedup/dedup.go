// Package dedup strips articles that were already delivered, or that appear
// twice within the same run.
package dedup

import (
	"context"
	"log/slog"

	"NotifyNiche/internal/domain"
	"NotifyNiche/internal/ports"
)

// Stats reports how many articles survived each stage.
type Stats struct {
	Total  int
	Unique int
	New    int
}

// Filter keeps the first occurrence of every link, then removes links present
// in seen. Order is preserved.
func Filter(articles []domain.Article, seen map[string]bool) ([]domain.Article, Stats) {
	stats := Stats{Total: len(articles)}

	batch := make(map[string]struct{}, len(articles))
	unique := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if _, dup := batch[a.Link]; dup {
			continue
		}
		batch[a.Link] = struct{}{}
		unique = append(unique, a)
	}
	stats.Unique = len(unique)

	fresh := make([]domain.Article, 0, len(unique))
	for _, a := range unique {
		if seen[a.Link] {
			continue
		}
		fresh = append(fresh, a)
	}
	stats.New = len(fresh)

	return fresh, stats
}

// Deduplicator consults the article store once per run.
type Deduplicator struct {
	repo   ports.ArticleRepository
	logger *slog.Logger
}

// New wires the store; a nil repository means there is no history.
func New(repo ports.ArticleRepository, logger *slog.Logger) *Deduplicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{repo: repo, logger: logger}
}

// FilterNew returns the genuinely new articles. When the store cannot be
// read every article is treated as new: a repeat notification is preferred
// over silently dropping articles on a transient store error.
func (d *Deduplicator) FilterNew(ctx context.Context, articles []domain.Article) []domain.Article {
	seen := map[string]bool{}

	if d.repo != nil && len(articles) > 0 {
		links := make([]string, 0, len(articles))
		for _, a := range articles {
			links = append(links, a.Link)
		}

		found, err := d.repo.SeenLinks(ctx, links)
		if err != nil {
			d.logger.Warn("seen links unavailable, treating all articles as new", "error", err)
		} else {
			seen = found
		}
	}

	fresh, stats := Filter(articles, seen)
	d.logger.Info("deduplicated articles", "total", stats.Total, "unique", stats.Unique, "new", stats.New)
	return fresh
}
