package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"NotifyNiche/internal/domain"
	"NotifyNiche/internal/ports"
)

// seenChunk keeps IN lists below SQLite's bound-variable limit.
const seenChunk = 500

// SQLRepository persists delivered articles and the feed registry.
type SQLRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var (
	_ ports.ArticleRepository = (*SQLRepository)(nil)
	_ ports.FeedRepository    = (*SQLRepository)(nil)
)

// NewSQLRepository wires a sql.DB opened for driver.
func NewSQLRepository(db *sql.DB, driver string) *SQLRepository {
	return &SQLRepository{db: db, sb: builderFor(driver)}
}

// SeenLinks returns the subset of links that already exist in storage.
func (r *SQLRepository) SeenLinks(ctx context.Context, links []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if r.db == nil || len(links) == 0 {
		return result, nil
	}

	for start := 0; start < len(links); start += seenChunk {
		end := start + seenChunk
		if end > len(links) {
			end = len(links)
		}

		query, args, err := r.sb.Select("link").
			From("processed_articles").
			Where(sq.Eq{"link": links[start:end]}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build seen query: %w", err)
		}

		if err := r.collectLinks(ctx, query, args, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (r *SQLRepository) collectLinks(ctx context.Context, query string, args []any, into map[string]bool) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query processed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return fmt.Errorf("scan link: %w", err)
		}
		into[link] = true
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration: %w", err)
	}
	return nil
}

// SaveArticle upserts the delivered article snapshot.
func (r *SQLRepository) SaveArticle(ctx context.Context, article domain.Article) error {
	if r.db == nil {
		return nil
	}

	publishedAt := sql.NullTime{Time: article.PublishedAt, Valid: !article.PublishedAt.IsZero()}

	query, args, err := r.sb.Insert("processed_articles").
		Columns(
			"link", "title", "description", "published", "published_at",
			"category", "feed_url", "feed_name", "priority", "summary", "summary_status",
		).
		Values(
			article.Link,
			article.Title,
			article.Description,
			article.Published,
			publishedAt,
			article.Category,
			article.FeedURL,
			article.FeedName,
			string(article.Priority),
			article.Summary,
			string(article.SummaryStatus),
		).
		Suffix(`ON CONFLICT (link) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			published = excluded.published,
			published_at = excluded.published_at,
			category = excluded.category,
			feed_url = excluded.feed_url,
			feed_name = excluded.feed_name,
			priority = excluded.priority,
			summary = excluded.summary,
			summary_status = excluded.summary_status,
			updated_at = CURRENT_TIMESTAMP`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert processed: %w", err)
	}
	return nil
}

// SyncFeeds upserts the configured feeds and disables the ones no longer
// configured. Position follows the slice order.
func (r *SQLRepository) SyncFeeds(ctx context.Context, feeds []domain.FeedRecord) error {
	if r.db == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin feed sync: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	urls := make([]string, 0, len(feeds))
	for i, f := range feeds {
		urls = append(urls, f.URL)

		query, args, err := r.sb.Insert("feeds").
			Columns("url", "name", "category", "enabled", "position").
			Values(f.URL, f.Name, f.Category, f.Enabled, i).
			Suffix(`ON CONFLICT (url) DO UPDATE SET
				name = excluded.name,
				category = excluded.category,
				enabled = excluded.enabled,
				position = excluded.position,
				updated_at = CURRENT_TIMESTAMP`).
			ToSql()
		if err != nil {
			return fmt.Errorf("build feed upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert feed %s: %w", f.URL, err)
		}
	}

	query, args, err := r.sb.Update("feeds").
		Set("enabled", false).
		Where(sq.NotEq{"url": urls}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build feed disable: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("disable stale feeds: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit feed sync: %w", err)
	}
	return nil
}

// ListFeeds returns stored feeds, optionally limited to one category.
func (r *SQLRepository) ListFeeds(ctx context.Context, category string) ([]domain.FeedRecord, error) {
	if r.db == nil {
		return nil, nil
	}

	builder := r.sb.Select("url", "name", "category", "enabled").
		From("feeds").
		OrderBy("enabled DESC", "position", "url")
	if category != "" {
		builder = builder.Where(sq.Eq{"category": category})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build feed list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feeds: %w", err)
	}
	defer rows.Close()

	var feeds []domain.FeedRecord
	for rows.Next() {
		var f domain.FeedRecord
		if err := rows.Scan(&f.URL, &f.Name, &f.Category, &f.Enabled); err != nil {
			return nil, fmt.Errorf("scan feed: %w", err)
		}
		feeds = append(feeds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return feeds, nil
}
