package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NotifyNiche/internal/config"
	"NotifyNiche/internal/domain"
)

func testRepo(t *testing.T) (*SQLRepository, *sql.DB) {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "notifyniche-test.db"),
	}
	db, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSQLRepository(db, cfg.Driver), db
}

func TestOpenIsIdempotent(t *testing.T) {
	_, db := testRepo(t)
	require.NoError(t, Migrate(context.Background(), db))

	var count int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM processed_articles`).Scan(&count))
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM feeds`).Scan(&count))
}

func TestSaveArticleThenSeen(t *testing.T) {
	repo, _ := testRepo(t)
	ctx := context.Background()

	a := domain.Article{
		Title:         "GPT-5",
		Link:          "https://example.com/1",
		PublishedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Category:      "dev",
		Priority:      domain.PriorityHigh,
		Summary:       "short",
		SummaryStatus: domain.SummaryCompleted,
	}
	require.NoError(t, repo.SaveArticle(ctx, a))
	require.NoError(t, repo.SaveArticle(ctx, domain.Article{Title: "undated", Link: "https://example.com/2"}))

	seen, err := repo.SeenLinks(ctx, []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"https://example.com/1": true, "https://example.com/2": true}, seen)
}

func TestSaveArticleUpserts(t *testing.T) {
	repo, db := testRepo(t)
	ctx := context.Background()

	a := domain.Article{Title: "first", Link: "https://example.com/1", SummaryStatus: domain.SummaryFailed}
	require.NoError(t, repo.SaveArticle(ctx, a))

	a.Title = "second"
	a.Summary = "now summarized"
	a.SummaryStatus = domain.SummaryCompleted
	require.NoError(t, repo.SaveArticle(ctx, a))

	var (
		count         int
		title, status string
	)
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM processed_articles`).Scan(&count))
	require.NoError(t, db.QueryRow(`SELECT title, summary_status FROM processed_articles WHERE link = ?`, a.Link).Scan(&title, &status))
	assert.Equal(t, 1, count)
	assert.Equal(t, "second", title)
	assert.Equal(t, "completed", status)
}

func TestSeenLinksLargeBatch(t *testing.T) {
	repo, _ := testRepo(t)
	ctx := context.Background()

	links := make([]string, 0, 1200)
	for i := 0; i < 1200; i++ {
		links = append(links, fmt.Sprintf("https://example.com/%d", i))
	}
	require.NoError(t, repo.SaveArticle(ctx, domain.Article{Link: links[0]}))
	require.NoError(t, repo.SaveArticle(ctx, domain.Article{Link: links[1100]}))

	seen, err := repo.SeenLinks(ctx, links)
	require.NoError(t, err)
	assert.Len(t, seen, 2)
	assert.True(t, seen[links[1100]])
}

func TestSeenLinksEmpty(t *testing.T) {
	repo, _ := testRepo(t)

	seen, err := repo.SeenLinks(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestSyncFeedsAndList(t *testing.T) {
	repo, _ := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SyncFeeds(ctx, []domain.FeedRecord{
		{URL: "https://b.example.com/rss", Name: "B", Category: "dev", Enabled: true},
		{URL: "https://a.example.com/rss", Name: "A", Category: "dev", Enabled: true},
		{URL: "https://c.example.com/rss", Category: "blog", Enabled: true},
	}))

	all, err := repo.ListFeeds(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://b.example.com/rss", all[0].URL, "config order is kept")

	dev, err := repo.ListFeeds(ctx, "dev")
	require.NoError(t, err)
	assert.Len(t, dev, 2)

	// Dropping a feed from the config disables it.
	require.NoError(t, repo.SyncFeeds(ctx, []domain.FeedRecord{
		{URL: "https://a.example.com/rss", Name: "A renamed", Category: "dev", Enabled: true},
	}))

	all, err = repo.ListFeeds(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.FeedRecord{URL: "https://a.example.com/rss", Name: "A renamed", Category: "dev", Enabled: true}, all[0])
	assert.False(t, all[1].Enabled)
	assert.False(t, all[2].Enabled)
}

func TestNilDatabaseIsNoop(t *testing.T) {
	t.Parallel()

	repo := NewSQLRepository(nil, config.DriverSQLite)
	ctx := context.Background()

	seen, err := repo.SeenLinks(ctx, []string{"x"})
	require.NoError(t, err)
	assert.Empty(t, seen)
	assert.NoError(t, repo.SaveArticle(ctx, domain.Article{Link: "x"}))
	assert.NoError(t, repo.SyncFeeds(ctx, nil))
}

func TestPostgresPlaceholders(t *testing.T) {
	t.Parallel()

	query, _, err := builderFor(config.DriverPostgres).Select("link").From("processed_articles").Where("link = ?", "x").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT link FROM processed_articles WHERE link = $1", query)
}
