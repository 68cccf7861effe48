package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NotifyNiche/internal/config"
	"NotifyNiche/internal/domain"
	"NotifyNiche/internal/ports"
)

type fakeReader struct {
	feeds map[string][]domain.Article
	fail  map[string]bool
	calls []string
}

func (f *fakeReader) Read(_ context.Context, endpoint config.FeedEndpoint, maxArticles int) ([]domain.Article, error) {
	f.calls = append(f.calls, endpoint.URL)
	if f.fail[endpoint.URL] {
		return nil, &domain.FeedFetchError{URL: endpoint.URL, Err: errors.New("connection refused")}
	}
	src := f.feeds[endpoint.URL]
	if len(src) > maxArticles {
		src = src[:maxArticles]
	}
	return append([]domain.Article(nil), src...), nil
}

type memStore struct {
	mu       sync.Mutex
	saved    map[string]domain.Article
	feeds    []domain.FeedRecord
	seenErr  error
	saveErr  error
	syncErr  error
	syncRuns int
}

func newMemStore() *memStore {
	return &memStore{saved: map[string]domain.Article{}}
}

func (m *memStore) SeenLinks(_ context.Context, links []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seenErr != nil {
		return nil, m.seenErr
	}
	out := map[string]bool{}
	for _, l := range links {
		if _, ok := m.saved[l]; ok {
			out[l] = true
		}
	}
	return out, nil
}

func (m *memStore) SaveArticle(_ context.Context, a domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[a.Link] = a
	return nil
}

func (m *memStore) SyncFeeds(_ context.Context, feeds []domain.FeedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncRuns++
	if m.syncErr != nil {
		return m.syncErr
	}
	m.feeds = feeds
	return nil
}

func (m *memStore) ListFeeds(context.Context, string) ([]domain.FeedRecord, error) {
	return m.feeds, nil
}

type recordingNotifier struct {
	payloads []domain.NotificationPayload
	err      error
}

func (r *recordingNotifier) Send(_ context.Context, p domain.NotificationPayload) error {
	if r.err != nil {
		return r.err
	}
	r.payloads = append(r.payloads, p)
	return nil
}

type fakeSummarizer struct {
	err   error
	calls int
}

func (f *fakeSummarizer) Summarize(_ context.Context, a domain.Article) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "summary of " + a.Title, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func factory(n ports.Notifier) NotifierFactory {
	return func(config.NotificationConfig) ports.Notifier { return n }
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Notifications.RetryDelay = 0
	cfg.Notifications.BatchDelay = 0

	cats := config.NewCategories()
	cats.Add("개발", config.CategoryConfig{
		Enabled: true,
		Emoji:   "💻",
		Feeds:   []config.FeedEndpoint{{URL: "https://dev.example.com/rss"}, {URL: "https://broken.example.com/rss"}},
		KeywordFilters: config.KeywordFilters{
			Enabled:      true,
			HighPriority: []string{"AI"},
			LowPriority:  []string{"개발"},
			Exclude:      []string{"광고"},
		},
	})
	cats.Add("블로그", config.CategoryConfig{
		Enabled: true,
		Emoji:   "📝",
		Feeds:   []config.FeedEndpoint{{URL: "https://blog.example.com/rss", Name: "Blog"}},
	})
	cats.Add("꺼짐", config.CategoryConfig{
		Enabled: false,
		Feeds:   []config.FeedEndpoint{{URL: "https://off.example.com/rss"}},
	})
	cats.Add("빈", config.CategoryConfig{Enabled: true})
	cfg.Categories = cats
	return cfg
}

func testReader() *fakeReader {
	return &fakeReader{
		feeds: map[string][]domain.Article{
			"https://dev.example.com/rss": {
				{Title: "AI 뉴스", Link: "https://dev.example.com/1"},
				{Title: "광고 AI", Link: "https://dev.example.com/2"},
				{Title: "웹 개발 팁", Link: "https://dev.example.com/3"},
				{Title: "잡담", Link: "https://dev.example.com/4"},
			},
			"https://blog.example.com/rss": {
				{Title: "일상", Link: "https://blog.example.com/1"},
				{Title: "AI 뉴스 재게시", Link: "https://dev.example.com/1"},
			},
			"https://off.example.com/rss": {
				{Title: "never", Link: "https://off.example.com/1"},
			},
		},
		fail: map[string]bool{"https://broken.example.com/rss": true},
	}
}

func TestCollectKeepsOrderAndIsolatesFailures(t *testing.T) {
	t.Parallel()

	reader := testReader()
	p := NewPipeline(PipelineDeps{Reader: reader, Logger: quietLogger(), MaxArticlesPerFeed: 10})

	groups := p.Collect(context.Background(), testConfig().Categories)
	require.Len(t, groups, 2)

	assert.Equal(t, "개발", groups[0].Name)
	assert.Equal(t, "💻", groups[0].Emoji)
	require.Len(t, groups[0].Articles, 2)
	assert.Equal(t, domain.PriorityHigh, groups[0].Articles[0].Priority)
	assert.Equal(t, domain.PriorityLow, groups[0].Articles[1].Priority)
	assert.Equal(t, "개발", groups[0].Articles[0].Category)

	assert.Equal(t, "블로그", groups[1].Name)
	assert.Len(t, groups[1].Articles, 2, "filters disabled passes everything through")

	assert.NotContains(t, reader.calls, "https://off.example.com/rss")
	assert.Contains(t, reader.calls, "https://broken.example.com/rss")
}

func TestCollectHonorsPerFeedLimit(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{Reader: testReader(), Logger: quietLogger(), MaxArticlesPerFeed: 1})

	groups := p.Collect(context.Background(), testConfig().Categories)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Articles, 1)
	assert.Len(t, groups[1].Articles, 1)
}

func TestRunDeliversAndPersists(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	notifier := &recordingNotifier{}
	summarizer := &fakeSummarizer{}
	p := NewPipeline(PipelineDeps{
		Reader:     testReader(),
		Articles:   store,
		Feeds:      store,
		Summarizer: summarizer,
		Notifier:   factory(notifier),
		Logger:     quietLogger(),
	})

	report := p.Run(context.Background(), testConfig())
	assert.True(t, report.Delivered)
	assert.Equal(t, 4, report.Collected)
	assert.Equal(t, 3, report.New, "the repost is dropped within the run")
	assert.Equal(t, 3, report.Summarized)
	assert.Equal(t, 3, report.Saved)

	// 2 headers + 3 articles fit one batch.
	require.Len(t, notifier.payloads, 1)
	units := notifier.payloads[0].Embeds
	require.Len(t, units, 5)
	assert.Equal(t, "💻 개발", units[0].Title)
	assert.Equal(t, "🔥 AI 뉴스", units[1].Title)
	assert.Equal(t, "summary of AI 뉴스", units[1].Description)
	assert.Equal(t, "📝 블로그", units[3].Title)
	assert.Equal(t, "📰 **새로운 기사가 도착했습니다!** (총 3개: 개발 2, 블로그 1)", notifier.payloads[0].Content)

	saved := store.saved["https://dev.example.com/1"]
	assert.Equal(t, "개발", saved.Category)
	assert.Equal(t, domain.SummaryCompleted, saved.SummaryStatus)

	assert.Equal(t, 1, store.syncRuns)
	assert.Len(t, store.feeds, 4)

	// Second run: everything is already seen.
	again := p.Run(context.Background(), testConfig())
	assert.True(t, again.Delivered)
	assert.Zero(t, again.New)
	assert.Len(t, notifier.payloads, 1)
}

func TestRunPersistsEvenWhenDeliveryFails(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	p := NewPipeline(PipelineDeps{
		Reader:   testReader(),
		Articles: store,
		Notifier: factory(&recordingNotifier{err: errors.New("webhook down")}),
		Logger:   quietLogger(),
	})

	report := p.Run(context.Background(), testConfig())
	assert.False(t, report.Delivered)
	assert.Equal(t, 3, report.Saved)
	for _, a := range store.saved {
		assert.Equal(t, domain.SummarySkipped, a.SummaryStatus)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	notifier := &recordingNotifier{}
	p := NewPipeline(PipelineDeps{
		Reader:   testReader(),
		Articles: store,
		Feeds:    store,
		Notifier: factory(notifier),
		Logger:   quietLogger(),
		DryRun:   true,
	})

	report := p.Run(context.Background(), testConfig())
	assert.True(t, report.DryRun)
	assert.True(t, report.Delivered)
	assert.Len(t, notifier.payloads, 1)
	assert.Empty(t, store.saved)
	assert.Zero(t, store.syncRuns)
}

func TestRunSummaryOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want domain.SummaryStatus
	}{
		{name: "not configured", err: domain.ErrNotConfigured, want: domain.SummarySkipped},
		{name: "provider error", err: errors.New("quota exceeded"), want: domain.SummaryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			notifier := &recordingNotifier{}
			p := NewPipeline(PipelineDeps{
				Reader:     testReader(),
				Articles:   store,
				Summarizer: &fakeSummarizer{err: tt.err},
				Notifier:   factory(notifier),
				Logger:     quietLogger(),
			})

			report := p.Run(context.Background(), testConfig())
			assert.True(t, report.Delivered)
			assert.Zero(t, report.Summarized)
			for _, a := range store.saved {
				assert.Equal(t, tt.want, a.SummaryStatus)
			}
			// Without a summary the card falls back to the feed description.
			assert.Empty(t, notifier.payloads[0].Embeds[1].Description)
		})
	}
}

func TestRunToleratesStoreFailures(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seenErr = errors.New("db locked")
	store.saveErr = errors.New("disk full")
	store.syncErr = errors.New("db locked")
	notifier := &recordingNotifier{}

	p := NewPipeline(PipelineDeps{
		Reader:   testReader(),
		Articles: store,
		Feeds:    store,
		Notifier: factory(notifier),
		Logger:   quietLogger(),
	})

	report := p.Run(context.Background(), testConfig())
	assert.True(t, report.Delivered)
	assert.Equal(t, 3, report.New)
	assert.Zero(t, report.Saved)
	assert.Equal(t, 3, report.SaveFailures)
}

func TestRunWithoutCategories(t *testing.T) {
	t.Parallel()

	reader := testReader()
	p := NewPipeline(PipelineDeps{Reader: reader, Notifier: factory(&recordingNotifier{}), Logger: quietLogger()})

	report := p.Run(context.Background(), config.Default())
	assert.True(t, report.Delivered)
	assert.Empty(t, reader.calls)
}

func TestRunWithoutNotifier(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	p := NewPipeline(PipelineDeps{Reader: testReader(), Articles: store, Logger: quietLogger()})

	report := p.Run(context.Background(), testConfig())
	assert.False(t, report.Delivered)
	assert.Equal(t, 3, report.Saved)
}
