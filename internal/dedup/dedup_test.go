package dedup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NotifyNiche/internal/domain"
)

type fakeRepo struct {
	seen    map[string]bool
	err     error
	queried [][]string
}

func (f *fakeRepo) SeenLinks(_ context.Context, links []string) (map[string]bool, error) {
	f.queried = append(f.queried, links)
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]bool{}
	for _, l := range links {
		if f.seen[l] {
			out[l] = true
		}
	}
	return out, nil
}

func (f *fakeRepo) SaveArticle(_ context.Context, a domain.Article) error {
	f.seen[a.Link] = true
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFilterKeepsFirstOccurrence(t *testing.T) {
	t.Parallel()

	in := []domain.Article{
		{Title: "first", Link: "https://example.com/a"},
		{Title: "other", Link: "https://example.com/b"},
		{Title: "second", Link: "https://example.com/a"},
	}

	got, stats := Filter(in, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, "other", got[1].Title)
	assert.Equal(t, Stats{Total: 3, Unique: 2, New: 2}, stats)
}

func TestFilterDropsSeenLinks(t *testing.T) {
	t.Parallel()

	in := []domain.Article{
		{Link: "https://example.com/a"},
		{Link: "https://example.com/b"},
		{Link: "https://example.com/c"},
	}

	got, stats := Filter(in, map[string]bool{"https://example.com/b": true})
	require.Len(t, got, 2)
	assert.Equal(t, "https://example.com/a", got[0].Link)
	assert.Equal(t, "https://example.com/c", got[1].Link)
	assert.Equal(t, 2, stats.New)
}

func TestFilterNewSecondRunIsEmpty(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{seen: map[string]bool{}}
	d := New(repo, quietLogger())
	in := []domain.Article{{Link: "a"}, {Link: "b"}, {Link: "a"}}

	first := d.FilterNew(context.Background(), in)
	require.Len(t, first, 2)
	for _, a := range first {
		require.NoError(t, repo.SaveArticle(context.Background(), a))
	}

	second := d.FilterNew(context.Background(), in)
	assert.Empty(t, second)
	require.Len(t, repo.queried, 2)
}

func TestFilterNewDegradesWhenStoreFails(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{err: errors.New("connection refused")}
	d := New(repo, quietLogger())

	got := d.FilterNew(context.Background(), []domain.Article{{Link: "a"}, {Link: "b"}})
	assert.Len(t, got, 2)
}

func TestFilterNewWithoutRepository(t *testing.T) {
	t.Parallel()

	got := New(nil, quietLogger()).FilterNew(context.Background(), []domain.Article{{Link: "a"}, {Link: "a"}})
	assert.Len(t, got, 1)
}
