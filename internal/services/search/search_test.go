package search_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/domain/models"
	"docsearch/internal/services/search"
	"docsearch/internal/storage"
)

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeDocs struct {
	lastLimit int
	results   []models.SearchResult
}

func (f *fakeDocs) SimilaritySearch(_ context.Context, _ []float32, limit int) ([]models.SearchResult, error) {
	f.lastLimit = limit
	return f.results, nil
}

type fakeCache struct {
	entries map[string][]byte
}

func (f *fakeCache) SearchResult(_ context.Context, key string) ([]byte, error) {
	payload, ok := f.entries[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return payload, nil
}

func (f *fakeCache) SaveSearchResult(_ context.Context, key string, payload []byte) error {
	f.entries[key] = payload
	return nil
}

func newService(docs *fakeDocs, embedder *fakeEmbedder, cache *fakeCache) *search.Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cache == nil {
		return search.New(log, embedder, docs, nil)
	}
	return search.New(log, embedder, docs, cache)
}

func TestSearch_CacheRoundTrip(t *testing.T) {
	embedder := &fakeEmbedder{}
	docs := &fakeDocs{results: []models.SearchResult{
		{Document: models.Document{Title: "setup guide", Content: "..."}, Score: 0.91},
	}}
	cache := &fakeCache{entries: make(map[string][]byte)}
	svc := newService(docs, embedder, cache)
	ctx := context.Background()

	first, err := svc.Search(ctx, "how do I configure auth", 3)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, embedder.calls)

	// second identical query is served from cache, no embedding call
	second, err := svc.Search(ctx, "how do I configure auth", 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, embedder.calls)
}

func TestSearch_LimitClamping(t *testing.T) {
	docs := &fakeDocs{}
	svc := newService(docs, &fakeEmbedder{}, nil)
	ctx := context.Background()

	_, err := svc.Search(ctx, "q", 0)
	require.NoError(t, err)
	assert.Equal(t, search.DefaultLimit, docs.lastLimit)

	_, err = svc.Search(ctx, "q", 1000)
	require.NoError(t, err)
	assert.Equal(t, search.MaxLimit, docs.lastLimit)
}

func TestSearch_WorksWithoutCache(t *testing.T) {
	docs := &fakeDocs{results: []models.SearchResult{
		{Document: models.Document{Title: "a"}, Score: 0.5},
	}}
	svc := newService(docs, &fakeEmbedder{}, nil)

	results, err := svc.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
