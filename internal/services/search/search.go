package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"docsearch/internal/domain/models"
	"docsearch/internal/services/search/interfaces"
	"docsearch/internal/storage"
)

// DefaultLimit bounds the result set when the caller supplies none
const DefaultLimit = 5

// MaxLimit caps the result set regardless of what the caller asks for
const MaxLimit = 25

// Service answers semantic documentation queries: one embedding call,
// one ranked vector lookup, with a look-aside redis cache in front
type Service struct {
	log      *slog.Logger
	embedder interfaces.Embedder
	docs     interfaces.DocumentProvider
	cache    interfaces.ResultCache
}

// New returns a new instance of the search Service.
// cache may be nil, lookups then always go to storage.
func New(
	log *slog.Logger,
	embedder interfaces.Embedder,
	docs interfaces.DocumentProvider,
	cache interfaces.ResultCache,
) *Service {
	return &Service{
		log:      log,
		embedder: embedder,
		docs:     docs,
		cache:    cache,
	}
}

// Search returns the limit most similar documents for the query
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	const op = "search.Search"
	logger := s.log.With(slog.String("op", op))

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	key := cacheKey(query, limit)
	if s.cache != nil {
		if payload, err := s.cache.SearchResult(ctx, key); err == nil {
			var cached []models.SearchResult
			if err = json.Unmarshal(payload, &cached); err == nil {
				logger.Debug("search cache hit")
				return cached, nil
			}
			logger.Warn("failed to decode cached result", slog.String("error", err.Error()))
		} else if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("search cache unavailable", slog.String("error", err.Error()))
		}
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	results, err := s.docs.SimilaritySearch(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(results); err == nil {
			if err = s.cache.SaveSearchResult(ctx, key, payload); err != nil {
				logger.Warn("failed to fill search cache", slog.String("error", err.Error()))
			}
		}
	}
	logger.Info("search completed", slog.Int("results", len(results)))
	return results, nil
}

func cacheKey(query string, limit int) string {
	sum := sha256.Sum256([]byte(query + "\x00" + strconv.Itoa(limit)))
	return "search:" + hex.EncodeToString(sum[:])
}
