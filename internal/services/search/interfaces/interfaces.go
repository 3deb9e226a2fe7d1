package interfaces

import (
	"context"

	"docsearch/internal/domain/models"
)

// Embedder turns query text into an embedding vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DocumentProvider runs the ranked similarity lookup
type DocumentProvider interface {
	SimilaritySearch(ctx context.Context, embedding []float32, limit int) ([]models.SearchResult, error)
}

// ResultCache stores serialized result sets. Look-aside only: a failing
// cache degrades to a direct lookup.
type ResultCache interface {
	SearchResult(ctx context.Context, key string) ([]byte, error)
	SaveSearchResult(ctx context.Context, key string, payload []byte) error
}
