package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"docsearch/internal/domain/models"
	"docsearch/internal/storage/postgres"
)

// DocumentRepository makes ranked similarity queries against the documents table
type DocumentRepository struct {
	db *postgres.Storage
}

// NewDocumentRepository creates new instance of DocumentRepository
func NewDocumentRepository(db *postgres.Storage) *DocumentRepository {
	return &DocumentRepository{
		db: db,
	}
}

// SimilaritySearch returns the limit nearest documents to the query embedding,
// scored by cosine similarity
func (r *DocumentRepository) SimilaritySearch(ctx context.Context, embedding []float32, limit int) ([]models.SearchResult, error) {
	rows, err := r.db.Pool.Query(
		ctx,
		`SELECT id, source, title, content, 1 - (embedding <=> $1::vector) AS score
		 FROM documents
		 ORDER BY embedding <=> $1::vector
		 LIMIT $2`,
		vectorLiteral(embedding),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var res models.SearchResult
		if err = rows.Scan(&res.ID, &res.Source, &res.Title, &res.Content, &res.Score); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		results = append(results, res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document rows: %w", err)
	}
	return results, nil
}

// vectorLiteral renders an embedding in pgvector input syntax: [0.1,0.2,...]
func vectorLiteral(embedding []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
