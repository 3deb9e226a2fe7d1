package models

import (
	uu "github.com/google/uuid"
)

// Document is one indexed documentation chunk with its embedding vector
type Document struct {
	ID      uu.UUID `json:"id" db:"id"`
	Source  string  `json:"source" db:"source"`
	Title   string  `json:"title" db:"title"`
	Content string  `json:"content" db:"content"`
}

// SearchResult is a ranked document returned by the similarity lookup
type SearchResult struct {
	Document
	Score float64 `json:"score"`
}
