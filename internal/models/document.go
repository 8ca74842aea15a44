// Package models defines core data structures for documents, queries, and search results.
package models

import "time"

// Document is a stored knowledge-base entry. ID is assigned by the store and increases
// monotonically.
type Document struct {
	ID        int64                  `json:"id" db:"id"`
	Content   string                 `json:"content" db:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	Embedding []float32              `json:"-" db:"embedding"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
}

// DocumentInput is the input for adding a document.
type DocumentInput struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
