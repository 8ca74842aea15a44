// Package storage defines the durable document store and its SQLite implementation.
package storage

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_document_store.go -package=mocks github.com/hyperjump/ingat/internal/storage DocumentStore

import (
	"context"
	"errors"

	"github.com/hyperjump/ingat/internal/models"
)

// ErrNotFound is returned when a document id does not exist.
var ErrNotFound = errors.New("document not found")

// DocumentStore persists documents together with their embeddings.
type DocumentStore interface {
	// InsertDocument persists a document and returns its newly assigned id.
	InsertDocument(ctx context.Context, content string, metadata map[string]interface{}, embedding []float32) (int64, error)
	// GetDocument returns a document by id, or ErrNotFound.
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	// ListDocuments returns every document ordered by ascending id.
	ListDocuments(ctx context.Context) ([]*models.Document, error)
	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int64, error)
	Close() error
}
