// Package embedding provides text embedding providers and a bounded embedding cache.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Close() error
}

// EmbedFunc adapts a function to the compute step of EmbeddingCache.GetOrCompute.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)
