package memory

import (
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ingat/internal/vector"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for load, add and fallback events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithCacheSize bounds the embedding cache.
func WithCacheSize(n int) Option {
	return func(s *Store) {
		s.cacheSize = n
	}
}

// WithDimensions sets the default dimension used until a real embedding is seen.
func WithDimensions(d int) Option {
	return func(s *Store) {
		s.defaultDimensions = d
	}
}

// WithMaxDocuments limits the number of stored documents. Zero means unlimited.
func WithMaxDocuments(n int64) Option {
	return func(s *Store) {
		s.maxDocuments = n
	}
}

// WithEmbedTimeout bounds each call to the embedding provider.
func WithEmbedTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.embedTimeout = d
	}
}

// WithIndex replaces the default in-memory index. The store takes ownership of idx.
func WithIndex(idx vector.Index) Option {
	return func(s *Store) {
		s.index = idx
	}
}
