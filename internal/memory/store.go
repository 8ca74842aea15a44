// Package memory keeps an in-memory vector index synchronized with the durable
// document store and serves add and similarity-search operations over both.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ingat/internal/embedding"
	"github.com/hyperjump/ingat/internal/models"
	"github.com/hyperjump/ingat/internal/storage"
	"github.com/hyperjump/ingat/internal/vector"
)

const (
	// DefaultCacheSize is the embedding cache bound when none is configured.
	DefaultCacheSize = 1000
	// DefaultDimensions is the vector length assumed before any embedding is seen.
	DefaultDimensions = 128
)

// Phase is the lifecycle state of a Store.
type Phase int32

const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseReady
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseClosed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// tombstone marks a slot whose document was never persisted.
const tombstone int64 = 0

// Store is the vector memory: it owns the embedding cache and the vector index and
// maps every index slot to the id of the document it was built from.
type Store struct {
	docs     storage.DocumentStore
	embedder embedding.Embedder
	cache    *embedding.EmbeddingCache
	index    vector.Index
	logger   *zap.Logger

	cacheSize         int
	defaultDimensions int
	maxDocuments      int64
	embedTimeout      time.Duration

	phase   atomic.Int32
	writeMu sync.Mutex // one writer: Load and AddDocument

	slotsMu sync.RWMutex
	slots   []int64 // slot -> document id
}

// New creates a Store in the Uninitialized phase. Call Load before use and Close when done.
// The store does not close docs or embedder.
func New(docs storage.DocumentStore, embedder embedding.Embedder, opts ...Option) (*Store, error) {
	if docs == nil {
		return nil, errors.New("document store is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	s := &Store{
		docs:              docs,
		embedder:          embedder,
		cacheSize:         DefaultCacheSize,
		defaultDimensions: DefaultDimensions,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.defaultDimensions <= 0 {
		s.defaultDimensions = DefaultDimensions
	}
	if s.index == nil {
		idx, err := vector.NewMemoryIndex(s.defaultDimensions)
		if err != nil {
			return nil, err
		}
		s.index = idx
	}
	s.cache = embedding.NewEmbeddingCache(s.cacheSize)
	return s, nil
}

// Load rebuilds the index from the document store's ordered listing and moves the
// store to Ready. Documents without a usable embedding are skipped. If the listing
// fails the store returns to Uninitialized so Load can be retried. A closed store
// cannot be loaded again.
func (s *Store) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.Phase() == PhaseClosed {
		return ErrClosed
	}
	if !s.phase.CompareAndSwap(int32(PhaseUninitialized), int32(PhaseLoading)) {
		return ErrAlreadyLoaded
	}
	start := time.Now()
	s.logger.Info("loading documents into vector index")

	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		s.phase.Store(int32(PhaseUninitialized))
		return fmt.Errorf("list documents: %w", err)
	}

	for _, doc := range docs {
		if len(doc.Embedding) > 0 {
			s.pinDimensions(len(doc.Embedding))
			break
		}
	}

	dims := s.index.Dimensions()
	loaded, skipped := 0, 0
	for _, doc := range docs {
		if len(doc.Embedding) != dims {
			skipped++
			s.logger.Warn("skipping document without usable embedding",
				zap.Int64("id", doc.ID),
				zap.Int("embedding_len", len(doc.Embedding)),
				zap.Int("dimensions", dims))
			continue
		}
		slot, err := s.index.Insert(doc.Embedding)
		if err != nil {
			skipped++
			s.logger.Warn("skipping document rejected by index", zap.Int64("id", doc.ID), zap.Error(err))
			continue
		}
		s.setSlot(slot, doc.ID)
		loaded++
	}

	s.phase.Store(int32(PhaseReady))
	s.logger.Info("vector index ready",
		zap.Int("documents", len(docs)),
		zap.Int("loaded", loaded),
		zap.Int("skipped", skipped),
		zap.Int("dimensions", s.index.Dimensions()),
		zap.Duration("took", time.Since(start)))
	return nil
}

// AddDocument embeds content, appends the vector to the index and persists the
// document, returning its id. If persisting fails the new slot is tombstoned and
// no id is returned.
func (s *Store) AddDocument(ctx context.Context, content string, metadata map[string]interface{}) (int64, error) {
	if s.Phase() != PhaseReady {
		return 0, ErrNotReady
	}
	if strings.TrimSpace(content) == "" {
		return 0, ErrEmptyContent
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.maxDocuments > 0 {
		n, err := s.docs.CountDocuments(ctx)
		if err != nil {
			return 0, fmt.Errorf("count documents: %w", err)
		}
		if n >= s.maxDocuments {
			return 0, fmt.Errorf("%w: %d of %d", ErrDocumentLimit, n, s.maxDocuments)
		}
	}

	vec := s.embed(ctx, content)
	slot, err := s.index.Insert(vec)
	if err != nil {
		return 0, fmt.Errorf("index document: %w", err)
	}

	id, err := s.docs.InsertDocument(ctx, content, metadata, vec)
	if err != nil {
		s.setSlot(slot, tombstone)
		if derr := s.index.Deactivate(slot); derr != nil {
			s.logger.Error("failed to tombstone slot", zap.Int("slot", slot), zap.Error(derr))
		}
		s.logger.Error("document not persisted, slot tombstoned", zap.Int("slot", slot), zap.Error(err))
		return 0, fmt.Errorf("persist document: %w", err)
	}
	s.setSlot(slot, id)

	s.logger.Info("document added",
		zap.Int64("id", id),
		zap.Int("slot", slot),
		zap.Time("sent_at", time.Now()))
	return id, nil
}

// Search returns up to k documents nearest to query, most similar first.
// Hits whose document can no longer be read are dropped.
func (s *Store) Search(ctx context.Context, query string, k int) ([]*models.SearchResult, error) {
	if s.Phase() != PhaseReady {
		return nil, ErrNotReady
	}
	if k <= 0 {
		return nil, nil
	}
	vec := s.embed(ctx, query)
	neighbors, err := s.index.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	results := make([]*models.SearchResult, 0, len(neighbors))
	for _, n := range neighbors {
		id, ok := s.slotID(n.Slot)
		if !ok {
			continue
		}
		doc, err := s.docs.GetDocument(ctx, id)
		if err != nil {
			s.logger.Debug("dropping unresolvable hit", zap.Int("slot", n.Slot), zap.Int64("id", id), zap.Error(err))
			continue
		}
		results = append(results, &models.SearchResult{Document: doc, Similarity: n.Similarity()})
	}
	return results, nil
}

// Count returns the number of stored documents, or zero if the store cannot be read.
func (s *Store) Count(ctx context.Context) int64 {
	n, err := s.docs.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("count documents failed", zap.Error(err))
		return 0
	}
	return n
}

// ListDocuments returns every stored document ordered by id, or nil if the store cannot be read.
func (s *Store) ListDocuments(ctx context.Context) []*models.Document {
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		return nil
	}
	return docs
}

// GetDocument returns a stored document by id.
func (s *Store) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	return s.docs.GetDocument(ctx, id)
}

// Stats reports the current phase, index and cache state.
func (s *Store) Stats(ctx context.Context) models.Stats {
	return models.Stats{
		Phase:         s.Phase().String(),
		Documents:     s.Count(ctx),
		IndexSize:     s.index.Size(),
		Tombstones:    s.index.Tombstones(),
		Dimensions:    s.index.Dimensions(),
		CacheEntries:  s.cache.Len(),
		CacheCapacity: s.cache.Capacity(),
		MaxDocuments:  s.maxDocuments,
	}
}

// Phase returns the lifecycle phase.
func (s *Store) Phase() Phase {
	return Phase(s.phase.Load())
}

// Dimensions returns the pinned embedding dimension.
func (s *Store) Dimensions() int {
	return s.index.Dimensions()
}

// MaxDocuments returns the configured document limit, zero when unlimited.
func (s *Store) MaxDocuments() int64 {
	return s.maxDocuments
}

// Close releases the index. The store is terminal afterwards: Load returns
// ErrClosed and every other operation returns ErrNotReady. Closing twice is a no-op.
func (s *Store) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if Phase(s.phase.Swap(int32(PhaseClosed))) == PhaseClosed {
		return nil
	}
	return s.index.Close()
}

// embed returns the cached or freshly computed embedding for text. On provider
// failure it returns a zero vector of the pinned dimension.
func (s *Store) embed(ctx context.Context, text string) []float32 {
	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}
	vec, err := s.cache.GetOrCompute(ctx, text, s.embedder.Embed)
	if err != nil {
		dims := s.index.Dimensions()
		s.logger.Warn("embedding failed, using zero vector", zap.Int("dimensions", dims), zap.Error(err))
		return make([]float32, dims)
	}
	s.pinDimensions(len(vec))
	return vec
}

// pinDimensions re-pins the index to n while it is still empty.
func (s *Store) pinDimensions(n int) {
	if n == s.index.Dimensions() || s.index.Size() > 0 {
		return
	}
	if err := s.index.Rebuild(n); err != nil {
		// lost a race with a concurrent insert; the index keeps its dimension
		s.logger.Debug("dimension re-pin skipped", zap.Int("dimensions", n), zap.Error(err))
		return
	}
	s.logger.Info("embedding dimension re-pinned", zap.Int("dimensions", n))
}

func (s *Store) setSlot(slot int, id int64) {
	s.slotsMu.Lock()
	defer s.slotsMu.Unlock()
	for len(s.slots) <= slot {
		s.slots = append(s.slots, tombstone)
	}
	s.slots[slot] = id
}

func (s *Store) slotID(slot int) (int64, bool) {
	s.slotsMu.RLock()
	defer s.slotsMu.RUnlock()
	if slot < 0 || slot >= len(s.slots) || s.slots[slot] == tombstone {
		return 0, false
	}
	return s.slots[slot], true
}
