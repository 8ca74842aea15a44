// Package ingest extracts text from files, splits it into chunks and adds each chunk
// to the memory as a document.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/ingat/internal/extract"
	"github.com/hyperjump/ingat/internal/models"
	"github.com/hyperjump/ingat/pkg/utils"
)

// Metadata keys written on every ingested chunk.
const (
	MetaSource      = "source"
	MetaSourceID    = "source_id"
	MetaChunkIndex  = "chunk_index"
	MetaChunkCount  = "chunk_count"
	MetaIngestID    = "ingest_id"
	MetaContentHash = "content_sha256"
)

// ErrNoText is returned when a file yields no words.
var ErrNoText = errors.New("no text extracted")

// Memory is where chunks are added and existing chunks are looked up.
type Memory interface {
	AddDocument(ctx context.Context, content string, metadata map[string]interface{}) (int64, error)
	ListDocuments(ctx context.Context) []*models.Document
}

// FileResult describes the outcome for one file.
type FileResult struct {
	Path        string  `json:"path"`
	SourceID    string  `json:"source_id"`
	IngestID    string  `json:"ingest_id,omitempty"`
	DocumentIDs []int64 `json:"document_ids,omitempty"`
	Skipped     bool    `json:"skipped,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Summary aggregates the results of ingesting a path.
type Summary struct {
	Files    []FileResult `json:"files"`
	Ingested int          `json:"ingested"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
	Chunks   int          `json:"chunks"`
}

func (s *Summary) add(r FileResult) {
	s.Files = append(s.Files, r)
	switch {
	case r.Error != "":
		s.Failed++
	case r.Skipped:
		s.Skipped++
	default:
		s.Ingested++
	}
	s.Chunks += len(r.DocumentIDs)
}

// Ingester adds files to a Memory.
type Ingester struct {
	memory    Memory
	extractor *extract.Extractor
	chunker   *Chunker
	patterns  []string
	logger    *zap.Logger
	mu        sync.Mutex // one ingest at a time so deduplication sees earlier writes
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingester) { in.logger = l }
}

// WithPatterns limits directory ingestion to paths matching any doublestar pattern,
// relative to the directory.
func WithPatterns(patterns []string) Option {
	return func(in *Ingester) { in.patterns = patterns }
}

// WithChunking sets the chunk size and overlap in words.
func WithChunking(size, overlap int) Option {
	return func(in *Ingester) { in.chunker = NewChunker(size, overlap) }
}

// New creates an Ingester. extractor may be nil, in which case the default set of formats is used.
func New(memory Memory, extractor *extract.Extractor, opts ...Option) *Ingester {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	in := &Ingester{
		memory:    memory,
		extractor: extractor,
		chunker:   NewChunker(200, 20),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		in.logger = zap.NewNop()
	}
	return in
}

// Accepts reports whether path, found under root, would be picked up by directory ingestion.
func (in *Ingester) Accepts(root, path string) bool {
	if !in.extractor.Supported(path) {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return utils.MatchAny(in.patterns, rel)
}

// IngestPath ingests a single file, or every accepted file under a directory.
func (in *Ingester) IngestPath(ctx context.Context, path string) (*Summary, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if info.IsDir() {
		return in.IngestDirectory(ctx, abs)
	}
	res, err := in.IngestFile(ctx, abs)
	if err != nil {
		return nil, err
	}
	summary := &Summary{}
	summary.add(*res)
	return summary, nil
}

// IngestFile extracts, chunks and adds one file. A file whose content was already
// fully ingested from the same path is skipped.
func (in *Ingester) IngestFile(ctx context.Context, path string) (*FileResult, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.ingestFile(ctx, path, in.known(ctx))
}

// IngestDirectory walks dir and ingests every accepted regular file. Hidden files
// and directories are skipped. Per-file failures are recorded in the summary and do
// not stop the walk.
func (in *Ingester) IngestDirectory(ctx context.Context, dir string) (*Summary, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", abs)
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	known := in.known(ctx)
	summary := &Summary{}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != abs && utils.IsHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !in.Accepts(abs, path) {
			return nil
		}
		res, err := in.ingestFile(ctx, path, known)
		if err != nil {
			in.logger.Warn("ingest failed", zap.String("path", path), zap.Error(err))
			summary.add(FileResult{Path: path, SourceID: SourceID(path), Error: err.Error()})
			return nil
		}
		summary.add(*res)
		return nil
	})
	in.logger.Info("directory ingested",
		zap.String("path", abs),
		zap.Int("ingested", summary.Ingested),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("chunks", summary.Chunks))
	return summary, err
}

func (in *Ingester) ingestFile(ctx context.Context, path string, known sourceIndex) (*FileResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", abs)
	}

	raw, err := in.extractor.Extract(abs)
	if err != nil {
		return nil, fmt.Errorf("extract content: %w", err)
	}
	text := Preprocess(raw)
	if text == "" {
		return nil, fmt.Errorf("%s: %w", abs, ErrNoText)
	}

	res := &FileResult{Path: abs, SourceID: SourceID(abs)}
	hash := ContentHash(text)
	if known.complete(res.SourceID, hash) {
		res.Skipped = true
		in.logger.Debug("skipping unchanged file", zap.String("path", abs))
		return res, nil
	}

	chunks := in.chunker.Chunk(text)
	res.IngestID = uuid.NewString()
	for i, chunk := range chunks {
		meta := map[string]interface{}{
			MetaSource:      abs,
			MetaSourceID:    res.SourceID,
			MetaChunkIndex:  i,
			MetaChunkCount:  len(chunks),
			MetaIngestID:    res.IngestID,
			MetaContentHash: hash,
		}
		id, err := in.memory.AddDocument(ctx, chunk, meta)
		if err != nil {
			return nil, fmt.Errorf("add chunk %d of %d: %w", i+1, len(chunks), err)
		}
		res.DocumentIDs = append(res.DocumentIDs, id)
		known.record(res.SourceID, hash, i, len(chunks))
	}
	in.logger.Info("file ingested",
		zap.String("path", abs),
		zap.Int("chunks", len(chunks)),
		zap.String("ingest_id", res.IngestID))
	return res, nil
}

// sourceIndex tracks, per source id and content hash, which chunk indexes are stored.
type sourceIndex map[string]*chunkSet

type chunkSet struct {
	count   int
	indexes map[int]bool
}

func sourceKey(sourceID, hash string) string {
	return sourceID + "\x00" + hash
}

func (s sourceIndex) record(sourceID, hash string, index, count int) {
	key := sourceKey(sourceID, hash)
	set, ok := s[key]
	if !ok {
		set = &chunkSet{count: count, indexes: make(map[int]bool)}
		s[key] = set
	}
	set.indexes[index] = true
}

func (s sourceIndex) complete(sourceID, hash string) bool {
	set, ok := s[sourceKey(sourceID, hash)]
	return ok && set.count > 0 && len(set.indexes) >= set.count
}

// known builds the source index from the documents already in memory.
func (in *Ingester) known(ctx context.Context) sourceIndex {
	idx := make(sourceIndex)
	for _, doc := range in.memory.ListDocuments(ctx) {
		sourceID, _ := doc.Metadata[MetaSourceID].(string)
		hash, _ := doc.Metadata[MetaContentHash].(string)
		if sourceID == "" || hash == "" {
			continue
		}
		index, ok1 := metaInt(doc.Metadata[MetaChunkIndex])
		count, ok2 := metaInt(doc.Metadata[MetaChunkCount])
		if !ok1 || !ok2 {
			continue
		}
		idx.record(sourceID, hash, index, count)
	}
	return idx
}

// metaInt reads an integer metadata value; JSON round trips turn ints into float64.
func metaInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
