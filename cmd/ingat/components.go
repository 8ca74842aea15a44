package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/ingat/internal/chat"
	"github.com/hyperjump/ingat/internal/config"
	"github.com/hyperjump/ingat/internal/embedding"
	"github.com/hyperjump/ingat/internal/extract"
	"github.com/hyperjump/ingat/internal/ingest"
	"github.com/hyperjump/ingat/internal/llm"
	"github.com/hyperjump/ingat/internal/memory"
	"github.com/hyperjump/ingat/internal/storage"
	"github.com/hyperjump/ingat/internal/vector"
	"github.com/hyperjump/ingat/pkg/utils"
)

// loadConfig loads config from path. When path is the default, a config.yaml in the
// current directory takes precedence so that running from a project dir uses the
// project's config. A missing default file yields defaults plus environment.
// Returns the config and the path that was actually used.
func loadConfig(path string) (*config.Config, string, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, "", err
	}
	if path == config.DefaultPath() {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		cfg, err := config.LoadOrDefault(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

type generator interface {
	chat.Generator
	Close() error
}

// Components holds initialized services.
type Components struct {
	Config    *config.Config
	Logger    *zap.Logger
	Storage   *storage.SQLiteStorage
	Embedder  embedding.Embedder
	Generator generator
	Memory    *memory.Store
	Chat      *chat.Orchestrator
	Ingester  *ingest.Ingester
}

// Close releases the store, index and providers and flushes the logger.
func (c *Components) Close() {
	if c.Memory != nil {
		_ = c.Memory.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

func newEmbedder(cfg *config.EmbeddingConfig, logger *zap.Logger) embedding.Embedder {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout)
	case config.ProviderHash:
		return embedding.NewHashEmbedder(cfg.Dimensions)
	case config.ProviderONNX:
		e, err := embedding.NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			logger.Warn("onnx embedder unavailable, falling back to hash embedder",
				zap.String("model_path", cfg.ModelPath), zap.Error(err))
			return embedding.NewHashEmbedder(cfg.Dimensions)
		}
		return e
	default:
		return llm.NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.Timeout)
	}
}

func newGenerator(cfg *config.GenerationConfig) generator {
	if cfg.Provider == config.ProviderOpenAI {
		return llm.NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout)
	}
	return llm.NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.Timeout)
}

func newVectorIndex(cfg *config.Config, logger *zap.Logger) (vector.Index, error) {
	idx, err := vector.NewIndex(cfg.Vector.IndexType, cfg.Embedding.Dimensions)
	if err != nil {
		// Fall back to memory index if configured type fails (e.g., FAISS not compiled in)
		if cfg.Vector.IndexType == string(vector.IndexTypeMemory) || cfg.Vector.IndexType == "" {
			return nil, fmt.Errorf("failed to initialize vector index: %w", err)
		}
		logger.Warn("failed to create vector index, falling back to memory",
			zap.String("requested_type", cfg.Vector.IndexType),
			zap.Error(err))
		idx, err = vector.NewIndex(string(vector.IndexTypeMemory), cfg.Embedding.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vector index: %w", err)
		}
	}
	logger.Debug("vector index initialized",
		zap.String("type", cfg.Vector.IndexType),
		zap.Bool("faiss_available", vector.IsFAISSAvailable()))
	return idx, nil
}

// initializeComponents opens the document store, builds the providers and loads the memory.
// The returned memory is Ready.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	logger = utils.OrNop(logger)
	c := &Components{Config: cfg, Logger: logger}

	store, err := storage.NewSQLiteStorage(cfg.Storage.Driver, cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Storage = store
	logger.Debug("document store opened",
		zap.String("driver", store.Driver()),
		zap.String("path", store.Path()))
	c.Embedder = newEmbedder(&cfg.Embedding, logger)
	c.Generator = newGenerator(&cfg.Generation)

	idx, err := newVectorIndex(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	mem, err := memory.New(store, c.Embedder,
		memory.WithLogger(logger),
		memory.WithCacheSize(cfg.Embedding.CacheSize),
		memory.WithDimensions(cfg.Embedding.Dimensions),
		memory.WithMaxDocuments(cfg.Storage.MaxDocuments),
		memory.WithEmbedTimeout(cfg.Embedding.Timeout),
		memory.WithIndex(idx),
	)
	if err != nil {
		_ = idx.Close()
		c.Close()
		return nil, fmt.Errorf("failed to create memory: %w", err)
	}
	c.Memory = mem
	if err := mem.Load(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load memory: %w", err)
	}

	c.Chat = chat.NewOrchestrator(mem, c.Generator,
		chat.WithTopK(cfg.RAG.TopK),
		chat.WithTimeout(cfg.Generation.Timeout),
		chat.WithLogger(logger),
	)
	c.Ingester = ingest.New(mem, extract.NewExtractor(),
		ingest.WithLogger(logger),
		ingest.WithPatterns(cfg.Ingest.Patterns),
		ingest.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
	)
	return c, nil
}
