package config

import "time"

// Provider names.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
	ProviderONNX   = "onnx"
)

// MemoryDatabase keeps the document store in memory only.
const MemoryDatabase = ":memory:"

const (
	defaultOllamaHost     = "http://localhost:11434"
	defaultEmbeddingModel = "qwen3:4b-instruct"
	defaultChatModel      = "qwen3:latest"
)

// DefaultPatterns are the ingest globs used when none are configured.
var DefaultPatterns = []string{"**/*.txt", "**/*.md", "**/*.rst", "**/*.pdf", "**/*.docx", "**/*.xlsx"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite3"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = ".ingat/ingat.db"
	}
	if cfg.Vector.IndexType == "" {
		cfg.Vector.IndexType = "memory"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderOllama
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaultEmbeddingModel
	}
	if cfg.Embedding.BaseURL == "" && cfg.Embedding.Provider == ProviderOllama {
		cfg.Embedding.BaseURL = defaultOllamaHost
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 128
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 60 * time.Second
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}

	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = ProviderOllama
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = defaultChatModel
	}
	if cfg.Generation.BaseURL == "" && cfg.Generation.Provider == ProviderOllama {
		cfg.Generation.BaseURL = defaultOllamaHost
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = 120 * time.Second
	}

	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 10
	}

	if cfg.Ingest.Patterns == nil {
		cfg.Ingest.Patterns = append([]string(nil), DefaultPatterns...)
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 200
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 20
	}
	if cfg.Ingest.Debounce == 0 {
		cfg.Ingest.Debounce = 500 * time.Millisecond
	}
}
