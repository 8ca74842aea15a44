package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables overlaid on the config file.
const (
	EnvTopK           = "RAG_TOP_K"
	EnvCacheSize      = "RAG_CACHE_SIZE"
	EnvDimensions     = "RAG_DEFAULT_DIMENSION"
	EnvMaxDocuments   = "MAX_DOCUMENTS"
	EnvOllamaHost     = "OLLAMA_HOST"
	EnvEmbeddingModel = "MODEL_EMB"
	EnvChatModel      = "MODEL_CHAT"
	EnvDatabasePath   = "INGAT_DB_PATH"
	EnvDatabaseDriver = "INGAT_DB_DRIVER"
	EnvAPIKey         = "INGAT_API_KEY"
)

// LoadDotEnv loads variables from the given .env files, or ./.env when none are
// given. Missing files are ignored; variables already set take precedence.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with any of the recognised environment variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := envInt(EnvTopK, &cfg.RAG.TopK); err != nil {
		return err
	}
	if err := envInt(EnvCacheSize, &cfg.Embedding.CacheSize); err != nil {
		return err
	}
	if err := envInt(EnvDimensions, &cfg.Embedding.Dimensions); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvMaxDocuments); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxDocuments, v, err)
		}
		cfg.Storage.MaxDocuments = n
	}
	if v := os.Getenv(EnvOllamaHost); v != "" {
		if cfg.Embedding.Provider == "" || cfg.Embedding.Provider == ProviderOllama {
			cfg.Embedding.BaseURL = v
		}
		if cfg.Generation.Provider == "" || cfg.Generation.Provider == ProviderOllama {
			cfg.Generation.BaseURL = v
		}
	}
	envString(EnvEmbeddingModel, &cfg.Embedding.Model)
	envString(EnvChatModel, &cfg.Generation.Model)
	envString(EnvDatabasePath, &cfg.Storage.DatabasePath)
	envString(EnvDatabaseDriver, &cfg.Storage.Driver)
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.Embedding.APIKey = v
		cfg.Generation.APIKey = v
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}
