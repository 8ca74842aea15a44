package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultOllamaHost is used when no base URL is configured.
const DefaultOllamaHost = "http://localhost:11434"

// OllamaClient calls the Ollama embeddings and generate endpoints.
// It satisfies both embedding.Embedder and chat.Generator.
type OllamaClient struct {
	BaseURL string
	Model   string
	client  *http.Client
}

// NewOllamaClient creates a client for model served at baseURL.
func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultOllamaHost
	}
	return &OllamaClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  newHTTPClient(timeout),
	}
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Embed returns the embedding of text.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp ollamaEmbeddingResponse
	err := postJSON(ctx, c.client, c.BaseURL+"/api/embeddings", "",
		ollamaEmbeddingRequest{Model: c.Model, Prompt: text}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama embeddings: %w", ErrEmptyEmbedding)
	}
	return toFloat32(resp.Embedding), nil
}

// Generate returns the model's complete, non-streamed answer to prompt.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	var resp ollamaGenerateResponse
	err := postJSON(ctx, c.client, c.BaseURL+"/api/generate", "",
		ollamaGenerateRequest{Model: c.Model, Prompt: prompt, Stream: false}, &resp)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return resp.Response, nil
}

// Close is a no-op.
func (c *OllamaClient) Close() error {
	return nil
}
