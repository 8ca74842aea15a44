// Package chat composes retrieval results and a text generator into answers.
package chat

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_chat.go -package=mocks github.com/hyperjump/ingat/internal/chat Generator,Retriever

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ingat/internal/models"
	"github.com/hyperjump/ingat/pkg/utils"
)

// DefaultTopK is the number of documents retrieved as context.
const DefaultTopK = 10

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retriever finds the k documents most similar to a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]*models.SearchResult, error)
}

// Orchestrator answers queries directly or with retrieved context.
type Orchestrator struct {
	retriever Retriever
	generator Generator
	topK      int
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTopK sets how many documents are retrieved per RAG query.
func WithTopK(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithTimeout bounds each generation call.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(r Retriever, g Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		retriever: r,
		generator: g,
		topK:      DefaultTopK,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// TopK returns the retrieval depth.
func (o *Orchestrator) TopK() int {
	return o.topK
}

// Chat answers query. With useRAG the top documents are retrieved and placed in
// the prompt; when none are found the query is sent unchanged. Failures are
// reported in the returned text.
func (o *Orchestrator) Chat(ctx context.Context, query string, useRAG bool) string {
	if !useRAG {
		return o.generate(ctx, query)
	}

	results, err := o.retriever.Search(ctx, query, o.topK)
	if err != nil {
		o.logger.Warn("retrieval failed, answering without context", zap.Error(err))
		results = nil
	}
	o.logger.Info("sending query to RAG",
		zap.String("query", utils.Abbreviate(query, 80)),
		zap.Int("context_documents", len(results)),
		zap.Time("sent_at", time.Now()))
	return o.generate(ctx, BuildPrompt(query, results))
}

// Direct answers query without retrieval.
func (o *Orchestrator) Direct(ctx context.Context, query string) string {
	return o.generate(ctx, query)
}

func (o *Orchestrator) generate(ctx context.Context, prompt string) string {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		o.logger.Error("generation failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return fmt.Sprintf("Error generating response: %v", err)
	}
	o.logger.Debug("generation finished", zap.Duration("took", time.Since(start)))
	return strings.TrimSpace(out)
}

// BuildPrompt places results as context around query. With no results the
// query itself is the prompt.
func BuildPrompt(query string, results []*models.SearchResult) string {
	if len(results) == 0 {
		return query
	}
	var b strings.Builder
	b.WriteString("Answer the query using the provided context.\n\nQuery: ")
	b.WriteString(query)
	b.WriteString("\n")
	b.WriteString("\n\nRelevant context:\n")
	for _, r := range results {
		if r == nil || r.Document == nil {
			continue
		}
		b.WriteString("- ")
		b.WriteString(r.Document.Content)
		b.WriteString("\n")
	}
	b.WriteString("\n\nAnswer:")
	return b.String()
}
