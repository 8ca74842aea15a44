package models

import (
	"fmt"
	"strings"
)

// MaxSearchK caps the number of results a single search may request.
const MaxSearchK = 100

// SearchQuery is a retrieval request.
type SearchQuery struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// Validate rejects an empty query, applies defaultK when K is unset and caps K at MaxSearchK.
func (q *SearchQuery) Validate(defaultK int) error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.K <= 0 {
		q.K = defaultK
	}
	if q.K > MaxSearchK {
		q.K = MaxSearchK
	}
	return nil
}

// ChatQuery is a chat request. UseRAG defaults to true when omitted.
type ChatQuery struct {
	Query  string `json:"query"`
	UseRAG *bool  `json:"use_rag,omitempty"`
}

// Validate rejects an empty query.
func (q *ChatQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}

// RAGEnabled reports whether retrieval should be used.
func (q *ChatQuery) RAGEnabled() bool {
	return q.UseRAG == nil || *q.UseRAG
}
