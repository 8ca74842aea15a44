package models

// SearchResult is a single retrieval hit.
type SearchResult struct {
	Document   *Document `json:"document"`
	Similarity float64   `json:"similarity"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query        string          `json:"query"`
	Results      []*SearchResult `json:"results"`
	ResponseTime float64         `json:"response_time"`
}

// ChatResponse is the response for a chat request.
type ChatResponse struct {
	Response     string  `json:"response"`
	UseRAG       bool    `json:"use_rag"`
	ResponseTime float64 `json:"response_time"`
}

// DocumentResponse is a single stored document with the request's response time.
type DocumentResponse struct {
	*Document
	ResponseTime float64 `json:"response_time"`
}

// AddDocumentResponse is the response for a document insertion.
type AddDocumentResponse struct {
	ID           int64   `json:"id"`
	Message      string  `json:"message"`
	ResponseTime float64 `json:"response_time"`
}

// Stats summarises the state of the memory store.
type Stats struct {
	Phase          string `json:"phase"`
	Documents      int64  `json:"documents"`
	IndexSize      int    `json:"index_size"`
	Tombstones     int    `json:"tombstones"`
	Dimensions     int    `json:"dimensions"`
	CacheEntries   int    `json:"cache_entries"`
	CacheCapacity  int    `json:"cache_capacity"`
	MaxDocuments   int64  `json:"max_documents,omitempty"`
	DatabaseBytes  int64  `json:"database_bytes,omitempty"`
	IndexType      string `json:"index_type,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
}
