package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/ingat/internal/memory"
	"github.com/hyperjump/ingat/internal/models"
	"github.com/hyperjump/ingat/internal/storage"
)

func elapsed(start time.Time) float64 {
	return time.Since(start).Seconds()
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := s.memory.AddDocument(r.Context(), input.Content, input.Metadata)
	switch {
	case errors.Is(err, memory.ErrEmptyContent), errors.Is(err, memory.ErrDocumentLimit):
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, memory.ErrNotReady):
		s.respondError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		s.logger.Error("add document failed", zap.Error(err), zap.String("request_id", RequestID(r.Context())))
		s.respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, models.AddDocumentResponse{
		ID:           id,
		Message:      "Document added successfully",
		ResponseTime: elapsed(start),
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	docs := s.memory.ListDocuments(r.Context())
	if docs == nil {
		docs = []*models.Document{}
	}
	resp := map[string]interface{}{
		"documents":     docs,
		"response_time": elapsed(start),
	}
	if limit := s.memory.MaxDocuments(); limit > 0 {
		resp["max_documents"] = limit
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := map[string]interface{}{
		"count":         s.memory.Count(r.Context()),
		"response_time": elapsed(start),
	}
	if limit := s.memory.MaxDocuments(); limit > 0 {
		resp["max_documents"] = limit
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, r, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := s.memory.GetDocument(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, r, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.DocumentResponse{
		Document:     doc,
		ResponseTime: requestElapsed(r.Context()),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(s.opts.TopK); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("k", query.K))
	results, err := s.memory.Search(r.Context(), query.Query, query.K)
	if errors.Is(err, memory.ErrNotReady) {
		s.respondError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []*models.SearchResult{}
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		Query:        query.Query,
		Results:      results,
		ResponseTime: elapsed(start),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var query models.ChatQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	s.answer(w, r, query, query.RAGEnabled())
}

func (s *Server) handleDirect(w http.ResponseWriter, r *http.Request) {
	var query models.ChatQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	s.answer(w, r, query, false)
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request, query models.ChatQuery, useRAG bool) {
	start := time.Now()
	if err := query.Validate(); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	response := s.chat.Chat(r.Context(), query.Query, useRAG)
	s.respondJSON(w, http.StatusOK, models.ChatResponse{
		Response:     response,
		UseRAG:       useRAG,
		ResponseTime: elapsed(start),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.stats(r)
	status := "ok"
	code := http.StatusOK
	if stats.Phase != memory.PhaseReady.String() {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	s.respondJSON(w, code, map[string]interface{}{
		"status":         status,
		"phase":          stats.Phase,
		"documents":      stats.Documents,
		"index_size":     stats.IndexSize,
		"tombstones":     stats.Tombstones,
		"dimensions":     stats.Dimensions,
		"database_bytes": stats.DatabaseBytes,
		"response_time":  requestElapsed(r.Context()),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats := s.stats(r)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"stats":         stats,
		"response_time": elapsed(start),
	})
}

func (s *Server) stats(r *http.Request) models.Stats {
	stats := s.memory.Stats(r.Context())
	stats.IndexType = s.opts.IndexType
	stats.EmbeddingModel = s.opts.EmbeddingModel
	if n, err := storage.DatabaseSizeBytes(s.opts.DatabasePath); err == nil {
		stats.DatabaseBytes = n
	} else {
		s.logger.Debug("database size unavailable", zap.Error(err))
	}
	return stats
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error":         message,
		"response_time": requestElapsed(r.Context()),
	})
}
