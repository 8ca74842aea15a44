package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/ingat/internal/chat"
	"github.com/hyperjump/ingat/internal/embedding"
	"github.com/hyperjump/ingat/internal/memory"
	"github.com/hyperjump/ingat/internal/models"
	"github.com/hyperjump/ingat/internal/storage"
)

// echoGenerator answers with the prompt it received.
type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, prompt string) (string, error) {
	return " echo: " + prompt + " ", nil
}

func newTestServer(t *testing.T, opts ...memory.Option) (*Server, *memory.Store) {
	t.Helper()
	db, err := storage.NewSQLiteStorage(storage.DriverPureGo, storage.MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := memory.New(db, embedding.NewHashEmbedder(256), opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	orch := chat.NewOrchestrator(store, echoGenerator{}, chat.WithTopK(2))
	srv := NewServer(store, orch, Options{TopK: 3, DatabasePath: storage.MemoryPath, IndexType: "memory"}, zap.NewNop())
	return srv, store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
}

func TestHandleAddDocument(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"valid", `{"content":"Paris is the capital of France","metadata":{"lang":"en"}}`, http.StatusCreated},
		{"empty content", `{"content":"   "}`, http.StatusBadRequest},
		{"invalid json", `{"content":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/v1/documents", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode == http.StatusCreated {
				var resp models.AddDocumentResponse
				decode(t, w, &resp)
				if resp.ID <= 0 || resp.Message == "" || resp.ResponseTime < 0 {
					t.Errorf("unexpected response %+v", resp)
				}
			}
		})
	}
}

func TestHandleAddDocument_limitReached(t *testing.T) {
	srv, _ := newTestServer(t, memory.WithMaxDocuments(1))
	h := srv.Handler()
	if w := do(t, h, http.MethodPost, "/api/v1/documents", `{"content":"one"}`); w.Code != http.StatusCreated {
		t.Fatalf("first add: %d", w.Code)
	}
	w := do(t, h, http.MethodPost, "/api/v1/documents", `{"content":"two"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second add: got %d, want 400", w.Code)
	}

	w = do(t, h, http.MethodGet, "/api/v1/documents/count", "")
	var count struct {
		Count        int64 `json:"count"`
		MaxDocuments int64 `json:"max_documents"`
	}
	decode(t, w, &count)
	if count.Count != 1 || count.MaxDocuments != 1 {
		t.Errorf("count response %+v", count)
	}
}

func TestHandleDocuments_listCountGet(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()
	ctx := context.Background()
	first, err := store.AddDocument(ctx, "first note", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddDocument(ctx, "second note", nil); err != nil {
		t.Fatal(err)
	}

	w := do(t, h, http.MethodGet, "/api/v1/documents", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status %d", w.Code)
	}
	var list struct {
		Documents    []models.Document `json:"documents"`
		MaxDocuments *int64            `json:"max_documents"`
		ResponseTime float64           `json:"response_time"`
	}
	decode(t, w, &list)
	if len(list.Documents) != 2 || list.Documents[0].Content != "first note" {
		t.Errorf("documents = %+v", list.Documents)
	}
	if list.MaxDocuments != nil {
		t.Error("max_documents should be omitted without a limit")
	}

	w = do(t, h, http.MethodGet, "/api/v1/documents/count", "")
	var count struct {
		Count int64 `json:"count"`
	}
	decode(t, w, &count)
	if count.Count != 2 {
		t.Errorf("count = %d", count.Count)
	}

	w = do(t, h, http.MethodGet, "/api/v1/documents/"+jsonInt(first), "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status %d", w.Code)
	}
	var doc models.Document
	decode(t, w, &doc)
	if doc.ID != first || doc.Content != "first note" {
		t.Errorf("document = %+v", doc)
	}

	if w := do(t, h, http.MethodGet, "/api/v1/documents/999", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing document: got %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/v1/documents/abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d", w.Code)
	}
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestHandleSearch(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()
	ctx := context.Background()
	for _, c := range []string{"Paris is the capital of France", "Bananas are yellow", "Rome is the capital of Italy", "Cats sleep a lot"} {
		if _, err := store.AddDocument(ctx, c, nil); err != nil {
			t.Fatal(err)
		}
	}

	w := do(t, h, http.MethodPost, "/api/v1/search", `{"query":"capital of France","k":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp models.SearchResponse
	decode(t, w, &resp)
	if len(resp.Results) != 1 || resp.Results[0].Document.Content != "Paris is the capital of France" {
		t.Errorf("results = %+v", resp.Results)
	}

	// k defaults to the configured top k
	w = do(t, h, http.MethodPost, "/api/v1/search", `{"query":"capital"}`)
	decode(t, w, &resp)
	if len(resp.Results) != 3 {
		t.Errorf("default k: got %d results, want 3", len(resp.Results))
	}

	if w := do(t, h, http.MethodPost, "/api/v1/search", `{"query":""}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty query: got %d", w.Code)
	}
}

func TestHandleSearch_emptyStoreReturnsEmptyList(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv.Handler(), http.MethodPost, "/api/v1/search", `{"query":"anything"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"results":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestHandleChat(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()

	// no documents: RAG and direct both send the raw query
	w := do(t, h, http.MethodPost, "/api/v1/chat", `{"query":"hello"}`)
	var resp models.ChatResponse
	decode(t, w, &resp)
	if resp.Response != "echo: hello" || !resp.UseRAG {
		t.Errorf("chat on empty store = %+v", resp)
	}

	if _, err := store.AddDocument(context.Background(), "Paris is the capital of France", nil); err != nil {
		t.Fatal(err)
	}
	w = do(t, h, http.MethodPost, "/api/v1/chat", `{"query":"capital of France?"}`)
	decode(t, w, &resp)
	if !strings.Contains(resp.Response, "Relevant context:\n- Paris is the capital of France") {
		t.Errorf("rag response missing context: %q", resp.Response)
	}

	w = do(t, h, http.MethodPost, "/api/v1/chat", `{"query":"capital of France?","use_rag":false}`)
	decode(t, w, &resp)
	if resp.Response != "echo: capital of France?" || resp.UseRAG {
		t.Errorf("use_rag=false response = %+v", resp)
	}

	w = do(t, h, http.MethodPost, "/api/v1/direct", `{"query":"capital of France?"}`)
	decode(t, w, &resp)
	if resp.Response != "echo: capital of France?" {
		t.Errorf("direct response = %+v", resp)
	}

	if w := do(t, h, http.MethodPost, "/api/v1/chat", `{"query":" "}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty chat query: got %d", w.Code)
	}
}

func TestHandleHealthAndStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status %d", w.Code)
	}
	var health map[string]interface{}
	decode(t, w, &health)
	if health["status"] != "ok" || health["phase"] != "ready" {
		t.Errorf("health = %v", health)
	}

	w = do(t, h, http.MethodGet, "/api/v1/status", "")
	var status struct {
		Stats models.Stats `json:"stats"`
	}
	decode(t, w, &status)
	if status.Stats.Phase != "ready" || status.Stats.IndexType != "memory" || status.Stats.CacheCapacity != memory.DefaultCacheSize {
		t.Errorf("status = %+v", status.Stats)
	}
}

func TestHandleHealth_notReady(t *testing.T) {
	srv, store := newTestServer(t)
	_ = store.Close()
	w := do(t, srv.Handler(), http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("health after close: got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected generated request id")
	}

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want propagated value", got)
	}
}

func TestStop_notStarted(t *testing.T) {
	srv, _ := newTestServer(t)
	if err := srv.Stop(context.Background()); err != nil {
		t.Error(err)
	}
}

func TestResponseTimeInEveryBody(t *testing.T) {
	srv, store := newTestServer(t)
	h := srv.Handler()
	id, err := store.AddDocument(context.Background(), "timed note", nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"add", http.MethodPost, "/api/v1/documents", `{"content":"another"}`, http.StatusCreated},
		{"add empty", http.MethodPost, "/api/v1/documents", `{"content":""}`, http.StatusBadRequest},
		{"add bad body", http.MethodPost, "/api/v1/documents", `{`, http.StatusBadRequest},
		{"list", http.MethodGet, "/api/v1/documents", "", http.StatusOK},
		{"count", http.MethodGet, "/api/v1/documents/count", "", http.StatusOK},
		{"get", http.MethodGet, "/api/v1/documents/" + jsonInt(id), "", http.StatusOK},
		{"get missing", http.MethodGet, "/api/v1/documents/999", "", http.StatusNotFound},
		{"get bad id", http.MethodGet, "/api/v1/documents/abc", "", http.StatusBadRequest},
		{"search", http.MethodPost, "/api/v1/search", `{"query":"timed"}`, http.StatusOK},
		{"search empty query", http.MethodPost, "/api/v1/search", `{"query":""}`, http.StatusBadRequest},
		{"chat", http.MethodPost, "/api/v1/chat", `{"query":"hi"}`, http.StatusOK},
		{"direct", http.MethodPost, "/api/v1/direct", `{"query":"hi"}`, http.StatusOK},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"status", http.MethodGet, "/api/v1/status", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d (body %q)", w.Code, tt.code, w.Body.String())
			}
			var body map[string]interface{}
			decode(t, w, &body)
			rt, ok := body["response_time"].(float64)
			if !ok || rt < 0 {
				t.Errorf("response_time missing or negative in %v", body)
			}
		})
	}

	w := do(t, h, http.MethodGet, "/api/v1/documents/"+jsonInt(id), "")
	var doc models.DocumentResponse
	decode(t, w, &doc)
	if doc.Document == nil || doc.ID != id || doc.Content != "timed note" {
		t.Errorf("document body = %+v", doc)
	}
}
