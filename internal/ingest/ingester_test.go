package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hyperjump/ingat/internal/embedding"
	"github.com/hyperjump/ingat/internal/memory"
	"github.com/hyperjump/ingat/internal/models"
	"github.com/hyperjump/ingat/internal/storage"
)

// fakeMemory stores documents in a slice and round trips metadata through JSON
// the way the SQLite store does.
type fakeMemory struct {
	mu     sync.Mutex
	docs   []*models.Document
	failAt int // AddDocument call number that fails; 0 disables
	calls  int
}

func (m *fakeMemory) AddDocument(_ context.Context, content string, metadata map[string]interface{}) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failAt > 0 && m.calls == m.failAt {
		return 0, errors.New("store unavailable")
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return 0, err
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(b, &meta); err != nil {
		return 0, err
	}
	doc := &models.Document{ID: int64(len(m.docs) + 1), Content: content, Metadata: meta}
	m.docs = append(m.docs, doc)
	return doc.ID, nil
}

func (m *fakeMemory) ListDocuments(context.Context) []*models.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Document(nil), m.docs...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha text")
	writeFile(t, filepath.Join(dir, "b.md"), "# beta\n\nmarkdown body")
	writeFile(t, filepath.Join(dir, "nested", "deep", "c.txt"), "gamma")
	writeFile(t, filepath.Join(dir, ".hidden", "d.txt"), "hidden")
	writeFile(t, filepath.Join(dir, ".secret.txt"), "hidden file")
	writeFile(t, filepath.Join(dir, "image.png"), "not text")
	writeFile(t, filepath.Join(dir, "notes.rst"), "excluded by pattern")

	mem := &fakeMemory{}
	in := New(mem, nil, WithPatterns([]string{"**/*.txt", "**/*.md"}))
	summary, err := in.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Ingested != 3 || summary.Skipped != 0 || summary.Failed != 0 || summary.Chunks != 3 {
		t.Fatalf("summary = %+v", summary)
	}

	docs := mem.ListDocuments(context.Background())
	seen := map[string]bool{}
	for _, d := range docs {
		src, _ := d.Metadata[MetaSource].(string)
		seen[filepath.Base(src)] = true
		if d.Metadata[MetaSourceID] != SourceID(src) {
			t.Errorf("%s: source_id = %v", src, d.Metadata[MetaSourceID])
		}
		if d.Metadata[MetaChunkIndex] != float64(0) || d.Metadata[MetaChunkCount] != float64(1) {
			t.Errorf("%s: chunk metadata = %v", src, d.Metadata)
		}
		if id, _ := d.Metadata[MetaIngestID].(string); len(id) != 36 {
			t.Errorf("%s: ingest_id = %v", src, d.Metadata[MetaIngestID])
		}
		if d.Metadata[MetaContentHash] != ContentHash(d.Content) {
			t.Errorf("%s: content hash mismatch", src)
		}
	}
	for _, name := range []string{"a.txt", "b.md", "c.txt"} {
		if !seen[name] {
			t.Errorf("%s was not ingested", name)
		}
	}
	if docs[1].Content != "# beta markdown body" && docs[0].Content != "# beta markdown body" {
		t.Errorf("markdown whitespace not collapsed: %q / %q", docs[0].Content, docs[1].Content)
	}
}

func TestIngestDirectory_skipsUnchangedAndReingestsModified(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	writeFile(t, a, "first version")
	writeFile(t, filepath.Join(dir, "b.txt"), "stable")

	mem := &fakeMemory{}
	in := New(mem, nil)
	ctx := context.Background()
	if _, err := in.IngestDirectory(ctx, dir); err != nil {
		t.Fatal(err)
	}

	summary, err := in.IngestDirectory(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 2 || summary.Ingested != 0 {
		t.Fatalf("second run summary = %+v", summary)
	}

	writeFile(t, a, "second version")
	summary, err = in.IngestDirectory(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Ingested != 1 || summary.Skipped != 1 {
		t.Fatalf("after modification summary = %+v", summary)
	}
	if n := len(mem.ListDocuments(ctx)); n != 3 {
		t.Errorf("documents = %d, want 3", n)
	}
}

func TestIngestFile_chunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "long.txt")
	writeFile(t, path, "one two three four five six seven")

	mem := &fakeMemory{}
	res, err := New(mem, nil, WithChunking(3, 1)).IngestFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.DocumentIDs) != 3 {
		t.Fatalf("document ids = %v", res.DocumentIDs)
	}
	for i, d := range mem.ListDocuments(context.Background()) {
		if d.Metadata[MetaChunkIndex] != float64(i) || d.Metadata[MetaChunkCount] != float64(3) {
			t.Errorf("chunk %d metadata = %v", i, d.Metadata)
		}
		if d.Metadata[MetaIngestID] != res.IngestID {
			t.Errorf("chunk %d ingest id = %v, want %s", i, d.Metadata[MetaIngestID], res.IngestID)
		}
	}
}

func TestIngestFile_partialIngestIsRetried(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "long.txt")
	writeFile(t, path, "one two three four five six seven")

	mem := &fakeMemory{failAt: 2}
	in := New(mem, nil, WithChunking(3, 1))
	ctx := context.Background()
	if _, err := in.IngestFile(ctx, path); err == nil {
		t.Fatal("expected error when second chunk fails")
	}

	res, err := in.IngestFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped {
		t.Error("incomplete earlier ingest must not be treated as unchanged")
	}
}

func TestIngestFile_errors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	writeFile(t, empty, "  \n ")
	png := filepath.Join(dir, "image.png")
	writeFile(t, png, "bytes")

	in := New(&fakeMemory{}, nil)
	ctx := context.Background()
	if _, err := in.IngestFile(ctx, empty); !errors.Is(err, ErrNoText) {
		t.Errorf("empty file: expected ErrNoText, got %v", err)
	}
	if _, err := in.IngestFile(ctx, png); err == nil {
		t.Error("expected error for unsupported file")
	}
	if _, err := in.IngestFile(ctx, filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := in.IngestFile(ctx, dir); err == nil {
		t.Error("expected error for directory")
	}
}

func TestIngestDirectory_recordsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "empty.txt"), "")
	writeFile(t, filepath.Join(dir, "ok.txt"), "content")

	summary, err := New(&fakeMemory{}, nil).IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 1 || summary.Ingested != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestIngestPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "one.txt")
	writeFile(t, file, "single file")

	in := New(&fakeMemory{}, nil)
	summary, err := in.IngestPath(context.Background(), file)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Ingested != 1 || len(summary.Files) != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if _, err := in.IngestPath(context.Background(), filepath.Join(dir, "nope")); err == nil {
		t.Error("expected error for missing path")
	}
	if _, err := in.IngestDirectory(context.Background(), file); err == nil {
		t.Error("expected error when directory is a file")
	}
}

func TestAccepts(t *testing.T) {
	in := New(&fakeMemory{}, nil, WithPatterns([]string{"docs/**/*.md"}))
	tests := []struct {
		path string
		want bool
	}{
		{"/root/docs/a.md", true},
		{"/root/docs/x/y/a.md", true},
		{"/root/a.md", false},
		{"/root/docs/a.png", false},
	}
	for _, tt := range tests {
		if got := in.Accepts("/root", tt.path); got != tt.want {
			t.Errorf("Accepts(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIngest_withMemoryStore(t *testing.T) {
	db, err := storage.NewSQLiteStorage(storage.DriverPureGo, storage.MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store, err := memory.New(db, embedding.NewHashEmbedder(256))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "france.txt"), "Paris is the capital of France")
	writeFile(t, filepath.Join(dir, "fruit.txt"), "Bananas are yellow")

	in := New(store, nil)
	if _, err := in.IngestDirectory(ctx, dir); err != nil {
		t.Fatal(err)
	}
	results, err := store.Search(ctx, "capital of France", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || filepath.Base(results[0].Document.Metadata[MetaSource].(string)) != "france.txt" {
		t.Errorf("results = %+v", results)
	}

	// metadata survives the SQLite round trip well enough to deduplicate
	summary, err := in.IngestDirectory(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 2 {
		t.Errorf("re-ingest summary = %+v", summary)
	}
}
