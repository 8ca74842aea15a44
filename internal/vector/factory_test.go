package vector

import "testing"

func TestNewIndex_Memory(t *testing.T) {
	for _, typ := range []string{"memory", ""} {
		idx, err := NewIndex(typ, 3)
		if err != nil {
			t.Fatalf("NewIndex(%q): %v", typ, err)
		}
		if _, err := idx.Insert([]float32{1, 0, 0}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if idx.Size() != 1 {
			t.Errorf("Size=%d, want 1", idx.Size())
		}
		_ = idx.Close()
	}
}

func TestNewIndex_Unknown(t *testing.T) {
	if _, err := NewIndex("hnsw", 3); err == nil {
		t.Error("expected error for unknown index type")
	}
}

func TestNewIndex_InvalidDimension(t *testing.T) {
	if _, err := NewIndex("memory", 0); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestIsFAISSAvailable(t *testing.T) {
	t.Logf("FAISS available: %v", IsFAISSAvailable())
}
