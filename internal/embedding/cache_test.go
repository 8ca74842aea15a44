package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	// a read must not protect a from eviction
	_, _ = c.Get("a")
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
}

func TestEmbeddingCache_CapacityPlusOne(t *testing.T) {
	const capacity = 5
	c := NewEmbeddingCache(capacity)
	ctx := context.Background()
	compute := func(_ context.Context, text string) ([]float32, error) {
		return []float32{float32(len(text)), 1}, nil
	}
	for i := 0; i <= capacity; i++ {
		if _, err := c.GetOrCompute(ctx, fmt.Sprintf("text-%d", i), compute); err != nil {
			t.Fatal(err)
		}
		if c.Len() > capacity {
			t.Fatalf("cache holds %d entries, capacity %d", c.Len(), capacity)
		}
	}
	if _, ok := c.Get("text-0"); ok {
		t.Error("first-inserted text should be evicted")
	}
	for i := 1; i <= capacity; i++ {
		if _, ok := c.Get(fmt.Sprintf("text-%d", i)); !ok {
			t.Errorf("text-%d should be resident", i)
		}
	}
}

func TestEmbeddingCache_GetOrComputeHit(t *testing.T) {
	c := NewEmbeddingCache(10)
	calls := 0
	compute := func(_ context.Context, _ string) ([]float32, error) {
		calls++
		return []float32{3, 4}, nil
	}
	first, err := c.GetOrCompute(context.Background(), "hello", compute)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.GetOrCompute(context.Background(), "hello", compute)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("provider called %d times, want 1", calls)
	}
	for i := range first {
		if math.Float32bits(first[i]) != math.Float32bits(second[i]) {
			t.Errorf("component %d differs: %v vs %v", i, first[i], second[i])
		}
	}
	if math.Abs(float64(first[0])-0.6) > 1e-6 || math.Abs(float64(first[1])-0.8) > 1e-6 {
		t.Errorf("expected normalized [0.6 0.8], got %v", first)
	}
}

func TestEmbeddingCache_CallerMutationDoesNotLeak(t *testing.T) {
	c := NewEmbeddingCache(10)
	compute := func(_ context.Context, _ string) ([]float32, error) {
		return []float32{3, 4}, nil
	}
	first, err := c.GetOrCompute(context.Background(), "hello", compute)
	if err != nil {
		t.Fatal(err)
	}
	first[0] = 99

	got, ok := c.Get("hello")
	if !ok {
		t.Fatal("expected cached entry")
	}
	got[1] = -1

	again, err := c.GetOrCompute(context.Background(), "hello", compute)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(again[0])-0.6) > 1e-6 || math.Abs(float64(again[1])-0.8) > 1e-6 {
		t.Errorf("cached vector was modified through a returned slice: %v", again)
	}

	in := []float32{1, 0}
	c.Set("set", in)
	in[0] = 5
	if v, _ := c.Get("set"); v[0] != 1 {
		t.Errorf("Set kept a reference to the caller's slice: %v", v)
	}
}

func TestEmbeddingCache_GetOrComputeFailure(t *testing.T) {
	c := NewEmbeddingCache(10)
	boom := errors.New("provider down")
	_, err := c.GetOrCompute(context.Background(), "x", func(context.Context, string) ([]float32, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed compute modified cache: len %d", c.Len())
	}

	_, err = c.GetOrCompute(context.Background(), "y", func(context.Context, string) ([]float32, error) {
		return nil, nil
	})
	if err == nil {
		t.Error("expected error for empty vector")
	}
	if c.Len() != 0 {
		t.Errorf("empty vector was cached")
	}
}

func TestEmbeddingCache_Disabled(t *testing.T) {
	c := NewEmbeddingCache(0)
	c.Set("a", []float32{1})
	if c.Len() != 0 {
		t.Errorf("disabled cache stored an entry")
	}
}

func TestEmbeddingCache_SetExistingKeepsPosition(t *testing.T) {
	c := NewEmbeddingCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("a", []float32{9})
	c.Set("c", []float32{3})
	if _, ok := c.Get("a"); ok {
		t.Error("rewriting a must not refresh its position")
	}
}
