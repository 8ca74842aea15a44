package vector

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryIndex is an exact brute-force index over squared Euclidean distance.
// Vectors live in an append-only arena; a slot can be tombstoned but never reused.
type MemoryIndex struct {
	dimensions int
	vectors    [][]float32
	inactive   []bool
	tombstones int
	mu         sync.RWMutex
}

// NewMemoryIndex creates an empty index pinned to the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &MemoryIndex{dimensions: dimensions}, nil
}

// Insert appends vec at the next slot and returns that slot. The first vector
// inserted into an empty index fixes its dimension.
func (m *MemoryIndex) Insert(vec []float32) (int, error) {
	if len(vec) == 0 {
		return 0, fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.vectors) == 0 {
		m.dimensions = len(vec)
	} else if len(vec) != m.dimensions {
		return 0, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), m.dimensions)
	}
	stored := make([]float32, len(vec))
	copy(stored, vec)
	m.vectors = append(m.vectors, stored)
	m.inactive = append(m.inactive, false)
	return len(m.vectors) - 1, nil
}

// Search returns up to k active slots ordered by ascending distance to query,
// ties broken by ascending slot. An empty index yields no results and no error.
func (m *MemoryIndex) Search(query []float32, k int) ([]Neighbor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.vectors) == 0 {
		return nil, nil
	}
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), m.dimensions)
	}
	scored := make([]Neighbor, 0, len(m.vectors)-m.tombstones)
	for slot, vec := range m.vectors {
		if m.inactive[slot] {
			continue
		}
		scored = append(scored, Neighbor{Slot: slot, Distance: SquaredL2(query, vec)})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Distance != scored[j].Distance {
			return scored[i].Distance < scored[j].Distance
		}
		return scored[i].Slot < scored[j].Slot
	})
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Rebuild resets an empty index to a new dimension.
func (m *MemoryIndex) Rebuild(dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.vectors) > 0 {
		return fmt.Errorf("%w: %d vectors", ErrNotEmpty, len(m.vectors))
	}
	m.dimensions = dimensions
	m.vectors = nil
	m.inactive = nil
	m.tombstones = 0
	return nil
}

// Deactivate tombstones slot so it is skipped by Search. Deactivating twice is a no-op.
func (m *MemoryIndex) Deactivate(slot int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slot < 0 || slot >= len(m.vectors) {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	if !m.inactive[slot] {
		m.inactive[slot] = true
		m.tombstones++
	}
	return nil
}

// Dimensions returns the pinned vector length.
func (m *MemoryIndex) Dimensions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dimensions
}

// Size returns the number of slots, tombstoned ones included.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Tombstones returns the number of deactivated slots.
func (m *MemoryIndex) Tombstones() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tombstones
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
