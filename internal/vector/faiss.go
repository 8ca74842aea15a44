//go:build faiss && cgo
// +build faiss,cgo

package vector

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfaiss_c

#include <stdlib.h>
#include <faiss/c_api/Index_c.h>
#include <faiss/c_api/IndexFlat_c.h>
#include <faiss/c_api/error_c.h>
*/
import "C"

import (
	"fmt"
	"sort"
	"sync"
	"unsafe"
)

// FAISSIndex is an exact index backed by a FAISS IndexFlatL2. FAISS labels are
// sequential, so a label is the slot. Tombstones are tracked on the Go side.
type FAISSIndex struct {
	index      *C.FaissIndex
	dimensions int
	size       int
	inactive   map[int]struct{}
	mu         sync.RWMutex
}

// NewFAISSIndex creates an empty FAISS flat L2 index with the given dimension.
func NewFAISSIndex(dimensions int) (*FAISSIndex, error) {
	index, err := newFlatL2(dimensions)
	if err != nil {
		return nil, err
	}
	return &FAISSIndex{
		index:      index,
		dimensions: dimensions,
		inactive:   make(map[int]struct{}),
	}, nil
}

func newFlatL2(dimensions int) (*C.FaissIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	var flat *C.FaissIndexFlatL2
	if ret := C.faiss_IndexFlatL2_new_with(&flat, C.idx_t(dimensions)); ret != 0 {
		return nil, fmt.Errorf("failed to create FAISS index: %s", faissLastError())
	}
	return (*C.FaissIndex)(unsafe.Pointer(flat)), nil
}

func faissLastError() string {
	cErr := C.faiss_get_last_error()
	if cErr == nil {
		return "unknown error"
	}
	return C.GoString(cErr)
}

// Insert appends vec at the next slot. An empty index adopts the vector's length.
func (f *FAISSIndex) Insert(vec []float32) (int, error) {
	if len(vec) == 0 {
		return 0, fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(vec) != f.dimensions {
		if f.size > 0 {
			return 0, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), f.dimensions)
		}
		if err := f.resetLocked(len(vec)); err != nil {
			return 0, err
		}
	}
	if ret := C.faiss_Index_add(f.index, 1, (*C.float)(unsafe.Pointer(&vec[0]))); ret != 0 {
		return 0, fmt.Errorf("failed to add vector to FAISS index: %s", faissLastError())
	}
	f.size++
	return f.size - 1, nil
}

// Search returns up to k active slots by ascending distance, ties by ascending slot.
// FAISS orders equal distances arbitrarily, so the search widens until the last
// fetched distance is strictly beyond the k-th active hit.
func (f *FAISSIndex) Search(query []float32, k int) ([]Neighbor, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || f.size == 0 {
		return nil, nil
	}
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), f.dimensions)
	}
	// over-fetch so tombstoned labels can be filtered out
	n := k + len(f.inactive)
	if n > f.size {
		n = f.size
	}
	for {
		results, last, err := f.searchLocked(query, n)
		if err != nil {
			return nil, err
		}
		if n == f.size || (len(results) >= k && last > results[k-1].Distance) {
			sort.Slice(results, func(i, j int) bool {
				if results[i].Distance != results[j].Distance {
					return results[i].Distance < results[j].Distance
				}
				return results[i].Slot < results[j].Slot
			})
			if k > len(results) {
				k = len(results)
			}
			return results[:k], nil
		}
		n *= 2
		if n > f.size {
			n = f.size
		}
	}
}

// searchLocked fetches the n nearest labels and returns the active ones together
// with the largest distance FAISS returned.
func (f *FAISSIndex) searchLocked(query []float32, n int) ([]Neighbor, float64, error) {
	distances := make([]float32, n)
	labels := make([]int64, n)
	ret := C.faiss_Index_search(
		f.index,
		1,
		(*C.float)(unsafe.Pointer(&query[0])),
		C.idx_t(n),
		(*C.float)(unsafe.Pointer(&distances[0])),
		(*C.idx_t)(unsafe.Pointer(&labels[0])),
	)
	if ret != 0 {
		return nil, 0, fmt.Errorf("FAISS search failed: %s", faissLastError())
	}
	results := make([]Neighbor, 0, n)
	last := 0.0
	for i, label := range labels {
		if label < 0 {
			continue
		}
		if d := float64(distances[i]); d > last {
			last = d
		}
		if _, dead := f.inactive[int(label)]; dead {
			continue
		}
		results = append(results, Neighbor{Slot: int(label), Distance: float64(distances[i])})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	return results, last, nil
}

// Rebuild resets an empty index to a new dimension.
func (f *FAISSIndex) Rebuild(dimensions int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.size > 0 {
		return fmt.Errorf("%w: %d vectors", ErrNotEmpty, f.size)
	}
	return f.resetLocked(dimensions)
}

func (f *FAISSIndex) resetLocked(dimensions int) error {
	index, err := newFlatL2(dimensions)
	if err != nil {
		return err
	}
	if f.index != nil {
		C.faiss_Index_free(f.index)
	}
	f.index = index
	f.dimensions = dimensions
	f.size = 0
	f.inactive = make(map[int]struct{})
	return nil
}

// Deactivate tombstones slot.
func (f *FAISSIndex) Deactivate(slot int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slot < 0 || slot >= f.size {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	f.inactive[slot] = struct{}{}
	return nil
}

// Dimensions returns the pinned vector length.
func (f *FAISSIndex) Dimensions() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dimensions
}

// Size returns the number of slots, tombstoned ones included.
func (f *FAISSIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.size
}

// Tombstones returns the number of deactivated slots.
func (f *FAISSIndex) Tombstones() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.inactive)
}

// Close frees the FAISS index.
func (f *FAISSIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		C.faiss_Index_free(f.index)
		f.index = nil
	}
	return nil
}
