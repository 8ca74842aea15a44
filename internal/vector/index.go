// Package vector provides an exact in-memory vector index and similarity helpers.
package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrNotEmpty is returned by Rebuild when the index still holds vectors.
	ErrNotEmpty = errors.New("vector index is not empty")
	// ErrSlotOutOfRange is returned by Deactivate for an unknown slot.
	ErrSlotOutOfRange = errors.New("slot out of range")
)

// Index is a positional vector store supporting k-nearest-neighbor queries.
// Slots are assigned append-only, starting at 0.
type Index interface {
	Insert(vec []float32) (int, error)
	Search(query []float32, k int) ([]Neighbor, error)
	Rebuild(dimensions int) error
	Deactivate(slot int) error
	Dimensions() int
	Size() int
	Tombstones() int
	Close() error
}

// Neighbor is a single search hit.
type Neighbor struct {
	Slot     int
	Distance float64 // squared Euclidean
}

// Similarity returns the score exposed to callers for a neighbor.
func (n Neighbor) Similarity() float64 {
	return Similarity(n.Distance)
}
