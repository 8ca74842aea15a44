//go:build !faiss || !cgo
// +build !faiss !cgo

package vector

import "errors"

var errFAISSUnavailable = errors.New("FAISS not available: build with -tags=faiss and install the FAISS C library")

// FAISSIndex is a stub used when the faiss build tag is not set.
type FAISSIndex struct{}

// NewFAISSIndex returns an error because FAISS is not compiled in.
func NewFAISSIndex(dimensions int) (*FAISSIndex, error) {
	return nil, errFAISSUnavailable
}

func (f *FAISSIndex) Insert(vec []float32) (int, error) { return 0, errFAISSUnavailable }
func (f *FAISSIndex) Search(query []float32, k int) ([]Neighbor, error) {
	return nil, errFAISSUnavailable
}
func (f *FAISSIndex) Rebuild(dimensions int) error { return errFAISSUnavailable }
func (f *FAISSIndex) Deactivate(slot int) error    { return errFAISSUnavailable }
func (f *FAISSIndex) Dimensions() int              { return 0 }
func (f *FAISSIndex) Size() int                    { return 0 }
func (f *FAISSIndex) Tombstones() int              { return 0 }
func (f *FAISSIndex) Close() error                 { return nil }
