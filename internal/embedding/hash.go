package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/ingat/pkg/utils"
)

// HashEmbedder is a deterministic offline embedder. Each lowercase word is hashed
// into one of dimensions buckets, so texts sharing words land close together.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a hashing embedder producing vectors of the given length.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 128
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the unit-length bag-of-words vector for text.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words := SplitWords(text)
	if len(words) == 0 {
		return nil, fmt.Errorf("no words to embed")
	}
	emb := make([]float32, e.dimensions)
	for _, w := range words {
		emb[HashString(w)%uint32(e.dimensions)]++
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// Dimensions returns the embedding length.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}
