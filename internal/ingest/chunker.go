package ingest

import (
	"strings"
	"unicode"
)

// Chunker splits text into overlapping word windows.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker with the given size and overlap, both in words.
// Overlap is clamped to size-1 so every window advances.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk returns the windows of text, or nil when text has no words.
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := c.size - c.overlap
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// Preprocess trims text and collapses whitespace runs to a single space.
func Preprocess(text string) string {
	return strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
}
