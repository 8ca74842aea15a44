package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const sourcePrefix = "file:"

// SourceID returns a stable id for the file at absolutePath. The same cleaned path
// always yields the same id.
func SourceID(absolutePath string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return sourcePrefix + hex.EncodeToString(sum[:])
}

// ContentHash returns the hex sha256 of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
