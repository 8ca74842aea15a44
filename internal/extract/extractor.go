// Package extract turns document files into plain text for ingestion.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupported is returned for file types without an extractor.
var ErrUnsupported = errors.New("unsupported file type")

type extractFunc func(content []byte) (string, error)

// Extractor extracts plain text from document files, dispatching on extension.
type Extractor struct {
	formats map[string]extractFunc
}

// NewExtractor returns an Extractor for text, Markdown, reStructuredText, PDF, DOCX and XLSX.
func NewExtractor() *Extractor {
	return &Extractor{formats: map[string]extractFunc{
		".txt":      extractPlain,
		".text":     extractPlain,
		".md":       extractPlain,
		".markdown": extractPlain,
		".rst":      extractPlain,
		".pdf":      extractPDF,
		".docx":     extractDOCX,
		".xlsx":     extractExcel,
	}}
}

// Supported reports whether path has an extension the extractor handles.
func (e *Extractor) Supported(path string) bool {
	_, ok := e.formats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions lists the handled extensions in sorted order.
func (e *Extractor) Extensions() []string {
	out := make([]string, 0, len(e.formats))
	for ext := range e.formats {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := e.formats[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on ext, which includes the leading dot.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	fn, ok := e.formats[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	return fn(content)
}
