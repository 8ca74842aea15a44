package memory

import "errors"

var (
	// ErrNotReady is returned by operations invoked before Load has completed.
	ErrNotReady = errors.New("memory store is not ready")
	// ErrAlreadyLoaded is returned by a second call to Load.
	ErrAlreadyLoaded = errors.New("memory store already loaded")
	// ErrClosed is returned by Load after Close.
	ErrClosed = errors.New("memory store is closed")
	// ErrEmptyContent is returned when adding a document without content.
	ErrEmptyContent = errors.New("document content is empty")
	// ErrDocumentLimit is returned when the configured document limit is reached.
	ErrDocumentLimit = errors.New("document limit reached")
)
