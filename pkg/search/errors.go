package search

import (
	"errors"
)

var (
	// ErrNotFound is returned when a document is not in the index.
	ErrNotFound = errors.New("document not found in search index")

	// ErrBackendUnavailable is returned when the backend cannot be reached.
	ErrBackendUnavailable = errors.New("search backend unavailable")

	// ErrIndexingFailed is returned when the backend rejects documents.
	ErrIndexingFailed = errors.New("failed to index document")

	// ErrInvalidDocument is returned for documents that cannot be indexed.
	ErrInvalidDocument = errors.New("invalid document")
)

// Error is a search operation error.
type Error struct {
	Op  string // Operation that failed, e.g. "Clear" or "SaveBatch".
	Err error  // Underlying error.
	Msg string // Additional context.
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Op + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
