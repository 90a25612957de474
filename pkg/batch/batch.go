// Package batch splits document sequences into bounded-size chunks for bulk
// upload.
package batch

import (
	"errors"
	"fmt"
)

// DefaultChunkSize is the number of documents sent per upsert request.
const DefaultChunkSize = 5000

// ErrInvalidChunkSize is returned for chunk sizes below one.
var ErrInvalidChunkSize = errors.New("chunk size must be a positive integer")

// Split returns items as consecutive chunks of at most size elements. Only the
// last chunk may be shorter. Concatenating the chunks yields items. Chunks
// share memory with items but cannot be appended into each other.
func Split[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks, nil
}
