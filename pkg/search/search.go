// Package search defines the documents pushed to a search index and the
// operations a search backend must support.
package search

import (
	"context"
	"fmt"
)

// ObjectIDField is the document key holding the document's unique identifier.
const ObjectIDField = "objectID"

// ProviderType identifies a search backend.
type ProviderType string

const (
	ProviderTypeAlgolia     ProviderType = "algolia"
	ProviderTypeBleve       ProviderType = "bleve"
	ProviderTypeMeilisearch ProviderType = "meilisearch"
)

// Document is a flat, search-engine-ready representation of one content
// record.
type Document map[string]any

// ObjectID returns the document's identifier, or "" if it has none.
func (d Document) ObjectID() string {
	id, _ := d[ObjectIDField].(string)
	return id
}

// Index is a remote search index that documents are synchronized into.
type Index interface {
	// Name returns the provider name.
	Name() string

	// Clear removes every document from the index.
	Clear(ctx context.Context) error

	// SaveBatch adds or replaces documents, keyed by objectID.
	SaveBatch(ctx context.Context, docs []Document) error
}

// ValidateBatch checks that every document has an objectID.
func ValidateBatch(docs []Document) error {
	for i, doc := range docs {
		if doc.ObjectID() == "" {
			return &Error{
				Op:  "SaveBatch",
				Err: ErrInvalidDocument,
				Msg: fmt.Sprintf("document %d has no objectID", i),
			}
		}
	}
	return nil
}
