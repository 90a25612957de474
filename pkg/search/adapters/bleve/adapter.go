// Package bleve implements search.Index on an embedded Bleve index, for
// indexing a site locally without a hosted search service.
package bleve

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	hexosearch "github.com/Zheaoli/hexo-algoliasearch/pkg/search"
)

// Config contains Bleve configuration.
type Config struct {
	IndexPath string // Directory of the index, e.g. "./.algolia/posts.bleve"
}

// Adapter implements search.Index for Bleve.
type Adapter struct {
	mu    sync.RWMutex
	index bleve.Index
	path  string
}

// NewAdapter opens the index at cfg.IndexPath, creating it if needed.
func NewAdapter(cfg *Config) (*Adapter, error) {
	if cfg.IndexPath == "" {
		return nil, fmt.Errorf("bleve index path required")
	}

	idx, err := openOrCreateIndex(cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	return &Adapter{index: idx, path: cfg.IndexPath}, nil
}

// openOrCreateIndex opens an existing Bleve index or creates a new one.
func openOrCreateIndex(path string) (bleve.Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		return bleve.New(path, createDocumentMapping())
	}
	return idx, err
}

// createDocumentMapping maps documents dynamically since the indexed fields
// come from configuration. Text is analyzed in English.
func createDocumentMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"

	keywordFieldMapping := bleve.NewKeywordFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(hexosearch.ObjectIDField, keywordFieldMapping)
	docMapping.AddFieldMappingsAt("tags", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("categories", keywordFieldMapping)

	indexMapping.DefaultMapping = docMapping

	return indexMapping
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return string(hexosearch.ProviderTypeBleve)
}

// Count returns the number of documents in the index.
func (a *Adapter) Count() (uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.index.DocCount()
}

// Document returns the stored fields of a document.
func (a *Adapter) Document(id string) (map[string]any, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
	req.Fields = []string{"*"}
	res, err := a.index.Search(req)
	if err != nil {
		return nil, &hexosearch.Error{Op: "Document", Err: err}
	}
	if len(res.Hits) == 0 {
		return nil, &hexosearch.Error{Op: "Document", Err: hexosearch.ErrNotFound, Msg: id}
	}
	return res.Hits[0].Fields, nil
}

// Clear removes all documents by deleting and recreating the index.
func (a *Adapter) Clear(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.index.Close(); err != nil {
		return &hexosearch.Error{Op: "Clear", Err: err, Msg: "failed to close index"}
	}

	if err := os.RemoveAll(a.path); err != nil {
		return &hexosearch.Error{Op: "Clear", Err: err, Msg: "failed to remove index"}
	}

	newIndex, err := bleve.New(a.path, createDocumentMapping())
	if err != nil {
		return &hexosearch.Error{Op: "Clear", Err: err, Msg: "failed to recreate index"}
	}
	a.index = newIndex

	return nil
}

// SaveBatch adds or replaces documents in a single Bleve batch.
func (a *Adapter) SaveBatch(ctx context.Context, docs []hexosearch.Document) error {
	if err := hexosearch.ValidateBatch(docs); err != nil {
		return err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	batch := a.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ObjectID(), map[string]any(doc)); err != nil {
			return &hexosearch.Error{
				Op:  "SaveBatch",
				Err: fmt.Errorf("%w: %w", hexosearch.ErrIndexingFailed, err),
				Msg: fmt.Sprintf("failed to add document %s to batch", doc.ObjectID()),
			}
		}
	}

	if err := a.index.Batch(batch); err != nil {
		return &hexosearch.Error{
			Op:  "SaveBatch",
			Err: fmt.Errorf("%w: %w", hexosearch.ErrIndexingFailed, err),
		}
	}
	return nil
}

// Close closes the index.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.index.Close()
}
