// Package algolia implements search.Index for Algolia.
package algolia

import (
	"context"
	"fmt"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"

	hexosearch "github.com/Zheaoli/hexo-algoliasearch/pkg/search"
)

// Config contains Algolia configuration.
type Config struct {
	AppID       string
	AdminAPIKey string
	IndexName   string

	// WaitForTasks blocks each operation until Algolia has applied it.
	WaitForTasks bool
}

// objectIndex is the part of *search.Index the adapter uses.
type objectIndex interface {
	ClearObjects(opts ...interface{}) (search.UpdateTaskRes, error)
	SaveObjects(objects interface{}, opts ...interface{}) (search.GroupBatchRes, error)
}

// Adapter implements search.Index for Algolia.
type Adapter struct {
	index     objectIndex
	indexName string
	wait      bool
}

// NewAdapter creates a new Algolia adapter. No request is made until the
// first operation.
func NewAdapter(cfg *Config) (*Adapter, error) {
	if cfg.AppID == "" || cfg.AdminAPIKey == "" {
		return nil, fmt.Errorf("algolia app ID and admin API key credentials required")
	}
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("algolia index name required")
	}

	client := search.NewClient(cfg.AppID, cfg.AdminAPIKey)

	return &Adapter{
		index:     client.InitIndex(cfg.IndexName),
		indexName: cfg.IndexName,
		wait:      cfg.WaitForTasks,
	}, nil
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return string(hexosearch.ProviderTypeAlgolia)
}

// Clear removes all records from the index, keeping its settings.
func (a *Adapter) Clear(ctx context.Context) error {
	res, err := a.index.ClearObjects(ctx)
	if err != nil {
		return &hexosearch.Error{
			Op:  "Clear",
			Err: fmt.Errorf("%w: %w", hexosearch.ErrBackendUnavailable, err),
			Msg: fmt.Sprintf("error clearing index %s", a.indexName),
		}
	}

	if a.wait {
		if err := res.Wait(ctx); err != nil {
			return &hexosearch.Error{
				Op:  "Clear",
				Err: err,
				Msg: "error waiting for clear task",
			}
		}
	}

	return nil
}

// SaveBatch adds or replaces the documents in one batch request.
func (a *Adapter) SaveBatch(ctx context.Context, docs []hexosearch.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := hexosearch.ValidateBatch(docs); err != nil {
		return err
	}

	res, err := a.index.SaveObjects(docs, ctx)
	if err != nil {
		return &hexosearch.Error{
			Op:  "SaveBatch",
			Err: fmt.Errorf("%w: %w", hexosearch.ErrIndexingFailed, err),
			Msg: fmt.Sprintf("error saving %d objects to %s", len(docs), a.indexName),
		}
	}

	if a.wait {
		if err := res.Wait(ctx); err != nil {
			return &hexosearch.Error{
				Op:  "SaveBatch",
				Err: err,
				Msg: "error waiting for batch task",
			}
		}
	}

	return nil
}
