// Package meilisearch implements search.Index for Meilisearch.
package meilisearch

import (
	"context"
	"fmt"
	"time"

	"github.com/meilisearch/meilisearch-go"

	hexosearch "github.com/Zheaoli/hexo-algoliasearch/pkg/search"
)

// DefaultTaskPollInterval is how often a pending task is polled when
// WaitForTasks is set.
const DefaultTaskPollInterval = 50 * time.Millisecond

// Config contains Meilisearch configuration.
type Config struct {
	Host      string // e.g. "http://localhost:7700"
	APIKey    string
	IndexName string

	// WaitForTasks blocks each operation until Meilisearch has processed it.
	WaitForTasks     bool
	TaskPollInterval time.Duration
}

// documentIndex is the part of meilisearch.IndexManager the adapter uses.
type documentIndex interface {
	DeleteAllDocumentsWithContext(ctx context.Context) (*meilisearch.TaskInfo, error)
	AddDocumentsWithContext(ctx context.Context, documentsPtr interface{}, primaryKey *string) (*meilisearch.TaskInfo, error)
	WaitForTaskWithContext(ctx context.Context, taskUID int64, interval time.Duration) (*meilisearch.Task, error)
}

// Adapter implements search.Index for Meilisearch.
type Adapter struct {
	index     documentIndex
	indexName string
	wait      bool
	interval  time.Duration
}

// NewAdapter creates a new Meilisearch adapter. The index is created by
// Meilisearch on the first upload, with objectID as its primary key.
func NewAdapter(cfg *Config) (*Adapter, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("meilisearch host required")
	}
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("meilisearch index name required")
	}

	var opts []meilisearch.Option
	if cfg.APIKey != "" {
		opts = append(opts, meilisearch.WithAPIKey(cfg.APIKey))
	}
	client := meilisearch.New(cfg.Host, opts...)

	interval := cfg.TaskPollInterval
	if interval <= 0 {
		interval = DefaultTaskPollInterval
	}

	return &Adapter{
		index:     client.Index(cfg.IndexName),
		indexName: cfg.IndexName,
		wait:      cfg.WaitForTasks,
		interval:  interval,
	}, nil
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return string(hexosearch.ProviderTypeMeilisearch)
}

// Clear removes all documents from the index, keeping its settings.
func (a *Adapter) Clear(ctx context.Context) error {
	task, err := a.index.DeleteAllDocumentsWithContext(ctx)
	if err != nil {
		return &hexosearch.Error{
			Op:  "Clear",
			Err: fmt.Errorf("%w: %w", hexosearch.ErrBackendUnavailable, err),
			Msg: fmt.Sprintf("error clearing index %s", a.indexName),
		}
	}

	if err := a.waitForTask(ctx, task); err != nil {
		return &hexosearch.Error{
			Op:  "Clear",
			Err: err,
			Msg: "error waiting for clear task",
		}
	}
	return nil
}

// SaveBatch adds or replaces the documents in one request.
func (a *Adapter) SaveBatch(ctx context.Context, docs []hexosearch.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := hexosearch.ValidateBatch(docs); err != nil {
		return err
	}

	primaryKey := hexosearch.ObjectIDField
	task, err := a.index.AddDocumentsWithContext(ctx, docs, &primaryKey)
	if err != nil {
		return &hexosearch.Error{
			Op:  "SaveBatch",
			Err: fmt.Errorf("%w: %w", hexosearch.ErrIndexingFailed, err),
			Msg: fmt.Sprintf("error saving %d documents to %s", len(docs), a.indexName),
		}
	}

	if err := a.waitForTask(ctx, task); err != nil {
		return &hexosearch.Error{
			Op:  "SaveBatch",
			Err: fmt.Errorf("%w: %w", hexosearch.ErrIndexingFailed, err),
			Msg: "error waiting for batch task",
		}
	}
	return nil
}

// waitForTask blocks until the task is processed when waiting is enabled.
// A task that Meilisearch marks as failed is returned as an error.
func (a *Adapter) waitForTask(ctx context.Context, info *meilisearch.TaskInfo) error {
	if !a.wait || info == nil {
		return nil
	}

	task, err := a.index.WaitForTaskWithContext(ctx, info.TaskUID, a.interval)
	if err != nil {
		return err
	}
	if task.Status == meilisearch.TaskStatusFailed {
		return fmt.Errorf("task %d failed: %s (%s)", info.TaskUID, task.Error.Message, task.Error.Code)
	}
	return nil
}
