package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/Zheaoli/hexo-algoliasearch/pkg/batch"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/content"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/fieldspec"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/filter"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/models"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/search"
)

// Log messages emitted during a sync run.
const (
	MsgNoPosts      = "no published posts found, nothing to index"
	MsgClearStart   = "clearing index"
	MsgClearDone    = "index cleared"
	MsgClearFailed  = "failed to clear index"
	MsgUploadStart  = "uploading documents"
	MsgUploadFailed = "failed to upload chunk"
	MsgIndexed      = "indexing done"
)

var (
	// ErrClearFailed is returned when the index could not be cleared. No
	// documents are uploaded.
	ErrClearFailed = errors.New("clear index failed")

	// ErrUploadChunkFailed is returned when any chunk upload fails.
	ErrUploadChunkFailed = errors.New("upload chunk failed")

	// ErrDuplicateObjectID is returned when two records map to the same
	// objectID. The index is left untouched.
	ErrDuplicateObjectID = errors.New("duplicate objectID")
)

// Metrics receives sync run measurements.
type Metrics interface {
	RecordsFetched(model string, n int)
	ChunkUploaded(documents int)
	ChunkFailed()
	RunFinished(status string, started time.Time)
}

type nopMetrics struct{}

func (nopMetrics) RecordsFetched(string, int)    {}
func (nopMetrics) ChunkUploaded(int)             {}
func (nopMetrics) ChunkFailed()                  {}
func (nopMetrics) RunFinished(string, time.Time) {}

// Result summarizes a finished sync run.
type Result struct {
	RunID     uuid.UUID
	Status    models.SyncRunStatus
	Posts     int
	Pages     int
	Documents int
	Chunks    int
	Cleared   bool
	Duration  time.Duration
}

// Orchestrator synchronizes site content into a search index:
// fetch, transform, clear, then upload.
type Orchestrator struct {
	db        *gorm.DB
	logger    hclog.Logger
	store     content.Store
	generator content.Generator
	index     search.Index
	indexName string
	registry  *filter.Registry
	metrics   Metrics

	postFields fieldspec.Selection
	pageFields fieldspec.Selection

	chunkSize            int
	maxConcurrentUploads int
	skipClear            bool
}

// Option is a functional option for creating an Orchestrator.
type Option func(*Orchestrator)

// WithDatabase enables run history.
func WithDatabase(db *gorm.DB) Option {
	return func(o *Orchestrator) {
		o.db = db
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithStore sets the content store records are read from.
func WithStore(store content.Store) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithGenerator sets the site generator run before fetching.
func WithGenerator(generator content.Generator) Option {
	return func(o *Orchestrator) {
		o.generator = generator
	}
}

// WithIndex sets the search index and the index name recorded in run
// history.
func WithIndex(index search.Index, name string) Option {
	return func(o *Orchestrator) {
		o.index = index
		o.indexName = name
	}
}

// WithFilterRegistry sets the registry used to resolve field spec filters.
func WithFilterRegistry(registry *filter.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithPostFields sets the field selection for posts.
func WithPostFields(sel fieldspec.Selection) Option {
	return func(o *Orchestrator) {
		o.postFields = sel
	}
}

// WithPageFields sets the field selection for pages.
func WithPageFields(sel fieldspec.Selection) Option {
	return func(o *Orchestrator) {
		o.pageFields = sel
	}
}

// WithChunkSize sets the maximum number of documents per upload.
func WithChunkSize(size int) Option {
	return func(o *Orchestrator) {
		o.chunkSize = size
	}
}

// WithMaxConcurrentUploads limits in-flight chunk uploads. Zero means no
// limit.
func WithMaxConcurrentUploads(n int) Option {
	return func(o *Orchestrator) {
		o.maxConcurrentUploads = n
	}
}

// WithSkipClear disables clearing the index before upload.
func WithSkipClear(skip bool) Option {
	return func(o *Orchestrator) {
		o.skipClear = skip
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// NewOrchestrator creates a new sync orchestrator.
func NewOrchestrator(opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		logger:    hclog.NewNullLogger(),
		generator: content.NopGenerator{},
		metrics:   nopMetrics{},
		chunkSize: batch.DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.store == nil {
		return nil, fmt.Errorf("content store is required")
	}
	if o.index == nil {
		return nil, fmt.Errorf("search index is required")
	}
	if o.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: %d", batch.ErrInvalidChunkSize, o.chunkSize)
	}
	if o.maxConcurrentUploads < 0 {
		return nil, fmt.Errorf("max concurrent uploads must not be negative")
	}
	if o.registry == nil {
		o.registry = filter.NewRegistry()
	}

	return o, nil
}

func (o *Orchestrator) pipeline(logger hclog.Logger) *Pipeline {
	return &Pipeline{
		Logger: logger,
		Stages: []Stage{
			&FetchStage{
				Store:     o.store,
				Generator: o.generator,
				Metrics:   o.metrics,
			},
			&TransformStage{
				Registry:   o.registry,
				PostFields: o.postFields,
				PageFields: o.pageFields,
			},
			&ClearStage{
				Index: o.index,
				Skip:  o.skipClear,
			},
			&UploadStage{
				Index:         o.index,
				ChunkSize:     o.chunkSize,
				MaxConcurrent: o.maxConcurrentUploads,
				Metrics:       o.metrics,
			},
		},
	}
}

// Run executes one sync. A site without published posts is a successful run
// that leaves the index untouched.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	rc := newRunContext(o.logger)
	rc.Logger.Info("starting sync run", "backend", o.index.Name())

	run := o.startHistory(rc)

	runErr := o.pipeline(rc.Logger).Execute(ctx, rc)

	res := &Result{
		RunID:     rc.RunID,
		Status:    models.SyncRunStatusSucceeded,
		Posts:     len(rc.Posts),
		Pages:     len(rc.Pages),
		Documents: len(rc.Documents),
		Chunks:    rc.Chunks,
		Cleared:   rc.Cleared,
		Duration:  time.Since(rc.StartTime),
	}
	switch {
	case runErr != nil:
		res.Status = models.SyncRunStatusFailed
	case rc.Done:
		res.Status = models.SyncRunStatusSkipped
	}

	o.finishHistory(rc, run, res, runErr)
	o.metrics.RunFinished(string(res.Status), rc.StartTime)

	if runErr != nil {
		rc.Logger.Error("sync run failed", "error", runErr, "duration", res.Duration)
		return res, runErr
	}

	if res.Status == models.SyncRunStatusSucceeded {
		rc.Logger.Info(MsgIndexed,
			"posts", res.Posts,
			"documents", res.Documents,
			"duration", res.Duration,
		)
	}
	return res, nil
}

// startHistory records the run as running. History failures are logged and
// never fail the run.
func (o *Orchestrator) startHistory(rc *RunContext) *models.SyncRun {
	if o.db == nil {
		return nil
	}

	run := &models.SyncRun{
		ID:        rc.RunID,
		StartedAt: rc.StartTime,
		Status:    models.SyncRunStatusRunning,
		Backend:   o.index.Name(),
		IndexName: o.indexName,
	}
	if err := run.Create(o.db); err != nil {
		rc.Logger.Warn("failed to record sync run", "error", err)
		return nil
	}
	return run
}

func (o *Orchestrator) finishHistory(rc *RunContext, run *models.SyncRun, res *Result, runErr error) {
	if run == nil {
		return
	}

	run.Posts = res.Posts
	run.Pages = res.Pages
	run.Documents = res.Documents
	run.Chunks = res.Chunks
	run.Cleared = res.Cleared
	if err := run.Finish(o.db, res.Status, runErr); err != nil {
		rc.Logger.Warn("failed to update sync run", "error", err)
	}
}
