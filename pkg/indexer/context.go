package indexer

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/Zheaoli/hexo-algoliasearch/pkg/content"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/search"
)

// RunContext holds the state of one sync run. It accumulates as stages
// execute.
type RunContext struct {
	RunID     uuid.UUID
	StartTime time.Time
	Logger    hclog.Logger

	// Fetched records, oldest first.
	Posts []content.Record
	Pages []content.Record

	// Documents are the transformed posts followed by the transformed pages.
	Documents []search.Document

	Chunks  int
	Cleared bool

	// Done ends the run successfully before the remaining stages.
	Done bool
}

func newRunContext(logger hclog.Logger) *RunContext {
	id := uuid.New()
	return &RunContext{
		RunID:     id,
		StartTime: time.Now().UTC(),
		Logger:    logger.With("run_id", id.String()),
	}
}

// Stop marks the run as finished.
func (rc *RunContext) Stop() {
	rc.Done = true
}
