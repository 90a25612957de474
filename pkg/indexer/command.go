package indexer

import "context"

// Stage is a single step of a sync run. Stages run in order and share state
// through the run context.
type Stage interface {
	// Execute performs the stage. Returning an error aborts the run.
	Execute(ctx context.Context, rc *RunContext) error

	// Name returns the stage name for logging.
	Name() string
}
