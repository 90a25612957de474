package indexer

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// Pipeline executes stages in sequence, stopping at the first error.
type Pipeline struct {
	Stages []Stage
	Logger hclog.Logger
}

// Execute runs each stage against rc until one fails or marks the run done.
func (p *Pipeline) Execute(ctx context.Context, rc *RunContext) error {
	for _, stage := range p.Stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.Logger.Debug("executing stage", "stage", stage.Name())
		if err := stage.Execute(ctx, rc); err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}

		if rc.Done {
			p.Logger.Debug("run finished early", "stage", stage.Name())
			return nil
		}
	}
	return nil
}
