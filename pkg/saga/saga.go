package saga

import (
	"context"

	"go.uber.org/zap"
)

// Step is one unit of a compensating transaction: Do applies the change,
// Undo reverses it. Undo must tolerate being called after a partially
// applied Do of a later step.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Runner executes steps in order and compensates on failure.
type Runner struct {
	logger *zap.Logger
}

// NewRunner constructs a Runner.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// Run applies each step in order. When a step fails, every previously
// completed step is undone in reverse order and the failing step's error is
// returned. Compensation is best effort: undo failures are logged, never
// returned, so the original cause is what the caller sees.
func (r *Runner) Run(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if err := step.Do(ctx); err != nil {
			r.compensate(ctx, steps[:i])
			return err
		}
	}
	return nil
}

func (r *Runner) compensate(ctx context.Context, completed []Step) {
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Undo == nil {
			continue
		}
		if err := step.Undo(ctx); err != nil {
			r.logger.Error("saga compensation failed",
				zap.String("step", step.Name),
				zap.Error(err))
		}
	}
}
