package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/pdac/core/logger"
	"github.com/kilianp07/pdac/core/model"
	"github.com/kilianp07/pdac/core/solver"
)

// Fallback runs Primary and, when it times out, returns the schedule of
// Secondary instead. Other errors are returned unchanged.
type Fallback struct {
	Primary   Strategy
	Secondary Strategy
	Log       logger.Logger
}

func (f Fallback) Name() string { return f.Primary.Name() }

func (f Fallback) Schedule(ctx context.Context, b model.Batch) (Schedule, error) {
	s, err := f.Primary.Schedule(ctx, b)
	if err == nil || !errors.Is(err, solver.ErrSolverTimeout) {
		return s, err
	}
	if f.Log != nil {
		f.Log.Warnf("%s timed out, falling back to %s: %v", f.Primary.Name(), f.Secondary.Name(), err)
	}
	fs, ferr := f.Secondary.Schedule(context.WithoutCancel(ctx), b)
	if ferr != nil {
		return Schedule{}, fmt.Errorf("fallback %s: %w", f.Secondary.Name(), ferr)
	}
	fs.Strategy = f.Primary.Name()
	fs.FellBack = true
	return fs, nil
}
