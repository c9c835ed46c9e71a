package scheduling

import (
	"context"

	"github.com/kilianp07/pdac/core/model"
	"github.com/kilianp07/pdac/core/solver"
)

// Strategy names.
const (
	NameNaive   = "naive"
	NameGreedy  = "greedy"
	NameRelaxed = "relaxed"
	NameExact   = "exact"
)

// Schedule is the outcome of one strategy on one batch.
type Schedule struct {
	Strategy string
	// Assignments is indexed like the batch jobs.
	Assignments []model.Assignment
	Demand      model.Profile
	// SolverObjective is the objective reported by the solver. It is only
	// meaningful when Solved is true.
	SolverObjective float64
	Solved          bool
	Status          solver.Status
	// FellBack is set when the schedule comes from a fallback strategy.
	FellBack bool
}

// Strategy schedules every job of a batch. Implementations must not mutate
// the batch.
type Strategy interface {
	Name() string
	Schedule(ctx context.Context, b model.Batch) (Schedule, error)
}

func newSchedule(name string, b model.Batch, asn []model.Assignment) Schedule {
	return Schedule{Strategy: name, Assignments: asn, Demand: b.Demand(asn)}
}
