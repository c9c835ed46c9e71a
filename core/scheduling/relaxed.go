package scheduling

import (
	"context"
	"math/rand/v2"

	"github.com/kilianp07/pdac/core/formulation"
	"github.com/kilianp07/pdac/core/model"
	"github.com/kilianp07/pdac/core/solver"
)

// Relaxed solves the continuous relaxation and rounds it by sampling one
// interval per job. Rand is not safe for concurrent use, so each goroutine
// needs its own Relaxed.
type Relaxed struct {
	Solver    solver.Solver
	Objective formulation.Objective
	Rand      *rand.Rand
}

// NewRelaxed returns a Relaxed strategy with a generator seeded from seed.
func NewRelaxed(s solver.Solver, obj formulation.Objective, seed uint64) *Relaxed {
	return &Relaxed{Solver: s, Objective: obj, Rand: NewRand(seed)}
}

// NewRand returns a PCG generator for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (r *Relaxed) Name() string { return NameRelaxed }

func (r *Relaxed) Schedule(ctx context.Context, b model.Batch) (Schedule, error) {
	f, err := formulation.Build(b, formulation.Options{Integer: false, Objective: r.Objective})
	if err != nil {
		return Schedule{}, err
	}
	sol, err := solve(ctx, r.Solver, f.Model)
	if err != nil {
		return Schedule{}, err
	}
	rng := r.Rand
	if rng == nil {
		rng = NewRand(0)
		r.Rand = rng
	}
	choice := Round(f.Fractions(sol), rng)
	s := newSchedule(NameRelaxed, b, f.Assignments(b, choice))
	s.SolverObjective, s.Solved, s.Status = sol.Objective, true, sol.Status
	return s, nil
}

// Round samples one interval index per job, treating the fractional values
// of each job as a categorical distribution. One uniform draw is taken per
// job in job order. When rounding leaves the cumulative sum below the draw,
// the last interval is chosen. Every row must be non-empty.
func Round(fractions [][]float64, rng *rand.Rand) []int {
	out := make([]int, len(fractions))
	for j, probs := range fractions {
		u := rng.Float64()
		out[j] = len(probs) - 1
		var cum float64
		for i, p := range probs {
			cum += p
			if cum >= u {
				out[j] = i
				break
			}
		}
	}
	return out
}
