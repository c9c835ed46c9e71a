package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/pdac/core/formulation"
	"github.com/kilianp07/pdac/core/model"
	"github.com/kilianp07/pdac/core/solver"
)

// Exact solves the integer model and reads back one interval per job. The
// greedy schedule is handed to the solver as a start point, so a search cut
// short by its node limit still returns a schedule no worse than greedy.
type Exact struct {
	Solver    solver.Solver
	Objective formulation.Objective
}

func (e Exact) Name() string { return NameExact }

func (e Exact) Schedule(ctx context.Context, b model.Batch) (Schedule, error) {
	warm, err := Greedy{}.Schedule(ctx, b)
	if err != nil {
		return Schedule{}, err
	}
	start := make([]int, len(warm.Assignments))
	for i, a := range warm.Assignments {
		start[i] = a.Index
	}
	f, err := formulation.Build(b, formulation.Options{Integer: true, Objective: e.Objective, Start: start})
	if err != nil {
		return Schedule{}, err
	}
	sol, err := solve(ctx, e.Solver, f.Model)
	if err != nil {
		return Schedule{}, err
	}
	choice, err := f.Selected(sol)
	if err != nil {
		return Schedule{}, err
	}
	s := newSchedule(NameExact, b, f.Assignments(b, choice))
	s.SolverObjective, s.Solved, s.Status = sol.Objective, true, sol.Status
	return s, nil
}

// solve runs the solver and normalises its failures to ErrSolverTimeout or
// ErrSolverFailure.
func solve(ctx context.Context, s solver.Solver, m *solver.Model) (solver.Solution, error) {
	if s == nil {
		return solver.Solution{}, fmt.Errorf("no solver configured: %w", solver.ErrSolverFailure)
	}
	sol, err := s.Solve(ctx, m)
	if err != nil {
		if errors.Is(err, solver.ErrSolverTimeout) || errors.Is(err, solver.ErrSolverFailure) {
			return sol, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return sol, fmt.Errorf("%w: %v", solver.ErrSolverTimeout, err)
		}
		return sol, fmt.Errorf("%w: %v", solver.ErrSolverFailure, err)
	}
	if err := solver.Check(sol); err != nil {
		return sol, err
	}
	return sol, nil
}
