package formulation

import (
	"fmt"
	"math"
	"strings"

	"github.com/kilianp07/pdac/core/model"
	"github.com/kilianp07/pdac/core/solver"
)

// Objective selects what the slack variables measure.
type Objective int

const (
	// Peak minimises one shared variable d bounding the excess at every step.
	Peak Objective = iota
	// Area minimises the sum of one slack variable n_t per step.
	Area
)

func (o Objective) String() string {
	if o == Area {
		return "area"
	}
	return "peak"
}

// ParseObjective maps a configuration string to an Objective.
func ParseObjective(s string) (Objective, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "peak", "pdac":
		return Peak, nil
	case "area", "aac":
		return Area, nil
	default:
		return Peak, fmt.Errorf("unknown objective %q", s)
	}
}

// Options control model construction.
type Options struct {
	// Integer makes the selection variables binary instead of [0,1] continuous.
	Integer   bool
	Objective Objective
	// Start optionally gives one interval index per job of a known schedule.
	// The matching point is stored in Model.Start.
	Start []int
}

// Formulation is a built model together with the lookup tables needed to
// read a solution back into intervals.
type Formulation struct {
	Model     *solver.Model
	Objective Objective
	Intervals [][]model.Interval
	// Selectors[j][i] is the variable index of interval i of job j.
	Selectors [][]int
	// Slack holds the index of d (peak) or of every n_t (area).
	Slack []int
}

// Build creates the scheduling model for a batch:
//
//	for each job j:   sum_i x_ij = 1
//	for each step t:  sum_{(i,j) covering t} h_j x_ij - s_t <= r_t
//
// where s_t is the shared d for Peak and n_t for Area.
func Build(b model.Batch, opts Options) (*Formulation, error) {
	intervals := b.Intervals()
	for j, ivs := range intervals {
		if len(ivs) == 0 {
			return nil, fmt.Errorf("job %d has no feasible interval: %w", b.Jobs[j].ID, model.ErrInfeasibleJob)
		}
	}
	steps := b.Horizon()
	m := &solver.Model{}
	typ := solver.Continuous
	if opts.Integer {
		typ = solver.Integer
	}

	selectors := make([][]int, len(intervals))
	for j, ivs := range intervals {
		selectors[j] = make([]int, len(ivs))
		for i := range ivs {
			selectors[j][i] = m.AddVar(solver.Variable{
				Name:  fmt.Sprintf("x_%d_%d", i, j),
				Lower: 0,
				Upper: 1,
				Type:  typ,
			})
		}
	}

	capHeight := b.TotalHeight()
	var slack []int
	switch opts.Objective {
	case Area:
		slack = make([]int, steps)
		for t := range slack {
			slack[t] = m.AddVar(solver.Variable{Name: fmt.Sprintf("n_%d", t), Upper: capHeight})
		}
	default:
		slack = []int{m.AddVar(solver.Variable{Name: "d", Upper: capHeight})}
	}
	m.Objective = make([]solver.Term, len(slack))
	for k, v := range slack {
		m.Objective[k] = solver.Term{Var: v, Coeff: 1}
	}

	for j, vars := range selectors {
		terms := make([]solver.Term, len(vars))
		for i, v := range vars {
			terms[i] = solver.Term{Var: v, Coeff: 1}
		}
		m.AddConstraint(solver.Constraint{
			Name:  fmt.Sprintf("one_%d", j),
			Terms: terms,
			Sense: solver.Equal,
			RHS:   1,
		})
	}

	active := coverage(b, intervals, selectors)
	for t := 0; t < steps; t++ {
		s := slack[0]
		if opts.Objective == Area {
			s = slack[t]
		}
		terms := make([]solver.Term, 0, len(active[t])+1)
		terms = append(terms, active[t]...)
		terms = append(terms, solver.Term{Var: s, Coeff: -1})
		m.AddConstraint(solver.Constraint{
			Name:  fmt.Sprintf("step_%d", t),
			Terms: terms,
			Sense: solver.LessOrEqual,
			RHS:   b.Resources[t],
		})
	}

	if opts.Start != nil {
		start, err := startPoint(b, len(m.Vars), intervals, selectors, slack, opts)
		if err != nil {
			return nil, err
		}
		m.Start = start
	}

	return &Formulation{
		Model:     m,
		Objective: opts.Objective,
		Intervals: intervals,
		Selectors: selectors,
		Slack:     slack,
	}, nil
}

// startPoint sets the chosen selectors and gives every slack the smallest
// value the chosen schedule needs.
func startPoint(b model.Batch, vars int, intervals [][]model.Interval, selectors [][]int, slack []int, opts Options) ([]float64, error) {
	if len(opts.Start) != len(intervals) {
		return nil, fmt.Errorf("start has %d entries for %d jobs", len(opts.Start), len(intervals))
	}
	x := make([]float64, vars)
	demand := model.NewProfile(b.Horizon())
	for j, i := range opts.Start {
		if i < 0 || i >= len(intervals[j]) {
			return nil, fmt.Errorf("start: job %d has no interval %d", b.Jobs[j].ID, i)
		}
		x[selectors[j][i]] = 1
		demand.Add(intervals[j][i], b.Jobs[j].Height)
	}
	var peak float64
	for t, d := range demand {
		excess := math.Max(0, d-b.Resources[t])
		if opts.Objective == Area {
			x[slack[t]] = excess
		}
		peak = math.Max(peak, excess)
	}
	if opts.Objective != Area {
		x[slack[0]] = peak
	}
	return x, nil
}

// coverage indexes, per time step, the (variable, height) pairs whose
// interval covers that step. It is built in one pass over all selectors.
func coverage(b model.Batch, intervals [][]model.Interval, selectors [][]int) [][]solver.Term {
	active := make([][]solver.Term, b.Horizon())
	for j, ivs := range intervals {
		h := b.Jobs[j].Height
		for i, iv := range ivs {
			for t := iv.Start; t < iv.End && t < len(active); t++ {
				active[t] = append(active[t], solver.Term{Var: selectors[j][i], Coeff: h})
			}
		}
	}
	return active
}

// Fractions returns the solved selector values per job.
func (f *Formulation) Fractions(sol solver.Solution) [][]float64 {
	out := make([][]float64, len(f.Selectors))
	for j, vars := range f.Selectors {
		out[j] = make([]float64, len(vars))
		for i, v := range vars {
			out[j][i] = sol.Value(v)
		}
	}
	return out
}

// Selected reads an integer solution back into one interval index per job.
// It fails unless exactly one selector of every job is set.
func (f *Formulation) Selected(sol solver.Solution) ([]int, error) {
	out := make([]int, len(f.Selectors))
	for j, vars := range f.Selectors {
		out[j] = -1
		for i, v := range vars {
			if sol.Value(v) > 0.5 {
				if out[j] >= 0 {
					return nil, fmt.Errorf("job %d: intervals %d and %d both selected: %w", j, out[j], i, solver.ErrSolverFailure)
				}
				out[j] = i
			}
		}
		if out[j] < 0 {
			return nil, fmt.Errorf("job %d: no interval selected: %w", j, solver.ErrSolverFailure)
		}
	}
	return out, nil
}

// Assignments converts per-job interval indices into assignments.
func (f *Formulation) Assignments(b model.Batch, choice []int) []model.Assignment {
	return Assign(b, f.Intervals, choice)
}

// Assign pairs each job with its chosen interval.
func Assign(b model.Batch, intervals [][]model.Interval, choice []int) []model.Assignment {
	out := make([]model.Assignment, len(choice))
	for j, i := range choice {
		out[j] = model.Assignment{JobID: b.Jobs[j].ID, Index: i, Interval: intervals[j][i]}
	}
	return out
}
