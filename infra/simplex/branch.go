package simplex

import (
	"context"
	"fmt"
	"math"

	"github.com/kilianp07/pdac/core/solver"
)

type node struct {
	lower, upper []float64
	depth        int
}

// branchAndBound explores LP relaxations depth first, branching on the most
// fractional integer variable and pruning nodes whose bound cannot beat the
// incumbent. A feasible Model.Start is the first incumbent.
func (s *Solver) branchAndBound(ctx context.Context, m *solver.Model, lower, upper []float64) (solver.Solution, error) {
	var (
		best   solver.Solution
		found  bool
		nodes  int
		prune  = s.cfg.Tolerance * 10
		stack  = []node{{lower: lower, upper: upper}}
		maxDep int
	)
	// Integer bounds are rounded inward once so children stay integral.
	for j, v := range m.Vars {
		if v.Type != solver.Integer {
			continue
		}
		lower[j] = math.Ceil(lower[j] - s.cfg.IntegralityTolerance)
		if !math.IsInf(upper[j], 1) {
			upper[j] = math.Floor(upper[j] + s.cfg.IntegralityTolerance)
		}
		if upper[j] < lower[j] {
			return solver.Solution{Status: solver.StatusInfeasible}, fmt.Errorf("var %s has no integer value: %w", v.Name, solver.ErrSolverFailure)
		}
	}

	if m.Start != nil {
		if err := m.Feasible(m.Start, s.cfg.IntegralityTolerance); err != nil {
			s.log.Warnf("ignoring start point: %v", err)
		} else {
			best = solver.Solution{Objective: m.Cost(m.Start), Values: append([]float64(nil), m.Start...)}
			found = true
			s.log.Debugf("start point incumbent %.6f", best.Objective)
		}
	}

	for len(stack) > 0 {
		if s.cfg.MaxNodes > 0 && nodes >= s.cfg.MaxNodes {
			if found {
				best.Status = solver.StatusFeasible
				best.Nodes = nodes
				s.log.Warnf("node limit %d reached, returning incumbent %.6f", s.cfg.MaxNodes, best.Objective)
				return best, nil
			}
			return solver.Solution{Status: solver.StatusError, Nodes: nodes}, fmt.Errorf("%w after %d nodes: %w", ErrNodeLimit, nodes, solver.ErrSolverFailure)
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++
		if nd.depth > maxDep {
			maxDep = nd.depth
		}

		rel, err := s.relaxation(ctx, m, nd.lower, nd.upper)
		if err != nil {
			if ctx.Err() != nil {
				return solver.Solution{Status: solver.StatusError, Nodes: nodes}, fmt.Errorf("after %d nodes: %w", nodes, err)
			}
			if nodes == 1 && found && rel.Status != solver.StatusUnbounded {
				s.log.Warnf("root relaxation failed, returning start point: %v", err)
				best.Status = solver.StatusFeasible
				best.Nodes = nodes
				return best, nil
			}
			if nodes == 1 || rel.Status == solver.StatusUnbounded {
				return solver.Solution{Status: rel.Status, Nodes: nodes}, err
			}
			if rel.Status != solver.StatusInfeasible {
				s.log.Warnf("pruning node %d at depth %d: %v", nodes, nd.depth, err)
			}
			continue
		}
		if found && rel.Objective >= best.Objective-prune {
			continue
		}

		branch, frac := -1, 0.0
		for j, v := range m.Vars {
			if v.Type != solver.Integer {
				continue
			}
			x := rel.Values[j]
			d := math.Abs(x - math.Round(x))
			if d > s.cfg.IntegralityTolerance && d > frac {
				branch, frac = j, d
			}
		}
		if branch < 0 {
			for j, v := range m.Vars {
				if v.Type == solver.Integer {
					rel.Values[j] = math.Round(rel.Values[j])
				}
			}
			best, found = rel, true
			s.log.Debugf("incumbent %.6f at node %d depth %d", rel.Objective, nodes, nd.depth)
			continue
		}

		x := rel.Values[branch]
		down := child(nd, branch, nd.lower[branch], math.Floor(x))
		up := child(nd, branch, math.Ceil(x), nd.upper[branch])
		// The side nearer to x is explored first.
		if x-math.Floor(x) >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	if !found {
		return solver.Solution{Status: solver.StatusInfeasible, Nodes: nodes}, fmt.Errorf("no integer solution: %w", solver.ErrSolverFailure)
	}
	best.Status = solver.StatusOptimal
	best.Nodes = nodes
	s.log.Debugf("branch-and-bound explored %d nodes, max depth %d", nodes, maxDep)
	return best, nil
}

func child(parent node, j int, lo, hi float64) node {
	l := make([]float64, len(parent.lower))
	u := make([]float64, len(parent.upper))
	copy(l, parent.lower)
	copy(u, parent.upper)
	l[j], u[j] = lo, hi
	return node{lower: l, upper: u, depth: parent.depth + 1}
}
