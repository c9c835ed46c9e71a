package scheduling

import (
	"fmt"

	"github.com/kilianp07/pdac/core/formulation"
	"github.com/kilianp07/pdac/core/logger"
	"github.com/kilianp07/pdac/core/solver"
)

// Options configures the strategies built by New.
type Options struct {
	Solver    solver.Solver
	Objective formulation.Objective
	// Fallback wraps the solver strategies so a timeout yields the greedy
	// schedule instead of an error.
	Fallback bool
	// Seed feeds the rounding generator of the relaxed strategy.
	Seed uint64
	Log  logger.Logger
}

// Names lists every strategy New knows, baselines first.
func Names() []string {
	return []string{NameNaive, NameGreedy, NameRelaxed, NameExact}
}

// New returns the strategy registered under name.
func New(name string, opts Options) (Strategy, error) {
	var s Strategy
	switch name {
	case NameNaive:
		return Naive{}, nil
	case NameGreedy:
		return Greedy{}, nil
	case NameExact:
		s = Exact{Solver: opts.Solver, Objective: opts.Objective}
	case NameRelaxed:
		s = NewRelaxed(opts.Solver, opts.Objective, opts.Seed)
	default:
		return nil, fmt.Errorf("unknown strategy %q (known: %v)", name, Names())
	}
	if opts.Solver == nil {
		return nil, fmt.Errorf("strategy %s requires a solver", name)
	}
	if opts.Fallback {
		s = Fallback{Primary: s, Secondary: Greedy{}, Log: opts.Log}
	}
	return s, nil
}
