package simplex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/pdac/core/solver"
	"github.com/kilianp07/pdac/infra/logger"
)

// ErrNodeLimit is returned when branch-and-bound exhausts its node budget
// without finding any integer solution.
var ErrNodeLimit = errors.New("branch-and-bound node limit reached")

// Config tunes the solver.
type Config struct {
	// Tolerance is passed to the simplex method.
	Tolerance float64
	// IntegralityTolerance is the distance to the nearest integer under which
	// an integer variable counts as integral.
	IntegralityTolerance float64
	// MaxNodes caps the branch-and-bound tree. Zero means unlimited.
	MaxNodes int
	// Timeout bounds a whole Solve call. Zero disables it.
	Timeout time.Duration
	// MaxInFlight caps the LP solves running at once, including solves
	// abandoned on timeout that have not returned yet. Defaults to 1.
	MaxInFlight int
}

func (c *Config) setDefaults() {
	if c.Tolerance <= 0 {
		c.Tolerance = 1e-7
	}
	if c.IntegralityTolerance <= 0 {
		c.IntegralityTolerance = 1e-6
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = 1
	}
}

// Solver implements solver.Solver with the gonum simplex method. Models with
// integer variables are solved by depth-first branch-and-bound over LP
// relaxations. It is safe for concurrent use.
type Solver struct {
	cfg   Config
	log   logger.Logger
	slots chan struct{}
}

// New returns a Solver. A nil logger discards output.
func New(cfg Config, log logger.Logger) *Solver {
	cfg.setDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Solver{cfg: cfg, log: log, slots: make(chan struct{}, cfg.MaxInFlight)}
}

// InFlight returns the number of LP solves currently holding a slot.
func (s *Solver) InFlight() int { return len(s.slots) }

// simplexFunc points to the LP routine. Tests override it to inject failures.
var simplexFunc = lp.Simplex

// Solve minimises m. An expired deadline yields solver.ErrSolverTimeout.
func (s *Solver) Solve(ctx context.Context, m *solver.Model) (solver.Solution, error) {
	if err := m.Validate(); err != nil {
		return solver.Solution{Status: solver.StatusError}, fmt.Errorf("invalid model: %w", err)
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	start := time.Now()
	lower, upper := bounds(m)
	var (
		sol solver.Solution
		err error
	)
	if m.HasInteger() {
		sol, err = s.branchAndBound(ctx, m, lower, upper)
	} else {
		sol, err = s.relaxation(ctx, m, lower, upper)
		sol.Nodes = 1
	}
	s.log.Debugw("solve finished", map[string]any{
		"vars":        len(m.Vars),
		"constraints": len(m.Constraints),
		"status":      sol.Status.String(),
		"objective":   sol.Objective,
		"nodes":       sol.Nodes,
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return sol, err
}

func bounds(m *solver.Model) ([]float64, []float64) {
	lower := make([]float64, len(m.Vars))
	upper := make([]float64, len(m.Vars))
	for i, v := range m.Vars {
		lower[i], upper[i] = v.Lower, v.Upper
	}
	return lower, upper
}

type lpResult struct {
	sol solver.Solution
	err error
}

// relaxation solves the LP relaxation of m under the given bounds. The
// simplex call runs in its own goroutine so an expired context returns
// immediately. gonum cannot interrupt it, so the goroutine keeps its slot
// until it returns and later solves wait for a free one.
func (s *Solver) relaxation(ctx context.Context, m *solver.Model, lower, upper []float64) (solver.Solution, error) {
	if err := ctxErr(ctx); err != nil {
		return solver.Solution{Status: solver.StatusError}, err
	}
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		s.log.Warnf("no simplex slot freed before the deadline, %d solve(s) still running", s.InFlight())
		return solver.Solution{Status: solver.StatusError}, ctxErr(ctx)
	}
	done := make(chan lpResult, 1)
	go func() {
		sol, err := s.solveLP(m, lower, upper)
		<-s.slots
		done <- lpResult{sol: sol, err: err}
	}()
	select {
	case <-ctx.Done():
		s.log.Warnf("abandoning simplex solve over %d vars, it holds its slot until it returns", len(m.Vars))
		return solver.Solution{Status: solver.StatusError}, ctxErr(ctx)
	case r := <-done:
		return r.sol, r.err
	}
}

func ctxErr(ctx context.Context) error {
	switch err := ctx.Err(); {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", solver.ErrSolverTimeout, err)
	default:
		return err
	}
}

// solveLP converts the bounded model to standard form
//
//	min c'y  s.t.  Ay = b, y >= 0
//
// with y = x - lower, one slack per <= row and one bound row per finite
// upper bound that the equality rows do not already imply.
func (s *Solver) solveLP(m *solver.Model, lower, upper []float64) (sol solver.Solution, err error) {
	defer func() {
		if r := recover(); r != nil {
			sol = solver.Solution{Status: solver.StatusError}
			err = fmt.Errorf("simplex panic: %v: %w", r, solver.ErrSolverFailure)
		}
	}()
	n := len(m.Vars)
	cost := make([]float64, n)
	for _, t := range m.Objective {
		cost[t.Var] += t.Coeff
	}

	values := make([]float64, n)
	col := make([]int, n)
	appears := make([]bool, n)
	for _, c := range m.Constraints {
		for _, t := range c.Terms {
			if t.Coeff != 0 {
				appears[t.Var] = true
			}
		}
	}
	var cols []int
	for j := 0; j < n; j++ {
		col[j] = -1
		switch {
		case upper[j]-lower[j] <= s.cfg.Tolerance:
			values[j] = lower[j]
		case !appears[j]:
			// Free of constraints: sits on the bound its cost prefers.
			if cost[j] < 0 {
				if math.IsInf(upper[j], 1) {
					return solver.Solution{Status: solver.StatusUnbounded}, fmt.Errorf("var %s: %w", m.Vars[j].Name, solver.ErrSolverFailure)
				}
				values[j] = upper[j]
			} else {
				values[j] = lower[j]
			}
		default:
			col[j] = len(cols)
			cols = append(cols, j)
		}
	}

	type row struct {
		coeffs map[int]float64
		rhs    float64
		slack  bool
	}
	var rows []row
	for _, c := range m.Constraints {
		r := row{coeffs: make(map[int]float64, len(c.Terms)), rhs: c.RHS, slack: c.Sense == solver.LessOrEqual}
		for _, t := range c.Terms {
			if col[t.Var] < 0 {
				r.rhs -= t.Coeff * values[t.Var]
				continue
			}
			r.rhs -= t.Coeff * lower[t.Var]
			r.coeffs[col[t.Var]] += t.Coeff
		}
		for k, v := range r.coeffs {
			if v == 0 {
				delete(r.coeffs, k)
			}
		}
		if len(r.coeffs) == 0 {
			if (r.slack && r.rhs < -s.cfg.Tolerance) || (!r.slack && math.Abs(r.rhs) > s.cfg.Tolerance) {
				return solver.Solution{Status: solver.StatusInfeasible}, fmt.Errorf("constraint %s: %w", c.Name, solver.ErrSolverFailure)
			}
			continue
		}
		rows = append(rows, r)
	}

	implied := make([]float64, len(cols))
	for k := range implied {
		implied[k] = math.Inf(1)
	}
	for _, r := range rows {
		if r.slack || r.rhs < 0 {
			continue
		}
		positive := true
		for _, v := range r.coeffs {
			if v <= 0 {
				positive = false
				break
			}
		}
		if !positive {
			continue
		}
		for k, v := range r.coeffs {
			implied[k] = math.Min(implied[k], r.rhs/v)
		}
	}
	var boundRows []int
	for k, j := range cols {
		if math.IsInf(upper[j], 1) || upper[j]-lower[j] >= implied[k] {
			continue
		}
		boundRows = append(boundRows, k)
	}

	if len(cols) == 0 {
		return finish(cost, values), nil
	}

	slacks := 0
	for _, r := range rows {
		if r.slack {
			slacks++
		}
	}
	nr := len(rows) + len(boundRows)
	nc := len(cols) + slacks + len(boundRows)
	if nr == 0 {
		for _, j := range cols {
			values[j] = lower[j]
			if cost[j] < 0 {
				if math.IsInf(upper[j], 1) {
					return solver.Solution{Status: solver.StatusUnbounded}, fmt.Errorf("var %s: %w", m.Vars[j].Name, solver.ErrSolverFailure)
				}
				values[j] = upper[j]
			}
		}
		return finish(cost, values), nil
	}
	if nr > nc {
		return solver.Solution{Status: solver.StatusError}, fmt.Errorf("%d rows exceed %d columns: %w", nr, nc, solver.ErrSolverFailure)
	}
	a := mat.NewDense(nr, nc, nil)
	b := make([]float64, nr)
	c := make([]float64, nc)
	for k, j := range cols {
		c[k] = cost[j]
	}
	lay := layout{
		structural: len(cols),
		rows:       len(rows),
		slack:      make([]int, len(rows)),
		bounded:    boundRows,
		boundSlack: make([]int, len(boundRows)),
	}
	next := len(cols)
	for i, r := range rows {
		for k, v := range r.coeffs {
			a.Set(i, k, v)
		}
		lay.slack[i] = -1
		if r.slack {
			a.Set(i, next, 1)
			lay.slack[i] = next
			next++
		}
		b[i] = r.rhs
	}
	for i, k := range boundRows {
		j := cols[k]
		a.Set(len(rows)+i, k, 1)
		a.Set(len(rows)+i, next, 1)
		lay.boundSlack[i] = next
		next++
		b[len(rows)+i] = upper[j] - lower[j]
	}

	basis := crashBasis(a, b, lay)
	if basis == nil {
		s.log.Debugf("no starting basis for %dx%d, running phase 1", nr, nc)
	}
	_, y, lerr := simplexFunc(c, a, b, s.cfg.Tolerance, basis)
	if lerr != nil {
		status := solver.StatusError
		switch {
		case errors.Is(lerr, lp.ErrInfeasible):
			status = solver.StatusInfeasible
		case errors.Is(lerr, lp.ErrUnbounded):
			status = solver.StatusUnbounded
		}
		return solver.Solution{Status: status}, fmt.Errorf("simplex: %v: %w", lerr, solver.ErrSolverFailure)
	}
	for k, j := range cols {
		values[j] = lower[j] + y[k]
	}
	return finish(cost, values), nil
}

func finish(cost, values []float64) solver.Solution {
	var obj float64
	for j, c := range cost {
		obj += c * values[j]
	}
	return solver.Solution{Status: solver.StatusOptimal, Objective: obj, Values: values}
}
