package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSolverFailure is returned when the solver reports a non-optimal
	// status or a solution cannot be interpreted. It is never retried.
	ErrSolverFailure = errors.New("solver failure")
	// ErrSolverTimeout is returned when the solve exceeds its deadline.
	ErrSolverTimeout = errors.New("solver timeout")
)

// VarType distinguishes continuous from integer variables.
type VarType int

const (
	Continuous VarType = iota
	Integer
)

func (t VarType) String() string {
	if t == Integer {
		return "integer"
	}
	return "continuous"
}

// Sense is the relation of a linear constraint.
type Sense int

const (
	Equal Sense = iota
	LessOrEqual
)

func (s Sense) String() string {
	if s == Equal {
		return "="
	}
	return "<="
}

// Status is the outcome of a solve.
type Status int

const (
	StatusOptimal Status = iota
	// StatusFeasible is an integer solution found before the search completed.
	StatusFeasible
	StatusInfeasible
	StatusUnbounded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "error"
	}
}

// Variable is a bounded decision variable. Upper may be +Inf.
type Variable struct {
	Name  string
	Lower float64
	Upper float64
	Type  VarType
}

// Term is one sparse (variable index, coefficient) entry.
type Term struct {
	Var   int
	Coeff float64
}

// Constraint is sum(terms) <sense> RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is a minimisation problem over its variables.
type Model struct {
	Vars        []Variable
	Constraints []Constraint
	Objective   []Term
	// Start is an optional feasible point indexed like Vars. Integer solvers
	// may use it as their first incumbent.
	Start []float64
}

// AddVar appends a variable and returns its index.
func (m *Model) AddVar(v Variable) int {
	m.Vars = append(m.Vars, v)
	return len(m.Vars) - 1
}

// AddConstraint appends a constraint.
func (m *Model) AddConstraint(c Constraint) {
	m.Constraints = append(m.Constraints, c)
}

// HasInteger reports whether any variable is integer constrained.
func (m *Model) HasInteger() bool {
	for _, v := range m.Vars {
		if v.Type == Integer {
			return true
		}
	}
	return false
}

// Relax returns a copy of the model with every variable continuous.
func (m *Model) Relax() *Model {
	cp := &Model{
		Vars:        make([]Variable, len(m.Vars)),
		Constraints: m.Constraints,
		Objective:   m.Objective,
		Start:       m.Start,
	}
	for i, v := range m.Vars {
		v.Type = Continuous
		cp.Vars[i] = v
	}
	return cp
}

// Validate checks bounds and term indices.
func (m *Model) Validate() error {
	for i, v := range m.Vars {
		if math.IsNaN(v.Lower) || math.IsInf(v.Lower, 0) {
			return fmt.Errorf("var %d (%s): lower bound must be finite", i, v.Name)
		}
		if v.Upper < v.Lower {
			return fmt.Errorf("var %d (%s): upper %v < lower %v", i, v.Name, v.Upper, v.Lower)
		}
	}
	check := func(where string, terms []Term) error {
		for _, t := range terms {
			if t.Var < 0 || t.Var >= len(m.Vars) {
				return fmt.Errorf("%s: variable index %d out of range", where, t.Var)
			}
		}
		return nil
	}
	if err := check("objective", m.Objective); err != nil {
		return err
	}
	for i, c := range m.Constraints {
		if err := check(fmt.Sprintf("constraint %d (%s)", i, c.Name), c.Terms); err != nil {
			return err
		}
	}
	return nil
}

// Cost evaluates the objective at x.
func (m *Model) Cost(x []float64) float64 {
	var c float64
	for _, t := range m.Objective {
		if t.Var < len(x) {
			c += t.Coeff * x[t.Var]
		}
	}
	return c
}

// Feasible checks x against every bound, integrality requirement and
// constraint of m, allowing an absolute error of tol.
func (m *Model) Feasible(x []float64, tol float64) error {
	if len(x) != len(m.Vars) {
		return fmt.Errorf("point has %d values for %d variables", len(x), len(m.Vars))
	}
	for i, v := range m.Vars {
		switch {
		case math.IsNaN(x[i]):
			return fmt.Errorf("var %s is NaN", v.Name)
		case x[i] < v.Lower-tol || x[i] > v.Upper+tol:
			return fmt.Errorf("var %s = %v outside [%v,%v]", v.Name, x[i], v.Lower, v.Upper)
		case v.Type == Integer && math.Abs(x[i]-math.Round(x[i])) > tol:
			return fmt.Errorf("var %s = %v is not integral", v.Name, x[i])
		}
	}
	for _, c := range m.Constraints {
		var lhs float64
		for _, t := range c.Terms {
			lhs += t.Coeff * x[t.Var]
		}
		if (c.Sense == Equal && math.Abs(lhs-c.RHS) > tol) || (c.Sense == LessOrEqual && lhs > c.RHS+tol) {
			return fmt.Errorf("constraint %s: %v %s %v violated", c.Name, lhs, c.Sense, c.RHS)
		}
	}
	return nil
}

// Solution holds solver output. Values is indexed like Model.Vars and is only
// set for optimal or feasible statuses.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int
}

// Value returns the solved value of variable i.
func (s Solution) Value(i int) float64 {
	if i < 0 || i >= len(s.Values) {
		return 0
	}
	return s.Values[i]
}

// Solver minimises a model. Implementations must honour ctx cancellation and
// report an expired deadline as ErrSolverTimeout.
type Solver interface {
	Solve(ctx context.Context, m *Model) (Solution, error)
}

// Func adapts a function to the Solver interface.
type Func func(ctx context.Context, m *Model) (Solution, error)

// Solve calls f.
func (f Func) Solve(ctx context.Context, m *Model) (Solution, error) { return f(ctx, m) }

// Check converts a non-usable status into an ErrSolverFailure.
func Check(sol Solution) error {
	switch sol.Status {
	case StatusOptimal, StatusFeasible:
		return nil
	default:
		return fmt.Errorf("status %s: %w", sol.Status, ErrSolverFailure)
	}
}
