package simplex

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/pdac/core/formulation"
	"github.com/kilianp07/pdac/core/model"
	"github.com/kilianp07/pdac/core/solver"
)

func TestSolveLP(t *testing.T) {
	m := &solver.Model{}
	x := m.AddVar(solver.Variable{Name: "x", Upper: 3})
	y := m.AddVar(solver.Variable{Name: "y", Upper: 2})
	m.AddConstraint(solver.Constraint{Terms: []solver.Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}}, Sense: solver.LessOrEqual, RHS: 4})
	m.Objective = []solver.Term{{Var: x, Coeff: -1}, {Var: y, Coeff: -2}}

	sol, err := New(Config{}, nil).Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusOptimal, sol.Status)
	// y saturates at 2, x takes the remaining 2.
	assert.InDelta(t, -6, sol.Objective, 1e-6)
	assert.InDelta(t, 2, sol.Value(x), 1e-6)
	assert.InDelta(t, 2, sol.Value(y), 1e-6)
}

func TestSolveLowerBoundShift(t *testing.T) {
	m := &solver.Model{}
	x := m.AddVar(solver.Variable{Name: "x", Lower: 1, Upper: math.Inf(1)})
	y := m.AddVar(solver.Variable{Name: "y", Lower: 0, Upper: math.Inf(1)})
	m.AddConstraint(solver.Constraint{Terms: []solver.Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}}, Sense: solver.Equal, RHS: 5})
	m.Objective = []solver.Term{{Var: x, Coeff: 2}, {Var: y, Coeff: 1}}

	sol, err := New(Config{}, nil).Solve(context.Background(), m)
	require.NoError(t, err)
	assert.InDelta(t, 1, sol.Value(x), 1e-6)
	assert.InDelta(t, 4, sol.Value(y), 1e-6)
	assert.InDelta(t, 6, sol.Objective, 1e-6)
}

func TestSolveInfeasible(t *testing.T) {
	m := &solver.Model{}
	x := m.AddVar(solver.Variable{Name: "x", Upper: 1})
	y := m.AddVar(solver.Variable{Name: "y", Upper: 1})
	m.AddConstraint(solver.Constraint{Terms: []solver.Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}}, Sense: solver.Equal, RHS: 3})
	m.Objective = []solver.Term{{Var: x, Coeff: 1}}

	sol, err := New(Config{}, nil).Solve(context.Background(), m)
	require.Error(t, err)
	assert.ErrorIs(t, err, solver.ErrSolverFailure)
	assert.Equal(t, solver.StatusInfeasible, sol.Status)
}

func TestSolveFreeVariableUnbounded(t *testing.T) {
	m := &solver.Model{}
	x := m.AddVar(solver.Variable{Name: "x", Upper: math.Inf(1)})
	m.Objective = []solver.Term{{Var: x, Coeff: -1}}
	sol, err := New(Config{}, nil).Solve(context.Background(), m)
	assert.ErrorIs(t, err, solver.ErrSolverFailure)
	assert.Equal(t, solver.StatusUnbounded, sol.Status)
}

func TestBranchAndBound(t *testing.T) {
	// max 5a + 4b + 3c  s.t. 2a + 3b + c <= 5, 4a + b + 2c <= 11, 3a + 4b + 2c <= 8
	m := &solver.Model{}
	a := m.AddVar(solver.Variable{Name: "a", Upper: 10, Type: solver.Integer})
	b := m.AddVar(solver.Variable{Name: "b", Upper: 10, Type: solver.Integer})
	c := m.AddVar(solver.Variable{Name: "c", Upper: 10, Type: solver.Integer})
	row := func(ka, kb, kc, rhs float64) {
		m.AddConstraint(solver.Constraint{
			Terms: []solver.Term{{Var: a, Coeff: ka}, {Var: b, Coeff: kb}, {Var: c, Coeff: kc}},
			Sense: solver.LessOrEqual,
			RHS:   rhs,
		})
	}
	row(2, 3, 1, 5)
	row(4, 1, 2, 11)
	row(3, 4, 2, 8)
	m.Objective = []solver.Term{{Var: a, Coeff: -5}, {Var: b, Coeff: -4}, {Var: c, Coeff: -3}}

	sol, err := New(Config{}, nil).Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusOptimal, sol.Status)
	assert.InDelta(t, -13, sol.Objective, 1e-6)
	for _, v := range sol.Values {
		assert.Equal(t, math.Round(v), v)
	}
	assert.GreaterOrEqual(t, sol.Nodes, 1)
}

func TestBranchAndBoundFractionalRoot(t *testing.T) {
	// min -x s.t. 2x <= 3, x integer: LP gives 1.5, integer optimum 1.
	m := &solver.Model{}
	x := m.AddVar(solver.Variable{Name: "x", Upper: 5, Type: solver.Integer})
	m.AddConstraint(solver.Constraint{Terms: []solver.Term{{Var: x, Coeff: 2}}, Sense: solver.LessOrEqual, RHS: 3})
	m.Objective = []solver.Term{{Var: x, Coeff: -1}}

	sol, err := New(Config{}, nil).Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sol.Value(x))
	assert.Greater(t, sol.Nodes, 1)

	lpSol, err := New(Config{}, nil).Solve(context.Background(), m.Relax())
	require.NoError(t, err)
	assert.InDelta(t, 1.5, lpSol.Value(x), 1e-6)
}

func TestSolveTimeout(t *testing.T) {
	m := &solver.Model{}
	x := m.AddVar(solver.Variable{Name: "x", Upper: 1, Type: solver.Integer})
	m.AddConstraint(solver.Constraint{Terms: []solver.Term{{Var: x, Coeff: 1}}, Sense: solver.LessOrEqual, RHS: 1})
	m.Objective = []solver.Term{{Var: x, Coeff: -1}}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err := New(Config{}, nil).Solve(ctx, m)
	if !errors.Is(err, solver.ErrSolverTimeout) {
		t.Fatalf("expected timeout got %v", err)
	}
}

func TestSolveInjectedFailure(t *testing.T) {
	old := simplexFunc
	simplexFunc = func(_ []float64, _ mat.Matrix, _ []float64, _ float64, _ []int) (float64, []float64, error) {
		return 0, nil, errors.New("boom")
	}
	defer func() { simplexFunc = old }()

	m := &solver.Model{}
	x := m.AddVar(solver.Variable{Name: "x", Upper: 1})
	m.AddConstraint(solver.Constraint{Terms: []solver.Term{{Var: x, Coeff: 1}}, Sense: solver.LessOrEqual, RHS: 1})
	m.Objective = []solver.Term{{Var: x, Coeff: 1}}
	sol, err := New(Config{}, nil).Solve(context.Background(), m)
	assert.ErrorIs(t, err, solver.ErrSolverFailure)
	assert.Equal(t, solver.StatusError, sol.Status)
}

func TestSolveInvalidModel(t *testing.T) {
	m := &solver.Model{Objective: []solver.Term{{Var: 2, Coeff: 1}}}
	_, err := New(Config{}, nil).Solve(context.Background(), m)
	assert.Error(t, err)
}

type simplexCall func(c []float64, a mat.Matrix, b []float64, tol float64, basis []int) (float64, []float64, error)

func withSimplex(t *testing.T, f simplexCall) {
	t.Helper()
	old := simplexFunc
	simplexFunc = f
	t.Cleanup(func() { simplexFunc = old })
}

// longJobs draws jobs spanning most of the horizon so each has a few dozen
// intervals at most.
func longJobs(t *testing.T, seed uint64, jobs, horizon int) model.Batch {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed))
	res := make(model.Curve, horizon)
	for i := range res {
		res[i] = float64(rng.IntN(6))
	}
	js := make([]model.Job, jobs)
	for id := range js {
		js[id] = model.Job{ID: id, Release: 0, Deadline: horizon, Duration: horizon - 30 + rng.IntN(20), Height: float64(1 + rng.IntN(4))}
	}
	b, err := model.NewBatch(js, res)
	require.NoError(t, err)
	return b
}

func lpModel() *solver.Model {
	m := &solver.Model{}
	x := m.AddVar(solver.Variable{Name: "x", Upper: 3})
	y := m.AddVar(solver.Variable{Name: "y", Upper: 2})
	m.AddConstraint(solver.Constraint{Terms: []solver.Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}}, Sense: solver.LessOrEqual, RHS: 4})
	m.Objective = []solver.Term{{Var: x, Coeff: -1}, {Var: y, Coeff: -2}}
	return m
}

func TestCrashBasisForSchedulingModels(t *testing.T) {
	var basis []int
	var rows int
	withSimplex(t, func(_ []float64, a mat.Matrix, _ []float64, _ float64, bs []int) (float64, []float64, error) {
		basis = bs
		rows, _ = a.Dims()
		return 0, nil, errors.New("stop")
	})
	b := longJobs(t, 5, 25, 200)
	for _, obj := range []formulation.Objective{formulation.Peak, formulation.Area} {
		basis = nil
		f, err := formulation.Build(b, formulation.Options{Objective: obj})
		require.NoError(t, err)
		_, err = New(Config{}, nil).Solve(context.Background(), f.Model)
		require.Error(t, err)
		require.NotNil(t, basis, obj.String())
		assert.Len(t, basis, rows)
	}
}

func TestCrashBasisRejectsInfeasibleStart(t *testing.T) {
	// x + y = 3 with both capped at 1 has no basis; phase 1 reports it.
	var calls int
	withSimplex(t, func(c []float64, a mat.Matrix, b []float64, tol float64, bs []int) (float64, []float64, error) {
		calls++
		assert.Nil(t, bs)
		return lp.Simplex(c, a, b, tol, bs)
	})
	m := &solver.Model{}
	x := m.AddVar(solver.Variable{Name: "x", Upper: 1})
	y := m.AddVar(solver.Variable{Name: "y", Upper: 1})
	m.AddConstraint(solver.Constraint{Terms: []solver.Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}}, Sense: solver.Equal, RHS: 3})
	m.Objective = []solver.Term{{Var: x, Coeff: 1}}
	sol, err := New(Config{}, nil).Solve(context.Background(), m)
	assert.ErrorIs(t, err, solver.ErrSolverFailure)
	assert.Equal(t, solver.StatusInfeasible, sol.Status)
	assert.Equal(t, 1, calls)
}

func TestSolveSchedulingRelaxationAtScale(t *testing.T) {
	if testing.Short() {
		t.Skip("solves a 25 job, 200 step relaxation")
	}
	b := longJobs(t, 5, 25, 200)
	f, err := formulation.Build(b, formulation.Options{Objective: formulation.Peak})
	require.NoError(t, err)
	sol, err := New(Config{}, nil).Solve(context.Background(), f.Model)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusOptimal, sol.Status)
	assert.NoError(t, f.Model.Feasible(sol.Values, 1e-6))
	assert.GreaterOrEqual(t, sol.Objective, -1e-9)
}

func TestBranchAndBoundStartIncumbent(t *testing.T) {
	// The relaxation always fails, so only the start point can be returned.
	withSimplex(t, func(_ []float64, _ mat.Matrix, _ []float64, _ float64, _ []int) (float64, []float64, error) {
		return 0, nil, errors.New("boom")
	})
	b, err := model.NewBatch([]model.Job{
		{ID: 0, Release: 0, Deadline: 4, Duration: 2, Height: 1},
		{ID: 1, Release: 1, Deadline: 6, Duration: 1, Height: 2},
	}, model.Curve{0, 1, 1, 3, 4, 3})
	require.NoError(t, err)
	f, err := formulation.Build(b, formulation.Options{Integer: true, Start: []int{0, 0}})
	require.NoError(t, err)
	sol, err := New(Config{MaxNodes: 5}, nil).Solve(context.Background(), f.Model)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusFeasible, sol.Status)
	assert.Equal(t, f.Model.Start, sol.Values)
	assert.Equal(t, f.Model.Cost(f.Model.Start), sol.Objective)

	f.Model.Start[f.Selectors[0][0]] = 0
	_, err = New(Config{MaxNodes: 5}, nil).Solve(context.Background(), f.Model)
	assert.ErrorIs(t, err, solver.ErrSolverFailure)
}

func TestSolveWaitsForAbandonedSolve(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	withSimplex(t, func(c []float64, a mat.Matrix, b []float64, tol float64, bs []int) (float64, []float64, error) {
		if calls.Add(1) == 1 {
			<-release
		}
		return lp.Simplex(c, a, b, tol, bs)
	})
	s := New(Config{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Solve(ctx, lpModel())
	require.ErrorIs(t, err, solver.ErrSolverTimeout)
	assert.Equal(t, 1, s.InFlight())

	// The abandoned solve still holds the only slot.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	_, err = s.Solve(ctx2, lpModel())
	require.ErrorIs(t, err, solver.ErrSolverTimeout)
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	sol, err := s.Solve(context.Background(), lpModel())
	require.NoError(t, err)
	assert.InDelta(t, -6, sol.Objective, 1e-6)
	assert.Equal(t, int32(2), calls.Load())
	assert.Eventually(t, func() bool { return s.InFlight() == 0 }, time.Second, time.Millisecond)
}
