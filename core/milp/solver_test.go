package milp

import (
	"container/heap"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func knapsack() (*Problem, []Var) {
	values := []float64{10, 13, 7, 8}
	weights := []float64{5, 6, 3, 4}
	p := NewProblem("knapsack")
	xs := make([]Var, len(values))
	var obj, weight Expr
	for i := range values {
		xs[i] = p.Binary("x")
		obj = obj.Plus(xs[i], -values[i])
		weight = weight.Plus(xs[i], weights[i])
	}
	p.Add("capacity", weight, LessEq, 10)
	p.Minimize(obj)
	return p, xs
}

func TestSolveKnapsack(t *testing.T) {
	for _, engine := range []string{EngineTableau, EngineGonum} {
		t.Run(engine, func(t *testing.T) {
			p, xs := knapsack()
			s, err := NewSolver(Options{Engine: engine})
			require.NoError(t, err)
			sol, err := s.Solve(context.Background(), p)
			require.NoError(t, err)
			assert.Equal(t, StatusOptimal, sol.Status)
			assert.InDelta(t, -21, sol.Objective, 1e-6)
			assert.Equal(t, []float64{0, 1, 0, 1}, []float64{sol.Value(xs[0]), sol.Value(xs[1]), sol.Value(xs[2]), sol.Value(xs[3])})
			assert.NoError(t, p.Check(sol.Values, 1e-9))
		})
	}
}

func TestSolveInfeasibleRoot(t *testing.T) {
	p := NewProblem("root")
	x, y := p.Binary("x"), p.Binary("y")
	p.Add("too_many", Sum(x, y), GreaterEq, 3)
	p.Minimize(Sum(x, y))
	s, err := NewSolver(Options{})
	require.NoError(t, err)
	sol, err := s.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.Nil(t, sol.Values)
}

func TestSolveIntegerInfeasible(t *testing.T) {
	p := NewProblem("parity")
	x, y := p.Binary("x"), p.Binary("y")
	p.Add("odd", Expr{Terms: []Term{{x, 2}, {y, 2}}}, Equal, 1)
	p.Minimize(Sum(x))
	s, err := NewSolver(Options{})
	require.NoError(t, err)
	sol, err := s.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.Greater(t, sol.Nodes, 1)
}

func TestSolveUnbounded(t *testing.T) {
	p := NewProblem("unbounded")
	z := p.NonNegative("z")
	p.Minimize(Expr{}.Plus(z, -1))
	s, err := NewSolver(Options{})
	require.NoError(t, err)
	sol, err := s.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusUnbounded, sol.Status)
}

// deviationProblem minimises |x1+x2+x3 - 1.5|; every relaxation optimum is
// fractional while the integer optimum is 0.5.
func deviationProblem() *Problem {
	p := NewProblem("deviation")
	xs := []Var{p.Binary("x1"), p.Binary("x2"), p.Binary("x3")}
	dev := p.NonNegative("dev")
	load := Sum(xs...)
	p.Add("dev_hi", load.Plus(dev, -1), LessEq, 1.5)
	p.Add("dev_lo", load.Plus(dev, 1), GreaterEq, 1.5)
	p.Add("at_least_one", load, GreaterEq, 1)
	p.Minimize(Sum(dev))
	return p
}

func TestSolveAbsoluteDeviation(t *testing.T) {
	p := deviationProblem()
	s, err := NewSolver(Options{})
	require.NoError(t, err)
	sol, err := s.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 0.5, sol.Objective, 1e-6)
	assert.NoError(t, p.Check(sol.Values, 1e-6))
}

func TestSolveNodeLimit(t *testing.T) {
	s, err := NewSolver(Options{MaxNodes: 1})
	require.NoError(t, err)
	sol, err := s.Solve(context.Background(), deviationProblem())
	require.NoError(t, err)
	assert.Equal(t, StatusNotSolved, sol.Status)
	assert.Equal(t, 1, sol.Nodes)
}

func TestSolveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := NewSolver(Options{})
	require.NoError(t, err)
	sol, err := s.Solve(ctx, deviationProblem())
	require.NoError(t, err)
	assert.Equal(t, StatusNotSolved, sol.Status)
	assert.Zero(t, sol.Nodes)
}

func TestNewSolverUnknownEngine(t *testing.T) {
	_, err := NewSolver(Options{Engine: "cplex"})
	assert.Error(t, err)
}

func TestCheckReportsViolation(t *testing.T) {
	p := NewProblem("check")
	x, y := p.Binary("x"), p.Binary("y")
	p.Add("pair", Sum(x, y), Equal, 1)
	assert.NoError(t, p.Check([]float64{1, 0}, 1e-9))
	assert.ErrorContains(t, p.Check([]float64{1, 1}, 1e-9), "pair")
	assert.ErrorContains(t, p.Check([]float64{0.5, 0.5}, 1e-9), "not integral")
	assert.Error(t, p.Check([]float64{1}, 1e-9))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Integer Feasible", StatusIntegerFeasible.String())
	assert.Equal(t, "Not Solved", StatusNotSolved.String())
	assert.Equal(t, "Status(42)", Status(42).String())
	assert.True(t, StatusOptimal.HasSolution())
	assert.False(t, StatusUndefined.HasSolution())
}

func TestBranchPriority(t *testing.T) {
	p := NewProblem("priority")
	x, y := p.Binary("x"), p.Binary("y")
	p.SetPriority(y, 1)
	sr := &search{p: p, opts: Options{IntegralityTol: 1e-6}}
	sr.compile()
	assert.Equal(t, y.ID(), sr.branchVar([]float64{0.5, 0.1}))
	assert.Equal(t, x.ID(), sr.branchVar([]float64{0.5, 1}))
	assert.Equal(t, -1, sr.branchVar([]float64{0, 1}))
}

func TestSolveStartBecomesIncumbent(t *testing.T) {
	p, xs := knapsack()
	// x0 and x2 weigh 8 and are worth 17; the optimum is 21.
	for i, v := range []float64{1, 0, 1, 0} {
		p.SetStart(xs[i], v)
	}
	s, err := NewSolver(Options{MaxNodes: 1})
	require.NoError(t, err)
	sol, err := s.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusIntegerFeasible, sol.Status)
	assert.InDelta(t, -17, sol.Objective, 1e-6)

	s, err = NewSolver(Options{})
	require.NoError(t, err)
	sol, err = s.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, -21, sol.Objective, 1e-6)
}

func TestSolveIgnoresInfeasibleOrPartialStart(t *testing.T) {
	p, xs := knapsack()
	for _, x := range xs {
		p.SetStart(x, 1)
	}
	s, err := NewSolver(Options{MaxNodes: 1})
	require.NoError(t, err)
	sol, err := s.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusNotSolved, sol.Status, "an overweight start is no incumbent")

	p, xs = knapsack()
	p.SetStart(xs[0], 1)
	sol, err = s.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, StatusNotSolved, sol.Status)
	assert.Equal(t, 1, sol.Nodes, "a partial start is not evaluated")
}

func TestNodeQueueOrder(t *testing.T) {
	q := &nodeQueue{}
	heap.Push(q, node{bound: 2, depth: 5, seq: 1})
	heap.Push(q, node{bound: 1, depth: 1, seq: 2})
	heap.Push(q, node{bound: 1, depth: 3, seq: 3})
	heap.Push(q, node{bound: 1, depth: 3, seq: 4})
	var got []int
	for q.Len() > 0 {
		got = append(got, heap.Pop(q).(node).seq)
	}
	assert.Equal(t, []int{4, 3, 2, 1}, got)
}
