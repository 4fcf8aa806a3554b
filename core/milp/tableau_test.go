package milp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnginesAgree(t *testing.T) {
	cases := []struct {
		name string
		lp   lpProblem
		want float64
	}{
		{
			name: "vertex",
			lp: lpProblem{
				c:     []float64{-1, -1},
				rows:  [][]float64{{1, 2}, {3, 1}},
				sense: []Sense{LessEq, LessEq},
				rhs:   []float64{4, 6},
			},
			want: -2.8,
		},
		{
			name: "equality_and_lower_rows",
			lp: lpProblem{
				c:     []float64{2, 3},
				rows:  [][]float64{{1, 1}, {1, 0}, {0, 1}, {1, -1}},
				sense: []Sense{Equal, GreaterEq, GreaterEq, LessEq},
				rhs:   []float64{4, 1, 1, 2},
			},
			want: 9,
		},
		{
			name: "negative_rhs",
			lp: lpProblem{
				c:     []float64{1, 1},
				rows:  [][]float64{{-1, -1}, {1, 0}},
				sense: []Sense{LessEq, LessEq},
				rhs:   []float64{-2, 1.5},
			},
			want: 2,
		},
		{
			name: "redundant_equalities",
			lp: lpProblem{
				c:     []float64{1, 2, 3},
				rows:  [][]float64{{1, 1, 0}, {0, 0, 1}, {1, 1, 1}},
				sense: []Sense{Equal, Equal, Equal},
				rhs:   []float64{1, 1, 2},
			},
			want: 4,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for name, engine := range map[string]lpEngine{EngineTableau: solveTableau, EngineGonum: solveGonum} {
				sol, err := engine(tc.lp, 1e-9)
				require.NoError(t, err, name)
				require.Equal(t, lpOptimal, sol.status, name)
				assert.InDelta(t, tc.want, sol.obj, 1e-6, name)
			}
		})
	}
}

func TestEnginesAgreeWithUpperBounds(t *testing.T) {
	cases := []struct {
		name string
		lp   lpProblem
		want float64
	}{
		{
			name: "row_binds_before_bounds",
			lp: lpProblem{
				c:     []float64{-1, -1},
				rows:  [][]float64{{1, 1}},
				sense: []Sense{LessEq},
				rhs:   []float64{1.5},
				upper: []float64{1, 1},
			},
			want: -1.5,
		},
		{
			name: "both_at_upper",
			lp: lpProblem{
				c:     []float64{-1, -2},
				rows:  [][]float64{{1, 1}},
				sense: []Sense{LessEq},
				rhs:   []float64{3},
				upper: []float64{1, 1},
			},
			want: -3,
		},
		{
			name: "mixed_bounds",
			lp: lpProblem{
				c:     []float64{-3, -1},
				rows:  [][]float64{{1, -1}},
				sense: []Sense{LessEq},
				rhs:   []float64{0.5},
				upper: []float64{1, 2},
			},
			want: -5,
		},
		{
			name: "entering_hits_own_bound",
			lp: lpProblem{
				c:     []float64{0, -1},
				rows:  [][]float64{{-1, 1}},
				sense: []Sense{Equal},
				rhs:   []float64{0},
				upper: []float64{0.7},
			},
			want: -0.7,
		},
		{
			name: "basic_leaves_at_upper",
			lp: lpProblem{
				c:     []float64{-1, 0},
				rows:  [][]float64{{-1, 1}},
				sense: []Sense{Equal},
				rhs:   []float64{0.2},
				upper: []float64{math.Inf(1), 1},
			},
			want: -0.8,
		},
		{
			name: "equality_with_bounds",
			lp: lpProblem{
				c:     []float64{1, 1, 0},
				rows:  [][]float64{{1, 1, 1}},
				sense: []Sense{Equal},
				rhs:   []float64{2.5},
				upper: []float64{1, 1, 1},
			},
			want: 1.5,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for name, engine := range map[string]lpEngine{EngineTableau: solveTableau, EngineGonum: solveGonum} {
				sol, err := engine(tc.lp, 1e-9)
				require.NoError(t, err, name)
				require.Equal(t, lpOptimal, sol.status, name)
				assert.InDelta(t, tc.want, sol.obj, 1e-6, name)
				for j, x := range sol.x {
					assert.LessOrEqual(t, x, tc.lp.upperOf(j)+1e-9, name)
					assert.GreaterOrEqual(t, x, -1e-9, name)
				}
			}
		})
	}
}

func TestTableauInfeasible(t *testing.T) {
	sol, err := solveTableau(lpProblem{
		c:     []float64{1},
		rows:  [][]float64{{1}, {1}},
		sense: []Sense{LessEq, GreaterEq},
		rhs:   []float64{1, 2},
	}, 1e-9)
	require.NoError(t, err)
	assert.Equal(t, lpInfeasible, sol.status)
}

func TestTableauUnbounded(t *testing.T) {
	sol, err := solveTableau(lpProblem{
		c:     []float64{-1, 0},
		rows:  [][]float64{{1, -1}},
		sense: []Sense{LessEq},
		rhs:   []float64{1},
	}, 1e-9)
	require.NoError(t, err)
	assert.Equal(t, lpUnbounded, sol.status)
}

func TestSolveEmpty(t *testing.T) {
	sol := solveEmpty(lpProblem{c: []float64{0, 2}}, 1e-9)
	assert.Equal(t, lpOptimal, sol.status)
	assert.Equal(t, []float64{0, 0}, sol.x)
	assert.Equal(t, lpUnbounded, solveEmpty(lpProblem{c: []float64{-1}}, 1e-9).status)

	sol = solveEmpty(lpProblem{c: []float64{-1, 2}, upper: []float64{2}}, 1e-9)
	assert.Equal(t, lpOptimal, sol.status)
	assert.Equal(t, []float64{2, 0}, sol.x)
	assert.InDelta(t, -2, sol.obj, 1e-12)
}
