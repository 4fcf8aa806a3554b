package milp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// solveGonum hands the relaxation to gonum's simplex. Every row becomes an
// inequality with its own slack column so the standard-form matrix always has
// full row rank, which lp.Simplex requires. Finite upper bounds become rows.
func solveGonum(p lpProblem, tol float64) (sol lpSolution, err error) {
	n := len(p.c)
	var g [][]float64
	var h []float64
	for j := 0; j < n; j++ {
		if u := p.upperOf(j); !math.IsInf(u, 1) {
			row := make([]float64, n)
			row[j] = 1
			g = append(g, row)
			h = append(h, u)
		}
	}
	for i, row := range p.rows {
		switch p.sense[i] {
		case LessEq:
			g = append(g, row)
			h = append(h, p.rhs[i])
		case GreaterEq:
			g = append(g, negate(row))
			h = append(h, -p.rhs[i])
		case Equal:
			g = append(g, row, negate(row))
			h = append(h, p.rhs[i], -p.rhs[i])
		}
	}
	m := len(g)
	if len(p.rows) == 0 {
		return solveEmpty(p, tol), nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("milp: gonum simplex: %v", r)
		}
	}()

	A := mat.NewDense(m, n+m, nil)
	for i, row := range g {
		for j, v := range row {
			if v != 0 {
				A.Set(i, j, v)
			}
		}
		A.Set(i, n+i, 1)
	}
	c := make([]float64, n+m)
	copy(c, p.c)

	opt, x, err := lp.Simplex(c, A, h, tol, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return lpSolution{status: lpInfeasible}, nil
	case errors.Is(err, lp.ErrUnbounded):
		return lpSolution{status: lpUnbounded}, nil
	case err != nil:
		return lpSolution{status: lpFailed}, nil
	}
	return lpSolution{status: lpOptimal, x: x[:n], obj: opt}, nil
}

func negate(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = -v
	}
	return out
}
