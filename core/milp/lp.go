package milp

import (
	"fmt"
	"math"
)

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
	// lpFailed marks numerical trouble (iteration limit, singular basis).
	lpFailed
)

// lpProblem is a dense relaxation: minimise c·x subject to rows and
// 0 <= x <= upper. A nil upper, or one shorter than c, leaves the remaining
// columns unbounded above.
type lpProblem struct {
	c     []float64
	rows  [][]float64
	sense []Sense
	rhs   []float64
	upper []float64
}

func (p lpProblem) upperOf(j int) float64 {
	if j < len(p.upper) {
		return p.upper[j]
	}
	return math.Inf(1)
}

type lpSolution struct {
	status lpStatus
	x      []float64
	obj    float64
}

// lpEngine solves a relaxation. An error is returned only for failures that
// are not a property of the LP itself.
type lpEngine func(p lpProblem, tol float64) (lpSolution, error)

const (
	EngineTableau = "tableau"
	EngineGonum   = "gonum"
)

func engineByName(name string) (lpEngine, error) {
	switch name {
	case "", EngineTableau:
		return solveTableau, nil
	case EngineGonum:
		return solveGonum, nil
	default:
		return nil, fmt.Errorf("milp: unknown lp engine %q", name)
	}
}

// solveEmpty handles relaxations without rows: every variable sits at its
// lower bound unless its cost is negative, then at its upper bound.
func solveEmpty(p lpProblem, tol float64) lpSolution {
	x := make([]float64, len(p.c))
	obj := 0.0
	for j, cj := range p.c {
		if cj >= -tol {
			continue
		}
		u := p.upperOf(j)
		if math.IsInf(u, 1) {
			return lpSolution{status: lpUnbounded}
		}
		x[j] = u
		obj += cj * u
	}
	return lpSolution{status: lpOptimal, x: x, obj: obj}
}
