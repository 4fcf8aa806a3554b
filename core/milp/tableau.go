package milp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	pivotTol    = 1e-9
	feasibleTol = 1e-7
	ratioTieTol = 1e-12
	// blandAfter is the number of consecutive degenerate pivots before the
	// entering rule switches from Dantzig to Bland.
	blandAfter = 50
)

type iterResult int

const (
	iterOptimal iterResult = iota
	iterUnbounded
	iterLimit
)

// tableau is a dense simplex tableau. Rows 0..m-1 hold the constraints, row m
// the reduced costs; column cols holds the right-hand side. Columns with a
// finite upper bound may be complemented: while flip[j] is set the column
// holds upper[j] - x_j, so every nonbasic column sits at zero.
type tableau struct {
	t     *mat.Dense
	m     int
	cols  int
	basis []int
	upper []float64
	flip  []bool
	tol   float64
}

// solveTableau runs a two-phase bounded-variable primal simplex. Rows are
// normalised to a non-negative right-hand side, <= rows get a slack, >= rows
// a surplus plus an artificial and == rows an artificial. Upper bounds are
// handled in the ratio test instead of as rows.
func solveTableau(p lpProblem, tol float64) (lpSolution, error) {
	m, n := len(p.rows), len(p.c)
	if tol <= 0 {
		tol = 1e-9
	}
	if m == 0 {
		return solveEmpty(p, tol), nil
	}

	sense := make([]Sense, m)
	sign := make([]float64, m)
	nSlack, nArt := 0, 0
	for i := range p.rows {
		s, sg := p.sense[i], 1.0
		if p.rhs[i] < 0 {
			sg = -1
			switch s {
			case LessEq:
				s = GreaterEq
			case GreaterEq:
				s = LessEq
			}
		}
		sense[i], sign[i] = s, sg
		switch s {
		case LessEq:
			nSlack++
		case GreaterEq:
			nSlack++
			nArt++
		case Equal:
			nArt++
		}
	}
	artStart := n + nSlack
	cols := artStart + nArt
	tb := &tableau{
		t:     mat.NewDense(m+1, cols+1, nil),
		m:     m,
		cols:  cols,
		basis: make([]int, m),
		upper: make([]float64, cols),
		flip:  make([]bool, cols),
		tol:   tol,
	}
	for j := range tb.upper {
		tb.upper[j] = p.upperOf(j)
	}

	slack, art := n, artStart
	for i, row := range p.rows {
		r := tb.t.RawRowView(i)
		for j, v := range row {
			r[j] = sign[i] * v
		}
		r[cols] = sign[i] * p.rhs[i]
		switch sense[i] {
		case LessEq:
			r[slack] = 1
			tb.basis[i] = slack
			slack++
		case GreaterEq:
			r[slack] = -1
			slack++
			r[art] = 1
			tb.basis[i] = art
			art++
		case Equal:
			r[art] = 1
			tb.basis[i] = art
			art++
		}
	}

	obj := tb.t.RawRowView(m)
	if nArt > 0 {
		for j := artStart; j < cols; j++ {
			obj[j] = 1
		}
		for i, b := range tb.basis {
			if b >= artStart {
				floats.AddScaled(obj, -1, tb.t.RawRowView(i))
			}
		}
		if res := tb.iterate(cols); res != iterOptimal {
			// Phase one is bounded below by zero; anything else is numerical.
			return lpSolution{status: lpFailed}, nil
		}
		if -obj[cols] > feasibleTol {
			return lpSolution{status: lpInfeasible}, nil
		}
		tb.evictArtificials(artStart)
	}

	cost := func(j int) float64 {
		if tb.flip[j] {
			return -p.c[j]
		}
		return p.c[j]
	}
	for j := range obj {
		obj[j] = 0
	}
	for j := 0; j < n; j++ {
		obj[j] = cost(j)
	}
	for i, b := range tb.basis {
		if b < n && p.c[b] != 0 {
			floats.AddScaled(obj, -cost(b), tb.t.RawRowView(i))
		}
	}
	switch tb.iterate(artStart) {
	case iterUnbounded:
		return lpSolution{status: lpUnbounded}, nil
	case iterLimit:
		return lpSolution{status: lpFailed}, nil
	}

	x := make([]float64, n)
	for i, b := range tb.basis {
		if b < n {
			x[b] = tb.t.At(i, cols)
		}
	}
	for j := 0; j < n; j++ {
		if tb.flip[j] {
			x[j] = tb.upper[j] - x[j]
		}
		x[j] = math.Min(math.Max(0, x[j]), tb.upper[j])
	}
	return lpSolution{status: lpOptimal, x: x, obj: floats.Dot(p.c, x)}, nil
}

// iterate pivots until no column below limit has a negative reduced cost.
func (tb *tableau) iterate(limit int) iterResult {
	obj := tb.t.RawRowView(tb.m)
	maxIter := 20 * (tb.m + tb.cols)
	degenerate := 0
	bland := false
	for it := 0; it < maxIter; it++ {
		q := -1
		best := -tb.tol
		for j := 0; j < limit; j++ {
			if obj[j] < best {
				q = j
				if bland {
					break
				}
				best = obj[j]
			}
		}
		if q < 0 {
			return iterOptimal
		}

		// r < 0 with a finite ratio means q reaches its own upper bound first.
		r, toUpper := -1, false
		ratio := tb.upper[q]
		for i := 0; i < tb.m; i++ {
			row := tb.t.RawRowView(i)
			a := row[q]
			var v float64
			up := false
			switch ub := tb.upper[tb.basis[i]]; {
			case a > pivotTol:
				v = row[tb.cols] / a
			case a < -pivotTol && !math.IsInf(ub, 1):
				v = (ub - row[tb.cols]) / -a
				up = true
			default:
				continue
			}
			v = math.Max(0, v)
			switch {
			case v < ratio-ratioTieTol:
				r, ratio, toUpper = i, v, up
			case r >= 0 && v <= ratio+ratioTieTol && tb.basis[i] < tb.basis[r]:
				r, ratio, toUpper = i, v, up
			}
		}
		if r < 0 && math.IsInf(ratio, 1) {
			return iterUnbounded
		}
		if ratio <= ratioTieTol {
			degenerate++
			if degenerate > blandAfter {
				bland = true
			}
		} else {
			degenerate = 0
		}
		if r < 0 {
			tb.complementColumn(q)
			continue
		}
		if toUpper {
			tb.complementBasic(r)
		}
		tb.pivot(r, q)
	}
	return iterLimit
}

// complementColumn moves nonbasic column q from zero to its upper bound by
// substituting upper[q] - x_q for x_q.
func (tb *tableau) complementColumn(q int) {
	u := tb.upper[q]
	for i := 0; i <= tb.m; i++ {
		row := tb.t.RawRowView(i)
		if a := row[q]; a != 0 {
			row[tb.cols] -= a * u
			row[q] = -a
		}
	}
	tb.flip[q] = !tb.flip[q]
}

// complementBasic rewrites row r in terms of upper - x for its basic
// variable, which is about to leave the basis at its upper bound.
func (tb *tableau) complementBasic(r int) {
	b := tb.basis[r]
	row := tb.t.RawRowView(r)
	floats.Scale(-1, row)
	row[b] = 1
	row[tb.cols] += tb.upper[b]
	tb.flip[b] = !tb.flip[b]
}

func (tb *tableau) pivot(r, q int) {
	pr := tb.t.RawRowView(r)
	floats.Scale(1/pr[q], pr)
	pr[q] = 1
	for i := 0; i <= tb.m; i++ {
		if i == r {
			continue
		}
		row := tb.t.RawRowView(i)
		f := row[q]
		if f == 0 {
			continue
		}
		floats.AddScaled(row, -f, pr)
		row[q] = 0
	}
	tb.basis[r] = q
}

// evictArtificials pivots zero-valued artificials out of the basis. An
// artificial left behind sits on a redundant row and never changes again.
func (tb *tableau) evictArtificials(artStart int) {
	for i, b := range tb.basis {
		if b < artStart {
			continue
		}
		row := tb.t.RawRowView(i)
		for j := 0; j < artStart; j++ {
			if math.Abs(row[j]) > pivotTol {
				tb.pivot(i, j)
				break
			}
		}
	}
}
