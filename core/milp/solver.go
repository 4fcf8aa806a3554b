package milp

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/pvihk/core/logger"
)

// Options configures the branch-and-bound search.
type Options struct {
	// TimeLimit bounds the wall-clock search time. Zero means no limit.
	TimeLimit time.Duration
	// MaxNodes bounds the number of relaxations solved. Zero means no limit.
	MaxNodes int
	// Tolerance is the reduced-cost tolerance of the LP engine.
	Tolerance float64
	// IntegralityTol is the distance from 0/1 below which a binary counts as integral.
	IntegralityTol float64
	// Engine selects the LP engine: "tableau" (default) or "gonum".
	Engine string
	Logger logger.Logger
}

func (o *Options) setDefaults() {
	if o.Tolerance <= 0 {
		o.Tolerance = 1e-9
	}
	if o.IntegralityTol <= 0 {
		o.IntegralityTol = 1e-6
	}
	if o.Logger == nil {
		o.Logger = logger.NopLogger{}
	}
}

// Solution holds the result of a solve.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int
	Elapsed   time.Duration
}

// Value returns the value of v, or 0 when the solve produced no values.
func (s Solution) Value(v Var) float64 {
	if v.id >= len(s.Values) {
		return 0
	}
	return s.Values[v.id]
}

// Solver runs LP-based branch and bound. It keeps no state between solves
// and may be shared by concurrent callers as long as each uses its own Problem.
type Solver struct {
	opts   Options
	engine lpEngine
	now    func() time.Time
}

// NewSolver returns a solver using opts.
func NewSolver(opts Options) (*Solver, error) {
	opts.setDefaults()
	engine, err := engineByName(opts.Engine)
	if err != nil {
		return nil, err
	}
	return &Solver{opts: opts, engine: engine, now: time.Now}, nil
}

type sparseRow struct {
	name  string
	idx   []int
	val   []float64
	sense Sense
	rhs   float64
}

type node struct {
	fix   []int8
	bound float64
	depth int
	seq   int
}

// nodeQueue orders open nodes by bound. Among equal bounds the deepest and
// then the most recently created node comes first, which dives along a
// plateau instead of widening it.
type nodeQueue []node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if d := q[i].bound - q[j].bound; math.Abs(d) > 1e-9*math.Max(1, math.Abs(q[j].bound)) {
		return d < 0
	}
	if q[i].depth != q[j].depth {
		return q[i].depth > q[j].depth
	}
	return q[i].seq > q[j].seq
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(node)) }

func (q *nodeQueue) Pop() any {
	old := *q
	nd := old[len(old)-1]
	*q = old[:len(old)-1]
	return nd
}

type search struct {
	p        *Problem
	opts     Options
	engine   lpEngine
	ctx      context.Context
	start    time.Time
	now      func() time.Time
	rows     []sparseRow
	cost     []float64
	costC    float64
	binaries []int

	incumbent []float64
	incObj    float64
	nodes     int
	created   int
	failures  int
	unbounded bool
	limitHit  bool
}

// Solve minimises p. Infeasibility and limits are reported through the
// returned status; err is non-nil only when the engine itself broke down.
func (s *Solver) Solve(ctx context.Context, p *Problem) (sol Solution, err error) {
	sr := &search{
		p:      p,
		opts:   s.opts,
		engine: s.engine,
		ctx:    ctx,
		start:  s.now(),
		now:    s.now,
		incObj: math.Inf(1),
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("milp: solve %s: %v", p.Name(), r)
		}
		sol.Elapsed = s.now().Sub(sr.start)
	}()
	sr.compile()
	status, err := sr.run()
	if err != nil {
		return Solution{Status: StatusUndefined, Nodes: sr.nodes}, err
	}
	sol = Solution{Status: status, Nodes: sr.nodes}
	if status.HasSolution() {
		sol.Values = sr.incumbent
		sol.Objective = sr.incObj
	}
	s.opts.Logger.Debugw("milp solve finished", map[string]any{
		"problem":     p.Name(),
		"status":      status.String(),
		"nodes":       sr.nodes,
		"failures":    sr.failures,
		"vars":        p.NumVars(),
		"constraints": p.NumConstraints(),
	})
	return sol, nil
}

// compile aggregates constraint and objective terms per variable.
func (sr *search) compile() {
	n := sr.p.NumVars()
	acc := make([]float64, n)
	seen := make([]bool, n)
	sr.rows = make([]sparseRow, 0, sr.p.NumConstraints())
	for _, c := range sr.p.cons {
		row := sparseRow{name: c.Name, sense: c.Sense, rhs: c.RHS - c.Expr.Const}
		for _, t := range c.Expr.Terms {
			j := t.Var.id
			if !seen[j] {
				seen[j] = true
				row.idx = append(row.idx, j)
			}
			acc[j] += t.Coef
		}
		kept := row.idx[:0]
		for _, j := range row.idx {
			if acc[j] != 0 {
				kept = append(kept, j)
				row.val = append(row.val, acc[j])
			}
			acc[j], seen[j] = 0, false
		}
		row.idx = kept
		sr.rows = append(sr.rows, row)
	}
	sr.cost = make([]float64, n)
	for _, t := range sr.p.obj.Terms {
		sr.cost[t.Var.id] += t.Coef
	}
	sr.costC = sr.p.obj.Const
	for j, v := range sr.p.vars {
		if v.kind == Binary {
			sr.binaries = append(sr.binaries, j)
		}
	}
}

func (sr *search) stop() bool {
	if sr.limitHit {
		return true
	}
	switch {
	case sr.ctx.Err() != nil,
		sr.opts.TimeLimit > 0 && sr.now().Sub(sr.start) >= sr.opts.TimeLimit,
		sr.opts.MaxNodes > 0 && sr.nodes >= sr.opts.MaxNodes:
		sr.limitHit = true
	}
	return sr.limitHit
}

func (sr *search) run() (Status, error) {
	if sr.stop() {
		return StatusNotSolved, nil
	}
	if err := sr.tryStart(); err != nil {
		return StatusUndefined, err
	}
	root := make([]int8, sr.p.NumVars())
	for j := range root {
		root[j] = -1
	}
	res, err := sr.solveNode(root)
	if err != nil {
		return StatusUndefined, err
	}
	switch res.status {
	case lpInfeasible:
		return StatusInfeasible, nil
	case lpUnbounded:
		return StatusUnbounded, nil
	case lpFailed:
		return StatusUndefined, nil
	}

	if sr.branchVar(res.x) < 0 {
		sr.offer(res.x)
	} else {
		if err := sr.dive(root, res.x); err != nil {
			return StatusUndefined, err
		}
	}

	queue := &nodeQueue{}
	for _, nd := range sr.children(root, res, 0) {
		heap.Push(queue, nd)
	}
	for queue.Len() > 0 && !sr.stop() {
		nd := heap.Pop(queue).(node)
		if sr.pruned(nd.bound) {
			// Every open node is bounded at least as high.
			break
		}
		res, err := sr.solveNode(nd.fix)
		if err != nil {
			return StatusUndefined, err
		}
		switch res.status {
		case lpInfeasible:
			continue
		case lpFailed:
			sr.failures++
			continue
		case lpUnbounded:
			sr.unbounded = true
			continue
		}
		if sr.pruned(res.obj) {
			continue
		}
		if sr.branchVar(res.x) < 0 {
			sr.offer(res.x)
			continue
		}
		for _, child := range sr.children(nd.fix, res, nd.depth+1) {
			heap.Push(queue, child)
		}
	}

	switch {
	case sr.incumbent == nil && sr.unbounded:
		return StatusUnbounded, nil
	case sr.incumbent != nil && !sr.limitHit && sr.failures == 0:
		return StatusOptimal, nil
	case sr.incumbent != nil:
		return StatusIntegerFeasible, nil
	case sr.limitHit:
		return StatusNotSolved, nil
	case sr.failures > 0:
		return StatusUndefined, nil
	default:
		return StatusInfeasible, nil
	}
}

func (sr *search) pruned(bound float64) bool {
	if sr.incumbent == nil {
		return false
	}
	return bound >= sr.incObj-1e-9*math.Max(1, math.Abs(sr.incObj))
}

// children returns the two subproblems of a fractional node. The child
// rounding towards the relaxation value is created last so it is explored
// first among equal bounds.
func (sr *search) children(fix []int8, res nodeResult, depth int) []node {
	j := sr.branchVar(res.x)
	if j < 0 {
		return nil
	}
	near := int8(math.Round(res.x[j]))
	farFix, nearFix := cloneFix(fix), cloneFix(fix)
	farFix[j], nearFix[j] = 1-near, near
	sr.created += 2
	return []node{
		{fix: farFix, bound: res.obj, depth: depth, seq: sr.created - 1},
		{fix: nearFix, bound: res.obj, depth: depth, seq: sr.created},
	}
}

// branchVar returns the most fractional binary of the highest priority, or -1
// when all binaries are integral.
func (sr *search) branchVar(x []float64) int {
	best, bestFrac, bestPrio := -1, 0.0, 0
	for _, j := range sr.binaries {
		frac := math.Abs(x[j] - math.Round(x[j]))
		if frac <= sr.opts.IntegralityTol {
			continue
		}
		prio := sr.p.vars[j].priority
		if best < 0 || prio > bestPrio || (prio == bestPrio && frac > bestFrac) {
			best, bestFrac, bestPrio = j, frac, prio
		}
	}
	return best
}

// tryStart fixes every binary to the problem's start value and solves the
// continuous rest. A feasible point becomes the first incumbent. Starts that
// leave a binary without value are ignored.
func (sr *search) tryStart() error {
	if len(sr.p.start) == 0 {
		return nil
	}
	fix := make([]int8, sr.p.NumVars())
	for j := range fix {
		fix[j] = -1
	}
	for _, j := range sr.binaries {
		v, ok := sr.p.start[j]
		if !ok {
			return nil
		}
		if v >= 0.5 {
			fix[j] = 1
		} else {
			fix[j] = 0
		}
	}
	res, err := sr.solveNode(fix)
	if err != nil {
		return err
	}
	if res.status != lpOptimal {
		sr.opts.Logger.Warnf("start point of %s rejected: relaxation %d", sr.p.Name(), res.status)
		return nil
	}
	sr.offer(res.x)
	return nil
}

// dive fixes every integral binary plus the most fractional one and
// re-solves until the relaxation is integral. It only looks for an early
// incumbent; the exhaustive search starts again from the root.
func (sr *search) dive(root []int8, x []float64) error {
	fix := cloneFix(root)
	for !sr.stop() {
		j := sr.branchVar(x)
		if j < 0 {
			sr.offer(x)
			return nil
		}
		for _, b := range sr.binaries {
			if fix[b] < 0 && math.Abs(x[b]-math.Round(x[b])) <= sr.opts.IntegralityTol {
				fix[b] = int8(math.Round(x[b]))
			}
		}
		fix[j] = int8(math.Round(x[j]))
		res, err := sr.solveNode(fix)
		if err != nil {
			return err
		}
		if res.status != lpOptimal {
			fix[j] = 1 - fix[j]
			if res, err = sr.solveNode(fix); err != nil {
				return err
			}
			if res.status != lpOptimal {
				return nil
			}
		}
		if sr.pruned(res.obj) {
			return nil
		}
		x = res.x
	}
	return nil
}

// offer rounds binaries, verifies the point against the original problem and
// keeps it when it improves the incumbent.
func (sr *search) offer(x []float64) {
	vals := make([]float64, len(x))
	copy(vals, x)
	for _, j := range sr.binaries {
		vals[j] = math.Round(vals[j])
	}
	if err := sr.p.Check(vals, 1e-5); err != nil {
		sr.failures++
		sr.opts.Logger.Warnf("discarding relaxation point: %v", err)
		return
	}
	obj := Evaluate(sr.p.obj, vals)
	if obj < sr.incObj {
		sr.incumbent, sr.incObj = vals, obj
	}
}

type nodeResult struct {
	status lpStatus
	x      []float64
	obj    float64
}

// solveNode substitutes fixed binaries, builds the dense relaxation over the
// remaining variables with binaries bounded by one and maps the engine's
// answer back to full length.
func (sr *search) solveNode(fix []int8) (nodeResult, error) {
	sr.nodes++
	n := len(fix)

	active := make([]bool, len(sr.rows))
	rhs := make([]float64, len(sr.rows))
	used := make([]bool, n)
	for i, row := range sr.rows {
		r := row.rhs
		free := false
		for k, j := range row.idx {
			if fix[j] >= 0 {
				r -= row.val[k] * float64(fix[j])
			} else {
				free = true
				used[j] = true
			}
		}
		rhs[i] = r
		if free {
			active[i] = true
			continue
		}
		if !trivially(row.sense, r) {
			return nodeResult{status: lpInfeasible}, nil
		}
	}

	col := make([]int, n)
	var cols []int
	x := make([]float64, n)
	obj := sr.costC
	for j := 0; j < n; j++ {
		col[j] = -1
		switch {
		case fix[j] >= 0:
			x[j] = float64(fix[j])
			obj += sr.cost[j] * x[j]
		case sr.p.vars[j].kind == Binary || used[j]:
			col[j] = len(cols)
			cols = append(cols, j)
		case sr.cost[j] < -sr.opts.Tolerance:
			// A free continuous variable in no row with negative cost.
			return nodeResult{status: lpUnbounded}, nil
		}
	}

	lp := lpProblem{c: make([]float64, len(cols)), upper: make([]float64, len(cols))}
	for k, j := range cols {
		lp.c[k] = sr.cost[j]
		lp.upper[k] = math.Inf(1)
		if sr.p.vars[j].kind == Binary {
			lp.upper[k] = 1
		}
	}
	for i, row := range sr.rows {
		if !active[i] {
			continue
		}
		dense := make([]float64, len(cols))
		for k, j := range row.idx {
			if col[j] >= 0 {
				dense[col[j]] += row.val[k]
			}
		}
		lp.rows = append(lp.rows, dense)
		lp.sense = append(lp.sense, row.sense)
		lp.rhs = append(lp.rhs, rhs[i])
	}
	sol, err := sr.engine(lp, sr.opts.Tolerance)
	if err != nil {
		return nodeResult{}, err
	}
	if sol.status != lpOptimal {
		return nodeResult{status: sol.status}, nil
	}
	for k, j := range cols {
		x[j] = sol.x[k]
	}
	return nodeResult{status: lpOptimal, x: x, obj: obj + sol.obj}, nil
}

func trivially(s Sense, rhs float64) bool {
	switch s {
	case LessEq:
		return rhs >= -feasibleTol
	case GreaterEq:
		return rhs <= feasibleTol
	default:
		return math.Abs(rhs) <= feasibleTol
	}
}

func cloneFix(fix []int8) []int8 {
	out := make([]int8, len(fix))
	copy(out, fix)
	return out
}
