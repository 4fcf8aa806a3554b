package milp

import (
	"fmt"
	"math"
)

// VarKind distinguishes integral from continuous variables.
type VarKind int

const (
	// Continuous variables range over [0, +Inf).
	Continuous VarKind = iota
	// Binary variables take the values 0 or 1.
	Binary
)

// Var is a handle to a variable of a Problem.
type Var struct {
	id int
}

// ID returns the column index of v inside its problem.
func (v Var) ID() int { return v.id }

type variable struct {
	name     string
	kind     VarKind
	priority int
}

// Term is a coefficient applied to a variable.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is the linear expression sum(Coef*Var) + Const.
type Expr struct {
	Terms []Term
	Const float64
}

// Sum returns the expression adding all vars with coefficient 1.
func Sum(vars ...Var) Expr {
	e := Expr{Terms: make([]Term, 0, len(vars))}
	for _, v := range vars {
		e.Terms = append(e.Terms, Term{Var: v, Coef: 1})
	}
	return e
}

// Plus returns a copy of e with coef*v added.
func (e Expr) Plus(v Var, coef float64) Expr {
	terms := make([]Term, len(e.Terms), len(e.Terms)+1)
	copy(terms, e.Terms)
	return Expr{Terms: append(terms, Term{Var: v, Coef: coef}), Const: e.Const}
}

// Sense is the relation of a constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "=="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Constraint is Expr Sense RHS.
type Constraint struct {
	Name  string
	Expr  Expr
	Sense Sense
	RHS   float64
}

// Problem is a minimisation program over binary and non-negative continuous
// variables. It is not safe for concurrent mutation.
type Problem struct {
	name  string
	vars  []variable
	cons  []Constraint
	obj   Expr
	start map[int]float64
}

// NewProblem returns an empty problem.
func NewProblem(name string) *Problem {
	return &Problem{name: name}
}

// Name returns the problem name.
func (p *Problem) Name() string { return p.name }

// Binary adds a 0/1 variable.
func (p *Problem) Binary(name string) Var {
	return p.addVar(name, Binary)
}

// NonNegative adds a continuous variable bounded below by zero.
func (p *Problem) NonNegative(name string) Var {
	return p.addVar(name, Continuous)
}

func (p *Problem) addVar(name string, kind VarKind) Var {
	p.vars = append(p.vars, variable{name: name, kind: kind})
	return Var{id: len(p.vars) - 1}
}

// SetPriority sets the branching priority of a binary variable. Among the
// fractional variables of a node the solver branches on the highest priority
// first. The default priority is zero.
func (p *Problem) SetPriority(v Var, priority int) {
	p.vars[v.id].priority = priority
}

// SetStart records a starting value for v. Once every binary has one, the
// solver evaluates that point before branching and keeps it as the first
// incumbent when it is feasible.
func (p *Problem) SetStart(v Var, value float64) {
	if p.start == nil {
		p.start = make(map[int]float64)
	}
	p.start[v.id] = value
}

// Add appends the constraint e sense rhs.
func (p *Problem) Add(name string, e Expr, sense Sense, rhs float64) {
	p.cons = append(p.cons, Constraint{Name: name, Expr: e, Sense: sense, RHS: rhs})
}

// Minimize sets the objective.
func (p *Problem) Minimize(e Expr) { p.obj = e }

// Objective returns the objective expression.
func (p *Problem) Objective() Expr { return p.obj }

// NumVars returns the number of variables.
func (p *Problem) NumVars() int { return len(p.vars) }

// NumConstraints returns the number of constraints.
func (p *Problem) NumConstraints() int { return len(p.cons) }

// Vars returns all variables in creation order.
func (p *Problem) Vars() []Var {
	out := make([]Var, len(p.vars))
	for i := range out {
		out[i] = Var{id: i}
	}
	return out
}

// VarName returns the name v was created with.
func (p *Problem) VarName(v Var) string { return p.vars[v.id].name }

// Constraints returns the constraints in insertion order.
func (p *Problem) Constraints() []Constraint {
	out := make([]Constraint, len(p.cons))
	copy(out, p.cons)
	return out
}

// Evaluate computes e at the given variable values.
func Evaluate(e Expr, values []float64) float64 {
	sum := e.Const
	for _, t := range e.Terms {
		sum += t.Coef * values[t.Var.id]
	}
	return sum
}

// Check reports the first bound, integrality or constraint violation of
// values larger than tol.
func (p *Problem) Check(values []float64, tol float64) error {
	if len(values) != len(p.vars) {
		return fmt.Errorf("milp: %d values for %d variables", len(values), len(p.vars))
	}
	for i, v := range p.vars {
		x := values[i]
		if x < -tol {
			return fmt.Errorf("milp: %s = %g below zero", v.name, x)
		}
		if v.kind == Binary && math.Abs(x-math.Round(x)) > tol {
			return fmt.Errorf("milp: %s = %g not integral", v.name, x)
		}
		if v.kind == Binary && x > 1+tol {
			return fmt.Errorf("milp: %s = %g above one", v.name, x)
		}
	}
	for _, c := range p.cons {
		lhs := Evaluate(c.Expr, values)
		var ok bool
		switch c.Sense {
		case LessEq:
			ok = lhs <= c.RHS+tol
		case GreaterEq:
			ok = lhs >= c.RHS-tol
		case Equal:
			ok = math.Abs(lhs-c.RHS) <= tol
		}
		if !ok {
			return fmt.Errorf("milp: constraint %s violated: %g %s %g", c.Name, lhs, c.Sense, c.RHS)
		}
	}
	return nil
}
