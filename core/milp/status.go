package milp

import "fmt"

// Status is the outcome of a solve, named after the usual MILP solver states.
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusIntegerFeasible
	StatusInfeasible
	StatusUnbounded
	StatusUndefined
)

var statusNames = map[Status]string{
	StatusNotSolved:       "Not Solved",
	StatusOptimal:         "Optimal",
	StatusIntegerFeasible: "Integer Feasible",
	StatusInfeasible:      "Infeasible",
	StatusUnbounded:       "Unbounded",
	StatusUndefined:       "Undefined",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// HasSolution reports whether values are available for s.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusIntegerFeasible
}
