package planner

import (
	"fmt"

	"github.com/kilianp07/pvihk/core/milp"
	"github.com/kilianp07/pvihk/core/model"
)

// Branching priorities. Fixing presence first settles most of the objective,
// the day split next.
const (
	priorityAssign = iota
	priorityExamDay
	priorityPresent
)

// variables indexes the decision variables of one model by exam, corrector
// and day position in the Plan.
type variables struct {
	assign    [][]milp.Var  // [exam][corrector]
	examDay   [][2]milp.Var // [exam][day]
	present   [][2]milp.Var // [corrector][day]
	deviation []milp.Var    // [corrector]
}

// load returns the number of exams assigned to corrector c.
func (v *variables) load(c int) milp.Expr {
	vars := make([]milp.Var, len(v.assign))
	for e := range v.assign {
		vars[e] = v.assign[e][c]
	}
	return milp.Sum(vars...)
}

// buildConstraints creates the decision variables and hard constraints for
// plan on a fresh problem.
func buildConstraints(plan *model.Plan, cfg Config) (*milp.Problem, *variables) {
	p := milp.NewProblem("corrector_distribution")
	nc := len(plan.Correctors)
	v := &variables{
		assign:  make([][]milp.Var, len(plan.Exams)),
		examDay: make([][2]milp.Var, len(plan.Exams)),
		present: make([][2]milp.Var, nc),
	}
	for e, exam := range plan.Exams {
		v.assign[e] = make([]milp.Var, nc)
		for c, corr := range plan.Correctors {
			v.assign[e][c] = p.Binary(fmt.Sprintf("assign[%d,%s]", exam.Index, corr.Name))
		}
		for d := range plan.Days {
			v.examDay[e][d] = p.Binary(fmt.Sprintf("examDay[%d,%d]", exam.Index, d))
			p.SetPriority(v.examDay[e][d], priorityExamDay)
		}
	}
	for c, corr := range plan.Correctors {
		for d := range plan.Days {
			v.present[c][d] = p.Binary(fmt.Sprintf("present[%s,%d]", corr.Name, d))
			p.SetPriority(v.present[c][d], priorityPresent)
		}
	}

	available := [2][]int{plan.Available(0), plan.Available(1)}

	for e, exam := range plan.Exams {
		p.Add(fmt.Sprintf("coverage[%d]", exam.Index), milp.Sum(v.assign[e]...), milp.Equal, float64(plan.CorrectorsPerExam))
		for d := range plan.Days {
			// examDay[e,d] <= sum of assign[e,c] over correctors available on d
			link := milp.Sum(v.examDay[e][d])
			for _, c := range available[d] {
				link = link.Plus(v.assign[e][c], -1)
			}
			p.Add(fmt.Sprintf("day_link[%d,%d]", exam.Index, d), link, milp.LessEq, 0)
		}
		p.Add(fmt.Sprintf("one_day[%d]", exam.Index), milp.Sum(v.examDay[e][0], v.examDay[e][1]), milp.Equal, 1)
	}

	for d := range plan.Days {
		day := make([]milp.Var, len(plan.Exams))
		for e := range plan.Exams {
			day[e] = v.examDay[e][d]
		}
		p.Add(fmt.Sprintf("day_balance[%d]", d), milp.Sum(day...), milp.Equal, float64(plan.DayQuota(d)))
	}

	for d := range plan.Days {
		for _, c := range available[d] {
			for e, exam := range plan.Exams {
				p.Add(fmt.Sprintf("presence[%s,%d,%d]", plan.Correctors[c].Name, d, exam.Index),
					milp.Sum(v.assign[e][c]).Plus(v.present[c][d], -1), milp.LessEq, 0)
			}
		}
		floor := make([]milp.Var, 0, len(available[d]))
		for _, c := range available[d] {
			floor = append(floor, v.present[c][d])
		}
		p.Add(fmt.Sprintf("presence_floor[%d]", d), milp.Sum(floor...), milp.GreaterEq, float64(cfg.PresenceFloor()))
	}

	if cfg.Strict() {
		for c, corr := range plan.Correctors {
			for d := range plan.Days {
				if corr.AvailableOn(d) {
					continue
				}
				for e, exam := range plan.Exams {
					p.Add(fmt.Sprintf("availability[%s,%d,%d]", corr.Name, d, exam.Index),
						milp.Sum(v.assign[e][c], v.examDay[e][d]), milp.LessEq, 1)
				}
			}
		}
	}
	return p, v
}
