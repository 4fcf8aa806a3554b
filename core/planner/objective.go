package planner

import (
	"fmt"
	"math"

	"github.com/kilianp07/pvihk/core/milp"
	"github.com/kilianp07/pvihk/core/model"
)

// addObjective adds the deviation variables with their absolute value
// constraints and sets
//
//	LoadWeight * sum(deviation) + PresenceWeight * sum(present)
//
// as the objective.
func addObjective(p *milp.Problem, v *variables, plan *model.Plan, cfg Config) {
	mean := plan.MeanLoad()
	// Loads are integral, so no corrector can get closer to the mean than
	// its distance to the nearest integer.
	floor := math.Abs(mean - math.Round(mean))
	// Loads also add up to CorrectorsPerExam*N, so the deviations sum to at
	// least the spread of the most even integral split.
	total := minTotalDeviation(plan.CorrectorsPerExam*len(plan.Exams), len(plan.Correctors))

	var obj milp.Expr
	v.deviation = make([]milp.Var, len(plan.Correctors))
	for c, corr := range plan.Correctors {
		dev := p.NonNegative(fmt.Sprintf("deviation[%s]", corr.Name))
		v.deviation[c] = dev
		load := v.load(c)
		// load - mean <= dev
		p.Add(fmt.Sprintf("deviation_hi[%s]", corr.Name), load.Plus(dev, -1), milp.LessEq, mean)
		// mean - load <= dev
		p.Add(fmt.Sprintf("deviation_lo[%s]", corr.Name), load.Plus(dev, 1), milp.GreaterEq, mean)
		if floor > 1e-9 {
			p.Add(fmt.Sprintf("deviation_floor[%s]", corr.Name), milp.Sum(dev), milp.GreaterEq, floor)
		}
		obj = obj.Plus(dev, cfg.LoadWeight)
	}
	if total > 1e-9 {
		p.Add("deviation_total", milp.Sum(v.deviation...), milp.GreaterEq, total)
	}
	for c := range plan.Correctors {
		for d := range plan.Days {
			obj = obj.Plus(v.present[c][d], cfg.Presence())
		}
	}
	p.Minimize(obj)
}

// minTotalDeviation returns the smallest sum of |load - mean| over integral
// loads of n correctors adding up to total.
func minTotalDeviation(total, n int) float64 {
	mean := float64(total) / float64(n)
	low := math.Floor(mean)
	frac := mean - low
	high := float64(total) - float64(n)*low // correctors carrying low+1
	return high*(1-frac) + (float64(n)-high)*frac
}
