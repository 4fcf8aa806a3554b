package planner

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/kilianp07/pvihk/core/milp"
	"github.com/kilianp07/pvihk/core/model"
)

// interpret decodes the solver values into assignments and derives the
// schedule, hand-off tables, partner counts and loads. The output depends only
// on plan and sol, never on map iteration order.
func interpret(plan *model.Plan, v *variables, sol milp.Solution, status string) (*Result, error) {
	res := &Result{
		Status:     status,
		Objective:  sol.Objective,
		Nodes:      sol.Nodes,
		Elapsed:    sol.Elapsed,
		Partners:   make(map[string]map[string]int, len(plan.Correctors)),
		Loads:      make(map[string]int, len(plan.Correctors)),
		Correctors: lo.Map(plan.Correctors, func(c model.Corrector, _ int) string { return c.Name }),
	}
	for _, name := range res.Correctors {
		res.Partners[name] = map[string]int{}
		res.Loads[name] = 0
	}

	for e, exam := range plan.Exams {
		// Correctors are ordered by name, so the chosen set comes out sorted.
		chosen := lo.Filter(res.Correctors, func(_ string, c int) bool { return isSet(sol, v.assign[e][c]) })
		day := -1
		for d := range plan.Days {
			if isSet(sol, v.examDay[e][d]) {
				day = d
				break
			}
		}
		if day < 0 {
			return nil, fmt.Errorf("planner: exam %d has no day in the solution", exam.Index)
		}
		res.Assignments = append(res.Assignments, Assignment{Exam: exam, Day: day, Correctors: chosen})
	}

	res.Present = make(map[string][]string, len(plan.Days))
	for d, day := range plan.Days {
		res.Present[day.ID] = lo.Filter(res.Correctors, func(_ string, c int) bool { return isSet(sol, v.present[c][d]) })
	}

	res.Schedule, res.Unscheduled = schedule(plan, res.Assignments)
	res.Handoffs, res.FirstReceivers = handoffs(res.Assignments)

	for _, a := range res.Assignments {
		for i, c := range a.Correctors {
			res.Loads[c]++
			for _, q := range a.Correctors[i+1:] {
				res.Partners[c][q]++
				res.Partners[q][c]++
			}
		}
	}
	return res, nil
}

func isSet(sol milp.Solution, v milp.Var) bool {
	return sol.Value(v) > 0.5
}

// schedule zips each day's exams, in index order, with the day's slots.
// Exams beyond the last slot are returned separately.
func schedule(plan *model.Plan, assignments []Assignment) ([]DaySchedule, []model.Exam) {
	var (
		days        []DaySchedule
		unscheduled []model.Exam
	)
	for d, day := range plan.Days {
		onDay := lo.Filter(assignments, func(a Assignment, _ int) bool { return a.Day == d })
		sort.SliceStable(onDay, func(i, j int) bool { return onDay[i].Exam.Index < onDay[j].Exam.Index })
		ds := DaySchedule{Day: day.ID, Entries: []Entry{}}
		for i, a := range onDay {
			if i >= len(day.Slots) {
				unscheduled = append(unscheduled, a.Exam)
				continue
			}
			ds.Entries = append(ds.Entries, Entry{
				Time:       day.Slots[i],
				Exam:       a.Exam.Name,
				Correctors: append([]string(nil), a.Correctors...),
			})
		}
		days = append(days, ds)
	}
	sort.SliceStable(unscheduled, func(i, j int) bool { return unscheduled[i].Index < unscheduled[j].Index })
	return days, unscheduled
}

// handoffs groups exams graded by exactly two correctors by their ordered
// pair and by the pair's first corrector.
func handoffs(assignments []Assignment) ([]Handoff, []Receipt) {
	type pair struct{ from, to string }
	byPair := map[pair][]string{}
	byFirst := map[string][]string{}
	for _, a := range assignments {
		if len(a.Correctors) != 2 {
			continue
		}
		from, to := a.Correctors[0], a.Correctors[1]
		if to < from {
			from, to = to, from
		}
		k := pair{from, to}
		byPair[k] = append(byPair[k], a.Exam.Name)
		byFirst[from] = append(byFirst[from], a.Exam.Name)
	}

	pairs := lo.Keys(byPair)
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].from != pairs[j].from {
			return pairs[i].from < pairs[j].from
		}
		return pairs[i].to < pairs[j].to
	})
	out := lo.Map(pairs, func(k pair, _ int) Handoff {
		return Handoff{From: k.from, To: k.to, Exams: byPair[k]}
	})

	firsts := lo.Keys(byFirst)
	sort.Strings(firsts)
	receipts := lo.Map(firsts, func(name string, _ int) Receipt {
		return Receipt{Corrector: name, Exams: byFirst[name]}
	})
	return out, receipts
}
