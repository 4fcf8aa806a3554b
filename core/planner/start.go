package planner

import (
	"sort"

	"github.com/kilianp07/pvihk/core/milp"
	"github.com/kilianp07/pvihk/core/model"
)

// startPoint is a hand-built assignment handed to the solver as its first
// incumbent.
type startPoint struct {
	examDay []int   // [exam] day position
	units   [][]int // [corrector][day] exams graded that day
	assign  [][]bool
	present [][2]bool
}

// buildStart splits the exams by index across the days, gives every
// corrector the balanced share of the total load, on one day where the
// capacity allows, and fills each day by wrapping the shares around its
// exams. It returns false when that leaves an exam or a presence floor
// uncovered; the solver then starts without incumbent.
func buildStart(plan *model.Plan, cfg Config) (*startPoint, bool) {
	n, k := len(plan.Correctors), plan.CorrectorsPerExam
	if n == 0 || k == 0 {
		return nil, false
	}
	sp := &startPoint{
		examDay: make([]int, len(plan.Exams)),
		units:   make([][]int, n),
		assign:  make([][]bool, len(plan.Exams)),
		present: make([][2]bool, n),
	}
	var dayExams [2][]int
	for e := range plan.Exams {
		d := 0
		if e >= plan.DayQuota(0) {
			d = 1
		}
		sp.examDay[e] = d
		dayExams[d] = append(dayExams[d], e)
		sp.assign[e] = make([]bool, n)
	}
	capacity := [2]int{k * len(dayExams[0]), k * len(dayExams[1])}
	for c := range sp.units {
		sp.units[c] = make([]int, 2)
	}

	// Correctors bound to one day go first so the flexible ones can absorb
	// what is left on either day.
	order := make([]int, n)
	for c := range order {
		order[c] = c
	}
	sort.SliceStable(order, func(i, j int) bool {
		return len(plan.Correctors[order[i]].Days) < len(plan.Correctors[order[j]].Days)
	})
	total := k * len(plan.Exams)
	load := make([]int, n)
	for rank, c := range order {
		want := total / n
		if rank < total%n {
			want++
		}
		days := plan.Correctors[c].Days
		if len(days) == 2 && capacity[1] > capacity[0] {
			days = []int{1, 0}
		}
		for _, d := range days {
			put := min(want, capacity[d], len(dayExams[d])-sp.units[c][d])
			if put <= 0 {
				continue
			}
			sp.units[c][d] += put
			capacity[d] -= put
			load[c] += put
			want -= put
		}
	}

	// Whatever did not fit goes one unit at a time to the least loaded
	// corrector with room on that day.
	for d := range capacity {
		for capacity[d] > 0 {
			best := -1
			for _, c := range plan.Available(d) {
				if sp.units[c][d] >= len(dayExams[d]) {
					continue
				}
				if best < 0 || load[c] < load[best] {
					best = c
				}
			}
			if best < 0 {
				return nil, false
			}
			sp.units[best][d]++
			load[best]++
			capacity[d]--
		}
	}

	for d, exams := range dayExams {
		pos := 0
		for c := range plan.Correctors {
			for u := 0; u < sp.units[c][d]; u++ {
				sp.assign[exams[pos%len(exams)]][c] = true
				pos++
			}
		}
	}

	// Presence is owed on every available day by anyone grading at all.
	for d := range plan.Days {
		count := 0
		for _, c := range plan.Available(d) {
			if load[c] > 0 {
				sp.present[c][d] = true
				count++
			}
		}
		for _, c := range plan.Available(d) {
			if count >= cfg.PresenceFloor() {
				break
			}
			if !sp.present[c][d] {
				sp.present[c][d] = true
				count++
			}
		}
		if count < cfg.PresenceFloor() {
			return nil, false
		}
	}
	return sp, true
}

// apply records sp as the start values of the binaries of v.
func (sp *startPoint) apply(p *milp.Problem, v *variables) {
	for e := range v.assign {
		for c := range v.assign[e] {
			p.SetStart(v.assign[e][c], bit(sp.assign[e][c]))
		}
		for d := range v.examDay[e] {
			p.SetStart(v.examDay[e][d], bit(sp.examDay[e] == d))
		}
	}
	for c := range v.present {
		for d := range v.present[c] {
			p.SetStart(v.present[c][d], bit(sp.present[c][d]))
		}
	}
}

func bit(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
