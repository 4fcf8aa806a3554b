package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Corrector is a person grading exams.
type Corrector struct {
	Name string
	// Days lists the indices (0 or 1) of the days the corrector can attend.
	Days []int
}

// AvailableOn reports whether the corrector can attend day.
func (c Corrector) AvailableOn(day int) bool {
	for _, d := range c.Days {
		if d == day {
			return true
		}
	}
	return false
}

// Exam is one candidate's session.
type Exam struct {
	Index int
	Name  string
}

// Day is one of the two exam days with its ordered slot template.
type Day struct {
	Index int
	ID    string
	Slots []string
}

// Plan is a validated snapshot of an Input. It shares no memory with the
// Input it was built from.
type Plan struct {
	// Correctors are ordered by name.
	Correctors []Corrector
	// Exams are ordered by index.
	Exams             []Exam
	Days              [2]Day
	CorrectorsPerExam int
}

// PlanOption tunes NewPlan.
type PlanOption func(*planOptions)

type planOptions struct {
	allowSlotOverflow bool
}

// AllowSlotOverflow accepts days with fewer slots than scheduled exams. The
// surplus exams are reported as unscheduled instead of failing validation.
func AllowSlotOverflow(allow bool) PlanOption {
	return func(o *planOptions) { o.allowSlotOverflow = allow }
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := parseSlot(fl.Field().String())
		return err == nil
	})
	return v
}

// NewPlan validates in and returns an independent Plan.
func NewPlan(in Input, opts ...PlanOption) (*Plan, error) {
	var o planOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := validate.Struct(in); err != nil {
		return nil, translate(err)
	}

	p := &Plan{CorrectorsPerExam: in.CorrectorsPerExam}
	if p.CorrectorsPerExam == 0 {
		p.CorrectorsPerExam = DefaultCorrectorsPerExam
	}

	dayIndex := make(map[string]int, 2)
	for i, id := range in.Days {
		slots := make([]string, len(in.Slots[i]))
		for j, s := range in.Slots[i] {
			t, err := parseSlot(s)
			if err != nil {
				return nil, invalid(fmt.Sprintf("zeitslots[%d][%d]", i, j), "%q is not HH:MM", s)
			}
			slots[j] = t.Format("15:04")
		}
		p.Days[i] = Day{Index: i, ID: id, Slots: slots}
		dayIndex[id] = i
	}

	for i := 1; i <= len(in.Candidates); i++ {
		name, ok := in.Candidates[i]
		if !ok {
			return nil, invalid("kandidaten", "indices must run from 1 to %d, %d is missing", len(in.Candidates), i)
		}
		if strings.TrimSpace(name) == "" {
			return nil, invalid("kandidaten", "exam %d has no name", i)
		}
		p.Exams = append(p.Exams, Exam{Index: i, Name: name})
	}

	for name, days := range in.Availability {
		if strings.TrimSpace(name) == "" {
			return nil, invalid("verfügbarkeiten", "corrector without name")
		}
		c := Corrector{Name: name}
		seen := [2]bool{}
		for _, id := range days {
			d, ok := dayIndex[id]
			if !ok {
				return nil, invalid("verfügbarkeiten", "%s: %q is not an exam day", name, id)
			}
			if !seen[d] {
				seen[d] = true
				c.Days = append(c.Days, d)
			}
		}
		sort.Ints(c.Days)
		p.Correctors = append(p.Correctors, c)
	}
	sort.Slice(p.Correctors, func(i, j int) bool { return p.Correctors[i].Name < p.Correctors[j].Name })

	if !o.allowSlotOverflow {
		for d := range p.Days {
			if need := p.DayQuota(d); len(p.Days[d].Slots) < need {
				return nil, invalid(fmt.Sprintf("zeitslots[%d]", d), "%d exams are scheduled on %s but only %d slots exist",
					need, p.Days[d].ID, len(p.Days[d].Slots))
			}
		}
	}
	return p, nil
}

// DayQuota returns the exact number of exams scheduled on day: ceil(N/2) on
// the first day and the rest on the second.
func (p *Plan) DayQuota(day int) int {
	first := (len(p.Exams) + 1) / 2
	if day == 0 {
		return first
	}
	return len(p.Exams) - first
}

// Available returns the indices into Correctors of everyone available on day.
func (p *Plan) Available(day int) []int {
	var out []int
	for i, c := range p.Correctors {
		if c.AvailableOn(day) {
			out = append(out, i)
		}
	}
	return out
}

// MeanLoad is the average number of exams per corrector.
func (p *Plan) MeanLoad() float64 {
	return float64(p.CorrectorsPerExam*len(p.Exams)) / float64(len(p.Correctors))
}

func parseSlot(s string) (time.Time, error) {
	return time.Parse("15:04", strings.TrimSpace(s))
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := verrs[0]
	field := jsonName(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return invalid(field, "is required")
	case "min":
		return invalid(field, "must not be empty")
	case "len":
		return invalid(field, "must hold exactly %s entries", fe.Param())
	case "unique":
		return invalid(field, "entries must be distinct")
	case "hhmm":
		return invalid(field, "%q is not HH:MM", fe.Value())
	case "gte":
		return invalid(field, "must be at least %s", fe.Param())
	default:
		return invalid(field, "failed %s check", fe.Tag())
	}
}

var fieldNames = map[string]string{
	"Availability":      "verfügbarkeiten",
	"Candidates":        "kandidaten",
	"Days":              "pruefungstage",
	"CorrectorsPerExam": "anzahl_korrektoren_pro_klausur",
	"Slots":             "zeitslots",
}

// jsonName maps "Input.Slots[0][1]" to "zeitslots[0][1]".
func jsonName(ns string) string {
	ns = strings.TrimPrefix(ns, "Input.")
	for goName, key := range fieldNames {
		if strings.HasPrefix(ns, goName) {
			return key + strings.TrimPrefix(ns, goName)
		}
	}
	return ns
}
