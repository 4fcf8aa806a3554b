// Package report defines what a rendered distribution report contains. The
// rendering itself lives in infra/report.
package report

import (
	"sort"
	"time"

	"github.com/kilianp07/pvihk/core/planner"
)

// Emitter renders a Document into a printable format.
type Emitter interface {
	Render(doc Document) ([]byte, error)
	// ContentType is the MIME type of the rendered bytes.
	ContentType() string
}

// Partner is the number of exams shared with one other corrector.
type Partner struct {
	Name  string
	Count int
}

// CorrectorSummary is one line of the corrector overview.
type CorrectorSummary struct {
	Name     string
	Total    int
	Partners []Partner
}

// Meta describes the document itself.
type Meta struct {
	Title     string
	Generator string
	Version   string
	CreatedAt time.Time
}

// Document is the input contract of an Emitter.
type Document struct {
	Meta
	Status string
	// Days in day order, exams in slot order.
	Days []planner.DaySchedule
	// Present maps a day identifier to the correctors present that day.
	Present    map[string][]string
	Correctors []CorrectorSummary
	// FirstReceivers and Handoffs only cover exams graded by two correctors.
	FirstReceivers []planner.Receipt
	Handoffs       []planner.Handoff
	Unscheduled    []string
}

// FromResult builds a Document from an interpreted result.
func FromResult(res *planner.Result, meta Meta) Document {
	doc := Document{
		Meta:           meta,
		Status:         res.Status,
		Days:           res.Schedule,
		Present:        res.Present,
		FirstReceivers: res.FirstReceivers,
		Handoffs:       res.Handoffs,
	}
	for _, name := range res.Correctors {
		s := CorrectorSummary{Name: name, Total: res.Loads[name]}
		for partner, n := range res.Partners[name] {
			s.Partners = append(s.Partners, Partner{Name: partner, Count: n})
		}
		sort.Slice(s.Partners, func(i, j int) bool { return s.Partners[i].Name < s.Partners[j].Name })
		doc.Correctors = append(doc.Correctors, s)
	}
	for _, e := range res.Unscheduled {
		doc.Unscheduled = append(doc.Unscheduled, e.Name)
	}
	return doc
}
