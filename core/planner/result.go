package planner

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kilianp07/pvihk/core/model"
)

// Entry is one scheduled exam.
type Entry struct {
	Time       string
	Exam       string
	Correctors []string
}

// MarshalJSON encodes the entry as the tuple [time, exam, [correctors]].
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Time, e.Exam, e.Correctors})
}

// UnmarshalJSON decodes the tuple form written by MarshalJSON.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("planner: schedule entry needs 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Time); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &e.Exam); err != nil {
		return err
	}
	return json.Unmarshal(raw[2], &e.Correctors)
}

// DaySchedule lists the exams of one day in slot order.
type DaySchedule struct {
	Day     string  `json:"day"`
	Entries []Entry `json:"entries"`
}

// Assignment is the decoded solver decision for one exam.
type Assignment struct {
	Exam       model.Exam `json:"exam"`
	Day        int        `json:"day"`
	Correctors []string   `json:"correctors"`
}

// Handoff lists the exams a pair grades together. From precedes To.
type Handoff struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Exams []string `json:"exams"`
}

// Receipt lists the exams a corrector receives first.
type Receipt struct {
	Corrector string   `json:"corrector"`
	Exams     []string `json:"exams"`
}

// Result is the interpreted outcome of one optimisation.
type Result struct {
	Status      string        `json:"status"`
	Assignments []Assignment  `json:"assignments"`
	Schedule    []DaySchedule `json:"schedule"`
	Handoffs    []Handoff     `json:"handoffs"`
	// FirstReceivers is ordered by corrector name.
	FirstReceivers []Receipt `json:"first_receivers"`
	// Partners maps a corrector to the number of exams shared with each partner.
	Partners map[string]map[string]int `json:"partners"`
	// Loads maps every corrector to the number of exams assigned.
	Loads map[string]int `json:"loads"`
	// Present maps a day identifier to the correctors present that day.
	Present map[string][]string `json:"present"`
	// Correctors lists all corrector names in order.
	Correctors []string `json:"correctors"`
	// Unscheduled holds exams without a free slot on their day.
	Unscheduled []model.Exam  `json:"unscheduled,omitempty"`
	Objective   float64       `json:"objective"`
	Nodes       int           `json:"nodes"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Distribution returns the schedule keyed by day identifier.
func (r *Result) Distribution() map[string][]Entry {
	out := make(map[string][]Entry, len(r.Schedule))
	for _, d := range r.Schedule {
		out[d.Day] = d.Entries
	}
	return out
}

// Output is the response handed back to the caller.
type Output struct {
	// PDF is encoded as base64 in JSON.
	PDF          []byte             `json:"pdf_data"`
	Distribution map[string][]Entry `json:"verteilung"`
	Status       string             `json:"status"`
	// ContentType is the MIME type of PDF as reported by the emitter.
	ContentType string `json:"-"`
}
