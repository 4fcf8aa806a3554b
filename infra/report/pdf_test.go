package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pvihk/core/planner"
	corereport "github.com/kilianp07/pvihk/core/report"
)

func sampleDocument() corereport.Document {
	return corereport.Document{
		Meta: corereport.Meta{
			Title:     "Exam distribution by day and active correctors",
			Generator: "PVIHK",
			Version:   "1.2.0",
			CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		Status: planner.StatusOptimal,
		Days: []planner.DaySchedule{
			{Day: "2025-06-02", Entries: []planner.Entry{
				{Time: "09:00", Exam: "Jürgen Müller", Correctors: []string{"Bäcker", "Weiß"}},
			}},
			{Day: "2025-06-03", Entries: []planner.Entry{}},
		},
		Present: map[string][]string{"2025-06-02": {"Bäcker", "Weiß", "Zoe"}},
		Correctors: []corereport.CorrectorSummary{
			{Name: "Bäcker", Total: 1, Partners: []corereport.Partner{{Name: "Weiß", Count: 1}}},
			{Name: "Weiß", Total: 1, Partners: []corereport.Partner{{Name: "Bäcker", Count: 1}}},
			{Name: "Zoe"},
		},
		FirstReceivers: []planner.Receipt{{Corrector: "Bäcker", Exams: []string{"Jürgen Müller"}}},
		Handoffs:       []planner.Handoff{{From: "Bäcker", To: "Weiß", Exams: []string{"Jürgen Müller"}}},
		Unscheduled:    []string{"Overflow"},
	}
}

func TestPDFEmitterRender(t *testing.T) {
	e := NewPDFEmitter()
	data, err := e.Render(sampleDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", e.ContentType())
}

func TestPDFEmitterRenderEmptyDocument(t *testing.T) {
	data, err := NewPDFEmitter().Render(corereport.Document{})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

var _ corereport.Emitter = (*PDFEmitter)(nil)
