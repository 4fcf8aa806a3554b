// Package report renders distribution reports.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	corereport "github.com/kilianp07/pvihk/core/report"
)

// Column widths of the schedule and overview tables in millimetres.
const (
	colTime       = 22.0
	colExam       = 78.0
	colCorrectors = 85.0
	colName       = 60.0
	colPartners   = 130.0
)

// PDFEmitter renders a Document as an A4 PDF.
type PDFEmitter struct{}

// NewPDFEmitter returns a PDFEmitter.
func NewPDFEmitter() *PDFEmitter {
	return &PDFEmitter{}
}

// ContentType implements corereport.Emitter.
func (e *PDFEmitter) ContentType() string { return "application/pdf" }

// Render lays out the schedule per day, the corrector overview and, on a
// new page, the hand-off lists.
func (e *PDFEmitter) Render(doc corereport.Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// The core fonts are cp1252; names routinely carry umlauts.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 10)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Arial", "", 8)
		footer := fmt.Sprintf("Created by %s(%s) on %s", doc.Generator, doc.Version, doc.CreatedAt.Format("02.01.2006 15:04:05"))
		pdf.CellFormat(0, 5, tr(footer), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, tr(doc.Title), "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, tr("Status: "+doc.Status), "", 1, "", false, 0, "")
	pdf.Ln(3)

	for _, day := range doc.Days {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, tr("Schedule: "+day.Day), "", 1, "", false, 0, "")
		pdf.SetFillColor(200, 200, 220)
		pdf.CellFormat(colTime, 6, "Time", "1", 0, "", true, 0, "")
		pdf.CellFormat(colExam, 6, "Exam", "1", 0, "", true, 0, "")
		pdf.CellFormat(colCorrectors, 6, "Correctors", "1", 1, "", true, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, entry := range day.Entries {
			pdf.CellFormat(colTime, 6, entry.Time, "1", 0, "", false, 0, "")
			pdf.CellFormat(colExam, 6, tr(entry.Exam), "1", 0, "", false, 0, "")
			pdf.CellFormat(colCorrectors, 6, tr(strings.Join(entry.Correctors, ", ")), "1", 1, "", false, 0, "")
		}
		if present := doc.Present[day.Day]; len(present) > 0 {
			pdf.SetFont("Arial", "I", 8)
			pdf.CellFormat(0, 5, tr("Present: "+strings.Join(present, ", ")), "", 1, "", false, 0, "")
		}
		pdf.Ln(3)
	}

	if len(doc.Unscheduled) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(0, 6, tr("Not scheduled (no free slot): "+strings.Join(doc.Unscheduled, ", ")), "", 1, "", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(3)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 6, "Corrector overview with partners", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(colName, 6, "Corrector (total)", "1", 0, "", false, 0, "")
	pdf.CellFormat(colPartners, 6, "Shared with", "1", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, c := range doc.Correctors {
		parts := make([]string, len(c.Partners))
		for i, p := range c.Partners {
			parts[i] = fmt.Sprintf("%s(%d)", p.Name, p.Count)
		}
		pdf.SetTextColor(0, 0, 200)
		pdf.CellFormat(colName, 6, tr(fmt.Sprintf("%s (%d)", c.Name, c.Total)), "1", 0, "", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(colPartners, 6, tr(strings.Join(parts, ", ")), "1", 1, "", false, 0, "")
	}

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 6, "Dispatch and hand-over of exams", "", 1, "", false, 0, "")
	pdf.Ln(4)
	for _, r := range doc.FirstReceivers {
		examList(pdf, tr, r.Corrector+" receives:", r.Exams)
	}
	for _, h := range doc.Handoffs {
		examList(pdf, tr, h.From+" -> "+h.To+":", h.Exams)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func examList(pdf *gofpdf.Fpdf, tr func(string) string, heading string, exams []string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, tr(heading), "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, name := range exams {
		pdf.CellFormat(0, 6, tr("   - "+name), "", 1, "", false, 0, "")
	}
	pdf.Ln(2)
}
