package reporting

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
)

// maxTableRows bounds the journal table; the summary still covers every record.
const maxTableRows = 200

// PDFExporter exports reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportActivityReport renders the report as an A4 PDF.
func (e *PDFExporter) ExportActivityReport(report *domain.ActivityReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addSummary(pdf, report)
	e.addJournal(pdf, report)
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report *domain.ActivityReport) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102) // Dark blue
	pdf.CellFormat(0, 15, report.Title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, "Generated: "+report.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	if !report.Period.Start.IsZero() {
		period := fmt.Sprintf("Period: %s to %s",
			report.Period.Start.Format("2006-01-02 15:04"),
			report.Period.End.Format("2006-01-02 15:04"))
		pdf.CellFormat(0, 6, period, "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

// addSummary adds one row per interface.
func (e *PDFExporter) addSummary(pdf *gofpdf.Fpdf, report *domain.ActivityReport) {
	e.sectionTitle(pdf, "Interfaces")

	if len(report.Interfaces) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "No activity recorded", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(40, 8, "Interface", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Runs", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 8, "Requested", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "Sent", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "Replies", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "Failures", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, s := range report.Interfaces {
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(40, 7, s.Interface, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", s.Runs), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", s.Requested), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", s.Sent), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", s.Replies), "1", 0, "C", false, 0, "")
		if s.Failures > 0 {
			pdf.SetTextColor(220, 53, 69) // Red
		}
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", s.Failures), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

// addJournal lists the records, newest first as they were queried.
func (e *PDFExporter) addJournal(pdf *gofpdf.Fpdf, report *domain.ActivityReport) {
	if len(report.Records) == 0 {
		return
	}
	e.sectionTitle(pdf, "Journal")

	header := func() {
		pdf.SetFillColor(240, 240, 240)
		pdf.SetFont("Arial", "B", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(35, 7, "Time", "1", 0, "L", true, 0, "")
		pdf.CellFormat(22, 7, "Interface", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 7, "Action", "1", 0, "L", true, 0, "")
		pdf.CellFormat(22, 7, "Packet", "1", 0, "L", true, 0, "")
		pdf.CellFormat(16, 7, "Sent", "1", 0, "C", true, 0, "")
		pdf.CellFormat(16, 7, "Replies", "1", 0, "C", true, 0, "")
		pdf.CellFormat(49, 7, "Error", "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 8)
	}
	header()

	for i, rec := range report.Records {
		if i >= maxTableRows {
			pdf.SetFont("Arial", "I", 8)
			pdf.SetTextColor(100, 100, 100)
			pdf.CellFormat(0, 6, fmt.Sprintf("%d more records omitted", len(report.Records)-maxTableRows), "", 1, "L", false, 0, "")
			break
		}
		if pdf.GetY() > 270 {
			pdf.AddPage()
			header()
		}

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(35, 6, rec.Timestamp.Format("2006-01-02 15:04:05"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 6, rec.Interface, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, string(rec.Action), "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 6, string(rec.PacketKind), "1", 0, "L", false, 0, "")
		pdf.CellFormat(16, 6, fmt.Sprintf("%d", rec.Sent), "1", 0, "C", false, 0, "")
		pdf.CellFormat(16, 6, fmt.Sprintf("%d", rec.Replies), "1", 0, "C", false, 0, "")

		// Truncate error if too long
		msg := rec.Error
		if len(msg) > 32 {
			msg = msg[:29] + "..."
		}
		if msg != "" {
			pdf.SetTextColor(220, 53, 69)
		}
		pdf.CellFormat(49, 6, msg, "1", 1, "L", false, 0, "")
	}
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report *domain.ActivityReport) {
	pdf.SetY(-20)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	id := report.ID
	if len(id) > 8 {
		id = id[:8]
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, "Generated by pktsender | Report ID: "+id, "", 1, "C", false, 0, "")
}
