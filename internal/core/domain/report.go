package domain

import "time"

// ReportFormat is an export encoding of the activity journal.
type ReportFormat string

const (
	FormatJSON ReportFormat = "json"
	FormatCSV  ReportFormat = "csv"
	FormatPDF  ReportFormat = "pdf"
)

// ParseReportFormat defaults to JSON.
func ParseReportFormat(raw string) (ReportFormat, error) {
	switch ReportFormat(raw) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV, FormatPDF:
		return ReportFormat(raw), nil
	}
	return "", &InvalidFieldError{Field: "format", Value: raw}
}

// InterfaceSummary totals the journal entries of one interface.
type InterfaceSummary struct {
	Interface string `json:"interface"`
	Runs      int    `json:"runs"`
	Requested int    `json:"requested"`
	Sent      int    `json:"sent"`
	Replies   int    `json:"replies"`
	Failures  int    `json:"failures"`
}

// ActivityReport is the printable view of a journal extract.
type ActivityReport struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	GeneratedAt time.Time          `json:"generated_at"`
	Period      DateRange          `json:"period"`
	Interfaces  []InterfaceSummary `json:"interfaces"`
	Records     []ActivityRecord   `json:"records"`
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
