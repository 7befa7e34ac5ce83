package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
	"github.com/lcalzada-xor/pktsender/internal/core/services/export"
	"github.com/lcalzada-xor/pktsender/internal/core/services/reporting"
)

type ActivityHandler struct {
	Service  ports.FleetService
	Reports  *reporting.ActivityReportGenerator
	Renderer ports.ReportRenderer
}

func NewActivityHandler(service ports.FleetService, renderer ports.ReportRenderer) *ActivityHandler {
	return &ActivityHandler{
		Service:  service,
		Reports:  reporting.NewActivityReportGenerator(),
		Renderer: renderer,
	}
}

// HandleList returns journal entries, optionally filtered by ?interface=
func (h *ActivityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	recs, ok := h.query(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleExport downloads the journal as ?format=json|csv|pdf.
func (h *ActivityHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, err := domain.ParseReportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}
	if format == domain.FormatPDF && h.Renderer == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "pdf export is not available"})
		return
	}
	recs, ok := h.query(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	contentType := "application/json"
	switch format {
	case domain.FormatCSV:
		contentType = "text/csv"
		err = export.ExportActivityCSV(&buf, recs)
	case domain.FormatPDF:
		contentType = "application/pdf"
		var data []byte
		data, err = h.Renderer.ExportActivityReport(h.Reports.Generate(r.URL.Query().Get("title"), recs))
		buf.Write(data)
	default:
		err = export.ExportActivityJSON(&buf, recs)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	filename := "activity-" + time.Now().UTC().Format("20060102-150405") + "." + string(format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *ActivityHandler) query(w http.ResponseWriter, r *http.Request) ([]domain.ActivityRecord, bool) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, &domain.InvalidFieldError{Field: "limit", Value: raw})
			return nil, false
		}
		limit = n
	}

	recs, err := h.Service.Activity(r.Context(), q.Get("interface"), limit)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return recs, true
}
