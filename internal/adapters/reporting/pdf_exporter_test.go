package reporting

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
)

func sampleReport(records int) *domain.ActivityReport {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	report := &domain.ActivityReport{
		ID:          "0f8c2a7e-5d0b-4c59-9a43-2f1f5c0d9b11",
		Title:       "Test Activity",
		GeneratedAt: now,
		Period:      domain.DateRange{Start: now.Add(-time.Hour), End: now},
		Interfaces: []domain.InterfaceSummary{
			{Interface: "eth0", Runs: 3, Requested: 30, Sent: 28, Replies: 4, Failures: 1},
			{Interface: "wlan0", Runs: 1, Requested: 5, Sent: 5},
		},
	}
	for i := 0; i < records; i++ {
		rec := domain.ActivityRecord{
			ID:         uint(i + 1),
			Interface:  "eth0",
			Action:     domain.ActionSendBurst,
			PacketKind: domain.KindARP,
			Requested:  10,
			Sent:       10,
			Timestamp:  now.Add(-time.Duration(i) * time.Minute),
		}
		if i%7 == 0 {
			rec.Error = fmt.Sprintf("transport error on eth0 during send: frame %d rejected by driver", i)
		}
		report.Records = append(report.Records, rec)
	}
	return report
}

func TestPDFExporterExportActivityReport(t *testing.T) {
	exporter := NewPDFExporter()

	data, err := exporter.ExportActivityReport(sampleReport(12))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "output is not a PDF")
	assert.Greater(t, len(data), 1000)
}

func TestPDFExporterEmptyReport(t *testing.T) {
	exporter := NewPDFExporter()

	data, err := exporter.ExportActivityReport(&domain.ActivityReport{ID: "x", Title: "Empty"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestPDFExporterLargeJournal(t *testing.T) {
	exporter := NewPDFExporter()

	small, err := exporter.ExportActivityReport(sampleReport(20))
	require.NoError(t, err)
	large, err := exporter.ExportActivityReport(sampleReport(maxTableRows + 50))
	require.NoError(t, err)
	assert.Greater(t, len(large), len(small))
}
