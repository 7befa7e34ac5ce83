package reporting

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
)

const DefaultReportTitle = "Packet Sender Activity"

// ActivityReportGenerator turns journal records into an ActivityReport.
type ActivityReportGenerator struct {
	now func() time.Time
}

func NewActivityReportGenerator() *ActivityReportGenerator {
	return &ActivityReportGenerator{now: time.Now}
}

// Generate summarizes records per interface. Records keep their order;
// interfaces are sorted by name.
func (g *ActivityReportGenerator) Generate(title string, records []domain.ActivityRecord) *domain.ActivityReport {
	if title == "" {
		title = DefaultReportTitle
	}
	report := &domain.ActivityReport{
		ID:          uuid.NewString(),
		Title:       title,
		GeneratedAt: g.now().UTC(),
		Records:     records,
		Interfaces:  summarize(records),
	}
	for i, rec := range records {
		if i == 0 || rec.Timestamp.Before(report.Period.Start) {
			report.Period.Start = rec.Timestamp
		}
		if rec.Timestamp.After(report.Period.End) {
			report.Period.End = rec.Timestamp
		}
	}
	return report
}

func summarize(records []domain.ActivityRecord) []domain.InterfaceSummary {
	byIface := make(map[string]*domain.InterfaceSummary)
	for _, rec := range records {
		s, ok := byIface[rec.Interface]
		if !ok {
			s = &domain.InterfaceSummary{Interface: rec.Interface}
			byIface[rec.Interface] = s
		}
		// A stream is journaled at start and stop; count it once.
		if rec.Action != domain.ActionStreamStop {
			s.Runs++
		}
		s.Requested += rec.Requested
		s.Sent += rec.Sent
		s.Replies += rec.Replies
		if rec.Error != "" {
			s.Failures++
		}
	}

	out := make([]domain.InterfaceSummary, 0, len(byIface))
	for _, s := range byIface {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Interface < out[j].Interface })
	return out
}
