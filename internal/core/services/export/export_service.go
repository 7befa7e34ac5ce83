package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
)

// ExportActivityJSON writes records as a JSON array
func ExportActivityJSON(w io.Writer, records []domain.ActivityRecord) error {
	if records == nil {
		records = []domain.ActivityRecord{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

// ExportActivityCSV writes records as CSV with headers
func ExportActivityCSV(w io.Writer, records []domain.ActivityRecord) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	headers := []string{
		"ID", "RunID", "Interface", "Action", "PacketKind",
		"Requested", "Sent", "Replies", "Error", "Timestamp",
	}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.RunID,
			r.Interface,
			string(r.Action),
			string(r.PacketKind),
			strconv.Itoa(r.Requested),
			strconv.Itoa(r.Sent),
			strconv.Itoa(r.Replies),
			r.Error,
			r.Timestamp.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
