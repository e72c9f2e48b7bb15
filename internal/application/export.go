package application

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ExportHeader is the column order of the reservation export.
var ExportHeader = []string{"id", "roomId", "roomName", "date", "slot", "duration", "name", "email", "purpose", "status", "createdAt"}

// Table is a header plus string rows ready for CSV encoding.
type Table struct {
	Header []string
	Rows   [][]string
}

// ToTable renders reservations in export order. A missing status is written
// as pending and a missing creation time as an empty cell.
func ToTable(reservations []Reservation) Table {
	table := Table{
		Header: append([]string(nil), ExportHeader...),
		Rows:   make([][]string, 0, len(reservations)),
	}
	for _, r := range reservations {
		status := r.Status
		if status == "" {
			status = StatusPending
		}
		createdAt := ""
		if !r.CreatedAt.IsZero() {
			createdAt = r.CreatedAt.UTC().Format(time.RFC3339)
		}
		table.Rows = append(table.Rows, []string{
			r.ID,
			r.RoomID,
			r.RoomName,
			r.Date,
			strconv.Itoa(r.Slot),
			strconv.Itoa(r.Duration),
			r.RequesterName,
			r.RequesterEmail,
			r.Purpose,
			string(status),
			createdAt,
		})
	}
	return table
}

// WriteCSV encodes the table as RFC 4180 CSV.
func WriteCSV(w io.Writer, table Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// ExportFileName names the export produced on t's calendar date.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("bookings_export_%s.csv", t.Format(dateLayout))
}
