// Package backup dumps stamp records to JSON or CSV files and loads them
// back. Files carry the raw timestamps only.
package backup

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/stampclock/internal/stamp"
)

var csvHeader = []string{"id", "user_id", "check_in_ms", "check_out_ms", "check_in", "check_out"}

func ToCSV(records []stamp.StampRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range records {
		checkOutMs, checkOut := "", ""
		if out, ok := r.CheckOut(); ok {
			checkOutMs = strconv.FormatInt(*r.CheckOutMillis, 10)
			checkOut = out.Format(time.RFC3339)
		}
		row := []string{
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.User(), 10),
			strconv.FormatInt(*r.CheckInMillis, 10),
			checkOutMs,
			r.CheckIn().Format(time.RFC3339),
			checkOut,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// FromCSV reads a file written by ToCSV. The RFC 3339 columns are
// informational and ignored.
func FromCSV(path string) ([]stamp.StampRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv file: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read csv file: missing header")
	}

	records := make([]stamp.StampRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 4 {
			return nil, fmt.Errorf("csv line %d: expected at least 4 columns, got %d", i+2, len(row))
		}
		r, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", i+2, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func parseRow(row []string) (stamp.StampRecord, error) {
	var r stamp.StampRecord
	var err error
	if row[0] != "" {
		if r.ID, err = strconv.ParseInt(row[0], 10, 64); err != nil {
			return r, fmt.Errorf("id: %w", err)
		}
	}
	if r.UserID, err = optionalInt(row[1]); err != nil {
		return r, fmt.Errorf("user_id: %w", err)
	}
	if r.CheckInMillis, err = optionalInt(row[2]); err != nil {
		return r, fmt.Errorf("check_in_ms: %w", err)
	}
	if r.CheckOutMillis, err = optionalInt(row[3]); err != nil {
		return r, fmt.Errorf("check_out_ms: %w", err)
	}
	return r, nil
}

func optionalInt(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
