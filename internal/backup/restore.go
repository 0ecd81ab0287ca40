package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sadopc/stampclock/internal/stamp"
)

// Source lists every record in a store.
type Source interface {
	All(ctx context.Context) ([]stamp.StampRecord, error)
}

type Inserter interface {
	Insert(ctx context.Context, r stamp.StampRecord) (stamp.StampRecord, error)
}

// Write picks the format from the file extension: .csv, otherwise JSON.
func Write(records []stamp.StampRecord, path string) error {
	if isCSV(path) {
		return ToCSV(records, path)
	}
	return ToJSON(records, path)
}

func Read(path string) ([]stamp.StampRecord, error) {
	if isCSV(path) {
		return FromCSV(path)
	}
	return FromJSON(path)
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// Dump writes the records of src to path. A non-nil userID keeps only that
// user's records.
func Dump(ctx context.Context, src Source, path string, userID *int64) (int, error) {
	records, err := src.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("dump records: %w", err)
	}
	if userID != nil {
		kept := records[:0]
		for _, r := range records {
			if r.User() == *userID && r.UserID != nil {
				kept = append(kept, r)
			}
		}
		records = kept
	}
	if err := Write(records, path); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Restore validates every record before inserting any, then inserts them in
// file order keeping their ids. It stops at the first failed insert and
// reports how many were stored.
func Restore(ctx context.Context, dst Inserter, records []stamp.StampRecord) (int, error) {
	for i, r := range records {
		if err := stamp.Validate(r); err != nil {
			return 0, fmt.Errorf("record %d (id %d): %w", i, r.ID, err)
		}
	}
	for i, r := range records {
		if _, err := dst.Insert(ctx, r); err != nil {
			return i, fmt.Errorf("restore record id %d: %w", r.ID, err)
		}
	}
	return len(records), nil
}
