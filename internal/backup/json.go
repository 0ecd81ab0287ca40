package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/stampclock/internal/stamp"
)

type jsonBackup struct {
	ExportedAt string              `json:"exported_at"`
	Count      int                 `json:"count"`
	Records    []stamp.StampRecord `json:"records"`
}

func ToJSON(records []stamp.StampRecord, path string) error {
	if records == nil {
		records = []stamp.StampRecord{}
	}
	b := jsonBackup{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(records),
		Records:    records,
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

func FromJSON(path string) ([]stamp.StampRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json file: %w", err)
	}
	var b jsonBackup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse json file: %w", err)
	}
	return b.Records, nil
}
