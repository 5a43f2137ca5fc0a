package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clif/internal/relation"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	tbl := relation.New("hospitalization_id", "event_time", "heart_rate", "norepinephrine")
	tbl.Rows = []relation.Row{
		{
			"hospitalization_id": relation.Text("H1"),
			"event_time":         relation.Timestamp(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)),
			"heart_rate":         relation.Numeric(80),
			"norepinephrine":     relation.Null(),
		},
		{
			"hospitalization_id": relation.Text("H1"),
			"event_time":         relation.Timestamp(time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)),
			"heart_rate":         relation.Null(),
			"norepinephrine":     relation.Numeric(0.05),
		},
	}

	path := filepath.Join(t.TempDir(), "wide.csv")
	if err := writeCSV(path, tbl); err != nil {
		t.Fatalf("writeCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("want header + 2 rows, got %d records", len(records))
	}
	if records[0][0] != "hospitalization_id" || records[0][2] != "heart_rate" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][2] != "80" {
		t.Fatalf("want heart_rate=80 on row 1, got %q", records[1][2])
	}
	if records[1][3] != "" {
		t.Fatalf("want blank norepinephrine on row 1, got %q", records[1][3])
	}
	if records[2][2] != "" {
		t.Fatalf("want blank heart_rate on row 2, got %q", records[2][2])
	}
	if records[2][3] != "0.05" {
		t.Fatalf("want norepinephrine=0.05 on row 2, got %q", records[2][3])
	}
	if records[1][1] != "2024-01-01T10:00:00Z" {
		t.Fatalf("want RFC3339 event_time, got %q", records[1][1])
	}
}
