package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clif/internal/relation"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestReadCSVVitals(t *testing.T) {
	path := writeTempCSV(t, "vitals.csv", "hospitalization_id,recorded_dttm,vital_category,vital_value\n"+
		"H1,2024-01-01 10:00:00,heart_rate,80\n"+
		"H1,2024-01-01 10:05:00,heart_rate,\n")

	rows, err := ReadCSV[Vital](path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[0].VitalValue == nil || *rows[0].VitalValue != 80 {
		t.Fatalf("want vital_value=80 on row 0, got %v", rows[0].VitalValue)
	}
	if rows[1].VitalValue != nil {
		t.Fatalf("want nil vital_value on row 1, got %v", *rows[1].VitalValue)
	}
}

func TestReadCSVDropsRowMissingRequired(t *testing.T) {
	path := writeTempCSV(t, "vitals.csv", "hospitalization_id,recorded_dttm,vital_category,vital_value\n"+
		"H1,not-a-timestamp,heart_rate,80\n"+
		"H1,2024-01-01 10:00:00,heart_rate,80\n")

	rows, err := ReadCSV[Vital](path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 surviving row (bad timestamp dropped), got %d", len(rows))
	}
}

func TestToTable(t *testing.T) {
	val := 80.0
	rows := []Vital{{HospitalizationID: "H1", VitalCategory: "heart_rate", VitalValue: &val}}
	table := ToTable(rows)
	if !table.HasColumn("vital_value") {
		t.Fatalf("want vital_value column present")
	}
	v, ok := table.Rows[0].Get("vital_value").Float()
	if !ok || v != 80 {
		t.Fatalf("want vital_value=80, got %v (ok=%v)", v, ok)
	}
}

func TestValidateRequiredAndEnum(t *testing.T) {
	tbl := relation.New("hospitalization_id", "in_dttm", "location_category")
	tbl.AddRow(relation.Row{
		"hospitalization_id": relation.Text("H1"),
		"location_category":  relation.Text("not_a_real_location"),
	})
	report := Validate("adt", tbl)
	if report.OK() {
		t.Fatalf("want validation errors")
	}
	foundMissing, foundEnum := false, false
	for _, e := range report.Errors {
		if strings.Contains(e, "missing required value") && strings.Contains(e, "in_dttm") {
			foundMissing = true
		}
		if strings.Contains(e, "outside the permissible enum") {
			foundEnum = true
		}
	}
	if !foundMissing {
		t.Fatalf("want a missing-required-value error, got %v", report.Errors)
	}
	if !foundEnum {
		t.Fatalf("want a permissible-enum error, got %v", report.Errors)
	}
}

func TestValidateVitalRange(t *testing.T) {
	tbl := relation.New("hospitalization_id", "recorded_dttm", "vital_category", "vital_value")
	tbl.AddRow(relation.Row{
		"hospitalization_id": relation.Text("H1"),
		"vital_category":     relation.Text("heart_rate"),
		"vital_value":        relation.Numeric(999),
	})
	report := Validate("vitals", tbl)
	if len(report.RangeErrors) != 1 {
		t.Fatalf("want 1 range error, got %v", report.RangeErrors)
	}
}
