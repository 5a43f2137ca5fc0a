package wide

import (
	"testing"
	"time"

	"clif/internal/relation"
)

func mkPatients(ids ...string) *relation.Table {
	t := relation.New("patient_id")
	for _, id := range ids {
		t.Rows = append(t.Rows, relation.Row{"patient_id": relation.Text(id)})
	}
	return t
}

func mkHosps(pairs map[string]string) *relation.Table {
	t := relation.New("hospitalization_id", "patient_id", "admission_dttm")
	for h, p := range pairs {
		t.Rows = append(t.Rows, relation.Row{
			"hospitalization_id": relation.Text(h),
			"patient_id":         relation.Text(p),
			"admission_dttm":     relation.Timestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		})
	}
	return t
}

func vrow(hosp string, at time.Time, category string, val float64) relation.Row {
	return relation.Row{
		"hospitalization_id": relation.Text(hosp),
		"recorded_dttm":      relation.Timestamp(at),
		"vital_category":     relation.Text(category),
		"vital_value":        relation.Numeric(val),
	}
}

// S1: three vitals minutes for one hospitalization.
func TestBuildS1ThreeVitalsMinutes(t *testing.T) {
	patients := mkPatients("P1", "P2")
	hosps := mkHosps(map[string]string{"H1": "P1", "H2": "P2"})
	vitals := relation.New("hospitalization_id", "recorded_dttm", "vital_category", "vital_value")
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	vitals.Rows = []relation.Row{
		vrow("H1", base, "heart_rate", 80),
		vrow("H1", base.Add(30*time.Minute), "heart_rate", 82),
		vrow("H1", base.Add(60*time.Minute), "heart_rate", 85),
	}

	out, err := Build(Inputs{
		Patient:         patients,
		Hospitalization: hosps,
		Optional:        map[string]*relation.Table{"vitals": vitals},
	}, Config{
		OptionalTables: []string{"vitals"},
		Cohort:         CohortSelector{Mode: CohortAll},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var h1Rows []relation.Row
	for _, r := range out.Rows {
		if h, _ := r.Get("hospitalization_id").Str(); h == "H1" {
			h1Rows = append(h1Rows, r)
		}
	}
	if len(h1Rows) != 3 {
		t.Fatalf("want 3 rows for H1, got %d", len(h1Rows))
	}
	for _, r := range h1Rows {
		if _, ok := r.Get("heart_rate").Float(); !ok {
			t.Fatalf("expected heart_rate populated on every H1 row")
		}
		dn, _ := r.Get("day_number").Float()
		if dn != 1 {
			t.Fatalf("want day_number=1, got %v", dn)
		}
	}
}

// S2: minute collision — two vitals rows at the same minute collapse to one row.
func TestBuildS2MinuteCollision(t *testing.T) {
	patients := mkPatients("P1")
	hosps := mkHosps(map[string]string{"H1": "P1"})
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	vitals := relation.New("hospitalization_id", "recorded_dttm", "vital_category", "vital_value")
	vitals.Rows = []relation.Row{
		vrow("H1", base, "heart_rate", 80),
		vrow("H1", base.Add(45*time.Second), "sbp", 120),
	}

	out, err := Build(Inputs{
		Patient:         patients,
		Hospitalization: hosps,
		Optional:        map[string]*relation.Table{"vitals": vitals},
	}, Config{
		OptionalTables: []string{"vitals"},
		Cohort:         CohortSelector{Mode: CohortAll},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(out.Rows) != 1 {
		t.Fatalf("want 1 collapsed row, got %d", len(out.Rows))
	}
	hr, ok1 := out.Rows[0].Get("heart_rate").Float()
	sbp, ok2 := out.Rows[0].Get("sbp").Float()
	if !ok1 || hr != 80 || !ok2 || sbp != 120 {
		t.Fatalf("want both heart_rate=80 and sbp=120 on collapsed row, got hr=%v sbp=%v", hr, sbp)
	}
}

// S3: ghost category — requested filter category with no matching rows.
func TestBuildS3GhostCategory(t *testing.T) {
	patients := mkPatients("P1")
	hosps := mkHosps(map[string]string{"H1": "P1"})
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	vitals := relation.New("hospitalization_id", "recorded_dttm", "vital_category", "vital_value")
	vitals.Rows = []relation.Row{vrow("H1", base, "heart_rate", 80)}

	out, err := Build(Inputs{
		Patient:         patients,
		Hospitalization: hosps,
		Optional:        map[string]*relation.Table{"vitals": vitals},
	}, Config{
		OptionalTables:  []string{"vitals"},
		CategoryFilters: map[string][]string{"vitals": {"heart_rate", "map"}},
		Cohort:          CohortSelector{Mode: CohortAll},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !out.HasColumn("map") {
		t.Fatalf("want ghost column 'map' present")
	}
	for _, r := range out.Rows {
		if !r.Get("map").IsNull() {
			t.Fatalf("want ghost column 'map' all-null")
		}
	}
}

func TestBuildMissingBaseTableIsFatal(t *testing.T) {
	_, err := Build(Inputs{Hospitalization: mkHosps(map[string]string{"H1": "P1"})}, Config{Cohort: CohortSelector{Mode: CohortAll}})
	if err != ErrMissingBaseTable {
		t.Fatalf("want ErrMissingBaseTable, got %v", err)
	}
}

func TestBuildUniqueHospitalizationEventTime(t *testing.T) {
	patients := mkPatients("P1")
	hosps := mkHosps(map[string]string{"H1": "P1"})
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	vitals := relation.New("hospitalization_id", "recorded_dttm", "vital_category", "vital_value")
	vitals.Rows = []relation.Row{
		vrow("H1", base, "heart_rate", 80),
		vrow("H1", base, "sbp", 118), // same instant, different category
	}
	out, err := Build(Inputs{
		Patient:         patients,
		Hospitalization: hosps,
		Optional:        map[string]*relation.Table{"vitals": vitals},
	}, Config{
		OptionalTables: []string{"vitals"},
		Cohort:         CohortSelector{Mode: CohortAll},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	seen := map[string]bool{}
	for _, r := range out.Rows {
		h, _ := r.Get("hospitalization_id").Str()
		et, _ := r.Get("event_time").Time()
		key := h + "|" + et.String()
		if seen[key] {
			t.Fatalf("duplicate (hospitalization_id, event_time) in wide output")
		}
		seen[key] = true
	}
}
