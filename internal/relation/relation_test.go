package relation

import "testing"

func TestMergeInner(t *testing.T) {
	patients := New("patient_id", "sex_category")
	patients.Rows = []Row{
		{"patient_id": Text("P1"), "sex_category": Text("female")},
	}

	hosps := New("hospitalization_id", "patient_id")
	hosps.Rows = []Row{
		{"hospitalization_id": Text("H1"), "patient_id": Text("P1")},
		{"hospitalization_id": Text("H2"), "patient_id": Text("P2")},
	}

	got := Merge(hosps, "patient_id", patients, "patient_id", MergeOpts{Inner: true})
	if len(got.Rows) != 1 {
		t.Fatalf("inner merge: want 1 row, got %d", len(got.Rows))
	}
	if sex, _ := got.Rows[0].Get("sex_category").Str(); sex != "female" {
		t.Fatalf("want sex_category=female, got %q", sex)
	}
}

func TestMergeOuterFillsNull(t *testing.T) {
	driver := New("hospitalization_id")
	driver.Rows = []Row{{"hospitalization_id": Text("H1")}}

	lookup := New("hospitalization_id", "location_category")
	got := Merge(driver, "hospitalization_id", lookup, "hospitalization_id", MergeOpts{})
	if len(got.Rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(got.Rows))
	}
	if !got.Rows[0].Get("location_category").IsNull() {
		t.Fatalf("want null location_category for unmatched row")
	}
}

func TestPivotFirstWins(t *testing.T) {
	src := New("combo_id", "vital_category", "vital_value")
	f80, f82 := 80.0, 82.0
	src.Rows = []Row{
		{"combo_id": Text("H1_202401011000"), "vital_category": Text("heart_rate"), "vital_value": Numeric(f80)},
		{"combo_id": Text("H1_202401011000"), "vital_category": Text("heart_rate"), "vital_value": Numeric(f82)},
	}

	got := Pivot(src, "combo_id", "vital_category", "vital_value", nil)
	if got == nil || len(got.Rows) != 1 {
		t.Fatalf("want 1 pivoted row")
	}
	v, ok := got.Rows[0].Get("heart_rate").Float()
	if !ok || v != 80 {
		t.Fatalf("first-wins: want heart_rate=80, got %v ok=%v", v, ok)
	}
}

func TestPivotEmptyAfterFilter(t *testing.T) {
	src := New("combo_id", "vital_category", "vital_value")
	src.Rows = []Row{{"combo_id": Text("H1_1"), "vital_category": Text("heart_rate"), "vital_value": Numeric(80)}}

	got := Pivot(src, "combo_id", "vital_category", "vital_value", []string{"map"})
	if got != nil {
		t.Fatalf("want nil pivot when filtered categories match nothing")
	}
}

func TestDenseRank(t *testing.T) {
	rows := []Row{
		{"hospitalization_id": Text("H1"), "date": Text("2024-01-01")},
		{"hospitalization_id": Text("H1"), "date": Text("2024-01-01")},
		{"hospitalization_id": Text("H1"), "date": Text("2024-01-02")},
		{"hospitalization_id": Text("H2"), "date": Text("2024-01-05")},
	}
	ranks := DenseRank(rows,
		func(r Row) string { s, _ := r.Get("hospitalization_id").Str(); return s },
		func(r Row) string { s, _ := r.Get("date").Str(); return s },
	)
	want := []int{1, 1, 2, 1}
	for i, w := range want {
		if ranks[i] != w {
			t.Fatalf("rank[%d] = %d, want %d", i, ranks[i], w)
		}
	}
}

func TestRegistryReleaseAll(t *testing.T) {
	r := NewRegistry()
	r.Register("scratch", New("a"))
	r.Register("scratch", New("b"))
	if r.Len() != 2 {
		t.Fatalf("want 2 registered, got %d", r.Len())
	}
	r.ReleaseAll()
	if r.Len() != 0 {
		t.Fatalf("want 0 registered after ReleaseAll, got %d", r.Len())
	}
}
