package vaso

import (
	"testing"
	"time"

	"clif/internal/relation"
)

func medRow(hospID string, at time.Time, category, unit string, dose float64) relation.Row {
	return relation.Row{
		ColHospitalizationID: relation.Text(hospID),
		ColAdminDttm:         relation.Timestamp(at),
		ColMedCategory:       relation.Text(category),
		ColMedDose:           relation.Numeric(dose),
		ColMedDoseUnit:       relation.Text(unit),
	}
}

func vitalWeightRow(hospID string, at time.Time, kg float64) relation.Row {
	return relation.Row{
		vitalsHospitalizationID: relation.Text(hospID),
		vitalsRecordedDttm:      relation.Timestamp(at),
		vitalsCategory:          relation.Text("weight_kg"),
		vitalsValue:             relation.Numeric(kg),
	}
}

// S6: missing weight -> null dose, unit_conversion_applied=false.
func TestConvertMissingWeight(t *testing.T) {
	meds := relation.New(ColHospitalizationID, ColAdminDttm, ColMedCategory, ColMedDose, ColMedDoseUnit)
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	meds.Rows = []relation.Row{medRow("H1", at, "norepinephrine", "mcg/min", 5)}

	vitals := relation.New(vitalsHospitalizationID, vitalsRecordedDttm, vitalsCategory, vitalsValue)

	out := Convert(meds, vitals, "mcg/kg/min")
	if len(out.Rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(out.Rows))
	}
	r := out.Rows[0]
	if !r.Get(ColMedDose).IsNull() {
		t.Fatalf("want null dose with no weight observation")
	}
	applied, _ := r.Get(ColUnitConversionApplied).BoolVal()
	if applied {
		t.Fatalf("want unit_conversion_applied=false")
	}
}

// S6 continuation: sibling row with any weight measurement -> dose = 5/weight.
func TestConvertWithWeight(t *testing.T) {
	meds := relation.New(ColHospitalizationID, ColAdminDttm, ColMedCategory, ColMedDose, ColMedDoseUnit)
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	meds.Rows = []relation.Row{medRow("H1", at, "norepinephrine", "mcg/min", 5)}

	vitals := relation.New(vitalsHospitalizationID, vitalsRecordedDttm, vitalsCategory, vitalsValue)
	vitals.Rows = []relation.Row{vitalWeightRow("H1", at.Add(-3*time.Hour), 100)}

	out := Convert(meds, vitals, "mcg/kg/min")
	dose, ok := out.Rows[0].Get(ColMedDose).Float()
	if !ok || dose != 0.05 {
		t.Fatalf("want dose=0.05, got %v ok=%v", dose, ok)
	}
}

// Invariant 6: idempotence when target == current unit.
func TestConvertIdempotent(t *testing.T) {
	meds := relation.New(ColHospitalizationID, ColAdminDttm, ColMedCategory, ColMedDose, ColMedDoseUnit)
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	meds.Rows = []relation.Row{medRow("H1", at, "epinephrine", "mcg/kg/min", 0.1)}

	out := Convert(meds, relation.New(), "mcg/kg/min")
	dose, _ := out.Rows[0].Get(ColMedDose).Float()
	if dose != 0.1 {
		t.Fatalf("want unchanged dose 0.1, got %v", dose)
	}
	applied, _ := out.Rows[0].Get(ColUnitConversionApplied).BoolVal()
	if !applied {
		t.Fatalf("want unit_conversion_applied=true")
	}
}

func TestConvertClosestInTimeTieBreaksEarlier(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	meds := relation.New(ColHospitalizationID, ColAdminDttm, ColMedCategory, ColMedDose, ColMedDoseUnit)
	meds.Rows = []relation.Row{medRow("H1", at, "dopamine", "mcg/min", 100)}

	vitals := relation.New(vitalsHospitalizationID, vitalsRecordedDttm, vitalsCategory, vitalsValue)
	vitals.Rows = []relation.Row{
		vitalWeightRow("H1", at.Add(-1*time.Hour), 80), // earlier, tied distance
		vitalWeightRow("H1", at.Add(1*time.Hour), 90),  // later, tied distance
	}

	out := Convert(meds, vitals, "mcg/kg/min")
	dose, _ := out.Rows[0].Get(ColMedDose).Float()
	want := 100.0 / 80.0
	if dose != want {
		t.Fatalf("want dose=%v (earlier weight wins tie), got %v", want, dose)
	}
}

func TestConvertVasopressinTimeBaseOnly(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	meds := relation.New(ColHospitalizationID, ColAdminDttm, ColMedCategory, ColMedDose, ColMedDoseUnit)
	meds.Rows = []relation.Row{medRow("H1", at, "vasopressin", "units/min", 0.04)}

	out := Convert(meds, relation.New(), "units/hr")
	dose, ok := out.Rows[0].Get(ColMedDose).Float()
	if !ok || dose != 2.4 {
		t.Fatalf("want 2.4 units/hr, got %v ok=%v", dose, ok)
	}

	// Vasopressin never converts to a weight-normalized unit.
	out2 := Convert(meds, relation.New(), "units/kg/min")
	if !out2.Rows[0].Get(ColMedDose).IsNull() {
		t.Fatalf("want null dose when target is weight-normalized for vasopressin")
	}
}
