// Package loader reads the CLIF hospital event tables from CSV or Parquet
// into relation.Table, validates them against the schema registry, and
// applies the ambient normalization (UTF-8/NFC text, timezone) every
// source needs before the wide and hourly builders can run.
package loader

import "time"

// Patient is the CLIF patient table (spec §3).
type Patient struct {
	PatientID string  `col:"patient_id" parquet:"patient_id"`
	SexCode   *string `col:"sex_category" parquet:"sex_category,optional"`
	RaceCode  *string `col:"race_category" parquet:"race_category,optional"`
	Ethnicity *string `col:"ethnicity_category" parquet:"ethnicity_category,optional"`
}

// Hospitalization is the CLIF hospitalization table (spec §3).
type Hospitalization struct {
	HospitalizationID string     `col:"hospitalization_id" parquet:"hospitalization_id"`
	PatientID         string     `col:"patient_id" parquet:"patient_id"`
	AdmissionDttm     time.Time  `col:"admission_dttm" parquet:"admission_dttm"`
	DischargeDttm     *time.Time `col:"discharge_dttm" parquet:"discharge_dttm,optional"`
	AgeAtAdmission    *float64   `col:"age_at_admission" parquet:"age_at_admission,optional"`
}

// ADT is the CLIF adt (location transfer) table (spec §3).
type ADT struct {
	HospitalizationID string     `col:"hospitalization_id" parquet:"hospitalization_id"`
	InDttm            time.Time  `col:"in_dttm" parquet:"in_dttm"`
	OutDttm           *time.Time `col:"out_dttm" parquet:"out_dttm,optional"`
	LocationCategory  string     `col:"location_category" parquet:"location_category"`
}

// Vital is the CLIF vitals table (spec §3).
type Vital struct {
	HospitalizationID string    `col:"hospitalization_id" parquet:"hospitalization_id"`
	RecordedDttm      time.Time `col:"recorded_dttm" parquet:"recorded_dttm"`
	VitalCategory     string    `col:"vital_category" parquet:"vital_category"`
	VitalValue        *float64  `col:"vital_value" parquet:"vital_value,optional"`
}

// Lab is the CLIF labs table (spec §3). Exactly one of the four timestamp
// columns is expected to be populated per source system.
type Lab struct {
	HospitalizationID string     `col:"hospitalization_id" parquet:"hospitalization_id"`
	LabResultDttm     *time.Time `col:"lab_result_dttm" parquet:"lab_result_dttm,optional"`
	LabCollectDttm    *time.Time `col:"lab_collect_dttm" parquet:"lab_collect_dttm,optional"`
	RecordedDttm      *time.Time `col:"recorded_dttm" parquet:"recorded_dttm,optional"`
	LabOrderDttm      *time.Time `col:"lab_order_dttm" parquet:"lab_order_dttm,optional"`
	LabCategory       string     `col:"lab_category" parquet:"lab_category"`
	LabValue          *float64   `col:"lab_value_numeric" parquet:"lab_value_numeric,optional"`
}

// MedicationContinuous is the CLIF medication_admin_continuous table
// (spec §3), the only source the vasopressor unit converter consumes.
type MedicationContinuous struct {
	HospitalizationID string    `col:"hospitalization_id" parquet:"hospitalization_id"`
	AdminDttm         time.Time `col:"admin_dttm" parquet:"admin_dttm"`
	MedCategory       string    `col:"med_category" parquet:"med_category"`
	MedDose           *float64  `col:"med_dose" parquet:"med_dose,optional"`
	MedDoseUnit       *string   `col:"med_dose_unit" parquet:"med_dose_unit,optional"`
}

// Assessment is the CLIF patient_assessments table (spec §3 / supplemented
// features: numerical_value feeds the primary pivot, categorical_value and
// text_value feed the auxiliary "<category>_text" columns).
type Assessment struct {
	HospitalizationID string    `col:"hospitalization_id" parquet:"hospitalization_id"`
	RecordedDttm      time.Time `col:"recorded_dttm" parquet:"recorded_dttm"`
	AssessmentCategory string   `col:"assessment_category" parquet:"assessment_category"`
	NumericalValue    *float64  `col:"numerical_value" parquet:"numerical_value,optional"`
	CategoricalValue  *string   `col:"categorical_value" parquet:"categorical_value,optional"`
	TextValue         *string   `col:"text_value" parquet:"text_value,optional"`
}

// RespiratorySupport is the CLIF respiratory_support table (spec §3). It is
// never pivoted — every column is carried through first-wins on combo_id.
type RespiratorySupport struct {
	HospitalizationID string    `col:"hospitalization_id" parquet:"hospitalization_id"`
	RecordedDttm      time.Time `col:"recorded_dttm" parquet:"recorded_dttm"`
	DeviceCategory    *string   `col:"device_category" parquet:"device_category,optional"`
	ModeCategory      *string   `col:"mode_category" parquet:"mode_category,optional"`
	FIO2Set           *float64  `col:"fio2_set" parquet:"fio2_set,optional"`
	PEEPSet           *float64  `col:"peep_set" parquet:"peep_set,optional"`
}

// TableName identifies a loadable CLIF table, matching schema.Registry keys.
type TableName string

const (
	TablePatient              TableName = "patient"
	TableHospitalization      TableName = "hospitalization"
	TableADT                  TableName = "adt"
	TableVitals               TableName = "vitals"
	TableLabs                 TableName = "labs"
	TableMedicationContinuous TableName = "medication_admin_continuous"
	TableAssessments          TableName = "patient_assessments"
	TableRespiratorySupport   TableName = "respiratory_support"
)
