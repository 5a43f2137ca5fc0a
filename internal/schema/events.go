package schema

// EventSource names the timestamp-column fallback chain, category column,
// and value column a pivotable source uses, per spec §3/§4.1. Only labs
// documents more than one timestamp fallback (spec §4.1 step 3); the
// others carry a single candidate, per the implementer's note in §9 not to
// infer additional fallbacks the spec doesn't name.
type EventSource struct {
	Table                     string
	TimestampColumnCandidates []string
	CategoryColumn            string
	ValueColumn               string
}

// EventSources maps each pivotable optional table to its descriptor, for
// the wide builder's category_filters and pivoting.
var EventSources = map[string]EventSource{
	"vitals": {
		Table:                     "vitals",
		TimestampColumnCandidates: []string{"recorded_dttm"},
		CategoryColumn:            "vital_category",
		ValueColumn:               "vital_value",
	},
	"labs": {
		Table:                     "labs",
		TimestampColumnCandidates: []string{"lab_result_dttm", "lab_collect_dttm", "recorded_dttm", "lab_order_dttm"},
		CategoryColumn:            "lab_category",
		ValueColumn:               "lab_value_numeric",
	},
	"medication_admin_continuous": {
		Table:                     "medication_admin_continuous",
		TimestampColumnCandidates: []string{"admin_dttm"},
		CategoryColumn:            "med_category",
		ValueColumn:               "med_dose",
	},
	"patient_assessments": {
		Table:                     "patient_assessments",
		TimestampColumnCandidates: []string{"recorded_dttm"},
		CategoryColumn:            "assessment_category",
		ValueColumn:               "numerical_value",
	},
}

// RespiratorySupportTimestampColumn is the sole timestamp column for the
// category-free respiratory-support source.
const RespiratorySupportTimestampColumn = "recorded_dttm"

// ADTTimestampColumn is the event-time-contributing column on location
// transfers.
const ADTTimestampColumn = "in_dttm"

// OptionalTables is the closed set a cohort's optional_tables selection is
// validated against (spec §4.1 inputs).
var OptionalTables = []string{
	"vitals", "labs", "medication_admin_continuous", "patient_assessments", "respiratory_support",
}

// IsOptionalTable reports whether name is one of the five selectable
// optional event tables.
func IsOptionalTable(name string) bool {
	for _, t := range OptionalTables {
		if t == name {
			return true
		}
	}
	return false
}

// AssessmentAuxiliaryColumns names the two non-numeric assessment fields
// pivoted into auxiliary text-valued column sets (supplemented feature,
// SPEC_FULL.md "Assessment pivot dispatch").
var AssessmentAuxiliaryColumns = map[string]string{
	"categorical_value": "assessment_category",
	"text_value":        "assessment_category",
}
