// Package schema holds the static table descriptors the loader and
// validator consult: column names, semantic types, required-ness,
// categorical enums, and (for vitals) units/ranges. These are data, not
// logic — the registry never touches a file or a row.
package schema

// DataType is the semantic type of a column, independent of how it is
// physically stored in a CSV or Parquet file.
type DataType string

const (
	TypeVarchar  DataType = "VARCHAR"
	TypeDatetime DataType = "DATETIME"
	TypeDouble   DataType = "DOUBLE"
	TypeInteger  DataType = "INTEGER"
	TypeBoolean  DataType = "BOOLEAN"
)

// ColumnDescriptor describes one column of one table.
type ColumnDescriptor struct {
	Name              string
	DataType          DataType
	Required          bool
	IsCategoryColumn  bool
	IsGroupColumn     bool
	PermissibleValues []string // non-empty only for categorical columns with a closed enum
}

// TableDescriptor is the keyed record §6 specifies for a table's
// descriptor file: columns plus derived required/category/group lists and,
// for vitals, the unit and numeric-range maps.
type TableDescriptor struct {
	TableName       string
	Columns         []ColumnDescriptor
	RequiredColumns []string
	CategoryColumns []string
	GroupColumns    []string

	// Vitals-only.
	VitalUnits  map[string]string
	VitalRanges map[string][2]float64
}

// ColumnNames returns the descriptor's column names in declaration order.
func (d *TableDescriptor) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the descriptor for name, or nil if name isn't declared.
func (d *TableDescriptor) Column(name string) *ColumnDescriptor {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i]
		}
	}
	return nil
}

func derive(cols []ColumnDescriptor) (required, category, group []string) {
	for _, c := range cols {
		if c.Required {
			required = append(required, c.Name)
		}
		if c.IsCategoryColumn {
			category = append(category, c.Name)
		}
		if c.IsGroupColumn {
			group = append(group, c.Name)
		}
	}
	return
}

func table(name string, cols []ColumnDescriptor) *TableDescriptor {
	req, cat, grp := derive(cols)
	return &TableDescriptor{
		TableName:       name,
		Columns:         cols,
		RequiredColumns: req,
		CategoryColumns: cat,
		GroupColumns:    grp,
	}
}

// Registry is the keyed set of every table descriptor this module knows
// about, populated at init time — equivalent to the table_descriptor files
// §6 specifies, just compiled in rather than read off disk.
var Registry = map[string]*TableDescriptor{
	"patient":                     patientDescriptor(),
	"hospitalization":             hospitalizationDescriptor(),
	"adt":                         adtDescriptor(),
	"vitals":                      vitalsDescriptor(),
	"labs":                        labsDescriptor(),
	"medication_admin_continuous": medicationContinuousDescriptor(),
	"patient_assessments":         patientAssessmentsDescriptor(),
	"respiratory_support":         respiratorySupportDescriptor(),
}

// Lookup returns the descriptor for tableName, if known.
func Lookup(tableName string) (*TableDescriptor, bool) {
	d, ok := Registry[tableName]
	return d, ok
}

func patientDescriptor() *TableDescriptor {
	return table("patient", []ColumnDescriptor{
		{Name: "patient_id", DataType: TypeVarchar, Required: true, IsGroupColumn: true},
		{Name: "sex_category", DataType: TypeVarchar, IsCategoryColumn: true,
			PermissibleValues: []string{"male", "female", "unknown"}},
		{Name: "race_category", DataType: TypeVarchar, IsCategoryColumn: true},
		{Name: "ethnicity_category", DataType: TypeVarchar, IsCategoryColumn: true},
		{Name: "birth_date", DataType: TypeDatetime},
		{Name: "death_dttm", DataType: TypeDatetime},
	})
}

func hospitalizationDescriptor() *TableDescriptor {
	return table("hospitalization", []ColumnDescriptor{
		{Name: "hospitalization_id", DataType: TypeVarchar, Required: true, IsGroupColumn: true},
		{Name: "patient_id", DataType: TypeVarchar, Required: true, IsGroupColumn: true},
		{Name: "admission_dttm", DataType: TypeDatetime, Required: true},
		{Name: "discharge_dttm", DataType: TypeDatetime},
		{Name: "age_at_admission", DataType: TypeDouble},
		{Name: "discharge_category", DataType: TypeVarchar, IsCategoryColumn: true},
	})
}

func adtDescriptor() *TableDescriptor {
	return table("adt", []ColumnDescriptor{
		{Name: "hospitalization_id", DataType: TypeVarchar, Required: true, IsGroupColumn: true},
		{Name: "in_dttm", DataType: TypeDatetime, Required: true},
		{Name: "out_dttm", DataType: TypeDatetime},
		{Name: "location_category", DataType: TypeVarchar, Required: true, IsCategoryColumn: true,
			PermissibleValues: []string{"icu", "ward", "ed", "procedural", "stepdown", "other"}},
	})
}

func vitalsDescriptor() *TableDescriptor {
	d := table("vitals", []ColumnDescriptor{
		{Name: "hospitalization_id", DataType: TypeVarchar, Required: true, IsGroupColumn: true},
		{Name: "recorded_dttm", DataType: TypeDatetime, Required: true},
		{Name: "vital_category", DataType: TypeVarchar, Required: true, IsCategoryColumn: true,
			PermissibleValues: []string{
				"heart_rate", "sbp", "dbp", "map", "respiratory_rate",
				"spo2", "temp_c", "weight_kg", "height_cm",
			}},
		{Name: "vital_value", DataType: TypeDouble},
	})
	d.VitalUnits = map[string]string{
		"heart_rate": "beats/min", "sbp": "mmHg", "dbp": "mmHg", "map": "mmHg",
		"respiratory_rate": "breaths/min", "spo2": "%", "temp_c": "deg_C",
		"weight_kg": "kg", "height_cm": "cm",
	}
	d.VitalRanges = map[string][2]float64{
		"heart_rate": {0, 300}, "sbp": {0, 300}, "dbp": {0, 250}, "map": {0, 250},
		"respiratory_rate": {0, 80}, "spo2": {0, 100}, "temp_c": {25, 45},
		"weight_kg": {0, 500}, "height_cm": {20, 250},
	}
	return d
}

func labsDescriptor() *TableDescriptor {
	return table("labs", []ColumnDescriptor{
		{Name: "hospitalization_id", DataType: TypeVarchar, Required: true, IsGroupColumn: true},
		{Name: "lab_result_dttm", DataType: TypeDatetime},
		{Name: "lab_collect_dttm", DataType: TypeDatetime},
		{Name: "recorded_dttm", DataType: TypeDatetime},
		{Name: "lab_order_dttm", DataType: TypeDatetime},
		{Name: "lab_category", DataType: TypeVarchar, Required: true, IsCategoryColumn: true,
			PermissibleValues: []string{
				"sodium", "potassium", "chloride", "bicarbonate", "creatinine",
				"bun", "glucose", "hemoglobin", "hematocrit", "platelet_count",
				"wbc", "lactate", "ph_arterial", "pco2_arterial", "po2_arterial",
			}},
		{Name: "lab_value_numeric", DataType: TypeDouble},
	})
}

func medicationContinuousDescriptor() *TableDescriptor {
	return table("medication_admin_continuous", []ColumnDescriptor{
		{Name: "hospitalization_id", DataType: TypeVarchar, Required: true, IsGroupColumn: true},
		{Name: "admin_dttm", DataType: TypeDatetime, Required: true},
		{Name: "med_category", DataType: TypeVarchar, Required: true, IsCategoryColumn: true,
			PermissibleValues: []string{
				"norepinephrine", "epinephrine", "dopamine", "dobutamine",
				"phenylephrine", "vasopressin", "angiotensin_ii", "isoproterenol",
				"milrinone",
			}},
		{Name: "med_dose", DataType: TypeDouble},
		{Name: "med_dose_unit", DataType: TypeVarchar, IsCategoryColumn: true},
	})
}

func patientAssessmentsDescriptor() *TableDescriptor {
	return table("patient_assessments", []ColumnDescriptor{
		{Name: "hospitalization_id", DataType: TypeVarchar, Required: true, IsGroupColumn: true},
		{Name: "recorded_dttm", DataType: TypeDatetime, Required: true},
		{Name: "assessment_category", DataType: TypeVarchar, Required: true, IsCategoryColumn: true,
			PermissibleValues: []string{"gcs_total", "rass", "cam_icu", "braden_total", "cpot"}},
		{Name: "numerical_value", DataType: TypeDouble},
		{Name: "categorical_value", DataType: TypeVarchar},
		{Name: "text_value", DataType: TypeVarchar},
	})
}

func respiratorySupportDescriptor() *TableDescriptor {
	return table("respiratory_support", []ColumnDescriptor{
		{Name: "hospitalization_id", DataType: TypeVarchar, Required: true, IsGroupColumn: true},
		{Name: "recorded_dttm", DataType: TypeDatetime, Required: true},
		{Name: "device_category", DataType: TypeVarchar, IsCategoryColumn: true,
			PermissibleValues: []string{"vent", "nippv", "high_flow_nc", "face_mask", "room_air"}},
		{Name: "mode_category", DataType: TypeVarchar, IsCategoryColumn: true},
		{Name: "fio2_set", DataType: TypeDouble},
		{Name: "peep_set", DataType: TypeDouble},
		{Name: "tidal_volume_set", DataType: TypeDouble},
		{Name: "respiratory_rate_set", DataType: TypeDouble},
		{Name: "respiratory_rate_obs", DataType: TypeDouble},
		{Name: "peak_insp_pressure_obs", DataType: TypeDouble},
	})
}
