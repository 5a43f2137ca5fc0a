package loader

import (
	"fmt"

	"clif/internal/relation"
	"clif/internal/schema"
)

// ValidationReport collects the advisory (non-fatal) problems found while
// checking a loaded table against its schema.Registry descriptor (spec §7):
// missing required columns/values, out-of-enum categoricals, and
// out-of-range vitals.
type ValidationReport struct {
	Errors      []string
	RangeErrors []string
}

func (r *ValidationReport) OK() bool {
	return len(r.Errors) == 0 && len(r.RangeErrors) == 0
}

func (r *ValidationReport) addError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationReport) addRangeError(format string, args ...interface{}) {
	r.RangeErrors = append(r.RangeErrors, fmt.Sprintf(format, args...))
}

// Validate checks t against tableName's descriptor and returns a report.
// Validation never drops rows or mutates t — it only describes what it
// found, the way a loader's diagnostic pass should (spec §7's conditions
// are all advisory for the loader itself; callers decide what to do with a
// non-OK report).
func Validate(tableName string, t *relation.Table) *ValidationReport {
	report := &ValidationReport{}
	desc, ok := schema.Lookup(tableName)
	if !ok {
		report.addError("%s: no schema descriptor registered", tableName)
		return report
	}

	for _, col := range desc.RequiredColumns {
		if !t.HasColumn(col) {
			report.addError("%s: missing required column %q", tableName, col)
			continue
		}
		for i, row := range t.Rows {
			if row.Get(col).IsNull() {
				report.addError("%s: row %d missing required value for %q", tableName, i, col)
			}
		}
	}

	for _, col := range desc.CategoryColumns {
		cd := desc.Column(col)
		if cd == nil || len(cd.PermissibleValues) == 0 || !t.HasColumn(col) {
			continue
		}
		allowed := make(map[string]bool, len(cd.PermissibleValues))
		for _, v := range cd.PermissibleValues {
			allowed[v] = true
		}
		for i, row := range t.Rows {
			v := row.Get(col)
			if v.IsNull() {
				continue
			}
			s, _ := v.Str()
			if !allowed[s] {
				report.addError("%s: row %d has %q=%q outside the permissible enum", tableName, i, col, s)
			}
		}
	}

	if desc.VitalRanges != nil && t.HasColumn("vital_category") && t.HasColumn("vital_value") {
		for i, row := range t.Rows {
			cat, ok := row.Get("vital_category").Str()
			if !ok {
				continue
			}
			bounds, ok := desc.VitalRanges[cat]
			if !ok {
				continue
			}
			val, ok := row.Get("vital_value").Float()
			if !ok {
				continue
			}
			if val < bounds[0] || val > bounds[1] {
				report.addRangeError("%s: row %d vital_value=%v for %q outside [%v, %v]",
					tableName, i, val, cat, bounds[0], bounds[1])
			}
		}
	}

	return report
}
