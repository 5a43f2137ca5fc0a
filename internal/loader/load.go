package loader

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"clif/internal/relation"
	"clif/internal/schema"
)

// Format names the on-disk encoding of a source file.
type Format int

const (
	FormatCSV Format = iota
	FormatParquet
)

// Spec names one table to load, grounded on the teacher's single-file,
// single-format-per-run loaders generalized to this module's eight tables
// and two supported encodings.
type Spec struct {
	Table  TableName
	Path   string
	Format Format
}

// Result is one table's load outcome.
type Result struct {
	Table      TableName
	Data       *relation.Table
	Validation *ValidationReport
}

// LoadAll loads every spec concurrently (golang.org/x/sync/errgroup,
// bounding one goroutine per table since there are only eight), converting
// every source timestamp from siteTZ into targetTZ and every categorical
// text value to NFC — the ambient normalization every source needs before
// the wide and hourly builders run. A nil siteTZ or targetTZ skips the
// timezone conversion entirely.
func LoadAll(ctx context.Context, specs []Spec, siteTZ, targetTZ *time.Location) ([]Result, error) {
	results := make([]Result, len(specs))

	g, ctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			t, err := loadOne(spec)
			if err != nil {
				return fmt.Errorf("load %s: %w", spec.Table, err)
			}
			normalizeText(t, string(spec.Table))
			convertTimezone(t, string(spec.Table), siteTZ, targetTZ)
			results[i] = Result{
				Table:      spec.Table,
				Data:       t,
				Validation: Validate(string(spec.Table), t),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func loadOne(spec Spec) (*relation.Table, error) {
	switch spec.Table {
	case TablePatient:
		return loadTyped[Patient](spec)
	case TableHospitalization:
		return loadTyped[Hospitalization](spec)
	case TableADT:
		return loadTyped[ADT](spec)
	case TableVitals:
		return loadTyped[Vital](spec)
	case TableLabs:
		return loadTyped[Lab](spec)
	case TableMedicationContinuous:
		return loadTyped[MedicationContinuous](spec)
	case TableAssessments:
		return loadTyped[Assessment](spec)
	case TableRespiratorySupport:
		return loadTyped[RespiratorySupport](spec)
	default:
		return nil, fmt.Errorf("unrecognized table %q", spec.Table)
	}
}

func loadTyped[T any](spec Spec) (*relation.Table, error) {
	var rows []T
	var err error
	switch spec.Format {
	case FormatCSV:
		rows, err = ReadCSV[T](spec.Path)
	case FormatParquet:
		rows, err = ReadParquet[T](spec.Path)
	default:
		return nil, fmt.Errorf("unrecognized format for %s", spec.Path)
	}
	if err != nil {
		return nil, err
	}
	return ToTable(rows), nil
}

// normalizeText applies Unicode NFC normalization to every categorical
// text value, per tableName's descriptor — sites export in whatever
// normal form their source EHR happens to emit, and combo_id/pivot keys
// must compare equal across sources.
func normalizeText(t *relation.Table, tableName string) {
	desc, ok := schema.Lookup(tableName)
	if !ok {
		return
	}
	for _, col := range desc.CategoryColumns {
		if !t.HasColumn(col) {
			continue
		}
		for _, row := range t.Rows {
			s, ok := row.Get(col).Str()
			if !ok {
				continue
			}
			row[col] = relation.Text(norm.NFC.String(s))
		}
	}
}

// convertTimezone re-bases every datetime column from siteTZ to targetTZ.
func convertTimezone(t *relation.Table, tableName string, siteTZ, targetTZ *time.Location) {
	if siteTZ == nil || targetTZ == nil {
		return
	}
	desc, ok := schema.Lookup(tableName)
	if !ok {
		return
	}
	for _, col := range desc.Columns {
		if col.DataType != schema.TypeDatetime || !t.HasColumn(col.Name) {
			continue
		}
		for _, row := range t.Rows {
			ts, ok := row.Get(col.Name).Time()
			if !ok {
				continue
			}
			local := time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), siteTZ)
			row[col.Name] = relation.Timestamp(local.In(targetTZ))
		}
	}
}
