package loader

import (
	"reflect"
	"time"

	"clif/internal/relation"
)

var timeType = reflect.TypeOf(time.Time{})

// ToTable converts a slice of typed CLIF rows into a relation.Table, using
// the "col" struct tag for column names — the bridge between the typed
// CSV/Parquet row structs and the hash-join/pivot engine the wide and
// hourly builders run against.
func ToTable[T any](rows []T) *relation.Table {
	var zero T
	rt := reflect.TypeOf(zero)

	type binding struct {
		fieldIdx int
		col      string
	}
	var bindings []binding
	var columns []string
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag.Get("col")
		if tag == "" {
			continue
		}
		bindings = append(bindings, binding{fieldIdx: i, col: tag})
		columns = append(columns, tag)
	}

	out := relation.New(columns...)
	for _, row := range rows {
		v := reflect.ValueOf(row)
		r := make(relation.Row, len(bindings))
		for _, b := range bindings {
			r[b.col] = fieldValue(v.Field(b.fieldIdx))
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

func fieldValue(f reflect.Value) relation.Value {
	switch {
	case f.Kind() == reflect.String:
		return relation.Text(f.String())
	case f.Kind() == reflect.Float64:
		return relation.Numeric(f.Float())
	case f.Type() == timeType:
		return relation.Timestamp(f.Interface().(time.Time))
	case f.Kind() == reflect.Ptr:
		if f.IsNil() {
			return relation.Null()
		}
		return fieldValue(f.Elem())
	default:
		return relation.Null()
	}
}
