package loader

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing a CSV timestamp cell.
// CLIF sites export in a handful of common shapes; none of them carry a
// format hint, so we try the candidates most to least specific.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ReadCSV streams path into a slice of T, matching columns by the "col"
// struct tag against the normalized (trimmed, lowercased) CSV header. A
// struct field is left at its zero value when the column is absent or the
// cell is empty, unless the field type requires a value (plain string,
// float64, or time.Time, as opposed to their pointer counterparts) — a
// missing required cell drops the row with a logged warning, mirroring the
// loader's advisory (non-fatal) stance on row-level problems (spec §7).
func ReadCSV[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 256*1024)
	if bom, err := br.Peek(3); err == nil && len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}

	r := csv.NewReader(br)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var zero T
	rt := reflect.TypeOf(zero)
	type fieldBinding struct {
		fieldIdx int
		colIdx   int
	}
	var bindings []fieldBinding
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag.Get("col")
		if tag == "" {
			continue
		}
		if ci, ok := colIdx[tag]; ok {
			bindings = append(bindings, fieldBinding{fieldIdx: i, colIdx: ci})
		}
	}

	var out []T
	rowNum := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, fmt.Errorf("%s: row %d: %w", path, rowNum, err)
		}
		rowNum++

		v := reflect.New(rt).Elem()
		ok := true
		for _, b := range bindings {
			if b.colIdx >= len(row) {
				continue
			}
			cell := strings.ToValidUTF8(strings.TrimSpace(row[b.colIdx]), "�")
			if !setField(v.Field(b.fieldIdx), cell) {
				ok = false
				break
			}
		}
		if !ok {
			logf("loader: %s row %d: required field missing or unparsable, dropping row", path, rowNum)
			continue
		}
		out = append(out, v.Interface().(T))
	}
	return out, nil
}

// setField assigns cell into field, reporting false when field has a
// non-pointer (required) type and cell can't be parsed into it.
func setField(field reflect.Value, cell string) bool {
	switch field.Kind() {
	case reflect.String:
		if cell == "" {
			return false
		}
		field.SetString(cell)
		return true

	case reflect.Float64:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return false
		}
		field.SetFloat(f)
		return true

	case reflect.Struct: // time.Time
		t, ok := parseTimestamp(cell)
		if !ok {
			return false
		}
		field.Set(reflect.ValueOf(t))
		return true

	case reflect.Ptr:
		if cell == "" {
			return true
		}
		switch field.Type().Elem().Kind() {
		case reflect.String:
			field.Set(reflect.ValueOf(&cell))
		case reflect.Float64:
			f, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return true // unparsable optional cell is dropped, not fatal
			}
			field.Set(reflect.ValueOf(&f))
		case reflect.Struct: // *time.Time
			t, ok := parseTimestamp(cell)
			if !ok {
				return true
			}
			field.Set(reflect.ValueOf(&t))
		}
		return true

	default:
		return true
	}
}
