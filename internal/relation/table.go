package relation

import (
	"sort"
	"strconv"
)

// Row is one record, keyed by column name. Absent keys are equivalent to
// an explicit Null() — callers should use Get rather than indexing the map
// directly when a column may be missing from some rows.
type Row map[string]Value

// Get returns row[col], or Null() if the column is absent.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return Null()
}

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered set of rows over a named column schema. Column order
// is maintained for deterministic output (ghost columns, one-hot unions,
// carry-forward columns all depend on stable iteration order).
type Table struct {
	Columns []string
	Rows    []Row

	colSet map[string]bool
}

// New returns an empty table with the given initial column order.
func New(columns ...string) *Table {
	t := &Table{colSet: make(map[string]bool, len(columns))}
	for _, c := range columns {
		t.addColumn(c)
	}
	return t
}

func (t *Table) addColumn(name string) {
	if t.colSet == nil {
		t.colSet = make(map[string]bool)
	}
	if t.colSet[name] {
		return
	}
	t.colSet[name] = true
	t.Columns = append(t.Columns, name)
}

// HasColumn reports whether name is part of the table's schema.
func (t *Table) HasColumn(name string) bool {
	return t.colSet[name]
}

// AddRow appends row, registering any new columns it introduces.
func (t *Table) AddRow(row Row) {
	for k := range row {
		t.addColumn(k)
	}
	t.Rows = append(t.Rows, row)
}

// AddNullColumn registers name as a column (if absent) without touching
// any row — used for ghost columns (spec §4.1 step 9) and for one-hot
// columns that must appear on every row even where no group set them.
func (t *Table) AddNullColumn(name string) {
	t.addColumn(name)
}

// Project returns a new table retaining only the named columns (in the
// order given), dropping the rest. Columns named that don't exist on t are
// silently skipped — callers are expected to have already warned.
func (t *Table) Project(columns []string) *Table {
	out := New()
	for _, c := range columns {
		if t.HasColumn(c) {
			out.addColumn(c)
		}
	}
	for _, r := range t.Rows {
		nr := make(Row, len(out.Columns))
		for _, c := range out.Columns {
			if v, ok := r[c]; ok {
				nr[c] = v
			}
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// SortBy stable-sorts rows by the given key function (ascending).
func (t *Table) SortBy(less func(a, b Row) bool) {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return less(t.Rows[i], t.Rows[j])
	})
}

// DistinctStrings returns the sorted set of distinct non-null string values
// of column col across all rows.
func (t *Table) DistinctStrings(col string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range t.Rows {
		s, ok := r.Get(col).Str()
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
