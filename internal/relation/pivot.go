package relation

// Pivot projects (keyCol, categoryCol, valueCol) from source, restricts to
// categories (nil/empty means keep all distinct categories present), and
// pivots on categoryCol: the result has one row per distinct keyCol value
// and one column per distinct category, holding that category's value.
//
// Multiple source rows sharing (keyCol, categoryCol) collapse onto a single
// cell by first-wins: the first value encountered in source.Rows order is
// kept and later ones are discarded. Implementations using hashed pivots
// must seed this order explicitly — here that's simply source row order,
// which the loader is responsible for keeping stable (first-wins pivots,
// design notes §9).
//
// Returns nil if, after filtering, no rows remain (pivot-empty, spec §7).
func Pivot(source *Table, keyCol, categoryCol, valueCol string, categories []string) *Table {
	var allow map[string]bool
	if len(categories) > 0 {
		allow = make(map[string]bool, len(categories))
		for _, c := range categories {
			allow[c] = true
		}
	}

	type cellKey struct{ key, category string }
	seen := make(map[cellKey]bool)
	rowOf := make(map[string]Row)
	var keyOrder []string
	var categoryOrder []string
	categorySeen := make(map[string]bool)

	for _, r := range source.Rows {
		cat, ok := r.Get(categoryCol).Str()
		if !ok {
			continue
		}
		if allow != nil && !allow[cat] {
			continue
		}
		key := r.Get(keyCol).AsKey()
		if key == "" {
			continue
		}
		ck := cellKey{key, cat}
		if seen[ck] {
			continue
		}
		seen[ck] = true

		row, ok := rowOf[key]
		if !ok {
			row = Row{keyCol: r.Get(keyCol)}
			rowOf[key] = row
			keyOrder = append(keyOrder, key)
		}
		row[cat] = r.Get(valueCol)

		if !categorySeen[cat] {
			categorySeen[cat] = true
			categoryOrder = append(categoryOrder, cat)
		}
	}

	if len(keyOrder) == 0 {
		return nil
	}

	out := New(keyCol)
	for _, c := range categoryOrder {
		out.addColumn(c)
	}
	for _, k := range keyOrder {
		out.Rows = append(out.Rows, rowOf[k])
	}
	return out
}
