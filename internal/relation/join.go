package relation

// MergeOpts controls Merge's join semantics.
type MergeOpts struct {
	// Inner drops driver rows with no matching lookup row. When false
	// (left-outer), unmatched driver rows are kept with lookup's columns
	// set to null.
	Inner bool
}

// Merge attaches lookup's columns (minus lookupKey) onto each row of
// driver by equality on driverKey == lookupKey, using first-match when
// lookup carries duplicate keys (callers are expected to have already
// deduplicated lookup on its key, e.g. a pivot or a first-wins table).
//
// This single hash-join shape covers every join in the wide builder: the
// base patient⋈hospitalization join (Inner: true), the expansion join that
// attaches demographics onto the event-time union (Inner: false), and the
// attribute joins that attach ADT/pivoted-source/respiratory-support
// columns onto the expanded event rows (Inner: false).
func Merge(driver *Table, driverKey string, lookup *Table, lookupKey string, opts MergeOpts) *Table {
	index := make(map[string]Row, len(lookup.Rows))
	for _, r := range lookup.Rows {
		k := r.Get(lookupKey).AsKey()
		if _, exists := index[k]; exists {
			continue // first-wins on duplicate lookup keys
		}
		index[k] = r
	}

	out := New(driver.Columns...)
	for _, c := range lookup.Columns {
		if c == lookupKey {
			continue
		}
		out.addColumn(c)
	}

	for _, dr := range driver.Rows {
		k := dr.Get(driverKey).AsKey()
		lr, found := index[k]
		if !found && opts.Inner {
			continue
		}

		merged := dr.Clone()
		for _, c := range lookup.Columns {
			if c == lookupKey {
				continue
			}
			if found {
				merged[c] = lr.Get(c)
			} else if _, ok := merged[c]; !ok {
				merged[c] = Null()
			}
		}
		out.Rows = append(out.Rows, merged)
	}
	return out
}
