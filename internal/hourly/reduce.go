package hourly

import (
	"regexp"
	"sort"

	"clif/internal/relation"
)

var sanitizeRe = regexp.MustCompile(`[^A-Za-z0-9_]`)

// sanitizeValue renders a one-hot category value safe for use in a column
// name (spec §4.2: "sanitized to [A-Za-z0-9_]").
func sanitizeValue(s string) string {
	return sanitizeRe.ReplaceAllString(s, "_")
}

func numericValues(rows []relation.Row, col string) []float64 {
	var out []float64
	for _, r := range rows {
		if f, ok := r.Get(col).Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func reduceMax(rows []relation.Row, col string) relation.Value {
	vals := numericValues(rows, col)
	if len(vals) == 0 {
		return relation.Null()
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return relation.Numeric(m)
}

func reduceMin(rows []relation.Row, col string) relation.Value {
	vals := numericValues(rows, col)
	if len(vals) == 0 {
		return relation.Null()
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return relation.Numeric(m)
}

func reduceMean(rows []relation.Row, col string) relation.Value {
	vals := numericValues(rows, col)
	if len(vals) == 0 {
		return relation.Null()
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return relation.Numeric(sum / float64(len(vals)))
}

func reduceMedian(rows []relation.Row, col string) relation.Value {
	vals := numericValues(rows, col)
	if len(vals) == 0 {
		return relation.Null()
	}
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return relation.Numeric(vals[n/2])
	}
	return relation.Numeric((vals[n/2-1] + vals[n/2]) / 2)
}

func reduceFirst(rows []relation.Row, col string) relation.Value {
	for _, r := range rows {
		if v := r.Get(col); !v.IsNull() {
			return v
		}
	}
	return relation.Null()
}

func reduceLast(rows []relation.Row, col string) relation.Value {
	last := relation.Null()
	for _, r := range rows {
		if v := r.Get(col); !v.IsNull() {
			last = v
		}
	}
	return last
}

func reduceBoolean(rows []relation.Row, col string) relation.Value {
	for _, r := range rows {
		if !r.Get(col).IsNull() {
			return relation.Numeric(1)
		}
	}
	return relation.Numeric(0)
}

// distinctNonNullKeys returns the sorted set of distinct non-null values of
// col across rows, rendered via Value.AsKey — used to size the one-hot
// column union up front (spec §4.2 step 7).
func distinctNonNullKeys(rows []relation.Row, col string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rows {
		v := r.Get(col)
		if v.IsNull() {
			continue
		}
		k := v.AsKey()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
