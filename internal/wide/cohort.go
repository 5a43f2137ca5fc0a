package wide

import (
	"math/rand"

	"clif/internal/relation"
)

// CohortMode selects how hospitalization_ids are resolved into a cohort
// (spec §4.1 inputs: exactly one mode).
type CohortMode int

const (
	// CohortExplicit restricts to Selector.IDs.
	CohortExplicit CohortMode = iota
	// CohortRandomSample draws up to 20 ids uniformly without replacement.
	CohortRandomSample
	// CohortAll keeps every hospitalization id present in the input.
	CohortAll
)

// MaxRandomSample is the cap on a random-sample cohort (spec §4.1).
const MaxRandomSample = 20

// CohortSelector picks exactly one resolution mode.
type CohortSelector struct {
	Mode CohortMode
	IDs  []string // CohortExplicit only
	Rand *rand.Rand // CohortRandomSample only; nil uses the package-level default source
}

// ResolveCohort returns the set of hospitalization_ids selected out of
// hospitalizations, per Selector.Mode.
func ResolveCohort(hospitalizations *relation.Table, sel CohortSelector) map[string]bool {
	all := hospitalizations.DistinctStrings("hospitalization_id")

	switch sel.Mode {
	case CohortExplicit:
		want := make(map[string]bool, len(sel.IDs))
		for _, id := range sel.IDs {
			want[id] = true
		}
		out := make(map[string]bool)
		for _, id := range all {
			if want[id] {
				out[id] = true
			}
		}
		return out

	case CohortRandomSample:
		shuffle := rand.Shuffle
		if sel.Rand != nil {
			shuffle = sel.Rand.Shuffle
		}
		shuffled := append([]string(nil), all...)
		shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		n := MaxRandomSample
		if n > len(shuffled) {
			n = len(shuffled)
		}
		out := make(map[string]bool, n)
		for _, id := range shuffled[:n] {
			out[id] = true
		}
		return out

	default: // CohortAll
		out := make(map[string]bool, len(all))
		for _, id := range all {
			out[id] = true
		}
		return out
	}
}

// FilterByHospitalization returns the subset of t's rows whose
// hospitalization_id is in cohort.
func FilterByHospitalization(t *relation.Table, cohort map[string]bool) *relation.Table {
	out := relation.New(t.Columns...)
	for _, r := range t.Rows {
		id, _ := r.Get("hospitalization_id").Str()
		if cohort[id] {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
