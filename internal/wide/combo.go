package wide

import (
	"fmt"
	"time"

	"clif/internal/relation"
)

// comboIDFormat renders the minute-truncation invariant the combo_id
// scheme depends on (design notes §9): two timestamps that agree to the
// minute produce the same string even though they may carry distinct
// sub-minute precision.
const comboIDFormat = "200601021504"

// ComboID composes the join key spec §3/§4.1 defines:
// "{hospitalization_id}_{YYYYMMDDhhmm}".
func ComboID(hospitalizationID string, t time.Time) string {
	return fmt.Sprintf("%s_%s", hospitalizationID, t.Truncate(time.Minute).Format(comboIDFormat))
}

// withComboID returns a copy of source with a "combo_id" column computed
// from hospIDCol and tsCol on every row. Rows missing either value are
// dropped (timestamp-unresolved, spec §7).
func withComboID(source *relation.Table, hospIDCol, tsCol string) *relation.Table {
	out := relation.New(source.Columns...)
	out.AddNullColumn("combo_id")
	for _, r := range source.Rows {
		hospID, ok := r.Get(hospIDCol).Str()
		if !ok {
			continue
		}
		ts, ok := r.Get(tsCol).Time()
		if !ok {
			continue
		}
		nr := r.Clone()
		nr["combo_id"] = relation.Text(ComboID(hospID, ts))
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// resolveTimestampColumn returns the first candidate column on t that
// carries at least one non-null timestamp. The typed loaders materialize
// every declared column, so when no candidate carries a value it falls back
// to the first candidate present, or "" if none of the candidates exist.
func resolveTimestampColumn(t *relation.Table, candidates []string) string {
	first := ""
	for _, c := range candidates {
		if !t.HasColumn(c) {
			continue
		}
		if first == "" {
			first = c
		}
		for _, r := range t.Rows {
			if _, ok := r.Get(c).Time(); ok {
				return c
			}
		}
	}
	return first
}
