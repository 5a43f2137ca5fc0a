// Package wide implements the wide-dataset builder (spec §4.1): the
// event-time union across heterogeneous sources, the per-source pivot on a
// shared combo_id, and the attribute joins that assemble one row per
// (hospitalization_id, event_time).
package wide

import (
	"errors"
	"log"
	"sort"
	"time"

	"clif/internal/relation"
	"clif/internal/schema"
)

// logf is the warning sink for missing-source, missing-column,
// timestamp-unresolved, and pivot-empty conditions (spec §7) — all
// advisory, never fatal. Tests may swap this out to assert on emitted
// warnings.
var logf = log.Printf

// ErrMissingBaseTable is fatal per spec §7: patient and hospitalization are
// required base tables.
var ErrMissingBaseTable = errors.New("wide: patient and hospitalization are required base tables")

// Inputs are the pre-loaded tables Build consumes. Optional carries
// whichever of the five optional tables the caller was able to load —
// Build only pivots/joins the ones also named in Config.OptionalTables.
type Inputs struct {
	Patient         *relation.Table
	Hospitalization *relation.Table
	ADT             *relation.Table
	Optional        map[string]*relation.Table
}

// Config is build_wide's input configuration (spec §4.1 "Inputs").
type Config struct {
	OptionalTables   []string
	CategoryFilters  map[string][]string
	Cohort           CohortSelector
	BaseTableColumns map[string][]string // "patient" | "hospitalization" -> column subset; an "adt" entry is not applied
}

// identityColumns are always re-added to a base-table column subset even
// if the caller omitted them (spec §4.1 inputs).
var identityColumns = map[string][]string{
	"patient":         {"patient_id"},
	"hospitalization": {"hospitalization_id", "patient_id"},
	"adt":             {"hospitalization_id"},
}

// Build runs the wide-dataset builder algorithm (spec §4.1 steps 1-10) and
// returns the long-form event table.
func Build(in Inputs, cfg Config) (*relation.Table, error) {
	if in.Patient == nil || in.Hospitalization == nil {
		return nil, ErrMissingBaseTable
	}

	registry := relation.NewRegistry()
	defer registry.ReleaseAll()

	selectedOptional := map[string]bool{}
	for _, t := range cfg.OptionalTables {
		if schema.IsOptionalTable(t) {
			selectedOptional[t] = true
		} else {
			logf("wide: %q is not a recognized optional table, ignoring", t)
		}
	}

	// --- step 1: cohort resolution ---
	cohort := ResolveCohort(in.Hospitalization, cfg.Cohort)
	hospitalizations := FilterByHospitalization(in.Hospitalization, cohort)
	registry.Register("hospitalizations", hospitalizations)

	// ADT (location transfers) is a base table consumed regardless of the
	// optional_tables selection.
	var adt *relation.Table
	if in.ADT != nil {
		adt = FilterByHospitalization(in.ADT, cohort)
	} else {
		logf("wide: location transfers not loaded; skipping")
		adt = relation.New("hospitalization_id", "in_dttm", "out_dttm", "location_category")
	}
	registry.Register("adt", adt)

	optional := map[string]*relation.Table{}
	for name := range selectedOptional {
		t, ok := in.Optional[name]
		if !ok || t == nil {
			logf("wide: optional table %q was selected but not loaded; skipping", name)
			continue
		}
		optional[name] = FilterByHospitalization(t, cohort)
	}

	// --- step 2: base join ---
	patientSub := applyColumnSubset(in.Patient, "patient", cfg.BaseTableColumns)
	hospSub := applyColumnSubset(hospitalizations, "hospitalization", cfg.BaseTableColumns)
	baseCohort := relation.Merge(hospSub, "patient_id", patientSub, "patient_id", relation.MergeOpts{Inner: true})
	registry.Register("base_cohort", baseCohort)

	// --- step 3+4: event-time union across ADT + selected optional sources ---
	eventUnion := buildEventTimeUnion(adt, optional, selectedOptional)
	registry.Register("event_union", eventUnion)

	// --- step 5: per-source pivot ---
	pivots := map[string]*relation.Table{}
	for name := range selectedOptional {
		src, ok := optional[name]
		if !ok {
			continue
		}
		p := pivotSource(name, src, cfg.CategoryFilters[name])
		if p != nil {
			registry.Register("pivot_"+name, p)
		}
		pivots[name] = p // may be nil (pivot-empty)
	}

	// --- step 6: expansion ---
	expanded := relation.Merge(eventUnion, "hospitalization_id", baseCohort, "hospitalization_id", relation.MergeOpts{})
	registry.Register("expanded", expanded)

	// --- step 7: attribute joins ---
	adtView := adtComboView(adt)
	if adtView != nil {
		expanded = relation.Merge(expanded, "combo_id", adtView, "combo_id", relation.MergeOpts{})
	}
	for _, name := range schema.OptionalTables {
		if name == "respiratory_support" {
			continue
		}
		if p := pivots[name]; p != nil {
			expanded = relation.Merge(expanded, "combo_id", p, "combo_id", relation.MergeOpts{})
		}
	}
	if resp, ok := optional["respiratory_support"]; ok {
		respView := respiratorySupportComboView(resp)
		if respView != nil {
			expanded = relation.Merge(expanded, "combo_id", respView, "combo_id", relation.MergeOpts{})
		}
	}

	// --- step 8: day numbering ---
	assignDayNumbers(expanded)

	// --- step 9: ghost columns ---
	addGhostColumns(expanded, cfg.CategoryFilters, selectedOptional)

	// --- step 10: drop internal columns ---
	return dropInternalColumns(expanded), nil
}

func applyColumnSubset(t *relation.Table, tableName string, subsets map[string][]string) *relation.Table {
	cols, ok := subsets[tableName]
	if !ok || len(cols) == 0 {
		return t
	}
	want := append([]string(nil), identityColumns[tableName]...)
	seen := map[string]bool{}
	for _, c := range want {
		seen[c] = true
	}
	for _, c := range cols {
		if !t.HasColumn(c) {
			logf("wide: %s column filter names unknown column %q, dropping", tableName, c)
			continue
		}
		if !seen[c] {
			seen[c] = true
			want = append(want, c)
		}
	}
	return t.Project(want)
}

// buildEventTimeUnion computes the distinct (hospitalization_id, combo_id,
// event_time) triples across ADT's in_dttm and every selected optional
// source's resolved timestamp, first-wins on combo_id collisions, in a
// fixed source-priority order (ADT, then vitals/labs/medication/assessment/
// respiratory_support) so sub-minute collisions resolve deterministically.
func buildEventTimeUnion(adt *relation.Table, optional map[string]*relation.Table, selected map[string]bool) *relation.Table {
	out := relation.New("hospitalization_id", "event_time", "combo_id")
	seen := map[string]bool{}

	add := func(hospID string, ts time.Time) {
		combo := ComboID(hospID, ts)
		if seen[combo] {
			return
		}
		seen[combo] = true
		out.Rows = append(out.Rows, relation.Row{
			"hospitalization_id": relation.Text(hospID),
			"event_time":         relation.Timestamp(ts),
			"combo_id":           relation.Text(combo),
		})
	}

	if adt != nil {
		for _, r := range adt.Rows {
			hospID, ok := r.Get("hospitalization_id").Str()
			if !ok {
				continue
			}
			ts, ok := r.Get(schema.ADTTimestampColumn).Time()
			if !ok {
				continue
			}
			add(hospID, ts)
		}
	}

	priorityOrder := []string{"vitals", "labs", "medication_admin_continuous", "patient_assessments", "respiratory_support"}
	for _, name := range priorityOrder {
		if !selected[name] {
			continue
		}
		src, ok := optional[name]
		if !ok || src == nil {
			continue
		}

		var candidates []string
		if name == "respiratory_support" {
			candidates = []string{schema.RespiratorySupportTimestampColumn}
		} else {
			candidates = schema.EventSources[name].TimestampColumnCandidates
		}

		tsCol := resolveTimestampColumn(src, candidates)
		if tsCol == "" {
			logf("wide: %s has no recognized timestamp column after fallbacks; excluding from event-time union", name)
			continue
		}

		for _, r := range src.Rows {
			hospID, ok := r.Get("hospitalization_id").Str()
			if !ok {
				continue
			}
			ts, ok := r.Get(tsCol).Time()
			if !ok {
				continue
			}
			add(hospID, ts)
		}
	}

	return out
}

// pivotSource applies category filters, computes combo_id, then pivots
// (spec §4.1 step 5). Returns nil on pivot-empty (spec §7).
func pivotSource(name string, src *relation.Table, categoryFilter []string) *relation.Table {
	es, ok := schema.EventSources[name]
	if !ok {
		return nil
	}
	tsCol := resolveTimestampColumn(src, es.TimestampColumnCandidates)
	if tsCol == "" {
		logf("wide: %s has no recognized timestamp column after fallbacks; excluding from pivot", name)
		return nil
	}
	withKey := withComboID(src, "hospitalization_id", tsCol)
	pivoted := relation.Pivot(withKey, "combo_id", es.CategoryColumn, es.ValueColumn, categoryFilter)
	if pivoted == nil {
		logf("wide: %s pivot is empty after category filtering; omitting", name)
		return nil
	}

	if name != "patient_assessments" {
		return pivoted
	}

	// Supplemented feature: dispatch categorical_value/text_value into
	// auxiliary "<category>_text" columns, keyed on the same combo_id.
	for valueCol := range schema.AssessmentAuxiliaryColumns {
		aux := relation.Pivot(withKey, "combo_id", es.CategoryColumn, valueCol, categoryFilter)
		if aux == nil {
			continue
		}
		renamed := relation.New("combo_id")
		for _, c := range aux.Columns {
			if c == "combo_id" {
				continue
			}
			renamed.AddNullColumn(c + "_text")
		}
		for _, r := range aux.Rows {
			nr := relation.Row{"combo_id": r.Get("combo_id")}
			for _, c := range aux.Columns {
				if c == "combo_id" {
					continue
				}
				nr[c+"_text"] = r.Get(c)
			}
			renamed.Rows = append(renamed.Rows, nr)
		}
		pivoted = relation.Merge(pivoted, "combo_id", renamed, "combo_id", relation.MergeOpts{})
	}
	return pivoted
}

// adtComboView projects location transfers onto combo_id, first-wins
// (design notes §9), keeping the attributes the wide row carries
// (location_category, out_dttm) but not the redundant hospitalization_id
// and in_dttm (already present via event_time).
func adtComboView(adt *relation.Table) *relation.Table {
	if adt == nil || len(adt.Rows) == 0 {
		return nil
	}
	withKey := withComboID(adt, "hospitalization_id", schema.ADTTimestampColumn)
	out := relation.New("combo_id", "location_category", "out_dttm")
	seen := map[string]bool{}
	for _, r := range withKey.Rows {
		combo, _ := r.Get("combo_id").Str()
		if seen[combo] {
			continue
		}
		seen[combo] = true
		out.Rows = append(out.Rows, relation.Row{
			"combo_id":          relation.Text(combo),
			"location_category": r.Get("location_category"),
			"out_dttm":          r.Get("out_dttm"),
		})
	}
	return out
}

// respiratorySupportComboView copies every respiratory-support column
// (it is never pivoted, spec §3), first-wins on combo_id (design notes §9
// pins the source's non-deterministic behavior to first-wins here).
func respiratorySupportComboView(resp *relation.Table) *relation.Table {
	if resp == nil || len(resp.Rows) == 0 {
		return nil
	}
	withKey := withComboID(resp, "hospitalization_id", schema.RespiratorySupportTimestampColumn)

	var carryCols []string
	for _, c := range withKey.Columns {
		if c == "hospitalization_id" || c == "combo_id" {
			continue
		}
		carryCols = append(carryCols, c)
	}

	out := relation.New("combo_id")
	for _, c := range carryCols {
		out.AddNullColumn(c)
	}
	seen := map[string]bool{}
	for _, r := range withKey.Rows {
		combo, _ := r.Get("combo_id").Str()
		if seen[combo] {
			continue
		}
		seen[combo] = true
		nr := relation.Row{"combo_id": relation.Text(combo)}
		for _, c := range carryCols {
			nr[c] = r.Get(c)
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// assignDayNumbers sorts expanded by (hospitalization_id, event_time) and
// assigns day_number/hosp_id_day_key in place (spec §4.1 step 8).
func assignDayNumbers(expanded *relation.Table) {
	expanded.SortBy(func(a, b relation.Row) bool {
		ah, _ := a.Get("hospitalization_id").Str()
		bh, _ := b.Get("hospitalization_id").Str()
		if ah != bh {
			return ah < bh
		}
		at, _ := a.Get("event_time").Time()
		bt, _ := b.Get("event_time").Time()
		return at.Before(bt)
	})

	ranks := relation.DenseRank(expanded.Rows,
		func(r relation.Row) string { s, _ := r.Get("hospitalization_id").Str(); return s },
		func(r relation.Row) string {
			t, _ := r.Get("event_time").Time()
			return t.Format("2006-01-02")
		},
	)

	expanded.AddNullColumn("day_number")
	expanded.AddNullColumn("hosp_id_day_key")
	for i, r := range expanded.Rows {
		hospID, _ := r.Get("hospitalization_id").Str()
		r["day_number"] = relation.Numeric(float64(ranks[i]))
		r["hosp_id_day_key"] = relation.Text(hospID + "_day_" + itoa(ranks[i]))
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// addGhostColumns appends all-null columns for any requested category
// absent from the output (spec §4.1 step 9).
func addGhostColumns(expanded *relation.Table, filters map[string][]string, selectedOptional map[string]bool) {
	var sourceNames []string
	for name := range filters {
		sourceNames = append(sourceNames, name)
	}
	sort.Strings(sourceNames)

	for _, name := range sourceNames {
		if !selectedOptional[name] {
			continue // filters naming sources outside optional_tables are silently ignored
		}
		for _, category := range filters[name] {
			if !expanded.HasColumn(category) {
				expanded.AddNullColumn(category)
			}
		}
	}
}

// dropInternalColumns removes the combo_id helper key before returning the
// wide table to the caller (spec §4.1 step 10).
func dropInternalColumns(expanded *relation.Table) *relation.Table {
	keep := make([]string, 0, len(expanded.Columns))
	for _, c := range expanded.Columns {
		if c == "combo_id" {
			continue
		}
		keep = append(keep, c)
	}
	return expanded.Project(keep)
}
