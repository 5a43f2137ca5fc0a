package vaso

import (
	"sort"
	"time"

	"clif/internal/relation"
)

// Columns added/rewritten by Convert.
const (
	ColHospitalizationID     = "hospitalization_id"
	ColAdminDttm             = "admin_dttm"
	ColMedCategory           = "med_category"
	ColMedDose               = "med_dose"
	ColMedDoseUnit           = "med_dose_unit"
	ColUnitConversionApplied = "unit_conversion_applied"

	vitalsHospitalizationID = "hospitalization_id"
	vitalsRecordedDttm      = "recorded_dttm"
	vitalsCategory          = "vital_category"
	vitalsValue             = "vital_value"
	weightCategory          = "weight_kg"
)

// weightObservation is one (time, value) weight reading for a
// hospitalization, used for closest-in-time lookup.
type weightObservation struct {
	seconds int64 // unix seconds, for distance comparisons
	value   float64
}

// Convert rewrites medContinuous's med_dose/med_dose_unit for the closed
// vasopressor category set into targetUnit, recording
// unit_conversion_applied per row. vitals supplies weight_kg observations
// for weight-normalized targets. Rows outside Categories pass through
// unchanged with unit_conversion_applied left null.
func Convert(medContinuous, vitals *relation.Table, targetUnit string) *relation.Table {
	weightsByHosp := indexWeights(vitals)

	out := relation.New(medContinuous.Columns...)
	out.AddNullColumn(ColUnitConversionApplied)

	for _, row := range medContinuous.Rows {
		newRow := row.Clone()

		category, _ := row.Get(ColMedCategory).Str()
		if !Categories[category] {
			out.Rows = append(out.Rows, newRow)
			continue
		}

		fromUnit, _ := row.Get(ColMedDoseUnit).Str()
		dose, hasDose := row.Get(ColMedDose).Float()

		if fromUnit == targetUnit {
			newRow[ColUnitConversionApplied] = relation.Bool(true)
			out.Rows = append(out.Rows, newRow)
			continue
		}

		rule, ok := resolveRule(category, fromUnit, targetUnit)
		if !ok {
			logUnknownUnit(category, fromUnit)
			newRow[ColMedDose] = relation.Null()
			newRow[ColMedDoseUnit] = relation.Text(targetUnit)
			newRow[ColUnitConversionApplied] = relation.Bool(false)
			out.Rows = append(out.Rows, newRow)
			continue
		}

		converted := dose
		if hasDose {
			converted *= rule.multiplier
		}

		if rule.op != weightNone {
			hospID, _ := row.Get(ColHospitalizationID).Str()
			adminTime, _ := row.Get(ColAdminDttm).Time()
			weight, found := closestWeight(weightsByHosp[hospID], adminTime)
			if !found {
				logMissingWeight(hospID)
				newRow[ColMedDose] = relation.Null()
				newRow[ColMedDoseUnit] = relation.Text(targetUnit)
				newRow[ColUnitConversionApplied] = relation.Bool(false)
				out.Rows = append(out.Rows, newRow)
				continue
			}
			if !hasDose {
				newRow[ColMedDose] = relation.Null()
				newRow[ColMedDoseUnit] = relation.Text(targetUnit)
				newRow[ColUnitConversionApplied] = relation.Bool(false)
				out.Rows = append(out.Rows, newRow)
				continue
			}
			switch rule.op {
			case divideByWeight:
				converted /= weight
			case multiplyByWeight:
				converted *= weight
			}
		}

		if !hasDose {
			newRow[ColMedDose] = relation.Null()
		} else {
			newRow[ColMedDose] = relation.Numeric(converted)
		}
		newRow[ColMedDoseUnit] = relation.Text(targetUnit)
		newRow[ColUnitConversionApplied] = relation.Bool(true)
		out.Rows = append(out.Rows, newRow)
	}

	return out
}

// indexWeights groups vitals' weight_kg observations by hospitalization_id,
// sorted ascending by time so closestWeight can binary-search.
func indexWeights(vitals *relation.Table) map[string][]weightObservation {
	index := make(map[string][]weightObservation)
	if vitals == nil {
		return index
	}
	for _, r := range vitals.Rows {
		cat, _ := r.Get(vitalsCategory).Str()
		if cat != weightCategory {
			continue
		}
		hospID, _ := r.Get(vitalsHospitalizationID).Str()
		t, ok := r.Get(vitalsRecordedDttm).Time()
		if !ok {
			continue
		}
		v, ok := r.Get(vitalsValue).Float()
		if !ok {
			continue
		}
		index[hospID] = append(index[hospID], weightObservation{seconds: t.Unix(), value: v})
	}
	for k := range index {
		obs := index[k]
		sort.Slice(obs, func(i, j int) bool { return obs[i].seconds < obs[j].seconds })
		index[k] = obs
	}
	return index
}

// closestWeight returns the weight observation closest in time to at,
// ties broken toward the earlier observation.
func closestWeight(obs []weightObservation, at time.Time) (float64, bool) {
	if len(obs) == 0 {
		return 0, false
	}
	target := at.Unix()
	best := obs[0]
	bestDist := abs64(best.seconds - target)
	for _, o := range obs[1:] {
		d := abs64(o.seconds - target)
		if d < bestDist || (d == bestDist && o.seconds < best.seconds) {
			best = o
			bestDist = d
		}
	}
	return best.value, true
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
