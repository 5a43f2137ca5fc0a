// Package vaso implements the vasopressor unit-conversion engine (spec
// §4.3): rewriting continuous-medication dose/unit fields for a closed set
// of vasopressor categories into a caller-chosen canonical unit, looking up
// patient weight against the vitals table when the target unit is
// weight-normalized.
package vaso

import (
	"log"
	"strings"
)

// Categories is the closed set of medication categories this engine
// rewrites. Rows for any other med_category pass through untouched.
var Categories = map[string]bool{
	"norepinephrine": true, "epinephrine": true, "dopamine": true,
	"dobutamine": true, "phenylephrine": true, "vasopressin": true,
	"angiotensin_ii": true, "isoproterenol": true, "milrinone": true,
}

// weightOp names how patient weight composes into a unit conversion.
type weightOp int

const (
	weightNone weightOp = iota
	divideByWeight
	multiplyByWeight
)

type unitSpec struct {
	mass      string // "mcg", "mg", or "units"
	perWeight bool   // true when the unit is .../kg/...
	perTime   string // "min" or "hr"
}

func massFamily(mass string) string {
	switch mass {
	case "mcg", "mg":
		return "mass"
	case "units":
		return "units"
	default:
		return ""
	}
}

func massToMcg(mass string) (float64, bool) {
	switch mass {
	case "mcg":
		return 1, true
	case "mg":
		return 1000, true
	case "units":
		return 1, true
	}
	return 0, false
}

func minutesPer(timeUnit string) (float64, bool) {
	switch timeUnit {
	case "min":
		return 1, true
	case "hr":
		return 60, true
	}
	return 0, false
}

// parseUnit parses a unit string of the form "mass/time" or
// "mass/kg/time" (e.g. "mcg/min", "mcg/kg/min", "units/hr").
func parseUnit(u string) (unitSpec, bool) {
	parts := strings.Split(strings.TrimSpace(u), "/")
	switch len(parts) {
	case 2:
		if _, ok := massToMcg(parts[0]); !ok {
			return unitSpec{}, false
		}
		if _, ok := minutesPer(parts[1]); !ok {
			return unitSpec{}, false
		}
		return unitSpec{mass: parts[0], perWeight: false, perTime: parts[1]}, true
	case 3:
		if parts[1] != "kg" {
			return unitSpec{}, false
		}
		if _, ok := massToMcg(parts[0]); !ok {
			return unitSpec{}, false
		}
		if _, ok := minutesPer(parts[2]); !ok {
			return unitSpec{}, false
		}
		return unitSpec{mass: parts[0], perWeight: true, perTime: parts[2]}, true
	default:
		return unitSpec{}, false
	}
}

// rule is the resolved (multiplier, weightOp) pair for converting from one
// unit to another, expressed as spec §4.3 describes: mass prefix × time
// base × weight normalization, composed.
type rule struct {
	multiplier float64
	op         weightOp
}

// resolveRule composes a conversion rule between from and to. ok is false
// when the units are unparseable or belong to incompatible mass families
// (e.g. converting "units/min" to "mcg/kg/min" — an unknown conversion,
// logged and nullified by the caller).
func resolveRule(category, from, to string) (rule, bool) {
	fs, ok := parseUnit(from)
	if !ok {
		return rule{}, false
	}
	ts, ok := parseUnit(to)
	if !ok {
		return rule{}, false
	}
	if massFamily(fs.mass) != massFamily(ts.mass) {
		return rule{}, false
	}

	// Vasopressin (and by the same closed-set rule, any category whose
	// mass family is "units") has a fixed unit and converts only between
	// time bases — never to a weight-normalized form (spec §4.3).
	if massFamily(fs.mass) == "units" && (fs.perWeight || ts.perWeight) {
		return rule{}, false
	}

	fromMcg, _ := massToMcg(fs.mass)
	toMcg, _ := massToMcg(ts.mass)
	massMultiplier := fromMcg / toMcg

	fromMin, _ := minutesPer(fs.perTime)
	toMin, _ := minutesPer(ts.perTime)
	timeMultiplier := toMin / fromMin

	op := weightNone
	switch {
	case !fs.perWeight && ts.perWeight:
		op = divideByWeight
	case fs.perWeight && !ts.perWeight:
		op = multiplyByWeight
	}

	return rule{multiplier: massMultiplier * timeMultiplier, op: op}, true
}

func logUnknownUnit(category, unit string) {
	log.Printf("vaso: unknown or unsupported unit %q for category %q", unit, category)
}

func logMissingWeight(hospitalizationID string) {
	log.Printf("vaso: no weight_kg observation for hospitalization %q; dose nullified", hospitalizationID)
}
