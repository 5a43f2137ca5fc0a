// Package hourly implements the hourly-aggregated table (spec §4.2): a
// group-by on (hospitalization_id, event_time_hour, nth_hour) over the wide
// event table, with a configurable reduction per column and an implicit
// carry-forward "_c" column for everything the caller didn't name.
package hourly

import (
	"errors"
	"log"
	"sort"
	"strconv"
	"time"

	"clif/internal/relation"
)

var logf = log.Printf

// ErrMissingRequiredColumns is fatal per spec §7: the wide table input must
// already carry event_time, hospitalization_id, and day_number.
var ErrMissingRequiredColumns = errors.New("hourly: wide table input must carry event_time, hospitalization_id, and day_number")

// Method names a reduction (spec §4.2).
type Method string

const (
	MethodMax     Method = "max"
	MethodMin     Method = "min"
	MethodMean    Method = "mean"
	MethodMedian  Method = "median"
	MethodFirst   Method = "first"
	MethodLast    Method = "last"
	MethodBoolean Method = "boolean"
	MethodOneHot  Method = "one_hot_encode"
)

var knownMethods = map[Method]bool{
	MethodMax: true, MethodMin: true, MethodMean: true, MethodMedian: true,
	MethodFirst: true, MethodLast: true, MethodBoolean: true, MethodOneHot: true,
}

// Config is build_hourly's input configuration (spec §4.2).
type Config struct {
	// AggregationConfig maps a method name to the wide-table columns it
	// applies to. Columns not named under any method fall back to an
	// implicit "first" reduction emitted under a "_c" suffix (spec §4.2
	// "carry-forward columns").
	AggregationConfig map[Method][]string
}

// groupingColumns are never reduced — they identify the output row itself.
var groupingColumns = map[string]bool{
	"hospitalization_id": true,
	"event_time":         true,
	"event_time_hour":    true,
	"nth_hour":           true,
	"hour_bucket":        true,
	"patient_id":         true,
	"day_number":         true,
}

// Aggregate runs the hourly-aggregation algorithm (spec §4.2) over a wide
// event table and returns one row per (hospitalization_id, nth_hour).
func Aggregate(wide *relation.Table, cfg Config) (*relation.Table, error) {
	if !wide.HasColumn("event_time") || !wide.HasColumn("hospitalization_id") || !wide.HasColumn("day_number") {
		return nil, ErrMissingRequiredColumns
	}

	rows := append([]relation.Row(nil), wide.Rows...)
	sortRowsByHospAndTime(rows)

	augmented := augmentWithHourKeys(rows)

	methodCols, configured := validateConfig(wide, cfg.AggregationConfig)
	var implicitCols []string
	for _, c := range wide.Columns {
		if groupingColumns[c] || configured[c] {
			continue
		}
		implicitCols = append(implicitCols, c)
	}

	// One-hot column union is computed over the whole input up front (spec
	// §4.2 step 7: "the union of all emitted columns across groups is
	// present on every row").
	oneHotColumns := map[string][]string{}
	for _, col := range methodCols[MethodOneHot] {
		for _, v := range distinctNonNullKeys(augmented, col) {
			oneHotColumns[col] = append(oneHotColumns[col], col+"_"+sanitizeValue(v))
		}
	}

	order, groups := relation.GroupBy(augmented, func(r relation.Row) string {
		h, _ := r.Get("hospitalization_id").Str()
		n, _ := r.Get("nth_hour").Float()
		return h + "|" + strconv.Itoa(int(n))
	})

	out := relation.New("hospitalization_id", "patient_id", "day_number", "event_time_hour", "hour_bucket", "nth_hour")
	for _, method := range []Method{MethodMax, MethodMin, MethodMean, MethodMedian, MethodFirst, MethodLast, MethodBoolean} {
		for _, col := range methodCols[method] {
			out.AddNullColumn(col + "_" + string(method))
		}
	}
	for _, col := range implicitCols {
		out.AddNullColumn(col + "_c")
	}
	for _, col := range methodCols[MethodOneHot] {
		for _, c := range oneHotColumns[col] {
			out.AddNullColumn(c)
		}
	}

	for _, key := range order {
		groupRows := groups[key]
		first := groupRows[0]

		row := relation.Row{
			"hospitalization_id": first.Get("hospitalization_id"),
			"patient_id":         first.Get("patient_id"),
			"day_number":         first.Get("day_number"),
			"event_time_hour":    first.Get("event_time_hour"),
			"hour_bucket":        first.Get("hour_bucket"),
			"nth_hour":           first.Get("nth_hour"),
		}

		for _, col := range methodCols[MethodMax] {
			row[col+"_max"] = reduceMax(groupRows, col)
		}
		for _, col := range methodCols[MethodMin] {
			row[col+"_min"] = reduceMin(groupRows, col)
		}
		for _, col := range methodCols[MethodMean] {
			row[col+"_mean"] = reduceMean(groupRows, col)
		}
		for _, col := range methodCols[MethodMedian] {
			row[col+"_median"] = reduceMedian(groupRows, col)
		}
		for _, col := range methodCols[MethodFirst] {
			row[col+"_first"] = reduceFirst(groupRows, col)
		}
		for _, col := range methodCols[MethodLast] {
			row[col+"_last"] = reduceLast(groupRows, col)
		}
		for _, col := range methodCols[MethodBoolean] {
			row[col+"_boolean"] = reduceBoolean(groupRows, col)
		}
		for _, col := range implicitCols {
			row[col+"_c"] = reduceFirst(groupRows, col)
		}
		for _, col := range methodCols[MethodOneHot] {
			present := map[string]bool{}
			for _, r := range groupRows {
				if v := r.Get(col); !v.IsNull() {
					present[sanitizeValue(v.AsKey())] = true
				}
			}
			for _, outCol := range oneHotColumns[col] {
				row[outCol] = relation.Numeric(0)
			}
			for v := range present {
				row[col+"_"+v] = relation.Numeric(1)
			}
		}

		out.Rows = append(out.Rows, row)
	}

	out.SortBy(func(a, b relation.Row) bool {
		ah, _ := a.Get("hospitalization_id").Str()
		bh, _ := b.Get("hospitalization_id").Str()
		if ah != bh {
			return ah < bh
		}
		an, _ := a.Get("nth_hour").Float()
		bn, _ := b.Get("nth_hour").Float()
		return an < bn
	})

	return out, nil
}

func sortRowsByHospAndTime(rows []relation.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		ah, _ := a.Get("hospitalization_id").Str()
		bh, _ := b.Get("hospitalization_id").Str()
		if ah != bh {
			return ah < bh
		}
		at, _ := a.Get("event_time").Time()
		bt, _ := b.Get("event_time").Time()
		return at.Before(bt)
	})
}

// augmentWithHourKeys clones every row with event_time_hour (truncated to
// the hour), hour_bucket (hour-of-day, 0-23), and nth_hour (hours elapsed
// since the hospitalization's first event_time_hour — spec §4.2 "origin
// alignment"). rows must already be sorted by (hospitalization_id,
// event_time).
func augmentWithHourKeys(rows []relation.Row) []relation.Row {
	firstHour := map[string]time.Time{}
	for _, r := range rows {
		hosp, ok := r.Get("hospitalization_id").Str()
		if !ok {
			continue
		}
		et, ok := r.Get("event_time").Time()
		if !ok {
			continue
		}
		hour := et.Truncate(time.Hour)
		if cur, ok := firstHour[hosp]; !ok || hour.Before(cur) {
			firstHour[hosp] = hour
		}
	}

	out := make([]relation.Row, 0, len(rows))
	for _, r := range rows {
		hosp, ok := r.Get("hospitalization_id").Str()
		if !ok {
			logf("hourly: row missing hospitalization_id, dropping")
			continue
		}
		et, ok := r.Get("event_time").Time()
		if !ok {
			logf("hourly: row missing event_time, dropping")
			continue
		}
		hour := et.Truncate(time.Hour)
		nth := int(hour.Sub(firstHour[hosp]).Hours())

		nr := r.Clone()
		nr["event_time_hour"] = relation.Timestamp(hour)
		nr["nth_hour"] = relation.Numeric(float64(nth))
		nr["hour_bucket"] = relation.Numeric(float64(hour.Hour()))
		out = append(out, nr)
	}
	return out
}

// validateConfig drops unknown methods and unknown/grouping columns,
// logging each once (spec §7 advisory conditions), and returns the
// surviving method -> columns map plus the set of every column named under
// any method (used to exclude them from implicit carry-forward).
func validateConfig(wide *relation.Table, cfg map[Method][]string) (map[Method][]string, map[string]bool) {
	out := map[Method][]string{}
	configured := map[string]bool{}
	for method, cols := range cfg {
		if !knownMethods[method] {
			logf("hourly: unknown aggregation method %q, ignoring", method)
			continue
		}
		for _, col := range cols {
			if groupingColumns[col] {
				logf("hourly: aggregation_config names grouping column %q, ignoring", col)
				continue
			}
			if !wide.HasColumn(col) {
				logf("hourly: aggregation_config names unknown column %q, ignoring", col)
				continue
			}
			out[method] = append(out[method], col)
			configured[col] = true
		}
	}
	return out, configured
}
