// Package relation implements the small in-process columnar engine the
// wide-dataset builder and hourly aggregator run their joins, pivots, and
// group-bys against. There is no embedded SQL engine in this lineage of
// repos, so the engine here is a hash-join / hash-grouped-scan over plain
// Go maps and slices, as the design notes for a non-columnar-engine target
// recommend.
package relation

import "time"

// Kind discriminates the tagged-union cell value a wide or hourly table
// column can carry: numeric, text, timestamp, boolean, or null.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumeric
	KindText
	KindTimestamp
	KindBool
)

// Value is one cell in a Row. Zero Value is KindNull.
type Value struct {
	Kind Kind
	num  float64
	str  string
	t    time.Time
	b    bool
}

// Null returns the null cell value.
func Null() Value { return Value{Kind: KindNull} }

// Numeric wraps a float64 cell.
func Numeric(f float64) Value { return Value{Kind: KindNumeric, num: f} }

// Text wraps a string cell.
func Text(s string) Value { return Value{Kind: KindText, str: s} }

// Timestamp wraps a time.Time cell.
func Timestamp(t time.Time) Value { return Value{Kind: KindTimestamp, t: t} }

// Bool wraps a boolean cell.
func Bool(b bool) Value { return Value{Kind: KindBool, b: b} }

// NumericPtr wraps a *float64, mapping nil to null.
func NumericPtr(f *float64) Value {
	if f == nil {
		return Null()
	}
	return Numeric(*f)
}

// TextPtr wraps a *string, mapping nil to null.
func TextPtr(s *string) Value {
	if s == nil {
		return Null()
	}
	return Text(*s)
}

// TimestampPtr wraps a *time.Time, mapping nil to null.
func TimestampPtr(t *time.Time) Value {
	if t == nil {
		return Null()
	}
	return Timestamp(*t)
}

// IsNull reports whether v carries no value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Float returns the numeric payload and whether v is a non-null numeric.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumeric {
		return 0, false
	}
	return v.num, true
}

// Str returns the text payload and whether v is a non-null text value.
func (v Value) Str() (string, bool) {
	if v.Kind != KindText {
		return "", false
	}
	return v.str, true
}

// Time returns the timestamp payload and whether v is a non-null timestamp.
func (v Value) Time() (time.Time, bool) {
	if v.Kind != KindTimestamp {
		return time.Time{}, false
	}
	return v.t, true
}

// BoolVal returns the boolean payload and whether v is a non-null boolean.
func (v Value) BoolVal() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsKey renders v as a string suitable for use as a map/group key or for
// composing combo_id-style identifiers. Null renders as "".
func (v Value) AsKey() string {
	switch v.Kind {
	case KindText:
		return v.str
	case KindNumeric:
		return formatFloat(v.num)
	case KindTimestamp:
		return v.t.UTC().Format(time.RFC3339Nano)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Equal reports whether v and o carry the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumeric:
		return v.num == o.num
	case KindText:
		return v.str == o.str
	case KindTimestamp:
		return v.t.Equal(o.t)
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}
