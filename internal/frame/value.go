package frame

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the type of a Value.
type Kind uint8

const (
	// KindNull marks a missing value.
	KindNull Kind = iota
	// KindInt is a 64-bit signed integer.
	KindInt
	// KindFloat is a 64-bit float.
	KindFloat
	// KindString is a UTF-8 string.
	KindString
	// KindBool is a boolean.
	KindBool
	// KindDate is a civil date, stored as days since the Unix epoch.
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	}
	return "unknown"
}

// Value is a single typed scalar cell. The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Null returns the missing value.
func Null() Value { return Value{} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a float value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String returns a string value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bool returns a boolean value.
func Bool(v bool) Value {
	var i int64
	if v {
		i = 1
	}
	return Value{kind: KindBool, i: i}
}

// Date returns a date value for the civil date of t in UTC.
func Date(t time.Time) Value {
	u := t.UTC()
	d := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return Value{kind: KindDate, i: d.Unix() / 86400}
}

// DateFromDays returns a date value from a days-since-epoch count.
func DateFromDays(days int64) Value { return Value{kind: KindDate, i: days} }

// Kind reports the value's type.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is missing.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int64 returns the integer payload. Valid for KindInt, KindBool and KindDate.
func (v Value) Int64() int64 { return v.i }

// Float64 returns the value as a float. Integers widen; other kinds return 0.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt, KindBool, KindDate:
		return float64(v.i)
	}
	return 0
}

// Str returns the string payload. Valid for KindString.
func (v Value) Str() string { return v.s }

// BoolVal returns the boolean payload. Valid for KindBool.
func (v Value) BoolVal() bool { return v.i != 0 }

// Days returns the days-since-epoch count of a date value.
func (v Value) Days() int64 { return v.i }

// Time converts a date value to a UTC midnight time.Time.
func (v Value) Time() time.Time {
	return time.Unix(v.i*86400, 0).UTC()
}

// Truthy interprets the value as an event indicator: non-zero numbers, true
// booleans and non-empty strings other than "0" count as an occurrence.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindInt, KindBool, KindDate:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != "" && v.s != "0"
	}
	return false
}

// String formats the value for display and CSV output. Null formats as the
// empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBool:
		if v.i != 0 {
			return "true"
		}
		return "false"
	case KindDate:
		return v.Time().Format("2006-01-02")
	}
	return ""
}

// Compare orders two values. Null sorts before everything; numeric kinds
// compare by magnitude; strings lexicographically; dates by day count.
// Mixed non-numeric kinds compare by kind tag so sorts stay deterministic.
func Compare(a, b Value) int {
	if a.kind == KindNull || b.kind == KindNull {
		switch {
		case a.kind == b.kind:
			return 0
		case a.kind == KindNull:
			return -1
		default:
			return 1
		}
	}
	if isNumeric(a.kind) && isNumeric(b.kind) {
		af, bf := a.Float64(), b.Float64()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	if a.kind != b.kind {
		return int(a.kind) - int(b.kind)
	}
	switch a.kind {
	case KindString:
		switch {
		case a.s < b.s:
			return -1
		case a.s > b.s:
			return 1
		}
	}
	return 0
}

// Equal reports whether two values are equal under Compare semantics, with
// the exception that null never equals null (missing keys never match).
func Equal(a, b Value) bool {
	if a.kind == KindNull || b.kind == KindNull {
		return false
	}
	return Compare(a, b) == 0
}

// Equal is the method form of the package-level Equal.
func (v Value) Equal(o Value) bool { return Equal(v, o) }

func isNumeric(k Kind) bool {
	switch k {
	case KindInt, KindFloat, KindBool, KindDate:
		return true
	}
	return false
}

// appendKey writes a canonical, unambiguous encoding of v for use in
// composite hash-join keys.
func appendKey(dst []byte, v Value) []byte {
	switch v.kind {
	case KindNull:
		return append(dst, 'n', 0)
	case KindInt, KindBool:
		dst = append(dst, 'i')
		dst = strconv.AppendInt(dst, v.i, 10)
	case KindDate:
		dst = append(dst, 'd')
		dst = strconv.AppendInt(dst, v.i, 10)
	case KindFloat:
		if v.f == float64(int64(v.f)) {
			// Integral floats key the same as ints so mixed-typed key
			// columns still match.
			dst = append(dst, 'i')
			dst = strconv.AppendInt(dst, int64(v.f), 10)
		} else {
			dst = append(dst, 'f')
			dst = strconv.AppendFloat(dst, v.f, 'g', -1, 64)
		}
	case KindString:
		dst = append(dst, 's')
		dst = append(dst, v.s...)
	default:
		dst = append(dst, fmt.Sprintf("?%d", v.kind)...)
	}
	return append(dst, 0)
}
