package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a single typed scalar. The zero Value is a non-missing integer 0.
// Missing values keep the sentinel payload of their column so that typed
// slices extracted from a chunk hold the sentinel in place.
type Value struct {
	typ     Type
	missing bool
	i       int64
	f       float64
	s       string
	b       bool
}

// Int returns an integer value.
func Int(v int64) Value { return Value{typ: Integer, i: v} }

// Float64 returns a float value.
func Float64(v float64) Value { return Value{typ: Float, f: v} }

// Str returns a string value.
func Str(v string) Value { return Value{typ: String, s: v} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{typ: Boolean, b: v} }

// Cat returns a categorical value.
func Cat(v string) Value { return Value{typ: Categorical, s: v} }

// DefaultMissing returns the default missing sentinel for t:
// -1 for integers, NaN for floats, "." for strings and categoricals, false
// for booleans.
func DefaultMissing(t Type) Value {
	v := Value{typ: t, missing: true}
	switch t {
	case Integer:
		v.i = -1
	case Float:
		v.f = math.NaN()
	case String, Categorical:
		v.s = "."
	}
	return v
}

// MissingFrom marks a sentinel payload as missing.
func MissingFrom(v Value) Value {
	v.missing = true
	return v
}

// Type returns the semantic type of v.
func (v Value) Type() Type { return v.typ }

// IsMissing reports whether v stands for an absent value.
func (v Value) IsMissing() bool { return v.missing }

// Int returns the integer payload.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload.
func (v Value) Float() float64 { return v.f }

// Text returns the string payload of string and categorical values.
func (v Value) Text() string { return v.s }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// Any returns the payload as a Go value suitable for database drivers.
func (v Value) Any() any {
	switch v.typ {
	case Integer:
		return v.i
	case Float:
		return v.f
	case Boolean:
		return v.b
	default:
		return v.s
	}
}

// String formats the payload. Missing values print their sentinel.
func (v Value) String() string {
	switch v.typ {
	case Integer:
		return strconv.FormatInt(v.i, 10)
	case Float:
		if math.IsNaN(v.f) {
			return "NaN"
		}
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Boolean:
		return strconv.FormatBool(v.b)
	default:
		return v.s
	}
}

// Equal compares type, missingness and payload. Two NaN floats are equal.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ || v.missing != o.missing {
		return false
	}
	switch v.typ {
	case Integer:
		return v.i == o.i
	case Float:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case Boolean:
		return v.b == o.b
	default:
		return v.s == o.s
	}
}

// Coerce converts raw text into a value of type t.
// Callers handle the "." missing marker before calling Coerce.
func Coerce(raw string, t Type) (Value, error) {
	switch t {
	case Integer:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("not an integer: %q", raw)
		}
		return Int(n), nil
	case Float:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("not a float: %q", raw)
		}
		return Float64(f), nil
	case Boolean:
		switch strings.ToLower(raw) {
		case "1", "true", "yes", "y":
			return Bool(true), nil
		case "0", "false", "no", "n":
			return Bool(false), nil
		}
		return Value{}, fmt.Errorf("not a boolean: %q", raw)
	case Categorical:
		return Cat(raw), nil
	default:
		return Str(raw), nil
	}
}

// ParseFill parses a configured missing sentinel for type t.
func ParseFill(raw string, t Type) (Value, error) {
	if t == Float && strings.EqualFold(raw, "nan") {
		return DefaultMissing(Float), nil
	}
	v, err := Coerce(raw, t)
	if err != nil {
		return Value{}, fmt.Errorf("parse fill value: %w", err)
	}
	return MissingFrom(v), nil
}

// Cell holds the values of one column in one row.
type Cell []Value

// Row is an ordered sequence of cells, one per column.
type Row []Cell

// Join formats the cell values separated by sep.
func (c Cell) Join(sep string) string {
	switch len(c) {
	case 0:
		return ""
	case 1:
		return c[0].String()
	}
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}
