package meta

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind is the dynamic type of a Value.
type Kind int

// The value kinds
const (
	KindString Kind = iota
	KindInt
	KindFloat
)

// Value is a scalar taken from a value attribute: an integer, a float or
// the text itself.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a float Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a text Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// ParseValue converts an attribute value to an integer if possible, else
// to a float if possible, else keeps the text.
func ParseValue(s string) Value {
	t := strings.TrimSpace(s)
	if i, err := strconv.ParseInt(t, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return Float(f)
	}
	return String(s)
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer held by v.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Float returns v as a float for both numeric kinds.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Text returns v formatted as text.
func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	}
	return v.s
}

// MarshalJSON encodes numbers as JSON numbers and everything else as
// strings. NaN and infinities have no JSON number form and are written as
// text.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return json.Marshal(v.Text())
		}
		return json.Marshal(v.f)
	}
	return json.Marshal(v.s)
}
