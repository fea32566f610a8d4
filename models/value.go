package models

import (
	"math"
	"strconv"
)

// Kind is the storage class of a single table cell.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	default:
		return "null"
	}
}

// Value is a nullable table cell. The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func Null() Value { return Value{} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Float returns a float cell; NaN is stored as null.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindFloat, f: f}
}

// FromAny converts a driver value (database/sql, bson, csv) into a Value.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case bool:
		if t {
			return Int(1)
		}
		return Int(0)
	case string:
		return Text(t)
	case []byte:
		return Text(string(t))
	default:
		return Null()
	}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Number returns the numeric content of an int or float cell.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Text returns the text content of a text cell.
func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.s, true
}

// String renders the cell the way it is written to flat files: null is empty,
// floats use the shortest representation that round-trips.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindText:
		return v.s
	}
	return ""
}

// Key is the lookup identity of a cell. Integral floats key like ints so that a
// code read as 2.0 matches a decoder key of 2. Null cells have no key.
func (v Value) Key() (string, bool) {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10), true
	case KindFloat:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1e15 {
			return strconv.FormatInt(int64(v.f), 10), true
		}
		return strconv.FormatFloat(v.f, 'g', -1, 64), true
	case KindText:
		return v.s, true
	}
	return "", false
}

// Any returns the cell as a plain Go value for database drivers.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	}
	return nil
}

// Equal reports whether two cells hold the same content. Null equals null,
// and numbers compare by value regardless of int/float storage.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		a, _ := v.Number()
		b, _ := o.Number()
		return a == b
	}
	if v.kind != o.kind {
		return false
	}
	return v.kind == KindNull || v.s == o.s
}
