package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unique"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBool represents a boolean value.
	KindBool
	// KindArray represents an array value.
	KindArray
)

// String returns the name of the kind.
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
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Value is a small typed value stored in a row field or used as a filter predicate.
//
// The set of kinds mirrors the scalar types every snapshot encoding can represent.
// Strings are interned, so equality of two string values is a handle comparison.
type Value struct {
	Kind Kind
	I64  int64
	F64  float64
	s    unique.Handle[string]
	B    bool
	A    []Value
}

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an int64 Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, s: unique.Make(v)} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// Array returns an array Value.
func Array(v []Value) Value { return Value{Kind: KindArray, A: v} }

// Strings returns an array Value of strings.
func Strings(v ...string) Value {
	arr := make([]Value, len(v))
	for i := range v {
		arr[i] = String(v[i])
	}
	return Array(arr)
}

// Ints returns an array Value of integers.
func Ints(v ...int64) Value {
	arr := make([]Value, len(v))
	for i := range v {
		arr[i] = Int(v[i])
	}
	return Array(arr)
}

// IsValid reports whether v carries a known kind.
func (v Value) IsValid() bool { return v.Kind != KindInvalid }

// IsNumber reports whether v is an int or a float.
func (v Value) IsNumber() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// StringValue returns the string value if Kind is KindString, otherwise empty string.
func (v Value) StringValue() string {
	if v.Kind == KindString {
		return v.s.Value()
	}
	return ""
}

// AsInt64 returns the int64 value if Kind is KindInt.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.I64, true
}

// AsFloat64 returns the numeric value as float64 for ints and floats.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.I64), true
	case KindFloat:
		return v.F64, true
	default:
		return 0, false
	}
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.s.Value(), true
}

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

// AsArray returns the array value if Kind is KindArray.
func (v Value) AsArray() ([]Value, bool) {
	if v.Kind != KindArray {
		return nil, false
	}
	return v.A, true
}

// Key returns a stable string representation for use in maps.
//
// Index buckets are keyed by it, so two values share a bucket iff their keys
// are equal. Integral floats in int64 range collapse onto the int key and all
// NaNs share one key, keeping Key consistent with Equal.
func (v Value) Key() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt:
		return "i:" + strconv.FormatInt(v.I64, 10)
	case KindFloat:
		if i, ok := floatToInt(v.F64); ok {
			return "i:" + strconv.FormatInt(i, 10)
		}
		if math.IsNaN(v.F64) {
			return "f:nan"
		}
		return "f:" + strconv.FormatUint(math.Float64bits(v.F64), 16)
	case KindString:
		return "s:" + v.s.Value()
	case KindBool:
		if v.B {
			return "b:1"
		}
		return "b:0"
	case KindArray:
		if len(v.A) == 0 {
			return "a:"
		}
		parts := make([]string, len(v.A))
		for i := range v.A {
			parts[i] = v.A[i].Key()
		}
		return "a:" + strings.Join(parts, "\x1f")
	default:
		return "invalid"
	}
}

// floatToInt returns f as an int64 if it is integral and in range.
func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

// Equal reports whether two values are equal.
//
// Numbers compare exactly across int and float; all other kinds must match.
// NaN equals NaN so that Equal agrees with Key.
func (v Value) Equal(o Value) bool {
	if v.Kind == KindNull || o.Kind == KindNull {
		return v.Kind == o.Kind
	}

	if v.IsNumber() && o.IsNumber() {
		switch {
		case v.Kind == KindInt && o.Kind == KindInt:
			return v.I64 == o.I64
		case v.Kind == KindInt:
			i, ok := floatToInt(o.F64)
			return ok && i == v.I64
		case o.Kind == KindInt:
			i, ok := floatToInt(v.F64)
			return ok && i == o.I64
		case math.IsNaN(v.F64) && math.IsNaN(o.F64):
			return true
		}
		return v.F64 == o.F64
	}

	if v.Kind != o.Kind {
		return false
	}

	switch v.Kind {
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.B == o.B
	case KindArray:
		if len(v.A) != len(o.A) {
			return false
		}
		for i := range v.A {
			if !v.A[i].Equal(o.A[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders two values.
//
// Numbers are ordered numerically and strings lexicographically. ok is false
// when the pair has no defined order (mixed kinds, bools, arrays, nulls).
func (v Value) Compare(o Value) (cmp int, ok bool) {
	if v.IsNumber() && o.IsNumber() {
		if v.Kind == KindInt && o.Kind == KindInt {
			switch {
			case v.I64 < o.I64:
				return -1, true
			case v.I64 > o.I64:
				return 1, true
			default:
				return 0, true
			}
		}
		a, _ := v.AsFloat64()
		b, _ := o.AsFloat64()
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		case a == b:
			return 0, true
		default:
			return 0, false // NaN
		}
	}
	if v.Kind == KindString && o.Kind == KindString {
		return strings.Compare(v.s.Value(), o.s.Value()), true
	}
	return 0, false
}

// String implements fmt.Stringer.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindString:
		return v.s.Value()
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindArray:
		parts := make([]string, len(v.A))
		for i := range v.A {
			parts[i] = v.A[i].String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return "<invalid>"
	}
}

// clone creates a deep copy of a Value, including nested arrays.
func (v Value) clone() Value {
	if v.Kind != KindArray || len(v.A) == 0 {
		return v
	}

	arrayCopy := make([]Value, len(v.A))
	for i := range v.A {
		arrayCopy[i] = v.A[i].clone()
	}
	return Value{Kind: KindArray, A: arrayCopy}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value { return v.clone() }

// MarshalJSON implements json.Marshaler.
//
// Values encode as their natural JSON form so snapshots stay readable:
// Int(2) is 2, String("a") is "a", Array is a JSON array.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		return strconv.AppendInt(nil, v.I64, 10), nil
	case KindFloat:
		if math.IsNaN(v.F64) || math.IsInf(v.F64, 0) {
			return nil, fmt.Errorf("record: cannot encode float %v as JSON", v.F64)
		}
		b := strconv.AppendFloat(nil, v.F64, 'g', -1, 64)
		if !bytes.ContainsAny(b, ".eE") {
			// Keep the float kind across a round trip.
			b = append(b, ".0"...)
		}
		return b, nil
	case KindString:
		return json.Marshal(v.s.Value())
	case KindBool:
		return strconv.AppendBool(nil, v.B), nil
	case KindArray:
		if v.A == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.A)
	default:
		return nil, fmt.Errorf("record: cannot encode value of kind %s", v.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
//
// Integral JSON numbers without a fraction or exponent decode as Int,
// everything else numeric decodes as Float. Objects are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	val, err := fromJSON(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func fromJSON(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case json.Number:
		return parseNumber(string(x))
	case []any:
		arr := make([]Value, len(x))
		for i := range x {
			vv, err := fromJSON(x[i])
			if err != nil {
				return Value{}, err
			}
			arr[i] = vv
		}
		return Array(arr), nil
	default:
		return Value{}, fmt.Errorf("record: unsupported JSON value %T", raw)
	}
}

func parseNumber(s string) (Value, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("record: invalid number %q: %w", s, err)
	}
	return Float(f), nil
}
