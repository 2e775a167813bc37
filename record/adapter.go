package record

import (
	"encoding/json"
	"fmt"
	"math"
)

// FromAny converts a Go value into a typed Value.
//
// This exists as an adapter layer for user input and for the filter
// mini-language, where predicate values arrive as plain Go values.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case float64:
		return Float(x), nil
	case float32:
		return Float(float64(x)), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUint64(uint64(x))
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return fromUint64(x)
	case json.Number:
		return parseNumber(string(x))
	case []Value:
		return Array(x), nil
	case []any:
		arr := make([]Value, len(x))
		for i := range x {
			vv, err := FromAny(x[i])
			if err != nil {
				return Value{}, err
			}
			arr[i] = vv
		}
		return Array(arr), nil
	case []string:
		return Strings(x...), nil
	case []int:
		arr := make([]Value, len(x))
		for i := range x {
			arr[i] = Int(int64(x[i]))
		}
		return Array(arr), nil
	case []int64:
		return Ints(x...), nil
	case []float64:
		arr := make([]Value, len(x))
		for i := range x {
			arr[i] = Float(x[i])
		}
		return Array(arr), nil
	case []bool:
		arr := make([]Value, len(x))
		for i := range x {
			arr[i] = Bool(x[i])
		}
		return Array(arr), nil
	default:
		return Value{}, fmt.Errorf("unsupported record value type %T", v)
	}
}

func fromUint64(x uint64) (Value, error) {
	if x > math.MaxInt64 {
		// Avoid silently wrapping large values.
		return Value{}, fmt.Errorf("record uint64 out of range: %d", x)
	}
	return Int(int64(x)), nil
}

// MustFromAny is like FromAny but panics on unsupported input.
// It is intended for literals in tests and examples.
func MustFromAny(v any) Value {
	val, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return val
}

// DocumentFromAny converts a map[string]any document to a typed Document.
func DocumentFromAny(m map[string]any) (Document, error) {
	d := make(Document, len(m))
	for k, v := range m {
		vv, err := FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		d[k] = vv
	}
	return d, nil
}

// Any converts the value back into a plain Go value.
func (v Value) Any() any {
	switch v.Kind {
	case KindInt:
		return v.I64
	case KindFloat:
		return v.F64
	case KindString:
		return v.s.Value()
	case KindBool:
		return v.B
	case KindArray:
		out := make([]any, len(v.A))
		for i := range v.A {
			out[i] = v.A[i].Any()
		}
		return out
	default:
		return nil
	}
}
