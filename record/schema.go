package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FieldType defines the expected data type of a field.
type FieldType uint8

const (
	FieldTypeAny FieldType = iota
	FieldTypeInt
	FieldTypeFloat
	FieldTypeString
	FieldTypeBool
	FieldTypeArray
)

// String returns the string representation of the FieldType.
func (t FieldType) String() string {
	switch t {
	case FieldTypeAny:
		return "Any"
	case FieldTypeInt:
		return "Int"
	case FieldTypeFloat:
		return "Float"
	case FieldTypeString:
		return "String"
	case FieldTypeBool:
		return "Bool"
	case FieldTypeArray:
		return "Array"
	default:
		return "Unknown"
	}
}

// ParseFieldType parses a type name as used in configuration files
// ("int", "float", "string", "bool", "array", "any").
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return FieldTypeAny, nil
	case "int", "integer":
		return FieldTypeInt, nil
	case "float", "number":
		return FieldTypeFloat, nil
	case "string", "str":
		return FieldTypeString, nil
	case "bool", "boolean":
		return FieldTypeBool, nil
	case "array", "list":
		return FieldTypeArray, nil
	default:
		return FieldTypeAny, fmt.Errorf("unknown field type %q", s)
	}
}

// Schema maps field names to expected types.
//
// Rows are schema-less; a Schema is only used where text has to be turned
// into typed values (CSV cells, CLI arguments) and for optional validation.
type Schema map[string]FieldType

// Validate checks if the given document conforms to the schema.
// Fields not named by the schema are accepted.
func (s Schema) Validate(doc Document) error {
	if s == nil {
		return nil
	}
	for k, v := range doc {
		expectedType, ok := s[k]
		if !ok {
			continue
		}

		if !checkKind(v.Kind, expectedType) {
			return fmt.Errorf("field %q has invalid type %s, expected %s", k, v.Kind, expectedType)
		}
	}
	return nil
}

// Parse converts the textual cell for field name into a Value according to
// the schema. Fields without a declared type are parsed with ParseText.
func (s Schema) Parse(name, text string) (Value, error) {
	t, ok := s[name]
	if !ok {
		return ParseText(text), nil
	}
	return t.Parse(text)
}

// Parse converts text into a Value of type t.
func (t FieldType) Parse(text string) (Value, error) {
	switch t {
	case FieldTypeAny:
		return ParseText(text), nil
	case FieldTypeInt:
		i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %q as %s: %w", text, t, err)
		}
		return Int(i), nil
	case FieldTypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %q as %s: %w", text, t, err)
		}
		return Float(f), nil
	case FieldTypeString:
		return String(text), nil
	case FieldTypeBool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return Value{}, fmt.Errorf("parse %q as %s: %w", text, t, err)
		}
		return Bool(b), nil
	case FieldTypeArray:
		var v Value
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return Value{}, fmt.Errorf("parse %q as %s: %w", text, t, err)
		}
		if v.Kind != KindArray {
			return Value{}, fmt.Errorf("parse %q as %s: not an array", text, t)
		}
		return v, nil
	default:
		return Value{}, fmt.Errorf("unsupported field type %s", t)
	}
}

// ParseText interprets text as JSON when it is a valid JSON scalar or array
// and falls back to a plain string otherwise. "2" becomes Int(2), "true"
// becomes Bool(true), "lion" stays String("lion").
func ParseText(text string) Value {
	var v Value
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v
	}
	return String(text)
}

func checkKind(k Kind, expected FieldType) bool {
	if k == KindNull {
		return true
	}
	switch expected {
	case FieldTypeAny:
		return true
	case FieldTypeInt:
		return k == KindInt
	case FieldTypeFloat:
		return k == KindFloat || k == KindInt // Allow upgrading Int to Float
	case FieldTypeString:
		return k == KindString
	case FieldTypeBool:
		return k == KindBool
	case FieldTypeArray:
		return k == KindArray
	}
	return false
}
