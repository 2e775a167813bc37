package filter

import (
	"slices"
	"strings"

	"github.com/hupe1980/kangaroo/record"
)

// Args is a query in the filter-key mini-language: keys are either a bare
// field name (equality) or "field__operator", values are predicate values.
//
//	filter.Args{"animal": "kangaroo", "number__gt": 2}
type Args map[string]any

// Parse turns a single key/value pair into a Filter.
//
// The key is split at the first "__"; everything after it names the
// operator, so field names cannot contain the separator.
func Parse(key string, v any) (Filter, error) {
	field, opName, found := strings.Cut(key, Separator)
	if !found {
		return New(key, OpEqual, v)
	}
	op, err := LookupOperator(opName)
	if err != nil {
		return Filter{}, &UnknownOperatorError{Name: opName, Key: key}
	}
	return New(field, op, v)
}

// Parse converts all arguments into filters ordered by key, so query plans
// and error reporting are deterministic.
func (a Args) Parse() ([]Filter, error) {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	filters := make([]Filter, 0, len(keys))
	for _, k := range keys {
		f, err := Parse(k, a[k])
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// ParseExpr parses a "key=value" expression as typed on a command line.
// The value is interpreted with record.ParseText.
func ParseExpr(expr string) (Filter, error) {
	key, text, found := strings.Cut(expr, "=")
	if !found {
		return Filter{}, &InvalidPredicateError{Field: expr, Reason: "expected key=value"}
	}
	return Parse(strings.TrimSpace(key), record.ParseText(text))
}

// Eq returns an equality filter. It panics if v cannot be converted to a record.Value.
func Eq(field string, v any) Filter { return must(field, OpEqual, v) }

// Ne returns an inequality filter.
func Ne(field string, v any) Filter { return must(field, OpNotEqual, v) }

// Gt returns a greater-than filter.
func Gt(field string, v any) Filter { return must(field, OpGreaterThan, v) }

// Gte returns a greater-than-or-equal filter.
func Gte(field string, v any) Filter { return must(field, OpGreaterEqual, v) }

// Lt returns a less-than filter.
func Lt(field string, v any) Filter { return must(field, OpLessThan, v) }

// Lte returns a less-than-or-equal filter.
func Lte(field string, v any) Filter { return must(field, OpLessEqual, v) }

// In returns a membership filter: the field value must equal one of values.
func In(field string, values ...any) Filter {
	arr := make([]record.Value, len(values))
	for i := range values {
		arr[i] = record.MustFromAny(values[i])
	}
	return must(field, OpIn, record.Array(arr))
}

// Range returns an inclusive range filter.
func Range(field string, low, high any) Filter {
	return must(field, OpRange, record.Array([]record.Value{record.MustFromAny(low), record.MustFromAny(high)}))
}

// Contains returns a filter matching arrays holding v, or strings containing v.
func Contains(field string, v any) Filter { return must(field, OpContains, v) }

// StartsWith returns a string prefix filter.
func StartsWith(field, prefix string) Filter { return must(field, OpStartsWith, prefix) }

// EndsWith returns a string suffix filter.
func EndsWith(field, suffix string) Filter { return must(field, OpEndsWith, suffix) }

func must(field string, op Operator, v any) Filter {
	f, err := New(field, op, v)
	if err != nil {
		panic(err)
	}
	return f
}
