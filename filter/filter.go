package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/kangaroo/record"
)

// Operator represents a comparison operator for filtering.
type Operator string

const (
	// OpEqual represents the equality operator. It is implied by a bare field key.
	OpEqual Operator = "eq"
	// OpNotEqual represents the inequality operator.
	OpNotEqual Operator = "ne"
	// OpGreaterThan represents the greater than operator.
	OpGreaterThan Operator = "gt"
	// OpGreaterEqual represents the greater than or equal operator.
	OpGreaterEqual Operator = "gte"
	// OpLessThan represents the less than operator.
	OpLessThan Operator = "lt"
	// OpLessEqual represents the less than or equal operator.
	OpLessEqual Operator = "lte"
	// OpIn represents membership of the field value in the predicate collection.
	OpIn Operator = "in"
	// OpRange represents an inclusive [low, high] range check.
	OpRange Operator = "range"
	// OpContains represents membership of the predicate in the field value.
	OpContains Operator = "contains"
	// OpStartsWith represents a string prefix test.
	OpStartsWith Operator = "startswith"
	// OpEndsWith represents a string suffix test.
	OpEndsWith Operator = "endswith"
)

var operators = []Operator{
	OpEqual, OpNotEqual, OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual,
	OpIn, OpRange, OpContains, OpStartsWith, OpEndsWith,
}

// Operators returns every supported operator.
func Operators() []Operator { return slices.Clone(operators) }

// Valid reports whether op is a supported operator.
func (op Operator) Valid() bool { return slices.Contains(operators, op) }

// LookupOperator returns the operator with the given name.
func LookupOperator(name string) (Operator, error) {
	op := Operator(name)
	if !op.Valid() {
		return "", &UnknownOperatorError{Name: name}
	}
	return op, nil
}

// Separator splits a field name from an operator name in a filter key.
const Separator = "__"

// Getter is implemented by anything filters can be evaluated against.
type Getter interface {
	Get(field string) (record.Value, bool)
}

// Filter is a single (field, operator, value) predicate.
type Filter struct {
	Field    string
	Operator Operator
	Value    record.Value
}

// New creates a filter after validating the operator and the predicate shape.
func New(field string, op Operator, v any) (Filter, error) {
	if !op.Valid() {
		return Filter{}, &UnknownOperatorError{Name: string(op), Key: field + Separator + string(op)}
	}
	val, err := record.FromAny(v)
	if err != nil {
		return Filter{}, &InvalidPredicateError{Field: field, Operator: op, cause: err}
	}
	f := Filter{Field: field, Operator: op, Value: val}
	if err := f.validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func (f Filter) validate() error {
	switch f.Operator {
	case OpRange:
		arr, ok := f.Value.AsArray()
		if !ok || len(arr) != 2 {
			return &InvalidPredicateError{Field: f.Field, Operator: f.Operator, Reason: "range expects [low, high]"}
		}
	case OpIn:
		if f.Value.Kind != record.KindArray && f.Value.Kind != record.KindString {
			return &InvalidPredicateError{Field: f.Field, Operator: f.Operator, Reason: "in expects an array or a string"}
		}
	}
	return nil
}

// Key returns the filter key in the mini-language ("number__gt", or "number" for eq).
func (f Filter) Key() string {
	if f.Operator == OpEqual || f.Operator == "" {
		return f.Field
	}
	return f.Field + Separator + string(f.Operator)
}

// String implements fmt.Stringer.
func (f Filter) String() string {
	return fmt.Sprintf("%s=%s", f.Key(), f.Value)
}

// Matches reports whether the row satisfies the filter.
// A row that does not define the field never matches, whatever the operator.
func (f Filter) Matches(row Getter) bool {
	value, exists := row.Get(f.Field)
	if !exists {
		return false
	}
	return f.Match(value)
}

// Match evaluates the operator against a present field value.
func (f Filter) Match(value record.Value) bool {
	switch f.Operator {
	case OpEqual, "":
		return value.Equal(f.Value)
	case OpNotEqual:
		return !value.Equal(f.Value)
	case OpGreaterThan:
		cmp, ok := value.Compare(f.Value)
		return ok && cmp > 0
	case OpGreaterEqual:
		cmp, ok := value.Compare(f.Value)
		return ok && cmp >= 0
	case OpLessThan:
		cmp, ok := value.Compare(f.Value)
		return ok && cmp < 0
	case OpLessEqual:
		cmp, ok := value.Compare(f.Value)
		return ok && cmp <= 0
	case OpIn:
		return compareIn(value, f.Value)
	case OpRange:
		return compareRange(value, f.Value)
	case OpContains:
		return compareContains(value, f.Value)
	case OpStartsWith:
		s, ok1 := value.AsString()
		p, ok2 := f.Value.AsString()
		return ok1 && ok2 && strings.HasPrefix(s, p)
	case OpEndsWith:
		s, ok1 := value.AsString()
		p, ok2 := f.Value.AsString()
		return ok1 && ok2 && strings.HasSuffix(s, p)
	default:
		return false
	}
}

// Indexable reports whether the filter can be answered from an equality index.
func (f Filter) Indexable() bool {
	return f.Operator == OpEqual || f.Operator == ""
}

// Match reports whether the row satisfies every filter (logical AND).
// It stops at the first failing filter.
func Match(row Getter, filters ...Filter) bool {
	for i := range filters {
		if !filters[i].Matches(row) {
			return false
		}
	}
	return true
}

func compareIn(a, b record.Value) bool {
	switch b.Kind {
	case record.KindArray:
		for _, item := range b.A {
			if a.Equal(item) {
				return true
			}
		}
		return false
	case record.KindString:
		s, ok := a.AsString()
		return ok && strings.Contains(b.StringValue(), s)
	default:
		return false
	}
}

func compareRange(v, bounds record.Value) bool {
	arr, ok := bounds.AsArray()
	if !ok || len(arr) != 2 {
		return false
	}
	lo, ok := v.Compare(arr[0])
	if !ok || lo < 0 {
		return false
	}
	hi, ok := v.Compare(arr[1])
	return ok && hi <= 0
}

func compareContains(container, item record.Value) bool {
	switch container.Kind {
	case record.KindArray:
		for _, elem := range container.A {
			if elem.Equal(item) {
				return true
			}
		}
		return false
	case record.KindString:
		s, ok := item.AsString()
		return ok && strings.Contains(container.StringValue(), s)
	default:
		return false
	}
}
