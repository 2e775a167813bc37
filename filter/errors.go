package filter

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOperator is returned when a filter key names an unsupported operator.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrInvalidPredicate is returned when a predicate value does not fit its operator.
	ErrInvalidPredicate = errors.New("invalid predicate")
)

// UnknownOperatorError reports an unrecognized "__operator" suffix.
type UnknownOperatorError struct {
	Name string
	Key  string
}

func (e *UnknownOperatorError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("unknown operator %q in filter key %q", e.Name, e.Key)
	}
	return fmt.Sprintf("unknown operator %q", e.Name)
}

func (e *UnknownOperatorError) Unwrap() error { return ErrUnknownOperator }

// InvalidPredicateError reports a predicate value the operator cannot use.
type InvalidPredicateError struct {
	Field    string
	Operator Operator
	Reason   string
	cause    error
}

func (e *InvalidPredicateError) Error() string {
	msg := fmt.Sprintf("invalid predicate for %q", e.Field)
	if e.Operator != "" {
		msg += fmt.Sprintf(" (%s)", e.Operator)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying conversion error.
func (e *InvalidPredicateError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrInvalidPredicate, e.cause}
	}
	return []error{ErrInvalidPredicate}
}
