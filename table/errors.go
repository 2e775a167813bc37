package table

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a table or row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownField is returned when a row does not define a requested field.
	ErrUnknownField = errors.New("unknown field")
)

// NotFoundError reports a missing table or row.
type NotFoundError struct {
	Kind string // "table" or "row"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// UnknownFieldError is returned by Row.Field for a field the row does not define.
type UnknownFieldError struct {
	RowID uint64
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("row %d has no field %q", e.RowID, e.Field)
}

func (e *UnknownFieldError) Unwrap() error { return ErrUnknownField }
