package kangaroo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kangaroo/filter"
	"github.com/hupe1980/kangaroo/storage"
	"github.com/hupe1980/kangaroo/table"
)

var (
	// ErrDuplicateTable is returned when a table name is already taken.
	ErrDuplicateTable = errors.New("duplicate table")

	// ErrNotFound is returned when a table or row does not exist.
	ErrNotFound = table.ErrNotFound

	// ErrUnknownField is returned when a row does not define a requested field.
	ErrUnknownField = table.ErrUnknownField

	// ErrUnknownOperator is returned for an unsupported "__operator" suffix.
	ErrUnknownOperator = filter.ErrUnknownOperator

	// ErrNoStorage is returned by Dump and Load when no storage is configured.
	ErrNoStorage = errors.New("no storage configured")

	// ErrNoSnapshot is returned by Load when the storage holds no tables yet.
	ErrNoSnapshot = storage.ErrNoSnapshot

	// ErrClosed is returned when using a closed bucket.
	ErrClosed = errors.New("bucket closed")
)

type (
	// NotFoundError reports a missing table or row.
	NotFoundError = table.NotFoundError

	// UnknownFieldError reports a field a row does not define.
	UnknownFieldError = table.UnknownFieldError

	// UnknownOperatorError reports an unrecognized operator.
	UnknownOperatorError = filter.UnknownOperatorError
)

// DuplicateTableError is returned by AddTable for a name that already exists.
type DuplicateTableError struct {
	Name string
}

func (e *DuplicateTableError) Error() string {
	return fmt.Sprintf("table %q already exists", e.Name)
}

func (e *DuplicateTableError) Unwrap() error { return ErrDuplicateTable }
