package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSnapshot is returned by Load when nothing was dumped yet.
	ErrNoSnapshot = errors.New("no snapshot")

	// ErrCorruptSnapshot is returned when a snapshot file cannot be parsed.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrChecksumMismatch is returned when a snapshot's checksum does not match its contents.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrUnsupportedCodec is returned for an unknown codec or compression name.
	ErrUnsupportedCodec = errors.New("unsupported codec")

	// ErrInvalidTableName is returned when a table name cannot be used as a file name.
	ErrInvalidTableName = errors.New("invalid table name")

	// ErrPasswordRequired is returned when loading a sealed snapshot without a password.
	ErrPasswordRequired = errors.New("snapshot is sealed, password required")
)

// CorruptError describes where a snapshot file failed to parse.
type CorruptError struct {
	Name   string
	Reason string
	cause  error
}

func (e *CorruptError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("snapshot %s: %s: %v", e.Name, e.Reason, e.cause)
	}
	return fmt.Sprintf("snapshot %s: %s", e.Name, e.Reason)
}

// Unwrap returns ErrCorruptSnapshot and the underlying cause.
func (e *CorruptError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrCorruptSnapshot, e.cause}
	}
	return []error{ErrCorruptSnapshot}
}

func corrupt(name, reason string, cause error) error {
	return &CorruptError{Name: name, Reason: reason, cause: cause}
}
