package types

import (
	"errors"
	"fmt"
)

// NotFoundError reports a filter or lookup that references an entity that
// does not exist. Read-side, always fatal for the request.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// InvalidArgumentError reports a caller mistake such as an empty id set or
// an unresolved product stream.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason
}

// ValidationError reports a structurally unusable write batch.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// AdapterError is a recoverable per-record import failure. The orchestrator
// rolls back the record's transaction and, in lenient mode, logs the message
// and continues with the next record. Any other error aborts the batch.
type AdapterError struct {
	msg string
}

func (e *AdapterError) Error() string {
	return e.msg
}

// Adapterf builds a recoverable import error.
func Adapterf(format string, args ...any) *AdapterError {
	return &AdapterError{msg: fmt.Sprintf(format, args...)}
}

// IsAdapterError reports whether err is, or wraps, a recoverable import error.
func IsAdapterError(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInvalidArgument reports whether err is, or wraps, an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var ia *InvalidArgumentError
	return errors.As(err, &ia)
}
