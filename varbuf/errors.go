package varbuf

import "errors"

// Buffer errors.
var (
	// ErrTypeMismatch is returned when a value's type differs from the
	// declared type of the variable it is written to.
	ErrTypeMismatch = errors.New("varbuf: type mismatch")

	// ErrOutOfBounds is returned for writes, reads and uploads that fall
	// outside the buffer.
	ErrOutOfBounds = errors.New("varbuf: out of bounds")

	// ErrResourceNotFound is returned when a resource slot name is not
	// declared in the buffer.
	ErrResourceNotFound = errors.New("varbuf: resource not found")
)
