package reflection

import "errors"

// Reflection errors.
var (
	// ErrVariableNotFound is returned when a name does not resolve to a
	// variable or resource, or carries an unusable array index.
	ErrVariableNotFound = errors.New("reflection: variable not found")

	// ErrStageMismatch is returned when two shader stages declare the same
	// buffer or resource differently.
	ErrStageMismatch = errors.New("reflection: cross-stage declaration mismatch")

	// ErrUnsupportedSpace is returned for bindings outside @group(0).
	ErrUnsupportedSpace = errors.New("reflection: only register space 0 is supported")

	// ErrUnsupportedType is returned for global types the binding layer
	// cannot map to a buffer or resource.
	ErrUnsupportedType = errors.New("reflection: unsupported global type")

	// ErrInvalidModule is returned when the module references types or
	// functions that do not exist.
	ErrInvalidModule = errors.New("reflection: invalid module")
)
