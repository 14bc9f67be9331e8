package shaderbind

import (
	"errors"

	"github.com/gogpu/shaderbind/bindtable"
	"github.com/gogpu/shaderbind/layout"
	"github.com/gogpu/shaderbind/reflection"
	"github.com/gogpu/shaderbind/varbuf"
)

// Errors returned by shaderbind and its sub-packages. Use errors.Is to
// match them; sub-package errors are wrapped with context.
var (
	ErrVariableNotFound = reflection.ErrVariableNotFound
	ErrStageMismatch    = reflection.ErrStageMismatch
	ErrUnsupportedSpace = reflection.ErrUnsupportedSpace
	ErrCapacityExceeded = layout.ErrCapacityExceeded
	ErrTypeMismatch     = varbuf.ErrTypeMismatch
	ErrOutOfBounds      = varbuf.ErrOutOfBounds
	ErrUnboundSlot      = bindtable.ErrUnboundSlot

	// ErrKindMismatch is returned when an object is bound to a resource
	// of a different kind, such as a structured buffer to a texture.
	ErrKindMismatch = errors.New("shaderbind: resource kind mismatch")

	// ErrNoSource is returned by NewProgram when no shader source is given.
	ErrNoSource = errors.New("shaderbind: no shader source")

	// ErrClosed is returned when a closed Context is used.
	ErrClosed = errors.New("shaderbind: context closed")
)
