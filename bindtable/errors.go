package bindtable

import "errors"

// Binding table errors.
var (
	// ErrSlotNotFound is returned for registers or array elements the
	// layout does not declare.
	ErrSlotNotFound = errors.New("bindtable: slot not found")

	// ErrKindMismatch is returned when an object is bound to a slot of a
	// different kind.
	ErrKindMismatch = errors.New("bindtable: kind mismatch")

	// ErrUnboundSlot is returned when a bind group is requested while a
	// declared slot has nothing bound.
	ErrUnboundSlot = errors.New("bindtable: unbound slot")
)
