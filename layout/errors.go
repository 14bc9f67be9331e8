package layout

import "errors"

// Layout errors.
var (
	// ErrCapacityExceeded is returned when a layout needs more root
	// storage than the budget allows.
	ErrCapacityExceeded = errors.New("layout: root signature capacity exceeded")

	// ErrUnsupportedResource is returned for resources that have no
	// native binding type.
	ErrUnsupportedResource = errors.New("layout: unsupported resource")

	// ErrBindingConflict is returned when two declarations claim the same
	// register in the same space.
	ErrBindingConflict = errors.New("layout: binding conflict")
)
