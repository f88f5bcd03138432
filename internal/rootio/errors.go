package rootio

import "errors"

var (
	// ErrTreeNotFound is returned when the named tree is absent or is not a tree.
	ErrTreeNotFound = errors.New("tree not found")

	// ErrHistNotFound is returned when the named histogram is absent or not 2-D.
	ErrHistNotFound = errors.New("histogram not found")
)
