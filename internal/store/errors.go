package store

import "errors"

var (
	// ErrConversionNotFound is returned when no conversion has the given id.
	ErrConversionNotFound = errors.New("conversion not found")

	// ErrNotRunning is returned when finishing a conversion that already finished.
	ErrNotRunning = errors.New("conversion is not running")
)
