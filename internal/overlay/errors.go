package overlay

import "errors"

var (
	// ErrUnknownVariable is returned for a variable that is not a flat column.
	ErrUnknownVariable = errors.New("unknown overlay variable")

	// ErrInvalidBinning is returned for an empty or inverted axis.
	ErrInvalidBinning = errors.New("invalid binning")

	// ErrNoSignal is returned when a request has no signal source.
	ErrNoSignal = errors.New("overlay needs a signal source")
)
