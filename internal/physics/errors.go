package physics

import "errors"

// Sentinel errors for this package. Callers use errors.Is.
var (
	ErrUnknownSample    = errors.New("unknown sample")
	ErrUnknownMatchMode = errors.New("unknown match mode")
	ErrUnknownRegion    = errors.New("unknown eta region")
	ErrInvalidConstants = errors.New("invalid physics constants")
	ErrIllDefinedEnergy = errors.New("supercluster energy too small for H/E correction")
)
