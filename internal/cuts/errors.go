package cuts

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

var (
	// ErrRepositoryNotFound is returned when the cut repository directory is missing.
	ErrRepositoryNotFound = errors.New("cut repository not found")

	// ErrCutSetNotFound is returned when a (region, working point) cut set file is missing.
	ErrCutSetNotFound = errors.New("cut set not found")

	// ErrUnknownVariable is returned when a cut set has no cut on the variable.
	ErrUnknownVariable = errors.New("unknown cut variable")

	// ErrInvalidCutSet is returned when a cut set file does not match the schema.
	ErrInvalidCutSet = errors.New("invalid cut set")

	// ErrUnknownWorkingPoint is returned for a working point name or index out of range.
	ErrUnknownWorkingPoint = errors.New("unknown working point")

	// ErrUnsupportedRegion is returned for regions other than barrel and endcap.
	ErrUnsupportedRegion = errors.New("cuts are defined for barrel and endcap only")
)

// SchemaError is a cut set schema violation with its source position.
type SchemaError struct {
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

func (e *SchemaError) Unwrap() error { return ErrInvalidCutSet }

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &SchemaError{Message: err.Error()}
	}
	first := errs[0]
	se := &SchemaError{Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		se.Pos = positions[0]
	}
	return se
}
