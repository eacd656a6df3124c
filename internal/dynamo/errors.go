package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for trajectory computation.
var (
	// ErrInvalidStateDimension indicates a derivative whose width differs from the state width.
	ErrInvalidStateDimension = errors.New("dynamo: derivative width does not match state width")

	// ErrMissingCurrentPoint indicates the cache has no sample for the clock's current step.
	ErrMissingCurrentPoint = errors.New("dynamo: no trajectory point at current step")

	// ErrMissingParentSample indicates a parent lookup miss during derivative evaluation.
	// It is recovered locally and only reported through counters and logs.
	ErrMissingParentSample = errors.New("dynamo: parent trajectory sample missing")

	// ErrParentBehind indicates a parent trajectory that does not cover a child's extension.
	ErrParentBehind = errors.New("dynamo: parent trajectory does not cover extension range")

	// ErrNonContiguous indicates an insert that would leave a hole in a trajectory.
	ErrNonContiguous = errors.New("dynamo: trajectory insert past frontier")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")
)

// DimensionError reports the widths involved in an ErrInvalidStateDimension failure.
type DimensionError struct {
	State int
	Deriv int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%v: state %d, derivative %d", ErrInvalidStateDimension, e.State, e.Deriv)
}

func (e *DimensionError) Unwrap() error {
	return ErrInvalidStateDimension
}

// CacheError wraps a scheduling failure with the body and step it concerns.
type CacheError struct {
	Body    string
	Step    uint64
	Wrapped error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("body %q at step %d: %v", e.Body, e.Step, e.Wrapped)
}

func (e *CacheError) Unwrap() error {
	return e.Wrapped
}
