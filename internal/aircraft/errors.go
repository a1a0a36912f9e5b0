package aircraft

import (
	"errors"
	"fmt"
)

// ErrUnexpectedNaN indicates the model produced a NaN or Inf state. It is a
// contract violation of the physics model and is not recovered from.
var ErrUnexpectedNaN = errors.New("aircraft: unexpected NaN in state vector")

// ErrMissingSignal indicates a model could not bind one of its inputs.
var ErrMissingSignal = errors.New("aircraft: missing input signal")

// StepError wraps an integration failure with the simulation time it
// occurred at.
type StepError struct {
	Time    float64
	State   StateVector
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("t=%.4f: %v", e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
