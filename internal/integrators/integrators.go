// Package integrators provides fixed-step ODE steppers for the aircraft
// state vector.
package integrators

import "fmt"

// Func evaluates the time derivative of x. Inputs that change between steps
// are held constant for the duration of a step.
type Func func(x []float64) []float64

type Integrator interface {
	Step(f Func, x []float64, dt float64) []float64
}

// New returns the integrator registered under name.
func New(name string) (Integrator, error) {
	switch name {
	case "euler":
		return NewEuler(), nil
	case "rk4", "":
		return NewRK4(), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
}

// Names lists the available integrators.
func Names() []string {
	return []string{"euler", "rk4"}
}
