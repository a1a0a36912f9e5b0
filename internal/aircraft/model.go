// Package aircraft defines the physics model the orchestrator drives and
// provides a small reference implementation.
//
// The orchestrator only ever touches a model through [Model]: it reads and
// writes the state vector wholesale, asks for its time derivative and for
// the ground contact force, and lets the model integrate itself. Inputs
// reach the model through named signals bound in [Model.Bind].
package aircraft

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/dataref"
)

type Model interface {
	// Bind resolves the model's inputs by path.
	Bind(reg *dataref.Registry) error

	// Initialize puts the model into its starting condition.
	Initialize(engineOn bool)

	StateVector() StateVector
	SetStateVector(s StateVector)

	// Derivative evaluates the time derivative at the current state.
	Derivative() StateVector

	// GroundForce is the magnitude of the ground reaction force, zero when
	// airborne.
	GroundForce() float64

	SetFreeze(position, attitude, velocity bool)

	// Update integrates the state over dt. A non-finite result is reported
	// as a *StepError wrapping ErrUnexpectedNaN.
	Update(dt float64) error

	// Flight returns the derived quantities at the current state.
	Flight() Flight
}

// Factory creates a fresh, unbound model.
type Factory func() Model

// Flight carries what cannot be recomputed from the state vector alone.
type Flight struct {
	// AccBody is the body-axis acceleration including the transport term.
	AccBody mgl64.Vec3
	// SpecificForce is the non-gravitational force per unit mass, body axes.
	SpecificForce mgl64.Vec3
	AngularAcc    mgl64.Vec3
	// PilotPos is the pilot station relative to the centre of mass.
	PilotPos mgl64.Vec3

	AngleOfAttack float64
	Sideslip      float64
	TAS           float64
	IAS           float64
	Mach          float64

	Pressure    float64
	Density     float64
	Temperature float64

	Elevation float64
	Engines   [data.MaxEngines]data.EngineOut

	OnGround bool
	Stall    bool
	Crash    bool
}
