package aircraft

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BrakeSide selects which brake pedal acts on a leg.
type BrakeSide int

const (
	NoBrake BrakeSide = iota
	LeftBrake
	RightBrake
)

// Leg is a spring-damper landing gear strut. The wheel contact point lies
// Length below Attach along the body z axis.
type Leg struct {
	Name      string
	Attach    mgl64.Vec3
	Length    float64
	Travel    float64
	Stiffness float64
	Damping   float64

	Rolling float64 // rolling friction coefficient
	Braking float64 // added friction at full brake
	Side    float64 // lateral friction coefficient
	Brake   BrakeSide
}

// Wheel returns the contact point in body axes.
func (l Leg) Wheel() mgl64.Vec3 {
	return l.Attach.Add(mgl64.Vec3{0, 0, l.Length})
}

// slipSpeed smooths the friction sign change around zero velocity.
const slipSpeed = 0.5

type contact struct {
	force       mgl64.Vec3
	moment      mgl64.Vec3
	normal      float64
	compression float64
	bottomed    bool
}

// contact evaluates one leg. agl is the height of the centre of mass above
// the ground, bodyNED the body to NED attitude.
func (l Leg) contact(agl float64, bodyNED mgl64.Quat, vel, omega mgl64.Vec3, brake float64) contact {
	var c contact

	wheel := l.Wheel()
	h := agl - bodyNED.Rotate(wheel).Z()
	if h >= 0 {
		return c
	}
	c.compression = -h
	c.bottomed = l.Travel > 0 && c.compression > l.Travel

	vb := vel.Add(omega.Cross(wheel))
	vn := bodyNED.Rotate(vb)

	n := l.Stiffness*c.compression + l.Damping*vn.Z()
	if n <= 0 {
		return c
	}
	c.normal = n

	f := bodyNED.Conjugate().Rotate(mgl64.Vec3{0, 0, -n})
	mu := l.Rolling + l.Braking*brake
	f[0] -= mu * n * sat(vb.X()/slipSpeed)
	f[1] -= l.Side * n * sat(vb.Y()/slipSpeed)

	c.force = f
	c.moment = wheel.Cross(f)
	return c
}

func sat(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
