package aircraft

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/dataref"
	"github.com/san-kum/fdmsim/internal/integrators"
	"github.com/san-kum/fdmsim/internal/wgs"
)

const (
	// below this airspeed aerodynamic forces are ignored
	minAirspeed = 1.0
	// stall is only flagged above this airspeed
	stallSpeed = 10.0
	// quaternion norm drift correction gain
	normGain = 1.0
)

type controlRefs struct {
	roll, pitch, yaw             dataref.Ref
	trimRoll, trimPitch, trimYaw dataref.Ref
	brakeLeft, brakeRight        dataref.Ref
	flaps, airbrake, spoilers    dataref.Ref
}

type engineRefs struct {
	throttle, fuel, ignition, starter dataref.Ref
}

// Generic is a six degree of freedom rigid body with linear aerodynamics,
// fixed thrust engines and spring-damper gear.
type Generic struct {
	p     Params
	integ integrators.Integrator

	ctl       controlRefs
	eng       []engineRefs
	masses    []dataref.Ref
	elevation dataref.Ref
	bound     bool

	state   StateVector
	running [data.MaxEngines]bool
	time    float64
	crashed bool

	freezePos, freezeAtt, freezeVel bool
}

type evaluation struct {
	frame   wgs.Frame
	bodyNED mgl64.Quat
	agl     float64
	atm     Atmosphere

	force  mgl64.Vec3
	moment mgl64.Vec3
	weight mgl64.Vec3
	mass   float64

	ground   float64
	bottomed bool

	tas, alpha, beta float64
	stall            bool
	thrust           [data.MaxEngines]float64

	deriv StateVector
}

var _ Model = (*Generic)(nil)

func NewGeneric(p Params, integ integrators.Integrator) *Generic {
	if integ == nil {
		integ = integrators.NewRK4()
	}
	if p.Engines > data.MaxEngines {
		p.Engines = data.MaxEngines
	}
	g := &Generic{p: p, integ: integ}
	g.state.SetAtt(mgl64.QuatIdent())
	return g
}

func (g *Generic) Params() Params { return g.p }

// Bind resolves every input the model reads. All paths must exist.
func (g *Generic) Bind(reg *dataref.Registry) error {
	var missing []string
	get := func(path string) dataref.Ref {
		ref := reg.Get(path)
		if !ref.Valid() {
			missing = append(missing, path)
		}
		return ref
	}

	c := "input.controls."
	g.ctl = controlRefs{
		roll:       get(c + "roll"),
		pitch:      get(c + "pitch"),
		yaw:        get(c + "yaw"),
		trimRoll:   get(c + "trim_roll"),
		trimPitch:  get(c + "trim_pitch"),
		trimYaw:    get(c + "trim_yaw"),
		brakeLeft:  get(c + "brake_left"),
		brakeRight: get(c + "brake_right"),
		flaps:      get(c + "flaps"),
		airbrake:   get(c + "airbrake"),
		spoilers:   get(c + "spoilers"),
	}

	g.eng = g.eng[:0]
	for i := 0; i < g.p.Engines; i++ {
		e := fmt.Sprintf("input.engine_%d.", i+1)
		g.eng = append(g.eng, engineRefs{
			throttle: get(e + "throttle"),
			fuel:     get(e + "fuel"),
			ignition: get(e + "ignition"),
			starter:  get(e + "starter"),
		})
	}

	g.masses = g.masses[:0]
	for i := 0; i < data.MaxPilots; i++ {
		g.masses = append(g.masses, get(fmt.Sprintf("input.masses.pilot_%d", i+1)))
	}
	for i := 0; i < data.MaxTanks; i++ {
		g.masses = append(g.masses, get(fmt.Sprintf("input.masses.fuel_tank_%d", i+1)))
	}
	for _, name := range []string{"cabin", "trunk", "slung"} {
		g.masses = append(g.masses, get("input.masses."+name))
	}

	g.elevation = get("input.ground.elevation")

	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingSignal, missing)
	}
	g.bound = true
	return nil
}

func (g *Generic) Initialize(engineOn bool) {
	g.state = StateVector{}
	g.state.SetAtt(mgl64.QuatIdent())
	g.time = 0
	g.crashed = false
	for i := range g.running {
		g.running[i] = engineOn && i < g.p.Engines
	}
}

func (g *Generic) StateVector() StateVector { return g.state }

func (g *Generic) SetStateVector(s StateVector) {
	g.state = s
}

func (g *Generic) Derivative() StateVector {
	return g.eval().deriv
}

func (g *Generic) GroundForce() float64 {
	return g.eval().ground
}

func (g *Generic) SetFreeze(position, attitude, velocity bool) {
	g.freezePos, g.freezeAtt, g.freezeVel = position, attitude, velocity
}

// Mass is the current total mass including variable loads.
func (g *Generic) Mass() float64 {
	m := g.p.EmptyMass
	if g.bound {
		for _, r := range g.masses {
			m += r.Float64()
		}
	}
	return m
}

// StaticHeight is the height of the centre of mass above level ground when
// the aircraft rests on its gear at the current mass.
func (g *Generic) StaticHeight() float64 {
	if len(g.p.Gear) == 0 {
		return 0
	}
	k := 0.0
	for _, l := range g.p.Gear {
		k += l.Stiffness
	}
	return g.p.Gear[0].Wheel().Z() - g.Mass()*wgs.G0/k
}

// Update advances the engines and integrates the state over dt.
func (g *Generic) Update(dt float64) error {
	g.updateEngines()

	next := g.integ.Step(func(x []float64) []float64 {
		var s StateVector
		copy(s[:], x)
		e := g.evaluate(s)
		d := e.deriv
		g.mask(&d)
		return d[:]
	}, g.state[:], dt)

	var s StateVector
	copy(s[:], next)
	s.SetAtt(s.Att().Normalize())
	g.time += dt

	if !s.IsValid() {
		return &StepError{Time: g.time, State: s, Wrapped: ErrUnexpectedNaN}
	}
	g.state = s

	if e := g.eval(); e.bottomed || e.agl < 0 {
		g.crashed = true
	}
	return nil
}

func (g *Generic) mask(d *StateVector) {
	if g.freezePos {
		d.SetPos(mgl64.Vec3{})
	}
	if g.freezeAtt {
		d.SetAtt(mgl64.Quat{})
	}
	if g.freezeVel {
		d.SetVel(mgl64.Vec3{})
		d.SetOmega(mgl64.Vec3{})
	}
}

func (g *Generic) updateEngines() {
	for i := range g.eng {
		e := g.eng[i]
		fuel, ign := e.fuel.Bool(), e.ignition.Bool()
		switch {
		case !fuel || !ign:
			g.running[i] = false
		case e.starter.Bool():
			g.running[i] = true
		}
	}
}

func (g *Generic) Flight() Flight {
	e := g.eval()

	f := Flight{
		AccBody:       e.deriv.Vel(),
		AngularAcc:    e.deriv.Omega(),
		PilotPos:      g.p.PilotPos,
		AngleOfAttack: e.alpha,
		Sideslip:      e.beta,
		TAS:           e.tas,
		IAS:           e.tas * math.Sqrt(e.atm.Density/SeaLevelDensity),
		Mach:          e.tas / e.atm.SoundSpeed,
		Pressure:      e.atm.Pressure,
		Density:       e.atm.Density,
		Temperature:   e.atm.Temperature,
		OnGround:      e.ground > 0,
		Stall:         e.stall,
		Crash:         g.crashed,
	}
	if e.mass > 0 {
		f.SpecificForce = e.force.Sub(e.weight).Mul(1 / e.mass)
	}
	if g.bound {
		f.Elevation = g.elevation.Float64()
	}
	for i := 0; i < g.p.Engines; i++ {
		f.Engines[i] = data.EngineOut{Running: g.running[i], Thrust: e.thrust[i]}
	}
	return f
}

// eval evaluates the current state with the current inputs.
func (g *Generic) eval() *evaluation {
	e := g.evaluate(g.state)
	return &e
}

func (g *Generic) input(r dataref.Ref) float64 {
	if !g.bound {
		return 0
	}
	return r.Float64()
}

// evaluate computes forces, moments and the state derivative at s.
func (g *Generic) evaluate(s StateVector) evaluation {
	var e evaluation

	att := s.Att()
	vel, omega := s.Vel(), s.Omega()

	e.frame = wgs.NewFrame(s.Pos())
	e.bodyNED = e.frame.BodyToNED(att)
	e.agl = e.frame.Alt - g.input(g.elevation)
	e.atm = ISA(e.frame.Alt)
	e.mass = g.Mass()

	e.weight = e.bodyNED.Conjugate().Rotate(mgl64.Vec3{0, 0, e.mass * wgs.G0})
	e.force = e.weight

	g.aero(&e, vel, omega)

	for i := 0; i < g.p.Engines; i++ {
		if !g.running[i] {
			continue
		}
		t := g.input(g.eng[i].throttle)
		e.thrust[i] = math.Max(0, math.Min(1, t)) * g.p.MaxThrust * e.atm.Density / SeaLevelDensity
		e.force[0] += e.thrust[i]
	}

	for _, l := range g.p.Gear {
		brake := 0.0
		switch l.Brake {
		case LeftBrake:
			brake = g.input(g.ctl.brakeLeft)
		case RightBrake:
			brake = g.input(g.ctl.brakeRight)
		}
		c := l.contact(e.agl, e.bodyNED, vel, omega, brake)
		e.force = e.force.Add(c.force)
		e.moment = e.moment.Add(c.moment)
		e.ground += c.normal
		e.bottomed = e.bottomed || c.bottomed
	}

	e.deriv = g.derivative(s, &e)
	return e
}

func (g *Generic) aero(e *evaluation, vel, omega mgl64.Vec3) {
	e.tas = vel.Len()
	if e.tas < minAirspeed {
		return
	}
	p := g.p

	e.alpha = math.Atan2(vel.Z(), vel.X())
	e.beta = math.Asin(sat(vel.Y() / e.tas))

	flaps := g.input(g.ctl.flaps)
	spoilers := g.input(g.ctl.spoilers)

	cl := p.CL0 + p.CLAlpha*e.alpha
	if math.Abs(e.alpha) > p.AlphaStall {
		limit := p.CL0 + p.CLAlpha*p.AlphaStall*math.Copysign(1, e.alpha)
		cl = 0.6 * limit
		e.stall = e.tas > stallSpeed
	}
	cl += p.CLFlaps*flaps + p.CLSpoilers*spoilers

	cd := p.CD0 + p.CDInduced*cl*cl +
		p.CDFlaps*flaps +
		p.CDAirbrake*g.input(g.ctl.airbrake) +
		p.CDSpoilers*spoilers

	qbar := 0.5 * e.atm.Density * e.tas * e.tas
	qs := qbar * p.WingArea
	lift, drag := qs*cl, qs*cd
	side := qs * p.CYBeta * e.beta

	sa, ca := math.Sincos(e.alpha)
	e.force = e.force.Add(mgl64.Vec3{
		-drag*ca + lift*sa,
		side,
		-drag*sa - lift*ca,
	})

	hb := p.Span / (2 * e.tas)
	hc := p.Chord / (2 * e.tas)
	roll := g.input(g.ctl.roll) + g.input(g.ctl.trimRoll)
	pitch := g.input(g.ctl.pitch) + g.input(g.ctl.trimPitch)
	yaw := g.input(g.ctl.yaw) + g.input(g.ctl.trimYaw)

	e.moment = e.moment.Add(mgl64.Vec3{
		qs * p.Span * (p.ClBeta*e.beta + p.ClP*omega.X()*hb + p.ClRoll*roll),
		qs * p.Chord * (p.Cm0 + p.CmAlpha*e.alpha + p.CmQ*omega.Y()*hc + p.CmPitch*pitch),
		qs * p.Span * (p.CnBeta*e.beta + p.CnR*omega.Z()*hb + p.CnYaw*yaw),
	})
}

func (g *Generic) derivative(s StateVector, e *evaluation) StateVector {
	var d StateVector

	att := s.Att()
	vel, omega := s.Vel(), s.Omega()

	d.SetPos(att.Rotate(vel))

	qd := att.Mul(mgl64.Quat{V: omega}).Scale(0.5)
	// pull the norm back towards one between renormalisations
	n2 := att.Dot(att)
	qd = qd.Add(att.Scale(normGain * (1 - n2)))
	d.SetAtt(qd)

	d.SetVel(e.force.Mul(1 / e.mass).Sub(omega.Cross(vel)))

	in := g.p.Inertia
	h := mgl64.Vec3{in[0] * omega[0], in[1] * omega[1], in[2] * omega[2]}
	m := e.moment.Sub(omega.Cross(h))
	d.SetOmega(mgl64.Vec3{m[0] / in[0], m[1] / in[1], m[2] / in[2]})

	return d
}
