package fdm

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/wgs"
)

// updateOutput rebuilds the output snapshot from the model. Kinematics stay
// zero until the session is ready.
func (o *Orchestrator) updateOutput() {
	o.out = data.Out{State: o.state}
	if !o.ready {
		return
	}

	sv := o.model.StateVector()
	af := o.model.Flight()

	frame := wgs.NewFrame(sv.Pos())
	att := sv.Att()
	bodyNED := frame.BodyToNED(att)
	phi, tht, psi := wgs.QuatToEuler(bodyNED)

	vel, omega := sv.Vel(), sv.Omega()
	velNED := bodyNED.Rotate(vel)
	groundSpeed := math.Hypot(velNED.X(), velNED.Y())
	climbRate := -velNED.Z()

	track := math.Atan2(velNED.Y(), velNED.X())
	if track < 0 {
		track += 2 * math.Pi
	}

	sf := af.SpecificForce
	r := af.PilotPos
	pilot := sf.Add(af.AngularAcc.Cross(r)).Add(omega.Cross(omega.Cross(r)))
	gcm, gpilot := loadFactor(sf), loadFactor(pilot)

	f := &o.out.Flight
	f.Latitude = frame.Lat
	f.Longitude = frame.Lon
	f.AltitudeASL = frame.Alt
	f.AltitudeAGL = frame.Alt - o.in.Ground.Elevation

	f.PosX, f.PosY, f.PosZ = sv[0], sv[1], sv[2]
	f.Att = data.Quat{E0: att.W, EX: att.V.X(), EY: att.V.Y(), EZ: att.V.Z()}
	f.Roll, f.Pitch, f.Heading = phi, tht, psi

	f.U, f.V, f.W = vel.X(), vel.Y(), vel.Z()
	f.P, f.Q, f.R = omega.X(), omega.Y(), omega.Z()
	f.AccX, f.AccY, f.AccZ = af.AccBody.X(), af.AccBody.Y(), af.AccBody.Z()
	f.AngleOfAttack = af.AngleOfAttack
	f.Sideslip = af.Sideslip

	f.GForceX, f.GForceY, f.GForceZ = gcm.X(), gcm.Y(), gcm.Z()
	f.GPilotX, f.GPilotY, f.GPilotZ = gpilot.X(), gpilot.Y(), gpilot.Z()

	f.GroundTrack = track
	f.ClimbAngle = math.Atan2(climbRate, groundSpeed)
	f.SlipSkid = math.Atan2(sf.Y(), -sf.Z())

	f.IAS = af.IAS
	f.TAS = af.TAS
	f.Mach = af.Mach
	f.GroundSpeed = groundSpeed
	f.ClimbRate = climbRate

	f.OnGround = af.OnGround
	f.Stall = af.Stall

	o.out.Environment = data.Environment{
		Pressure:    af.Pressure,
		Density:     af.Density,
		Temperature: af.Temperature,
	}
	o.out.Engines = af.Engines
	o.out.Crash = af.Crash
}

// loadFactor converts a body specific force to g units, z positive when
// pushed into the seat.
func loadFactor(sf mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{sf.X() / wgs.G0, sf.Y() / wgs.G0, -sf.Z() / wgs.G0}
}
