// Package trim brings an aircraft model into its starting state before
// integration begins: at rest on its gear, or flying straight and level.
package trim

import (
	"math"

	"github.com/san-kum/fdmsim/internal/aircraft"
	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/log"
	"github.com/san-kum/fdmsim/internal/wgs"
)

const (
	gainRoll  = 0.001
	gainPitch = 0.001
	gainAlt   = 0.01

	tolerance = 1.0e-3
)

type Config struct {
	// NearGround is the AGL below which a start is trimmed on the ground.
	NearGround float64 `yaml:"near_ground"`
	// MinAltitude is the initial height guess above the ground elevation.
	MinAltitude float64 `yaml:"min_altitude"`
	// MaxSteps bounds the number of Solve calls.
	MaxSteps int `yaml:"max_steps"`
	// Iterations bounds the work done in a single Solve call.
	Iterations int `yaml:"iterations"`
}

func DefaultConfig() Config {
	return Config{
		NearGround:  5.0,
		MinAltitude: 0.0,
		MaxSteps:    100,
		Iterations:  1000,
	}
}

// OnGround reports whether in requests a ground start.
func (c Config) OnGround(in *data.Inp) bool {
	return in.Initial.AltitudeAGL < c.NearGround
}

// spawn returns the start lat/lon after applying the offset along heading.
func spawn(in *data.Inp) (lat, lon float64) {
	return wgs.Offset(in.Initial.Latitude, in.Initial.Longitude, in.Initial.Heading, in.Initial.Offset)
}

// GroundSolver searches roll, pitch and altitude at which a stationary
// aircraft is in equilibrium on flat ground. The search is a damped fixed
// point iteration driven by the model's own derivative.
type GroundSolver struct {
	cfg Config
	log *log.Logger

	phi, tht, alt float64

	started   bool
	steps     int
	ready     bool
	converged bool
	failed    bool
}

func NewGroundSolver(cfg Config, logger *log.Logger) *GroundSolver {
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultConfig().Iterations
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultConfig().MaxSteps
	}
	return &GroundSolver{cfg: cfg, log: logger}
}

// Reset discards all progress.
func (s *GroundSolver) Reset() {
	*s = GroundSolver{cfg: s.cfg, log: s.log}
}

func (s *GroundSolver) Ready() bool     { return s.ready }
func (s *GroundSolver) Converged() bool { return s.converged }
func (s *GroundSolver) Failed() bool    { return s.failed }
func (s *GroundSolver) Steps() int      { return s.steps }

// Attitude returns the current roll and pitch estimate.
func (s *GroundSolver) Attitude() (phi, tht float64) { return s.phi, s.tht }

// Altitude returns the current altitude estimate above sea level.
func (s *GroundSolver) Altitude() float64 { return s.alt }

// Solve runs at most Iterations iterations and reports whether the solver
// is done. After MaxSteps calls without convergence it gives up and
// reports done anyway, leaving the model at the best estimate.
func (s *GroundSolver) Solve(m aircraft.Model, in *data.Inp) bool {
	if s.ready {
		return true
	}

	elevation := in.Ground.Elevation
	if !s.started {
		s.phi, s.tht = 0, 0
		s.alt = s.cfg.MinAltitude + elevation
		s.started = true
	}
	s.steps++

	lat, lon := spawn(in)
	heading := in.Initial.Heading
	normal := wgs.Normal(lat, lon)
	ned := wgs.NEDToWGS(lat, lon)

	for i := 0; i < s.cfg.Iterations; i++ {
		att := ned.Mul(wgs.EulerToQuat(s.phi, s.tht, heading))

		var sv aircraft.StateVector
		sv.SetPos(wgs.GeoToWGS(lat, lon, s.alt))
		sv.SetAtt(att)
		m.SetStateVector(sv)

		d := m.Derivative()
		dp := d[aircraft.IP]
		dq := d[aircraft.IQ]
		dn := d.Vel().Dot(att.Conjugate().Rotate(normal))

		if s.alt-elevation > 0 &&
			math.Abs(dp) < tolerance && math.Abs(dq) < tolerance && math.Abs(dn) < tolerance {
			s.ready = true
			s.converged = true
			s.log.Info("ground trim converged",
				"steps", s.steps, "iterations", i+1,
				"roll", s.phi, "pitch", s.tht, "altitude", s.alt)
			return true
		}

		if m.GroundForce() > 0 {
			s.phi += dp * gainRoll
			s.tht += dq * gainPitch
		}
		s.alt += dn * gainAlt
	}

	if s.steps >= s.cfg.MaxSteps {
		s.ready = true
		s.failed = true
		s.log.Warn("ground trim did not converge",
			"steps", s.steps, "roll", s.phi, "pitch", s.tht, "altitude", s.alt)
		return true
	}
	return false
}

// FlightInitializer places the aircraft in level flight at the requested
// airspeed and heading. Angular rates are zero and no trim is attempted.
type FlightInitializer struct {
	cfg Config
}

func NewFlightInitializer(cfg Config) *FlightInitializer {
	return &FlightInitializer{cfg: cfg}
}

// StateVector computes the airborne start state for in.
func (f *FlightInitializer) StateVector(in *data.Inp) aircraft.StateVector {
	agl := in.Initial.AltitudeAGL
	if agl < f.cfg.NearGround {
		agl = math.Max(agl, 1.0)
	}
	alt := in.Ground.Elevation + agl

	lat, lon := spawn(in)
	att := wgs.NEDToWGS(lat, lon).Mul(wgs.EulerToQuat(0, 0, in.Initial.Heading))

	var sv aircraft.StateVector
	sv.SetPos(wgs.GeoToWGS(lat, lon, alt))
	sv.SetAtt(att)
	sv[aircraft.IU] = in.Initial.Airspeed
	return sv
}

// Apply writes the start state into m.
func (f *FlightInitializer) Apply(m aircraft.Model, in *data.Inp) {
	m.SetStateVector(f.StateVector(in))
}
