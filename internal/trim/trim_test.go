package trim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/fdmsim/internal/aircraft"
	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/dataref"
	"github.com/san-kum/fdmsim/internal/log"
	"github.com/san-kum/fdmsim/internal/wgs"
)

// sinking never touches the ground and never settles.
type sinking struct {
	sv aircraft.StateVector
}

func (m *sinking) Bind(*dataref.Registry) error          { return nil }
func (m *sinking) Initialize(bool)                       {}
func (m *sinking) StateVector() aircraft.StateVector     { return m.sv }
func (m *sinking) SetStateVector(s aircraft.StateVector) { m.sv = s }
func (m *sinking) GroundForce() float64                  { return 0 }
func (m *sinking) SetFreeze(bool, bool, bool)            {}
func (m *sinking) Update(float64) error                  { return nil }
func (m *sinking) Flight() aircraft.Flight               { return aircraft.Flight{} }

func (m *sinking) Derivative() aircraft.StateVector {
	var d aircraft.StateVector
	d[aircraft.IP] = 1
	return d
}

func groundInput(elevation, heading float64) *data.Inp {
	in := &data.Inp{}
	in.Initial.Latitude = mgl64.DegToRad(50.08)
	in.Initial.Longitude = mgl64.DegToRad(19.79)
	in.Initial.Heading = heading
	in.Ground.Elevation = elevation
	return in
}

func TestGroundTrimConverges(t *testing.T) {
	tests := []struct {
		name      string
		elevation float64
		heading   float64
	}{
		{"sea level north", 0, 0},
		{"elevated east", 241, math.Pi / 2},
		{"high south west", 1500, mgl64.DegToRad(225)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := aircraft.NewGeneric(aircraft.DefaultParams(), nil)
			s := NewGroundSolver(DefaultConfig(), log.Discard())
			in := groundInput(tt.elevation, tt.heading)

			for i := 0; !s.Solve(m, in); i++ {
				if i > DefaultConfig().MaxSteps {
					t.Fatal("solver did not terminate")
				}
			}
			if !s.Converged() || s.Failed() {
				t.Fatalf("expected convergence, failed=%v after %d steps", s.Failed(), s.Steps())
			}

			phi, tht := s.Attitude()
			if math.Abs(phi) > 1e-6 || math.Abs(tht) > 1e-6 {
				t.Errorf("expected level attitude, got roll=%g pitch=%g", phi, tht)
			}
			want := tt.elevation + m.StaticHeight()
			if math.Abs(s.Altitude()-want) > 1e-3 {
				t.Errorf("altitude %f, want %f", s.Altitude(), want)
			}

			// the model is left at the trimmed state
			sv := m.StateVector()
			if sv.Vel().Len() != 0 || sv.Omega().Len() != 0 {
				t.Error("trimmed state must be at rest")
			}
			_, _, alt := wgs.WGSToGeo(sv.Pos())
			if math.Abs(alt-s.Altitude()) > 1e-6 {
				t.Errorf("model altitude %f, solver altitude %f", alt, s.Altitude())
			}
			_, _, psi := wgs.QuatToEuler(wgs.NewFrame(sv.Pos()).BodyToNED(sv.Att()))
			if d := math.Remainder(psi-tt.heading, 2*math.Pi); math.Abs(d) > 1e-6 {
				t.Errorf("heading %f, want %f", psi, tt.heading)
			}
		})
	}
}

func TestGroundTrimStartingAtRest(t *testing.T) {
	m := aircraft.NewGeneric(aircraft.DefaultParams(), nil)
	cfg := DefaultConfig()
	cfg.MinAltitude = m.StaticHeight()
	s := NewGroundSolver(cfg, log.Discard())

	if !s.Solve(m, groundInput(100, 0)) {
		t.Fatal("expected a single call to finish")
	}
	if !s.Converged() || s.Steps() != 1 {
		t.Errorf("expected immediate convergence, steps=%d", s.Steps())
	}
	if math.Abs(s.Altitude()-(100+cfg.MinAltitude)) > 1e-9 {
		t.Errorf("solver moved away from the resting altitude: %f", s.Altitude())
	}
}

func TestGroundTrimBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 5
	cfg.Iterations = 10
	s := NewGroundSolver(cfg, log.Discard())
	m := &sinking{}
	in := groundInput(0, 0)

	calls := 0
	for !s.Solve(m, in) {
		calls++
		if calls > cfg.MaxSteps {
			t.Fatal("solver did not terminate")
		}
	}
	if !s.Ready() || !s.Failed() || s.Converged() {
		t.Errorf("expected ready with failure flag, ready=%v failed=%v converged=%v",
			s.Ready(), s.Failed(), s.Converged())
	}
	if s.Steps() != cfg.MaxSteps {
		t.Errorf("expected %d steps, got %d", cfg.MaxSteps, s.Steps())
	}

	// further calls are no-ops
	if !s.Solve(m, in) || s.Steps() != cfg.MaxSteps {
		t.Error("a finished solver must not keep stepping")
	}

	s.Reset()
	if s.Ready() || s.Failed() || s.Steps() != 0 {
		t.Error("reset must clear progress")
	}
}

func TestGroundTrimAirborneOnlySinks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinAltitude = 100
	cfg.Iterations = 1
	s := NewGroundSolver(cfg, log.Discard())
	m := &sinking{}

	s.Solve(m, groundInput(0, 0))
	phi, tht := s.Attitude()
	if phi != 0 || tht != 0 {
		t.Errorf("attitude must not change without ground contact, got %g %g", phi, tht)
	}
}

func TestFlightInitializer(t *testing.T) {
	in := &data.Inp{}
	in.Initial.Latitude = mgl64.DegToRad(50)
	in.Initial.Longitude = mgl64.DegToRad(20)
	in.Initial.Heading = math.Pi / 2
	in.Initial.Airspeed = 60
	in.Initial.AltitudeAGL = 3000
	in.Initial.Offset = 1000
	in.Ground.Elevation = 200

	f := NewFlightInitializer(DefaultConfig())
	sv := f.StateVector(in)

	if sv[aircraft.IU] != 60 || sv[aircraft.IV] != 0 || sv[aircraft.IW] != 0 {
		t.Errorf("expected body velocity (60,0,0), got %v", sv.Vel())
	}
	if sv.Omega().Len() != 0 {
		t.Errorf("expected zero rates, got %v", sv.Omega())
	}

	lat, lon, alt := wgs.WGSToGeo(sv.Pos())
	if math.Abs(alt-3200) > 1e-6 {
		t.Errorf("altitude %f, want 3200", alt)
	}
	if b := wgs.Bearing(in.Initial.Latitude, in.Initial.Longitude, lat, lon); math.Abs(b-math.Pi/2) > 1e-3 {
		t.Errorf("expected position east of the requested point, bearing %f deg", mgl64.RadToDeg(b))
	}

	nose := wgs.NewFrame(sv.Pos()).BodyToNED(sv.Att()).Rotate(mgl64.Vec3{1, 0, 0})
	if !nose.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-6) {
		t.Errorf("expected nose pointing east, got %v", nose)
	}

	m := aircraft.NewGeneric(aircraft.DefaultParams(), nil)
	f.Apply(m, in)
	f.Apply(m, in)
	if m.StateVector() != f.StateVector(in) {
		t.Error("flight initialisation must be idempotent")
	}
}

func TestFlightInitializerClamp(t *testing.T) {
	tests := []struct {
		name string
		agl  float64
		want float64
	}{
		{"on the ground", 0, 1},
		{"below one metre", 0.5, 1},
		{"low start kept", 2, 2},
		{"near ground kept", 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &data.Inp{}
			in.Initial.AltitudeAGL = tt.agl
			in.Ground.Elevation = 50

			sv := NewFlightInitializer(DefaultConfig()).StateVector(in)
			_, _, alt := wgs.WGSToGeo(sv.Pos())
			if math.Abs(alt-(50+tt.want)) > 1e-6 {
				t.Errorf("requested %g m above ground, started at %f m", tt.agl, alt-50)
			}
		})
	}
}
