package storage

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/session"
)

// Columns of the flight track file after the time column. Angles are in
// degrees.
var Columns = []string{
	"latitude", "longitude", "altitude_asl", "altitude_agl",
	"roll", "pitch", "heading",
	"u", "v", "w", "p", "q", "r",
	"ias", "tas", "mach", "ground_speed", "climb_rate",
	"angle_of_attack", "gforce_z",
	"on_ground", "stall", "crash",
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func trackRow(out *data.Out) []float64 {
	f := &out.Flight
	return []float64{
		mgl64.RadToDeg(f.Latitude), mgl64.RadToDeg(f.Longitude), f.AltitudeASL, f.AltitudeAGL,
		mgl64.RadToDeg(f.Roll), mgl64.RadToDeg(f.Pitch), mgl64.RadToDeg(f.Heading),
		f.U, f.V, f.W, f.P, f.Q, f.R,
		f.IAS, f.TAS, f.Mach, f.GroundSpeed, f.ClimbRate,
		mgl64.RadToDeg(f.AngleOfAttack), f.GForceZ,
		boolValue(f.OnGround), boolValue(f.Stall), boolValue(out.Crash),
	}
}

type Track struct {
	Columns []string
	Times   []float64
	Rows    [][]float64
}

// Column returns the series of the named column, or nil.
func (t *Track) Column(name string) []float64 {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}

// Summarize computes the run metrics stored with the metadata.
func Summarize(result *session.Result) map[string]float64 {
	m := make(map[string]float64)
	if len(result.Outputs) == 0 {
		return m
	}

	maxAGL, maxIAS, maxG := math.Inf(-1), 0.0, 0.0
	for _, out := range result.Outputs {
		f := out.Flight
		maxAGL = math.Max(maxAGL, f.AltitudeAGL)
		maxIAS = math.Max(maxIAS, f.IAS)
		maxG = math.Max(maxG, math.Abs(f.GForceZ))
	}

	first := result.Outputs[0].Flight
	last := result.Final.Flight
	from := orb.Point{mgl64.RadToDeg(first.Longitude), mgl64.RadToDeg(first.Latitude)}
	to := orb.Point{mgl64.RadToDeg(last.Longitude), mgl64.RadToDeg(last.Latitude)}

	m["max_altitude_agl"] = maxAGL
	m["max_ias"] = maxIAS
	m["max_gforce"] = maxG
	m["final_altitude_agl"] = last.AltitudeAGL
	m["distance"] = geo.Distance(from, to)
	m["crash"] = boolValue(result.Final.Crash)
	return m
}
