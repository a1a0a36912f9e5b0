package fdm

import (
	"fmt"

	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/dataref"
)

// signal maps a registry path to a field of the input snapshot. Exactly one
// of f and b is set, matching kind.
type signal struct {
	path string
	kind dataref.Kind
	f    func(in *data.Inp) *float64
	b    func(in *data.Inp) *bool
}

func double(path string, f func(in *data.Inp) *float64) signal {
	return signal{path: path, kind: dataref.Double, f: f}
}

func boolean(path string, b func(in *data.Inp) *bool) signal {
	return signal{path: path, kind: dataref.Bool, b: b}
}

// inputSignals is every input published to the registry, in recording
// order.
var inputSignals = buildSignals()

func buildSignals() []signal {
	const c = "input.controls."
	s := []signal{
		double(c+"roll", func(in *data.Inp) *float64 { return &in.Controls.Roll }),
		double(c+"pitch", func(in *data.Inp) *float64 { return &in.Controls.Pitch }),
		double(c+"yaw", func(in *data.Inp) *float64 { return &in.Controls.Yaw }),
		double(c+"trim_roll", func(in *data.Inp) *float64 { return &in.Controls.TrimRoll }),
		double(c+"trim_pitch", func(in *data.Inp) *float64 { return &in.Controls.TrimPitch }),
		double(c+"trim_yaw", func(in *data.Inp) *float64 { return &in.Controls.TrimYaw }),
		double(c+"brake_left", func(in *data.Inp) *float64 { return &in.Controls.BrakeLeft }),
		double(c+"brake_right", func(in *data.Inp) *float64 { return &in.Controls.BrakeRight }),
		double(c+"landing_gear", func(in *data.Inp) *float64 { return &in.Controls.LandingGear }),
		double(c+"nose_wheel", func(in *data.Inp) *float64 { return &in.Controls.NoseWheel }),
		double(c+"flaps", func(in *data.Inp) *float64 { return &in.Controls.Flaps }),
		double(c+"airbrake", func(in *data.Inp) *float64 { return &in.Controls.Airbrake }),
		double(c+"spoilers", func(in *data.Inp) *float64 { return &in.Controls.Spoilers }),
		double(c+"collective", func(in *data.Inp) *float64 { return &in.Controls.Collective }),
		boolean(c+"gear_handle", func(in *data.Inp) *bool { return &in.Controls.GearHandle }),
		boolean(c+"nose_wheel_steering", func(in *data.Inp) *bool { return &in.Controls.NoseWheelSteering }),
		boolean(c+"anti_skid", func(in *data.Inp) *bool { return &in.Controls.AntiSkid }),
	}

	for i := 0; i < data.MaxEngines; i++ {
		e := fmt.Sprintf("input.engine_%d.", i+1)
		s = append(s,
			double(e+"throttle", func(in *data.Inp) *float64 { return &in.Engines[i].Throttle }),
			double(e+"mixture", func(in *data.Inp) *float64 { return &in.Engines[i].Mixture }),
			double(e+"propeller", func(in *data.Inp) *float64 { return &in.Engines[i].Propeller }),
			boolean(e+"fuel", func(in *data.Inp) *bool { return &in.Engines[i].Fuel }),
			boolean(e+"ignition", func(in *data.Inp) *bool { return &in.Engines[i].Ignition }),
			boolean(e+"starter", func(in *data.Inp) *bool { return &in.Engines[i].Starter }),
		)
	}

	const m = "input.masses."
	for i := 0; i < data.MaxPilots; i++ {
		s = append(s, double(fmt.Sprintf("%spilot_%d", m, i+1),
			func(in *data.Inp) *float64 { return &in.Masses.Pilot[i] }))
	}
	for i := 0; i < data.MaxTanks; i++ {
		s = append(s, double(fmt.Sprintf("%sfuel_tank_%d", m, i+1),
			func(in *data.Inp) *float64 { return &in.Masses.FuelTank[i] }))
	}
	s = append(s,
		double(m+"cabin", func(in *data.Inp) *float64 { return &in.Masses.Cabin }),
		double(m+"trunk", func(in *data.Inp) *float64 { return &in.Masses.Trunk }),
		double(m+"slung", func(in *data.Inp) *float64 { return &in.Masses.Slung }),
		double("input.ground.elevation", func(in *data.Inp) *float64 { return &in.Ground.Elevation }),
	)
	return s
}

// register adds every signal to reg and returns their handles in order.
func register(reg *dataref.Registry, signals []signal) ([]dataref.Ref, error) {
	refs := make([]dataref.Ref, 0, len(signals))
	for _, s := range signals {
		ref, err := reg.Add(s.path, s.kind)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// publish copies the input snapshot into the registry cells.
func publish(in *data.Inp, signals []signal, refs []dataref.Ref) {
	for i, s := range signals {
		switch s.kind {
		case dataref.Double:
			refs[i].SetFloat64(*s.f(in))
		case dataref.Bool:
			refs[i].SetBool(*s.b(in))
		}
	}
}

// SignalInfo describes one registered input.
type SignalInfo struct {
	Path string
	Kind dataref.Kind
}

// Signals lists the input namespace.
func Signals() []SignalInfo {
	out := make([]SignalInfo, len(inputSignals))
	for i, s := range inputSignals {
		out[i] = SignalInfo{Path: s.path, Kind: s.kind}
	}
	return out
}
