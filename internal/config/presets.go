package config

import (
	"sort"

	"github.com/san-kum/fdmsim/internal/recorder"
	"github.com/san-kum/fdmsim/internal/trim"
)

func preset(duration float64, initial InitialConfig, throttle float64) *Config {
	return &Config{
		Aircraft: "generic", Integrator: "rk4", Dt: 0.01, Duration: duration, SampleEvery: 10,
		Initial: initial, Throttle: throttle,
		Masses:    MassesConfig{Pilot: 80, Fuel: 60},
		Recording: RecordingConfig{Mode: "idle", Interval: recorder.DefaultInterval},
		Trim:      trim.DefaultConfig(),
		Log:       LogConfig{Level: "info"},
	}
}

var Presets = map[string]*Config{
	"ground": preset(10.0, InitialConfig{
		Latitude: DefaultLatitude, Longitude: DefaultLongitude, Heading: 0,
	}, 0),
	"runway": preset(20.0, InitialConfig{
		Latitude: DefaultLatitude, Longitude: DefaultLongitude, Heading: 258,
		EngineOn: true, Offset: 150,
	}, 1.0),
	"cruise": preset(120.0, InitialConfig{
		Latitude: DefaultLatitude, Longitude: DefaultLongitude, Heading: 90,
		Airspeed: 55, AltitudeAGL: 1500, EngineOn: true,
	}, 0.7),
	"approach": preset(60.0, InitialConfig{
		Latitude: DefaultLatitude, Longitude: DefaultLongitude, Heading: 258,
		Airspeed: 40, AltitudeAGL: 300, EngineOn: true, Offset: -5000,
	}, 0.3),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
