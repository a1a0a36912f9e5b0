package config

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/fdm"
	"github.com/san-kum/fdmsim/internal/recorder"
	"github.com/san-kum/fdmsim/internal/trim"
)

const (
	DefaultDt          = 0.01
	DefaultDuration    = 60.0
	DefaultSampleEvery = 10
	DefaultLatitude    = 50.0777
	DefaultLongitude   = 19.7848
)

type Config struct {
	Aircraft        string          `yaml:"aircraft"`
	Integrator      string          `yaml:"integrator"`
	Dt              float64         `yaml:"dt"`
	Duration        float64         `yaml:"duration"`
	SampleEvery     int             `yaml:"sample_every"`
	Initial         InitialConfig   `yaml:"initial"`
	GroundElevation float64         `yaml:"ground_elevation"`
	Throttle        float64         `yaml:"throttle"`
	Controls        ControlsConfig  `yaml:"controls"`
	Masses          MassesConfig    `yaml:"masses"`
	Recording       RecordingConfig `yaml:"recording"`
	Trim            trim.Config     `yaml:"trim"`
	Log             LogConfig       `yaml:"log"`
}

// InitialConfig holds the start conditions. Angles are in degrees.
type InitialConfig struct {
	Latitude    float64 `yaml:"latitude"`
	Longitude   float64 `yaml:"longitude"`
	Heading     float64 `yaml:"heading"`
	Airspeed    float64 `yaml:"airspeed"`
	AltitudeAGL float64 `yaml:"altitude_agl"`
	EngineOn    bool    `yaml:"engine_on"`
	Offset      float64 `yaml:"offset"`
}

type ControlsConfig struct {
	Roll   float64 `yaml:"roll"`
	Pitch  float64 `yaml:"pitch"`
	Yaw    float64 `yaml:"yaw"`
	Flaps  float64 `yaml:"flaps"`
	Brakes float64 `yaml:"brakes"`
}

type MassesConfig struct {
	Pilot float64 `yaml:"pilot"`
	Fuel  float64 `yaml:"fuel"`
}

type RecordingConfig struct {
	Mode     string  `yaml:"mode"`
	File     string  `yaml:"file"`
	Interval float64 `yaml:"interval"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Aircraft:    "generic",
		Integrator:  "rk4",
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		SampleEvery: DefaultSampleEvery,
		Initial: InitialConfig{
			Latitude:  DefaultLatitude,
			Longitude: DefaultLongitude,
		},
		Recording: RecordingConfig{
			Mode:     "idle",
			Interval: recorder.DefaultInterval,
		},
		Trim: trim.DefaultConfig(),
		Log:  LogConfig{Level: "info"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	if c.Initial.Latitude < -90 || c.Initial.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %f", c.Initial.Latitude)
	}
	if c.Initial.Longitude < -180 || c.Initial.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %f", c.Initial.Longitude)
	}
	if c.Initial.AltitudeAGL < 0 {
		return fmt.Errorf("altitude_agl must not be negative, got %f", c.Initial.AltitudeAGL)
	}
	if c.Throttle < 0 || c.Throttle > 1 {
		return fmt.Errorf("throttle must be within [0, 1], got %f", c.Throttle)
	}
	switch c.Recording.Mode {
	case "", "idle", "record", "replay":
	default:
		return fmt.Errorf("unknown recording mode %q", c.Recording.Mode)
	}
	if c.Recording.Mode == "record" || c.Recording.Mode == "replay" {
		if c.Recording.File == "" {
			return fmt.Errorf("recording mode %s needs a file", c.Recording.Mode)
		}
	}
	return nil
}

// FDM returns the orchestrator configuration.
func (c *Config) FDM() fdm.Config {
	return fdm.Config{
		Trim:           c.Trim,
		RecordInterval: c.Recording.Interval,
	}
}

// Inp builds the input snapshot the session starts from. The lifecycle
// request is left at Idle.
func (c *Config) Inp() *data.Inp {
	in := &data.Inp{}

	in.Initial = data.Initial{
		Latitude:    mgl64.DegToRad(c.Initial.Latitude),
		Longitude:   mgl64.DegToRad(c.Initial.Longitude),
		Heading:     mgl64.DegToRad(c.Initial.Heading),
		Airspeed:    c.Initial.Airspeed,
		AltitudeAGL: c.Initial.AltitudeAGL,
		EngineOn:    c.Initial.EngineOn,
		Offset:      c.Initial.Offset,
	}
	in.Ground.Elevation = c.GroundElevation

	in.Controls.Roll = c.Controls.Roll
	in.Controls.Pitch = c.Controls.Pitch
	in.Controls.Yaw = c.Controls.Yaw
	in.Controls.Flaps = c.Controls.Flaps
	in.Controls.BrakeLeft = c.Controls.Brakes
	in.Controls.BrakeRight = c.Controls.Brakes
	in.Controls.GearHandle = true
	in.Controls.LandingGear = 1

	for i := range in.Engines {
		in.Engines[i] = data.EngineInp{
			Throttle:  c.Throttle,
			Mixture:   1,
			Propeller: 1,
			Fuel:      c.Initial.EngineOn,
			Ignition:  c.Initial.EngineOn,
		}
	}

	in.Masses.Pilot[0] = c.Masses.Pilot
	in.Masses.FuelTank[0] = c.Masses.Fuel

	in.Recording = data.Recording{
		Mode: data.ParseRecordingMode(c.Recording.Mode),
		File: c.Recording.File,
	}
	return in
}
