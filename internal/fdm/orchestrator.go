// Package fdm drives an aircraft model through its lifecycle: it trims the
// model into a starting state, integrates it once per host tick, records or
// replays the session and turns the model state into output snapshots.
//
// The orchestrator is single threaded. The host calls [Orchestrator.Step]
// once per tick with the requested lifecycle state and gets a fresh
// [data.Out] back by value.
package fdm

import (
	"fmt"

	"github.com/san-kum/fdmsim/internal/aircraft"
	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/dataref"
	"github.com/san-kum/fdmsim/internal/log"
	"github.com/san-kum/fdmsim/internal/recorder"
	"github.com/san-kum/fdmsim/internal/trim"
)

type Config struct {
	Trim trim.Config
	// RecordInterval is the recorder sample period in seconds.
	RecordInterval float64
}

func DefaultConfig() Config {
	return Config{
		Trim:           trim.DefaultConfig(),
		RecordInterval: recorder.DefaultInterval,
	}
}

type Orchestrator struct {
	cfg     Config
	factory aircraft.Factory
	log     *log.Logger

	reg   *dataref.Registry
	refs  []dataref.Ref
	model aircraft.Model

	solver *trim.GroundSolver
	flight *trim.FlightInitializer
	rec    *recorder.Recorder

	in    data.Inp
	out   data.Out
	state data.StateOut

	initialized bool
	ready       bool
	time        float64

	// sv is the state vector slot storage bound to the recorder.
	sv aircraft.StateVector
}

// New registers the input namespace and creates the aircraft model.
// Registration and binding failures are configuration errors.
func New(cfg Config, factory aircraft.Factory, logger *log.Logger) (*Orchestrator, error) {
	if factory == nil {
		return nil, fmt.Errorf("fdm: nil aircraft factory")
	}

	reg := dataref.NewRegistry()
	refs, err := register(reg, inputSignals)
	if err != nil {
		return nil, fmt.Errorf("fdm: registering inputs: %w", err)
	}

	o := &Orchestrator{
		cfg:     cfg,
		factory: factory,
		log:     logger,
		reg:     reg,
		refs:    refs,
		solver:  trim.NewGroundSolver(cfg.Trim, logger),
		flight:  trim.NewFlightInitializer(cfg.Trim),
		rec:     recorder.New(cfg.RecordInterval, logger),
	}
	if err := o.createModel(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) createModel() error {
	m := o.factory()
	if err := m.Bind(o.reg); err != nil {
		return fmt.Errorf("fdm: binding aircraft: %w", err)
	}
	o.model = m
	return nil
}

func (o *Orchestrator) Registry() *dataref.Registry { return o.reg }
func (o *Orchestrator) Model() aircraft.Model       { return o.model }
func (o *Orchestrator) Recorder() *recorder.Recorder {
	return o.rec
}

func (o *Orchestrator) Ready() bool          { return o.ready }
func (o *Orchestrator) State() data.StateOut { return o.state }

// Time is the integrated simulation time since the session became ready.
func (o *Orchestrator) Time() float64 { return o.time }

// GroundSolver exposes the trim progress of the current session.
func (o *Orchestrator) GroundSolver() *trim.GroundSolver { return o.solver }

// Close releases the recording file.
func (o *Orchestrator) Close() error {
	return o.rec.Close()
}

// setInput copies in and publishes it to the registry. While a replay is
// running the recording owns the input cells.
func (o *Orchestrator) setInput(in *data.Inp) {
	o.in = *in
	if o.rec.IsReplaying() {
		return
	}
	publish(&o.in, inputSignals, o.refs)
}

// Initialize performs one-time setup on the first call and trims the model
// on later calls until it is ready.
func (o *Orchestrator) Initialize(in *data.Inp) data.Out {
	o.setInput(in)

	switch {
	case !o.initialized:
		o.bindRecorder()
		o.rec.Init(o.in.Recording.Mode, o.in.Recording.File)
		o.model.Initialize(o.in.Initial.EngineOn)
		o.initialized = true
	case !o.ready:
		if o.cfg.Trim.OnGround(&o.in) {
			o.ready = o.solver.Solve(o.model, &o.in)
		} else {
			o.flight.Apply(o.model, &o.in)
			o.ready = true
			o.log.Info("flight start", "altitude_agl", o.in.Initial.AltitudeAGL, "airspeed", o.in.Initial.Airspeed)
		}
	}

	o.updateOutput()
	return o.out
}

// Update records or replays one tick and integrates the model. Nothing
// moves until the session is ready.
func (o *Orchestrator) Update(dt float64, in *data.Inp) (data.Out, error) {
	o.setInput(in)

	if o.ready {
		o.sv = o.model.StateVector()
		if o.rec.Step(dt) && o.rec.Mode() == data.Replay {
			o.model.SetStateVector(o.sv)
		}

		f := o.in.Freeze
		o.model.SetFreeze(f.Position, f.Attitude, f.Velocity)

		if o.rec.Mode() != data.Replay || o.rec.IsReplaying() {
			if err := o.model.Update(dt); err != nil {
				return o.out, fmt.Errorf("fdm: update: %w", err)
			}
			o.time += dt
		}
	}

	o.updateOutput()
	return o.out, nil
}

// Step runs one host tick for the lifecycle state requested in in.
func (o *Orchestrator) Step(dt float64, in *data.Inp) (data.Out, error) {
	prev := o.state

	if o.state == data.StateStopped && in.State != data.Idle {
		return o.out, nil
	}

	var err error
	switch in.State {
	case data.Idle:
		err = o.reset()
		o.state = data.StateIdle

	case data.Init:
		o.Initialize(in)
		if o.ready {
			o.state = data.StateReady
		} else {
			o.state = data.StateIdle
		}

	case data.Work:
		_, err = o.Update(dt, in)
		if o.ready {
			o.state = data.StateWorking
		}

	case data.Freeze:
		frozen := *in
		frozen.Freeze = data.FreezeFlags{Position: true, Attitude: true, Velocity: true}
		_, err = o.Update(dt, &frozen)
		if o.ready {
			o.state = data.StateFrozen
		}

	case data.Pause:
		if o.ready {
			o.state = data.StatePaused
		}

	case data.Stop:
		o.state = data.StateStopped
	}

	o.out.State = o.state
	if o.state != prev {
		o.log.Debug("state change", "from", prev.String(), "to", o.state.String(), "request", in.State.String())
	}
	return o.out, err
}

// reset returns to the state right after construction with a fresh model.
func (o *Orchestrator) reset() error {
	if err := o.rec.Close(); err != nil {
		o.log.Warn("closing recording", "error", err)
	}
	o.rec = recorder.New(o.cfg.RecordInterval, o.log)
	o.solver.Reset()

	o.initialized = false
	o.ready = false
	o.time = 0
	o.sv = aircraft.StateVector{}
	o.out = data.Out{}

	return o.createModel()
}

var stateNames = [aircraft.StateDim]string{
	aircraft.IX:  "state.x",
	aircraft.IY:  "state.y",
	aircraft.IZ:  "state.z",
	aircraft.IE0: "state.e0",
	aircraft.IEX: "state.ex",
	aircraft.IEY: "state.ey",
	aircraft.IEZ: "state.ez",
	aircraft.IU:  "state.u",
	aircraft.IV:  "state.v",
	aircraft.IW:  "state.w",
	aircraft.IP:  "state.p",
	aircraft.IQ:  "state.q",
	aircraft.IR:  "state.r",
}

func statePrecision(i int) int {
	switch {
	case i <= aircraft.IZ:
		return 4
	case i <= aircraft.IEZ:
		return 9
	default:
		return 6
	}
}

// bindRecorder registers every input cell and the state vector slots.
func (o *Orchestrator) bindRecorder() {
	var errs []error
	for i, s := range inputSignals {
		var err error
		switch s.kind {
		case dataref.Double:
			err = recorder.AddVariable(o.rec, s.path, o.refs[i].Float64Ptr(), recorder.DefaultPrecision)
		case dataref.Bool:
			err = recorder.AddVariable(o.rec, s.path, o.refs[i].BoolPtr(), 0)
		}
		errs = append(errs, err)
	}
	for i := range o.sv {
		errs = append(errs, recorder.AddVariable(o.rec, stateNames[i], &o.sv[i], statePrecision(i)))
	}
	for _, err := range errs {
		if err != nil {
			o.log.Error("binding recorder", "error", err)
		}
	}
}
