// Package session is the host loop around the orchestrator: it requests
// initialisation until the aircraft is ready and then steps it at a fixed
// timestep, collecting output snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/fdmsim/internal/config"
	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/fdm"
	"github.com/san-kum/fdmsim/internal/log"
)

const DefaultMaxInitCalls = 1000

var ErrNotReady = errors.New("session: aircraft did not become ready")

type Config struct {
	Dt       float64
	Duration float64
	// SampleEvery keeps every n-th output in the result.
	SampleEvery  int
	MaxInitCalls int
}

// Observer is notified after every working step.
type Observer interface {
	OnStep(t float64, out data.Out)
}

type Result struct {
	Times     []float64
	Outputs   []data.Out
	Final     data.Out
	InitCalls int

	GroundStart bool
	Converged   bool
	TrimFailed  bool
	StepsTaken  int
}

type Session struct {
	orch      *fdm.Orchestrator
	in        *data.Inp
	cfg       Config
	observers []Observer
	t         float64
}

func New(orch *fdm.Orchestrator, in *data.Inp, cfg Config) (*Session, error) {
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.SampleEvery <= 0 {
		cfg.SampleEvery = 1
	}
	if cfg.MaxInitCalls <= 0 {
		cfg.MaxInitCalls = DefaultMaxInitCalls
	}
	return &Session{orch: orch, in: in, cfg: cfg}, nil
}

// Build creates the orchestrator and session described by cfg.
func Build(cfg *config.Config, reg *Registry, logger *log.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	factory, err := reg.Factory(cfg.Aircraft, cfg.Integrator)
	if err != nil {
		return nil, err
	}
	orch, err := fdm.New(cfg.FDM(), factory, logger)
	if err != nil {
		return nil, err
	}
	return New(orch, cfg.Inp(), Config{
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		SampleEvery: cfg.SampleEvery,
	})
}

func (s *Session) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Session) Orchestrator() *fdm.Orchestrator { return s.orch }

// Input is the snapshot sent on every tick. Callers may change controls
// between ticks.
func (s *Session) Input() *data.Inp { return s.in }

func (s *Session) Time() float64 { return s.t }

func (s *Session) Dt() float64 { return s.cfg.Dt }

func (s *Session) Close() error { return s.orch.Close() }

// Initialize requests Init until the orchestrator reports ready and returns
// the number of calls it took.
func (s *Session) Initialize(ctx context.Context) (int, error) {
	s.in.State = data.Init
	for i := 1; i <= s.cfg.MaxInitCalls; i++ {
		select {
		case <-ctx.Done():
			return i - 1, ctx.Err()
		default:
		}
		out, err := s.orch.Step(s.cfg.Dt, s.in)
		if err != nil {
			return i, err
		}
		if out.State == data.StateReady {
			return i, nil
		}
	}
	return s.cfg.MaxInitCalls, ErrNotReady
}

// Tick sends the current input with the given lifecycle request.
func (s *Session) Tick(state data.StateInp) (data.Out, error) {
	s.in.State = state
	out, err := s.orch.Step(s.cfg.Dt, s.in)
	if err != nil {
		return out, fmt.Errorf("t=%.3f: %w", s.t, err)
	}
	if out.State == data.StateWorking || out.State == data.StateFrozen {
		s.t += s.cfg.Dt
		for _, o := range s.observers {
			o.OnStep(s.t, out)
		}
	}
	return out, nil
}

func (s *Session) Run(ctx context.Context) (*Result, error) {
	steps := int(math.Round(s.cfg.Duration / s.cfg.Dt))
	result := &Result{
		Times:   make([]float64, 0, steps/s.cfg.SampleEvery+2),
		Outputs: make([]data.Out, 0, steps/s.cfg.SampleEvery+2),
	}

	calls, err := s.Initialize(ctx)
	result.InitCalls = calls
	if err != nil {
		return result, err
	}
	solver := s.orch.GroundSolver()
	result.GroundStart = solver.Steps() > 0
	result.Converged = solver.Converged()
	result.TrimFailed = solver.Failed()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		out, err := s.Tick(data.Work)
		if err != nil {
			return result, err
		}
		result.StepsTaken++
		result.Final = out

		if i%s.cfg.SampleEvery == 0 || i == steps-1 {
			result.Times = append(result.Times, s.t)
			result.Outputs = append(result.Outputs, out)
		}
	}

	return result, nil
}
