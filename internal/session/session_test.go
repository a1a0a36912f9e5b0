package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/fdmsim/internal/config"
	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/log"
)

type counter struct {
	n    int
	last float64
}

func (c *counter) OnStep(t float64, out data.Out) {
	c.n++
	c.last = t
}

func build(t *testing.T, cfg *config.Config) *Session {
	t.Helper()
	s, err := Build(cfg, NewRegistry(), log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunGroundStart(t *testing.T) {
	cfg := config.GetPreset("ground")
	cfg.Duration = 1.0
	s := build(t, cfg)

	obs := &counter{}
	s.AddObserver(obs)

	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !res.GroundStart || !res.Converged || res.TrimFailed {
		t.Errorf("expected a converged ground start, got %+v", res)
	}
	if res.InitCalls != 2 {
		t.Errorf("expected setup plus one trim call, got %d", res.InitCalls)
	}
	if res.StepsTaken != 100 {
		t.Errorf("expected 100 steps, got %d", res.StepsTaken)
	}
	if len(res.Outputs) != 11 || len(res.Times) != len(res.Outputs) {
		t.Errorf("expected 11 samples, got %d", len(res.Outputs))
	}
	if res.Final.State != data.StateWorking || !res.Final.Flight.OnGround {
		t.Errorf("unexpected final output %+v", res.Final.Flight)
	}
	if obs.n != 100 {
		t.Errorf("observer saw %d steps", obs.n)
	}
}

func TestRunFlightStart(t *testing.T) {
	cfg := config.GetPreset("cruise")
	cfg.Duration = 2.0
	s := build(t, cfg)

	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.GroundStart {
		t.Error("cruise preset should start in flight")
	}
	f := res.Final.Flight
	if f.OnGround || f.AltitudeAGL < 1400 {
		t.Errorf("unexpected flight state: agl=%f onGround=%v", f.AltitudeAGL, f.OnGround)
	}
	if !res.Final.Engines[0].Running {
		t.Error("engine should be running")
	}
}

func TestRunCancelled(t *testing.T) {
	s := build(t, config.GetPreset("ground"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if res.StepsTaken != 0 {
		t.Errorf("expected no steps, got %d", res.StepsTaken)
	}
}

func TestInitializeBudget(t *testing.T) {
	s := build(t, config.GetPreset("ground"))
	s.cfg.MaxInitCalls = 1

	calls, err := s.Initialize(context.Background())
	if !errors.Is(err, ErrNotReady) || calls != 1 {
		t.Errorf("expected ErrNotReady after 1 call, got %d %v", calls, err)
	}
}

func TestRunRecords(t *testing.T) {
	cfg := config.GetPreset("cruise")
	cfg.Duration = 1.0
	cfg.Recording.Mode = "record"
	cfg.Recording.File = filepath.Join(t.TempDir(), "cruise.csv.zst")
	s := build(t, cfg)

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := s.Orchestrator().Recorder().Samples(); n != 10 {
		t.Errorf("expected 10 samples, got %d", n)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, &data.Inp{}, Config{Dt: 0, Duration: 1}); err == nil {
		t.Error("expected error for zero dt")
	}
	if _, err := New(nil, &data.Inp{}, Config{Dt: 0.01, Duration: 0}); err == nil {
		t.Error("expected error for zero duration")
	}
}

func TestBuildErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Aircraft = "glider"
	if _, err := Build(cfg, NewRegistry(), log.Discard()); err == nil {
		t.Error("expected error for unknown aircraft")
	}

	cfg = config.DefaultConfig()
	cfg.Integrator = "leapfrog"
	if _, err := Build(cfg, NewRegistry(), log.Discard()); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	names := r.ListAircraft()
	if len(names) != 2 || names[0] != "generic" || names[1] != "generic_twin" {
		t.Errorf("unexpected aircraft %v", names)
	}

	f, err := r.Factory("generic_twin", "euler")
	if err != nil {
		t.Fatal(err)
	}
	if f() == f() {
		t.Error("factory must create fresh models")
	}
}
