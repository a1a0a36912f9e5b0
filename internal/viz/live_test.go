package viz

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/fdmsim/internal/config"
	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/log"
	"github.com/san-kum/fdmsim/internal/session"
)

func newModel(t *testing.T) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	sess, err := session.Build(cfg, session.NewRegistry(), log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sess.Close() })
	return NewModel(sess, cfg.Aircraft)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func fly(t *testing.T, m Model, frames int) Model {
	t.Helper()
	for i := 0; i < frames; i++ {
		m = send(t, m, TickMsg{})
	}
	if m.Err() != nil {
		t.Fatalf("unexpected error: %v", m.Err())
	}
	return m
}

func TestLiveTrimsThenFlies(t *testing.T) {
	m := fly(t, newModel(t), 10)
	if m.Out().State != data.StateWorking {
		t.Fatalf("expected working after trim, got %s", m.Out().State)
	}
	if len(m.altitude) == 0 {
		t.Error("expected altitude history")
	}
	if m.View() == "" {
		t.Error("expected a rendered view")
	}
}

func TestLivePauseAndFreeze(t *testing.T) {
	m := fly(t, newModel(t), 10)

	m = fly(t, send(t, m, key(" ")), 1)
	if m.Out().State != data.StatePaused {
		t.Errorf("expected paused, got %s", m.Out().State)
	}

	m = fly(t, send(t, send(t, m, key(" ")), key("f")), 1)
	if m.Out().State != data.StateFrozen {
		t.Errorf("expected frozen, got %s", m.Out().State)
	}
}

func TestLiveStopAndReset(t *testing.T) {
	m := fly(t, newModel(t), 10)

	m = fly(t, send(t, m, key("s")), 1)
	if m.Out().State != data.StateStopped {
		t.Fatalf("expected stopped, got %s", m.Out().State)
	}

	m = send(t, m, key("r"))
	if m.Out().State != data.StateIdle || len(m.altitude) != 0 {
		t.Errorf("expected idle with cleared history, got %s", m.Out().State)
	}
	m = fly(t, m, 10)
	if m.Out().State != data.StateWorking {
		t.Errorf("expected to fly again after reset, got %s", m.Out().State)
	}
}

func TestLiveControls(t *testing.T) {
	m := newModel(t)
	in := m.sess.Input()
	start := in.Engines[0].Throttle

	m = send(t, m, key("+"))
	if in.Engines[0].Throttle <= start && start < 1 {
		t.Error("throttle should increase")
	}
	m = send(t, m, key("b"))
	if in.Controls.BrakeLeft != 1 || in.Controls.BrakeRight != 1 {
		t.Error("expected brakes set")
	}
	m = send(t, m, key("b"))
	if in.Controls.BrakeLeft != 0 {
		t.Error("expected brakes released")
	}
	for i := 0; i < 50; i++ {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyUp})
	}
	if in.Controls.Pitch != -1 {
		t.Errorf("stick should saturate at -1, got %f", in.Controls.Pitch)
	}

	on := in.Engines[0].Fuel
	send(t, m, key("e"))
	if in.Engines[0].Fuel == on || in.Engines[3].Ignition == on {
		t.Error("expected engines toggled")
	}
}

func TestThemes(t *testing.T) {
	defer SetTheme(CurrentTheme.Name)
	SetTheme("glass")
	NextTheme()
	if CurrentTheme.Name != "retro" {
		t.Errorf("expected retro, got %s", CurrentTheme.Name)
	}
	if GetTheme("unknown").Name != "glass" {
		t.Error("unknown theme should fall back to glass")
	}
}
