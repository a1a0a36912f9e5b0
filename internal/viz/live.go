package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/session"
)

const (
	frameRate       = 60
	historyCapacity = 600
	controlStep     = 0.05
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model flies a session in real time.
type Model struct {
	sess *session.Session
	name string

	out data.Out
	err error

	running  bool
	frozen   bool
	stopped  bool
	showHelp bool
	// steps is the number of session ticks per frame.
	steps int

	altitude []float64
	climb    []float64
}

func NewModel(sess *session.Session, name string) Model {
	steps := int(math.Round(1 / (frameRate * sess.Dt())))
	return Model{
		sess:     sess,
		name:     name,
		running:  true,
		steps:    max(1, steps),
		altitude: make([]float64, 0, historyCapacity),
		climb:    make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Err is the update error that ended the flight, if any.
func (m Model) Err() error { return m.err }

func (m Model) Out() data.Out { return m.out }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		in := m.sess.Input()
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "f":
			m.frozen = !m.frozen
		case "s":
			m.stopped = true
		case "r":
			m.reset()
		case "up", "k":
			in.Controls.Pitch = clamp(in.Controls.Pitch-controlStep, -1, 1)
		case "down", "j":
			in.Controls.Pitch = clamp(in.Controls.Pitch+controlStep, -1, 1)
		case "left", "h":
			in.Controls.Roll = clamp(in.Controls.Roll-controlStep, -1, 1)
		case "right", "l":
			in.Controls.Roll = clamp(in.Controls.Roll+controlStep, -1, 1)
		case "+", "=":
			m.throttle(controlStep)
		case "-", "_":
			m.throttle(-controlStep)
		case "b":
			brake := 1.0
			if in.Controls.BrakeLeft > 0 {
				brake = 0
			}
			in.Controls.BrakeLeft, in.Controls.BrakeRight = brake, brake
		case "e":
			m.toggleEngines()
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.frame()
		return m, tick()
	}
	return m, nil
}

// request maps the cockpit switches to a lifecycle request.
func (m *Model) request() data.StateInp {
	switch {
	case m.stopped:
		return data.Stop
	case !m.sess.Orchestrator().Ready():
		return data.Init
	case m.frozen:
		return data.Freeze
	case !m.running:
		return data.Pause
	}
	return data.Work
}

func (m *Model) frame() {
	if m.err != nil {
		return
	}
	for i := 0; i < m.steps; i++ {
		req := m.request()
		out, err := m.sess.Tick(req)
		m.out = out
		if err != nil {
			m.err = err
			return
		}
		if out.State == data.StateWorking {
			m.push(out)
		}
		if req != data.Work && req != data.Freeze {
			return
		}
	}
}

func (m *Model) push(out data.Out) {
	m.altitude = append(m.altitude, out.Flight.AltitudeAGL)
	if len(m.altitude) > historyCapacity {
		m.altitude = m.altitude[1:]
	}
	m.climb = append(m.climb, out.Flight.ClimbRate)
	if len(m.climb) > historyCapacity {
		m.climb = m.climb[1:]
	}
}

// reset returns the orchestrator to idle so the next frame trims again.
func (m *Model) reset() {
	out, err := m.sess.Tick(data.Idle)
	m.out, m.err = out, err
	m.stopped, m.frozen, m.running = false, false, true
	m.altitude = m.altitude[:0]
	m.climb = m.climb[:0]
}

func (m *Model) throttle(delta float64) {
	in := m.sess.Input()
	for i := range in.Engines {
		in.Engines[i].Throttle = clamp(in.Engines[i].Throttle+delta, 0, 1)
	}
}

func (m *Model) toggleEngines() {
	in := m.sess.Input()
	on := !in.Engines[0].Fuel
	for i := range in.Engines {
		in.Engines[i].Fuel = on
		in.Engines[i].Ignition = on
		in.Engines[i].Starter = on
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func (m Model) status(st styles) string {
	switch {
	case m.err != nil:
		return st.Alert.Render("ERROR")
	case m.out.Crash:
		return st.Alert.Render("CRASHED")
	}
	switch m.out.State {
	case data.StateWorking:
		return st.Running.Render("FLYING")
	case data.StateIdle:
		return st.Held.Render("TRIMMING")
	case data.StateReady:
		return st.Held.Render("READY")
	case data.StateFrozen:
		return st.Held.Render("FROZEN")
	case data.StatePaused:
		return st.Held.Render("PAUSED")
	}
	return st.Alert.Render("STOPPED")
}

func (m Model) row(st styles, label, format string, args ...any) string {
	return st.Label.Render(label) + st.Value.Render(fmt.Sprintf(format, args...)) + "\n"
}

func (m Model) View() string {
	st := themeStyles(CurrentTheme)
	f := m.out.Flight
	in := m.sess.Input()

	var s strings.Builder
	s.WriteString(st.Title.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status(st) + "\n\n")

	s.WriteString(m.row(st, "Time", "%.2fs", m.sess.Orchestrator().Time()))
	s.WriteString(m.row(st, "Position", "%.5f %.5f", mgl64.RadToDeg(f.Latitude), mgl64.RadToDeg(f.Longitude)))
	s.WriteString(m.row(st, "Altitude", "%.1fm AGL  %.1fm ASL", f.AltitudeAGL, f.AltitudeASL))
	s.WriteString(m.row(st, "Attitude", "%+.1f° %+.1f° %05.1f°",
		mgl64.RadToDeg(f.Roll), mgl64.RadToDeg(f.Pitch), mgl64.RadToDeg(f.Heading)))
	s.WriteString(m.row(st, "Airspeed", "%.1f IAS  %.1f TAS  M%.2f", f.IAS, f.TAS, f.Mach))
	s.WriteString(m.row(st, "Climb", "%+.1f m/s", f.ClimbRate))
	s.WriteString(m.row(st, "Load", "%.2fg", f.GForceZ))
	s.WriteString(m.row(st, "Engine", "%v %.0fN", m.out.Engines[0].Running, m.out.Engines[0].Thrust))
	s.WriteString(Separator(40, st) + "\n")
	s.WriteString(st.Label.Render("Throttle") + ProgressBar(in.Engines[0].Throttle, 20, st) + "\n")
	s.WriteString(m.row(st, "Stick", "%+.2f %+.2f", in.Controls.Roll, in.Controls.Pitch))
	s.WriteString(m.row(st, "Brakes", "%.0f%%", in.Controls.BrakeLeft*100))

	if solver := m.sess.Orchestrator().GroundSolver(); solver.Steps() > 0 {
		s.WriteString(m.row(st, "Trim", "%d steps converged=%v", solver.Steps(), solver.Converged()))
	}
	if f.Stall {
		s.WriteString(st.Alert.Render("STALL") + "\n")
	}
	if m.err != nil {
		s.WriteString(st.Alert.Render(m.err.Error()) + "\n")
	}

	if len(m.altitude) > 1 {
		chart := asciigraph.Plot(m.altitude, asciigraph.Height(6), asciigraph.Width(40), asciigraph.Caption("Altitude AGL"))
		s.WriteString(st.Graph.Render(chart) + "\n")
		s.WriteString(st.Label.Render("Climb") + SparklineChart(m.climb, 40) + "\n")
	}

	s.WriteString(st.Help.Render("SP:Pause F:Freeze R:Reset S:Stop Q:Quit\n↑↓←→:Stick +-:Throttle B:Brakes E:Engines ?:Help"))
	main := st.Panel.Render(s.String())

	if m.showHelp {
		help := lipgloss.JoinVertical(lipgloss.Left,
			st.Title.Render("KEYBOARD SHORTCUTS"),
			"Space   Pause/Resume",
			"F       Toggle freeze",
			"R       Reset and trim again",
			"S       Stop",
			"Arrows  Pitch and roll",
			"+/-     Throttle",
			"B       Toggle brakes",
			"E       Toggle engines",
			"T       Cycle themes ("+strings.Join(ThemeNames(), ", ")+")",
			"?       Toggle this help",
		)
		return lipgloss.JoinHorizontal(lipgloss.Top, main, st.Panel.Render(help))
	}
	return main
}
