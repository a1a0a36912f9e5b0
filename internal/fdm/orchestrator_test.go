package fdm

import (
	"errors"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fdmsim/internal/aircraft"
	"github.com/san-kum/fdmsim/internal/data"
	"github.com/san-kum/fdmsim/internal/dataref"
	"github.com/san-kum/fdmsim/internal/log"
	"github.com/san-kum/fdmsim/internal/wgs"
)

const dt = 0.01

func generic() aircraft.Model {
	return aircraft.NewGeneric(aircraft.DefaultParams(), nil)
}

type nanModel struct{ *aircraft.Generic }

func (m nanModel) Update(dt float64) error {
	return &aircraft.StepError{Time: dt, Wrapped: aircraft.ErrUnexpectedNaN}
}

type unbindable struct{ *aircraft.Generic }

func (unbindable) Bind(*dataref.Registry) error { return errors.New("no such signal") }

func newOrchestrator(factory aircraft.Factory) *Orchestrator {
	o, err := New(DefaultConfig(), factory, log.Discard())
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(o.Close)
	return o
}

func groundInp() *data.Inp {
	in := &data.Inp{}
	in.Initial.Latitude = mgl64.DegToRad(50.08)
	in.Initial.Longitude = mgl64.DegToRad(19.79)
	in.Ground.Elevation = 241
	return in
}

func flightInp() *data.Inp {
	in := groundInp()
	in.Initial.AltitudeAGL = 1000
	in.Initial.Airspeed = 50
	in.Initial.EngineOn = true
	in.Engines[0] = data.EngineInp{Throttle: 0.6, Fuel: true, Ignition: true}
	return in
}

// initialize requests Init until the orchestrator is ready.
func initialize(o *Orchestrator, in *data.Inp) data.Out {
	in.State = data.Init
	for i := 0; i < 200; i++ {
		out, err := o.Step(dt, in)
		Expect(err).NotTo(HaveOccurred())
		if out.State == data.StateReady {
			return out
		}
	}
	Fail("orchestrator never became ready")
	return data.Out{}
}

func run(o *Orchestrator, in *data.Inp, state data.StateInp, n int) []data.Out {
	in.State = state
	outs := make([]data.Out, 0, n)
	for i := 0; i < n; i++ {
		out, err := o.Step(dt, in)
		Expect(err).NotTo(HaveOccurred())
		outs = append(outs, out)
	}
	return outs
}

var _ = Describe("Orchestrator", func() {
	Describe("construction", func() {
		It("registers every input signal", func() {
			o := newOrchestrator(generic)
			reg := o.Registry()
			Expect(reg.Len()).To(Equal(len(inputSignals)))
			Expect(reg.Get("input.controls.roll").Kind()).To(Equal(dataref.Double))
			Expect(reg.Get("input.engine_4.starter").Kind()).To(Equal(dataref.Bool))
			Expect(reg.Get("input.masses.fuel_tank_4").Valid()).To(BeTrue())
			Expect(reg.Get("input.ground.elevation").Valid()).To(BeTrue())
			Expect(reg.Get("input.engine_5.throttle").Valid()).To(BeFalse())
		})

		It("rejects a duplicate signal path", func() {
			table := append(append([]signal{}, inputSignals...), inputSignals[3])
			_, err := register(dataref.NewRegistry(), table)
			var initErr *dataref.InitError
			Expect(errors.As(err, &initErr)).To(BeTrue())
			Expect(initErr.Path).To(Equal(inputSignals[3].path))
		})

		It("fails when the aircraft cannot bind", func() {
			_, err := New(DefaultConfig(), func() aircraft.Model {
				return unbindable{aircraft.NewGeneric(aircraft.DefaultParams(), nil)}
			}, log.Discard())
			Expect(err).To(HaveOccurred())

			_, err = New(DefaultConfig(), nil, log.Discard())
			Expect(err).To(HaveOccurred())
		})

		It("publishes inputs by path", func() {
			o := newOrchestrator(generic)
			in := groundInp()
			in.Controls.Roll = 0.3
			in.Engines[1].Fuel = true
			in.Masses.Pilot[1] = 75
			in.State = data.Init
			o.Step(dt, in)

			reg := o.Registry()
			Expect(reg.Get("input.controls.roll").Float64()).To(Equal(0.3))
			Expect(reg.Get("input.engine_2.fuel").Bool()).To(BeTrue())
			Expect(reg.Get("input.masses.pilot_2").Float64()).To(Equal(75.0))
			Expect(reg.Get("input.ground.elevation").Float64()).To(Equal(241.0))
		})
	})

	Describe("lifecycle", func() {
		var (
			o  *Orchestrator
			in *data.Inp
		)

		BeforeEach(func() {
			o = newOrchestrator(generic)
			in = groundInp()
		})

		It("does not work before it is ready", func() {
			outs := run(o, in, data.Work, 5)
			for _, out := range outs {
				Expect(out.State).To(Equal(data.StateIdle))
				Expect(out.Flight).To(Equal(data.Flight{}))
			}
			Expect(o.Ready()).To(BeFalse())

			out, err := o.Step(dt, &data.Inp{State: data.Freeze})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.State).To(Equal(data.StateIdle))
		})

		It("needs a setup call before trimming", func() {
			in.State = data.Init
			out, _ := o.Step(dt, in)
			Expect(out.State).To(Equal(data.StateIdle))
			Expect(o.Ready()).To(BeFalse())

			out, _ = o.Step(dt, in)
			Expect(out.State).To(Equal(data.StateReady))
			Expect(o.GroundSolver().Converged()).To(BeTrue())
		})

		It("rests on the ground after a ground start", func() {
			initialize(o, in)
			outs := run(o, in, data.Work, 100)
			last := outs[len(outs)-1]

			Expect(last.State).To(Equal(data.StateWorking))
			Expect(last.Flight.OnGround).To(BeTrue())
			Expect(last.Crash).To(BeFalse())
			Expect(last.Flight.Roll).To(BeNumerically("~", 0, 1e-4))
			Expect(last.Flight.Pitch).To(BeNumerically("~", 0, 1e-4))
			Expect(last.Flight.GroundSpeed).To(BeNumerically("<", 1e-3))
			Expect(last.Flight.GForceZ).To(BeNumerically("~", 1, 1e-3))

			h := o.Model().(*aircraft.Generic).StaticHeight()
			Expect(last.Flight.AltitudeAGL).To(BeNumerically("~", h, 1e-3))
			Expect(o.Time()).To(BeNumerically("~", 1.0, 1e-9))
		})

		It("stays ready until reset", func() {
			initialize(o, in)
			for _, s := range []data.StateInp{data.Work, data.Init, data.Pause, data.Freeze, data.Work} {
				run(o, in, s, 3)
				Expect(o.Ready()).To(BeTrue())
			}
		})

		It("holds kinematics when frozen", func() {
			in = flightInp()
			initialize(o, in)
			before := run(o, in, data.Work, 10)[9]

			outs := run(o, in, data.Freeze, 10)
			for _, out := range outs {
				Expect(out.State).To(Equal(data.StateFrozen))
				Expect(out.Flight.PosX).To(Equal(before.Flight.PosX))
				Expect(out.Flight.U).To(Equal(before.Flight.U))
			}

			after := run(o, in, data.Work, 1)[0]
			Expect(after.State).To(Equal(data.StateWorking))
			Expect(after.Flight.PosX).NotTo(Equal(before.Flight.PosX))
		})

		It("holds the snapshot when paused", func() {
			in = flightInp()
			initialize(o, in)
			before := run(o, in, data.Work, 5)[4]
			t0 := o.Time()

			for _, out := range run(o, in, data.Pause, 5) {
				Expect(out.State).To(Equal(data.StatePaused))
				Expect(out.Flight).To(Equal(before.Flight))
			}
			Expect(o.Time()).To(Equal(t0))
		})

		It("stops until reset to idle", func() {
			in = flightInp()
			initialize(o, in)
			last := run(o, in, data.Work, 20)[19]

			out, err := o.Step(dt, &data.Inp{State: data.Stop})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.State).To(Equal(data.StateStopped))

			for _, s := range []data.StateInp{data.Work, data.Init, data.Freeze, data.Pause, data.Work} {
				for _, out := range run(o, in, s, 5) {
					Expect(out.State).To(Equal(data.StateStopped))
					Expect(out.Flight).To(Equal(last.Flight))
				}
			}

			out, err = o.Step(dt, &data.Inp{State: data.Idle})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.State).To(Equal(data.StateIdle))
			Expect(out.Flight).To(Equal(data.Flight{}))
			Expect(o.Ready()).To(BeFalse())
			Expect(o.Time()).To(BeZero())

			out = initialize(o, groundInp())
			Expect(out.Flight.OnGround).To(BeTrue())
		})
	})

	Describe("flight start", func() {
		It("places the aircraft at the requested airspeed and heading", func() {
			o := newOrchestrator(generic)
			in := groundInp()
			in.Initial.AltitudeAGL = 3000
			in.Initial.Airspeed = 60
			in.Initial.Heading = math.Pi / 2
			in.Initial.Offset = 2000

			out := initialize(o, in)
			f := out.Flight
			Expect(f.U).To(Equal(60.0))
			Expect(f.V).To(BeZero())
			Expect(f.W).To(BeZero())
			Expect([]float64{f.P, f.Q, f.R}).To(Equal([]float64{0, 0, 0}))
			Expect(f.Heading).To(BeNumerically("~", math.Pi/2, 1e-9))
			Expect(f.AltitudeAGL).To(BeNumerically("~", 3000, 1e-6))
			Expect(f.TAS).To(BeNumerically("~", 60, 1e-9))
			Expect(f.GroundTrack).To(BeNumerically("~", math.Pi/2, 1e-9))
			Expect(f.OnGround).To(BeFalse())

			b := wgs.Bearing(in.Initial.Latitude, in.Initial.Longitude, f.Latitude, f.Longitude)
			Expect(b).To(BeNumerically("~", math.Pi/2, 1e-3))
		})
	})

	Describe("record and replay", func() {
		It("reproduces a recorded flight", func() {
			dir, err := os.MkdirTemp("", "fdm")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(os.RemoveAll, dir)
			path := filepath.Join(dir, "flight.csv")

			in := flightInp()
			in.Controls.Pitch = 0.05
			in.Recording = data.Recording{Mode: data.Record, File: path}
			o := newOrchestrator(generic)
			initialize(o, in)
			recorded := run(o, in, data.Work, 300)
			Expect(o.Close()).To(Succeed())
			Expect(o.Recorder().Samples()).To(Equal(30))

			// the replay host does not move the stick
			in = flightInp()
			in.Recording = data.Recording{Mode: data.Replay, File: path}
			o = newOrchestrator(generic)
			initialize(o, in)
			replayed := run(o, in, data.Work, 300)
			Expect(o.Recorder().IsReplaying()).To(BeTrue())
			Expect(o.Registry().Get("input.controls.pitch").Float64()).To(Equal(0.05))

			// the first sample re-synchronises the state
			for i := 9; i < 300; i++ {
				r, p := recorded[i].Flight, replayed[i].Flight
				Expect(p.AltitudeASL).To(BeNumerically("~", r.AltitudeASL, 1e-2), "step %d", i)
				Expect(p.Pitch).To(BeNumerically("~", r.Pitch, 1e-5), "step %d", i)
				Expect(p.U).To(BeNumerically("~", r.U, 1e-4), "step %d", i)
			}

			tail := run(o, in, data.Work, 20)
			Expect(o.Recorder().IsReplaying()).To(BeFalse())
			Expect(tail[19].Flight).To(Equal(tail[18].Flight))
			Expect(tail[19].State).To(Equal(data.StateWorking))
		})

		It("keeps flying when the recording cannot be opened", func() {
			in := flightInp()
			in.Recording = data.Recording{Mode: data.Replay, File: filepath.Join(os.TempDir(), "fdmsim-missing.csv")}
			o := newOrchestrator(generic)
			initialize(o, in)
			outs := run(o, in, data.Work, 10)
			Expect(o.Recorder().Mode()).To(Equal(data.RecordIdle))
			Expect(outs[9].Flight.PosX).NotTo(Equal(outs[0].Flight.PosX))
		})
	})

	Describe("numerical failure", func() {
		It("propagates NaN from the model", func() {
			o := newOrchestrator(func() aircraft.Model {
				return nanModel{aircraft.NewGeneric(aircraft.DefaultParams(), nil)}
			})
			in := flightInp()
			initialize(o, in)

			in.State = data.Work
			_, err := o.Step(dt, in)
			Expect(errors.Is(err, aircraft.ErrUnexpectedNaN)).To(BeTrue())
			var se *aircraft.StepError
			Expect(errors.As(err, &se)).To(BeTrue())
		})
	})
})
