package aircraft

import "github.com/go-gl/mathgl/mgl64"

// Params describes the reference model. The defaults are a light single
// engine aircraft on a tricycle undercarriage.
type Params struct {
	EmptyMass float64
	Inertia   mgl64.Vec3 // principal moments Ixx, Iyy, Izz

	WingArea float64
	Span     float64
	Chord    float64

	CL0        float64
	CLAlpha    float64
	CLFlaps    float64
	CLSpoilers float64
	AlphaStall float64

	CD0        float64
	CDInduced  float64
	CDFlaps    float64
	CDAirbrake float64
	CDSpoilers float64

	CYBeta float64

	ClBeta float64
	ClP    float64
	ClRoll float64

	Cm0     float64
	CmAlpha float64
	CmQ     float64
	CmPitch float64

	CnBeta float64
	CnR    float64
	CnYaw  float64

	Engines   int
	MaxThrust float64 // per engine at sea level [N]

	PilotPos mgl64.Vec3
	Gear     []Leg
}

func DefaultParams() Params {
	return Params{
		EmptyMass: 1000,
		Inertia:   mgl64.Vec3{1500, 2500, 3500},

		WingArea: 16,
		Span:     11,
		Chord:    1.5,

		CL0:        0.2,
		CLAlpha:    5.0,
		CLFlaps:    0.5,
		CLSpoilers: -0.3,
		AlphaStall: 0.28,

		CD0:        0.03,
		CDInduced:  0.05,
		CDFlaps:    0.05,
		CDAirbrake: 0.08,
		CDSpoilers: 0.04,

		CYBeta: -0.5,

		ClBeta: -0.1,
		ClP:    -0.5,
		ClRoll: 0.15,

		Cm0:     0.02,
		CmAlpha: -1.0,
		CmQ:     -12,
		CmPitch: 0.5,

		CnBeta: 0.1,
		CnR:    -0.15,
		CnYaw:  0.08,

		Engines:   1,
		MaxThrust: 3000,

		PilotPos: mgl64.Vec3{1.0, -0.3, -0.5},
		Gear: []Leg{
			{
				Name: "nose", Attach: mgl64.Vec3{2.0, 0, 0},
				Length: 1.5, Travel: 0.5, Stiffness: 12000, Damping: 1500,
				Rolling: 0.03, Side: 0.6,
			},
			{
				Name: "left", Attach: mgl64.Vec3{-0.5, -1.5, 0},
				Length: 1.5, Travel: 0.5, Stiffness: 24000, Damping: 3000,
				Rolling: 0.02, Braking: 0.7, Side: 0.8, Brake: LeftBrake,
			},
			{
				Name: "right", Attach: mgl64.Vec3{-0.5, 1.5, 0},
				Length: 1.5, Travel: 0.5, Stiffness: 24000, Damping: 3000,
				Rolling: 0.02, Braking: 0.7, Side: 0.8, Brake: RightBrake,
			},
		},
	}
}
