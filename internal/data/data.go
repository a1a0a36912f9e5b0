// Package data defines the snapshots exchanged between a host loop and the
// flight dynamics orchestrator.
//
// An [Inp] is copied into the orchestrator at the start of every call and an
// [Out] is handed back by value at the end of it. Neither side keeps a
// reference into the other's memory.
package data

const (
	MaxEngines = 4
	MaxPilots  = 2
	MaxTanks   = 4
)

// StateInp is the lifecycle state requested by the host.
type StateInp int

const (
	Idle StateInp = iota
	Init
	Work
	Freeze
	Pause
	Stop
)

var stateInpNames = map[StateInp]string{
	Idle:   "idle",
	Init:   "init",
	Work:   "work",
	Freeze: "freeze",
	Pause:  "pause",
	Stop:   "stop",
}

func (s StateInp) String() string {
	if n, ok := stateInpNames[s]; ok {
		return n
	}
	return "unknown"
}

// StateOut is the lifecycle state the simulation is actually in.
type StateOut int

const (
	StateIdle StateOut = iota
	StateReady
	StateWorking
	StateFrozen
	StatePaused
	StateStopped
)

var stateOutNames = map[StateOut]string{
	StateIdle:    "idle",
	StateReady:   "ready",
	StateWorking: "working",
	StateFrozen:  "frozen",
	StatePaused:  "paused",
	StateStopped: "stopped",
}

func (s StateOut) String() string {
	if n, ok := stateOutNames[s]; ok {
		return n
	}
	return "unknown"
}

// RecordingMode selects what the recorder does with its file.
type RecordingMode int

const (
	RecordIdle RecordingMode = iota
	Record
	Replay
)

func (m RecordingMode) String() string {
	switch m {
	case Record:
		return "record"
	case Replay:
		return "replay"
	default:
		return "idle"
	}
}

// ParseRecordingMode maps a config string to a mode; unknown strings are idle.
func ParseRecordingMode(s string) RecordingMode {
	switch s {
	case "record":
		return Record
	case "replay":
		return Replay
	default:
		return RecordIdle
	}
}

type Controls struct {
	Roll      float64
	Pitch     float64
	Yaw       float64
	TrimRoll  float64
	TrimPitch float64
	TrimYaw   float64

	BrakeLeft   float64
	BrakeRight  float64
	LandingGear float64
	NoseWheel   float64
	Flaps       float64
	Airbrake    float64
	Spoilers    float64
	Collective  float64

	GearHandle        bool
	NoseWheelSteering bool
	AntiSkid          bool
}

type EngineInp struct {
	Throttle  float64
	Mixture   float64
	Propeller float64

	Fuel     bool
	Ignition bool
	Starter  bool
}

// Masses are the variable loads in kilograms.
type Masses struct {
	Pilot    [MaxPilots]float64
	FuelTank [MaxTanks]float64
	Cabin    float64
	Trunk    float64
	Slung    float64
}

// Initial holds the requested start conditions. Angles are radians.
type Initial struct {
	Latitude    float64
	Longitude   float64
	Heading     float64
	Airspeed    float64
	AltitudeAGL float64
	EngineOn    bool

	// Offset moves the spawn point along Heading, in metres.
	Offset float64
}

type Ground struct {
	Elevation float64
}

type FreezeFlags struct {
	Position bool
	Attitude bool
	Velocity bool
}

type Recording struct {
	Mode RecordingMode
	File string
}

// Inp is the complete input snapshot for one call.
type Inp struct {
	State     StateInp
	Controls  Controls
	Engines   [MaxEngines]EngineInp
	Masses    Masses
	Initial   Initial
	Ground    Ground
	Freeze    FreezeFlags
	Recording Recording
}

// Quat is a unit quaternion, scalar part first.
type Quat struct {
	E0, EX, EY, EZ float64
}

type Flight struct {
	Latitude    float64
	Longitude   float64
	AltitudeASL float64
	AltitudeAGL float64

	// ECEF (WGS84) position in metres.
	PosX, PosY, PosZ float64

	// Att rotates body axes into ECEF.
	Att     Quat
	Roll    float64
	Pitch   float64
	Heading float64

	U, V, W       float64
	P, Q, R       float64
	AccX, AccY    float64
	AccZ          float64
	AngleOfAttack float64
	Sideslip      float64

	// Load factors in g, Z positive when pushed into the seat.
	GForceX, GForceY, GForceZ float64
	GPilotX, GPilotY, GPilotZ float64

	GroundTrack float64
	ClimbAngle  float64
	SlipSkid    float64

	IAS         float64
	TAS         float64
	Mach        float64
	GroundSpeed float64
	ClimbRate   float64

	OnGround bool
	Stall    bool
}

type Environment struct {
	Pressure    float64
	Density     float64
	Temperature float64
}

type EngineOut struct {
	Running bool
	Thrust  float64
}

// Out is the complete output snapshot for one call.
type Out struct {
	State       StateOut
	Flight      Flight
	Environment Environment
	Engines     [MaxEngines]EngineOut
	Crash       bool
}
