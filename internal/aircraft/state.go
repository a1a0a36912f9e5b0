package aircraft

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// State vector slot indices.
const (
	IX = iota // ECEF position
	IY
	IZ
	IE0 // attitude quaternion, body to ECEF, scalar first
	IEX
	IEY
	IEZ
	IU // body velocity
	IV
	IW
	IP // body angular rate
	IQ
	IR

	StateDim
)

// StateVector holds the integrable quantities of the aircraft.
type StateVector [StateDim]float64

func (s StateVector) Pos() mgl64.Vec3 { return mgl64.Vec3{s[IX], s[IY], s[IZ]} }

func (s StateVector) Att() mgl64.Quat {
	return mgl64.Quat{W: s[IE0], V: mgl64.Vec3{s[IEX], s[IEY], s[IEZ]}}
}

func (s StateVector) Vel() mgl64.Vec3   { return mgl64.Vec3{s[IU], s[IV], s[IW]} }
func (s StateVector) Omega() mgl64.Vec3 { return mgl64.Vec3{s[IP], s[IQ], s[IR]} }

func (s *StateVector) SetPos(p mgl64.Vec3) { s[IX], s[IY], s[IZ] = p[0], p[1], p[2] }

func (s *StateVector) SetAtt(q mgl64.Quat) {
	s[IE0], s[IEX], s[IEY], s[IEZ] = q.W, q.V[0], q.V[1], q.V[2]
}

func (s *StateVector) SetVel(v mgl64.Vec3)   { s[IU], s[IV], s[IW] = v[0], v[1], v[2] }
func (s *StateVector) SetOmega(w mgl64.Vec3) { s[IP], s[IQ], s[IR] = w[0], w[1], w[2] }

func (s StateVector) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
