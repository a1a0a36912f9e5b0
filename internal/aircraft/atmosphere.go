package aircraft

import "math"

// ISA sea level constants.
const (
	SeaLevelPressure    = 101325.0
	SeaLevelTemperature = 288.15
	SeaLevelDensity     = 1.225

	lapseRate   = 0.0065
	gasConstant = 287.05287
	gamma       = 1.4
	tropopause  = 11000.0
)

// Atmosphere is the ISA state at one altitude.
type Atmosphere struct {
	Pressure    float64
	Density     float64
	Temperature float64
	SoundSpeed  float64
}

// ISA returns the standard atmosphere at geometric altitude h [m]. Above the
// tropopause the temperature is held constant.
func ISA(h float64) Atmosphere {
	var t, p float64
	g := 9.80665
	if h <= tropopause {
		t = SeaLevelTemperature - lapseRate*h
		p = SeaLevelPressure * math.Pow(t/SeaLevelTemperature, g/(lapseRate*gasConstant))
	} else {
		t11 := SeaLevelTemperature - lapseRate*tropopause
		p11 := SeaLevelPressure * math.Pow(t11/SeaLevelTemperature, g/(lapseRate*gasConstant))
		t = t11
		p = p11 * math.Exp(-g*(h-tropopause)/(gasConstant*t11))
	}
	return Atmosphere{
		Pressure:    p,
		Density:     p / (gasConstant * t),
		Temperature: t,
		SoundSpeed:  math.Sqrt(gamma * gasConstant * t),
	}
}
