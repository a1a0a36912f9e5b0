package analysis

import (
	"math"
	"math/bits"
	"math/cmplx"
)

// FFT transforms data, whose length must be a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// pad removes the mean and zero-pads to the next power of two.
func pad(series []float64) []float64 {
	n := 1 << bits.Len(uint(len(series)-1))
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	out := make([]float64, n)
	for i, v := range series {
		out[i] = v - mean
	}
	return out
}

// PowerSpectrum returns the one-sided amplitude spectrum of series.
func PowerSpectrum(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	fft := FFT(pad(series))
	ps := make([]float64, len(fft)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

type Mode struct {
	Frequency float64 // Hz
	Amplitude float64
}

func (m Mode) Period() float64 {
	if m.Frequency == 0 {
		return math.Inf(1)
	}
	return 1 / m.Frequency
}

// DominantMode returns the strongest non-constant component of a series
// sampled every dt seconds. The zero Mode is returned for short or flat
// series.
func DominantMode(series []float64, dt float64) Mode {
	ps := PowerSpectrum(series)
	if len(ps) < 2 {
		return Mode{}
	}
	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	if ps[best] < 1e-12 {
		return Mode{}
	}
	n := 2 * len(ps)
	return Mode{
		Frequency: float64(best) / (float64(n) * dt),
		Amplitude: ps[best],
	}
}
