package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// PowerSpectrum returns the magnitude of each frequency bin of data after
// removing its mean, and the bin width in Hz for sample interval dt. Bin 0 is
// the (removed) mean.
func PowerSpectrum(data []float64, dt float64) ([]float64, float64) {
	n := len(data)
	if n < 2 || dt <= 0 {
		return nil, 0
	}

	centred := make([]float64, n)
	copy(centred, data)
	floats.AddConst(-floats.Sum(centred)/float64(n), centred)

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centred)

	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps, 1 / (float64(n) * dt)
}

// DominantFrequency returns the frequency in Hz with the most power, or 0
// for a constant or too short series.
func DominantFrequency(data []float64, dt float64) float64 {
	ps, df := PowerSpectrum(data, dt)
	if len(ps) < 2 {
		return 0
	}
	i := floats.MaxIdx(ps[1:]) + 1
	if ps[i] == 0 {
		return 0
	}
	return float64(i) * df
}
