package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of the first half of the DFT of the
// mean-removed series. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	centered := make([]float64, len(data))
	copy(centered, data)
	floats.AddConst(-stat.Mean(data, nil), centered)

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency of the strongest non-DC bin of a
// series sampled every dt, and that bin's magnitude.
func DominantFrequency(data []float64, dt float64) (float64, float64) {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || dt <= 0 {
		return 0, 0
	}
	k := floats.MaxIdx(ps[1:]) + 1
	return float64(k) / (float64(len(data)) * dt), ps[k]
}

type Summary struct {
	N    int
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

func Summarize(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	s := Summary{N: len(data), Min: floats.Min(data), Max: floats.Max(data)}
	if len(data) == 1 {
		s.Mean = data[0]
		return s
	}
	s.Mean, s.Std = stat.MeanStdDev(data, nil)
	return s
}
