package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/orbitsim/internal/dynamo"
)

var ErrNoPeriod = errors.New("analysis: signal has no dominant period")

// PowerSpectrum returns the magnitude of the non-negative frequency bins of
// data after removing its mean.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centred := make([]float64, len(data))
	for i, v := range data {
		centred[i] = v - mean
	}

	spec := fft.FFTReal(centred)
	ps := make([]float64, len(spec)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// EstimatePeriod returns the period of the strongest frequency in data
// sampled every dt. The peak is refined by parabolic interpolation over its
// neighbouring bins.
func EstimatePeriod(data []float64, dt float64) (float64, error) {
	if dt <= 0 {
		return 0, dynamo.ErrParameterBounds
	}
	if len(data) < 4 {
		return 0, ErrNoPeriod
	}

	ps := PowerSpectrum(data)
	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] == 0 {
		return 0, ErrNoPeriod
	}

	bin := float64(peak)
	if peak > 1 && peak < len(ps)-1 {
		a, b, c := ps[peak-1], ps[peak], ps[peak+1]
		if d := a - 2*b + c; d != 0 {
			bin += 0.5 * (a - c) / d
		}
	}
	return float64(len(data)) * dt / bin, nil
}

// OrbitalPeriod estimates the period of points about centre, which must be
// sampled at the same steps. A nil centre means the origin.
func OrbitalPeriod(points, centre []dynamo.Point, dt float64) (float64, error) {
	if centre != nil && len(centre) < len(points) {
		return 0, errors.New("analysis: centre shorter than body trajectory")
	}
	xs := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Position.X
		if centre != nil {
			xs[i] -= centre[i].Position.X
		}
	}
	period, err := EstimatePeriod(xs, dt)
	if err != nil {
		return 0, err
	}
	if math.IsInf(period, 0) || math.IsNaN(period) {
		return 0, ErrNoPeriod
	}
	return period, nil
}
