// Package forcing produces station time series for the balance model: from
// synthetic generators, delimited text files, NetCDF files, or downloads.
package forcing

import (
	"math"

	"github.com/couchcryptid/glacier-balance/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// SyntheticPrecipitation is the constant precipitation rate of the synthetic
// forcing, in m/day.
const SyntheticPrecipitation = 8e-3

// Range returns from, from+step, ... up to and including to (within a small
// tolerance). A non-positive step or to < from yields nil.
func Range(from, to, step float64) []float64 {
	if !(step > 0) || to < from {
		return nil
	}
	n := int(math.Floor((to-from)/step+1e-9)) + 1
	out := make([]float64, n)
	if n == 1 {
		out[0] = from
		return out
	}
	return floats.Span(out, from, from+float64(n-1)*step)
}

// TimeAxis returns round(days/dt)+1 sample times 0, dt, ..., covering [0, days].
func TimeAxis(days, dt float64) []float64 {
	if !(dt > 0) || days < 0 {
		return nil
	}
	n := int(math.Round(days/dt)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * dt
	}
	return out
}

// SyntheticTemperature evaluates an annual cycle with a daily cycle on top:
// -10 cos(2πt/364) - 8 cos(2πt) + 5, t in days.
func SyntheticTemperature(t []float64) []float64 {
	out := make([]float64, len(t))
	for i, ti := range t {
		out[i] = -10*math.Cos(2*math.Pi/364*ti) - 8*math.Cos(2*math.Pi*ti) + 5
	}
	return out
}

// Synthetic builds a forcing of the synthetic temperature and a constant
// precipitation rate over days, sampled every dt days.
func Synthetic(days, dt float64) domain.Forcing {
	t := TimeAxis(days, dt)
	p := make([]float64, len(t))
	for i := range p {
		p[i] = SyntheticPrecipitation
	}
	return domain.Forcing{
		Time:          t,
		Temperature:   SyntheticTemperature(t),
		Precipitation: p,
	}
}

// LinearProfile samples a glacier of constant surface slope: for horizontal
// positions 0, step, ..., extent it returns base + slope*x.
func LinearProfile(extent, step, slope, base float64) []float64 {
	xs := Range(0, extent, step)
	for i, x := range xs {
		xs[i] = base + slope*x
	}
	return xs
}
