package domain

import (
	"errors"
	"fmt"
)

// ErrPrecondition is wrapped by every input validation failure in this package.
// The computations are deterministic, so retrying the same inputs fails the same way.
var ErrPrecondition = errors.New("precondition violated")

// Params is the fixed model configuration passed into every computation.
type Params struct {
	MeltFactor float64 `json:"melt_factor" yaml:"melt_factor"` // m per day per °C, > 0
	TThreshold float64 `json:"t_threshold" yaml:"t_threshold"` // °C, accumulation cutoff
	LapseRate  float64 `json:"lapse_rate" yaml:"lapse_rate"`   // °C per m, usually negative
	DT         float64 `json:"dt" yaml:"dt"`                   // days, > 0
}

// DefaultParams returns the parameter set used by the reference model run:
// 5 mm/d/°C melt, snow below 4 °C, -0.6 °C per 100 m, hourly steps.
func DefaultParams() Params {
	return Params{
		MeltFactor: 0.005,
		TThreshold: 4,
		LapseRate:  -0.6 / 100,
		DT:         1.0 / 24,
	}
}

// Validate reports whether the parameters can drive a model run.
// NaN values fail the positivity checks.
func (p Params) Validate() error {
	if !(p.MeltFactor > 0) {
		return fmt.Errorf("%w: melt_factor must be > 0, got %g", ErrPrecondition, p.MeltFactor)
	}
	if !(p.DT > 0) {
		return fmt.Errorf("%w: dt must be > 0, got %g", ErrPrecondition, p.DT)
	}
	return nil
}

func checkSeries(temps, precip []float64) error {
	if len(temps) != len(precip) {
		return fmt.Errorf("%w: temperature and precipitation lengths differ (%d != %d)",
			ErrPrecondition, len(temps), len(precip))
	}
	return nil
}

// CheckInputs validates everything the spatial integrator needs before any
// computation starts, so callers that fan work out can fail fast.
func CheckInputs(p Params, zs, temps, precip []float64) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(zs) == 0 {
		return fmt.Errorf("%w: elevation profile is empty", ErrPrecondition)
	}
	return checkSeries(temps, precip)
}

// ParamOverrides holds the parameters a request or scenario sets explicitly.
// Unset fields fall back to the defaults the overrides are applied to, so a
// request may change melt_factor alone.
type ParamOverrides struct {
	MeltFactor *float64 `json:"melt_factor,omitempty" yaml:"melt_factor"`
	TThreshold *float64 `json:"t_threshold,omitempty" yaml:"t_threshold"`
	LapseRate  *float64 `json:"lapse_rate,omitempty" yaml:"lapse_rate"`
	DT         *float64 `json:"dt,omitempty" yaml:"dt"`
}

// Override returns overrides that set every field of p.
func Override(p Params) *ParamOverrides {
	return &ParamOverrides{
		MeltFactor: &p.MeltFactor,
		TThreshold: &p.TThreshold,
		LapseRate:  &p.LapseRate,
		DT:         &p.DT,
	}
}

// Apply overlays the set fields on defaults. A nil receiver returns defaults.
func (o *ParamOverrides) Apply(defaults Params) Params {
	if o == nil {
		return defaults
	}
	p := defaults
	if o.MeltFactor != nil {
		p.MeltFactor = *o.MeltFactor
	}
	if o.TThreshold != nil {
		p.TThreshold = *o.TThreshold
	}
	if o.LapseRate != nil {
		p.LapseRate = *o.LapseRate
	}
	if o.DT != nil {
		p.DT = *o.DT
	}
	return p
}
