package domain

import (
	"fmt"
	"math"
)

// stepTolerance is the relative spacing error accepted by Forcing.Step.
const stepTolerance = 1e-6

// Validate checks that the series are non-empty and index-aligned.
func (f Forcing) Validate() error {
	if len(f.Temperature) == 0 {
		return fmt.Errorf("%w: forcing has no samples", ErrPrecondition)
	}
	if err := checkSeries(f.Temperature, f.Precipitation); err != nil {
		return err
	}
	if len(f.Time) > 0 && len(f.Time) != len(f.Temperature) {
		return fmt.Errorf("%w: time and temperature lengths differ (%d != %d)",
			ErrPrecondition, len(f.Time), len(f.Temperature))
	}
	return nil
}

// Step returns the uniform time step of the series in days. ok is false when
// there is no time axis or fewer than two samples. A non-uniform axis is an error.
func (f Forcing) Step() (dt float64, ok bool, err error) {
	if len(f.Time) < 2 {
		return 0, false, nil
	}
	dt = f.Time[1] - f.Time[0]
	if !(dt > 0) {
		return 0, false, fmt.Errorf("%w: time axis is not increasing", ErrPrecondition)
	}
	for i := 2; i < len(f.Time); i++ {
		d := f.Time[i] - f.Time[i-1]
		if math.Abs(d-dt) > stepTolerance*dt {
			return 0, false, fmt.Errorf("%w: non-uniform time step at sample %d (%g != %g)",
				ErrPrecondition, i, d, dt)
		}
	}
	return dt, true, nil
}
