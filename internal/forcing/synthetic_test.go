package forcing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange(t *testing.T) {
	assert.Equal(t, []float64{-4, -3, -2, -1, 0, 1, 2, 3, 4}, Range(-4, 4, 1))
	assert.Equal(t, []float64{0, 0.5, 1}, Range(0, 1, 0.5))
	assert.Equal(t, []float64{2}, Range(2, 2, 1))
	assert.Equal(t, []float64{0, 2}, Range(0, 3, 2))
	assert.Nil(t, Range(0, 1, 0))
	assert.Nil(t, Range(1, 0, 1))
}

func TestTimeAxis(t *testing.T) {
	axis := TimeAxis(365, 1.0/24)
	require.Len(t, axis, 365*24+1)
	assert.Equal(t, 0.0, axis[0])
	assert.InDelta(t, 365.0, axis[len(axis)-1], 1e-9)

	assert.Equal(t, []float64{0, 0.5, 1}, TimeAxis(1, 0.5))
	assert.Nil(t, TimeAxis(1, 0))
}

func TestSyntheticTemperature(t *testing.T) {
	temps := SyntheticTemperature([]float64{0, 0.5, 182})
	// Midnight on day 0: both cosines at their maximum.
	assert.InDelta(t, -13.0, temps[0], 1e-12)
	// Noon: the daily term flips sign.
	assert.InDelta(t, -10*0.99996275+8+5, temps[1], 1e-6)
	// Mid-year midnight: annual term at its minimum.
	assert.InDelta(t, 7.0, temps[2], 1e-9)
}

func TestSynthetic(t *testing.T) {
	f := Synthetic(2, 0.25)

	require.NoError(t, f.Validate())
	assert.Len(t, f.Time, 9)
	for _, p := range f.Precipitation {
		assert.Equal(t, SyntheticPrecipitation, p)
	}
	dt, ok, err := f.Step()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.25, dt)
}

func TestLinearProfile(t *testing.T) {
	zs := LinearProfile(5000, 500, 0.2, 1400)
	require.Len(t, zs, 11)
	assert.Equal(t, 1400.0, zs[0])
	assert.InDelta(t, 1500.0, zs[1], 1e-9)
	assert.InDelta(t, 2400.0, zs[10], 1e-9)
}
