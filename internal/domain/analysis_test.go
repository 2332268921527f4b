package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquilibriumLineAltitude(t *testing.T) {
	tests := []struct {
		name     string
		zs       []float64
		balances []float64
		expected float64
		ok       bool
	}{
		{"interpolated crossing", []float64{0, 100, 200}, []float64{-0.25, 0.5, 0.5}, 100.0 / 3, true},
		{"unsorted profile", []float64{200, 0, 100}, []float64{0.5, -0.25, 0.5}, 100.0 / 3, true},
		{"exact zero point", []float64{1400, 1500, 1600}, []float64{-1, 0, 1}, 1500, true},
		{"all ablation", []float64{1400, 1500}, []float64{-2, -1}, 0, false},
		{"all accumulation", []float64{1400, 1500}, []float64{1, 2}, 0, false},
		{"single point", []float64{1400}, []float64{-1}, 0, false},
		{"empty", nil, nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ela, ok := EquilibriumLineAltitude(tt.zs, tt.balances)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.expected, ela, 1e-9)
		})
	}
}

func TestAccumulationAreaRatio(t *testing.T) {
	assert.InDelta(t, 2.0/3, AccumulationAreaRatio([]float64{-0.25, 0.5, 0.5}), 1e-15)
	assert.Equal(t, 0.0, AccumulationAreaRatio([]float64{-1, 0}))
	assert.Equal(t, 1.0, AccumulationAreaRatio([]float64{0.1}))
	assert.Equal(t, 0.0, AccumulationAreaRatio(nil))
}

func TestSensitivity(t *testing.T) {
	slope, ok := Sensitivity([]float64{-1, 0, 1}, []float64{0.5, 0.25, -1.0 / 6})
	require.True(t, ok)
	assert.InDelta(t, -1.0/3, slope, 1e-12)

	slope, ok = Sensitivity([]float64{-4, -2, 0, 2, 4}, []float64{3, 2, 1, 0, -1})
	require.True(t, ok)
	assert.InDelta(t, -0.5, slope, 1e-12)
}

func TestSensitivity_Undefined(t *testing.T) {
	_, ok := Sensitivity([]float64{0}, []float64{1})
	assert.False(t, ok)

	_, ok = Sensitivity([]float64{1, 1}, []float64{1, 2})
	assert.False(t, ok)

	_, ok = Sensitivity([]float64{1, 2}, []float64{1})
	assert.False(t, ok)
}
