package domain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// EquilibriumLineAltitude returns the elevation at which the net balance
// crosses zero, interpolated linearly between the two profile points that
// bracket the first sign change when walking up the profile. ok is false
// when the balance never changes sign.
func EquilibriumLineAltitude(zs, balances []float64) (ela float64, ok bool) {
	n := min(len(zs), len(balances))
	if n == 0 {
		return 0, false
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return zs[idx[a]] < zs[idx[b]] })

	for k := 0; k < n; k++ {
		z0, b0 := zs[idx[k]], balances[idx[k]]
		if b0 == 0 {
			return z0, true
		}
		if k == n-1 {
			break
		}
		z1, b1 := zs[idx[k+1]], balances[idx[k+1]]
		if math.Signbit(b0) != math.Signbit(b1) && b1 != 0 {
			return z0 + (0-b0)*(z1-z0)/(b1-b0), true
		}
	}
	return 0, false
}

// AccumulationAreaRatio is the fraction of profile points with a positive
// net balance. Points are unweighted, matching the glacier mean.
func AccumulationAreaRatio(balances []float64) float64 {
	if len(balances) == 0 {
		return 0
	}
	pos := 0
	for _, b := range balances {
		if b > 0 {
			pos++
		}
	}
	return float64(pos) / float64(len(balances))
}

// Sensitivity is the least-squares slope of glacier balance against
// temperature offset, in meters per °C. ok is false with fewer than two
// distinct offsets.
func Sensitivity(offsets, balances []float64) (slope float64, ok bool) {
	if len(offsets) < 2 || len(offsets) != len(balances) {
		return 0, false
	}
	distinct := false
	for _, o := range offsets[1:] {
		if o != offsets[0] {
			distinct = true
			break
		}
	}
	if !distinct {
		return 0, false
	}
	_, beta := stat.LinearRegression(offsets, balances, nil, false)
	return beta, true
}
