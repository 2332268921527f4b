package domain

// Melt returns the degree-day melt rate in m/day: t*meltFactor at or above
// 0 °C, zero below freezing.
func Melt(t, meltFactor float64) float64 {
	if t >= 0 {
		return t * meltFactor
	}
	return 0.0
}

// Accumulate returns p when t is at or below tThreshold (precipitation falls
// as snow) and zero otherwise. Negative precipitation is not clamped.
func Accumulate(t, p, tThreshold float64) float64 {
	if t <= tThreshold {
		return p
	}
	return 0.0
}

// Lapse corrects a station temperature to a point dz meters above (or below,
// when negative) the station.
func Lapse(t, dz, lapseRate float64) float64 {
	return lapseRate*dz + t
}

// LapseSeries lapses every sample of temps to dz. The input is not modified.
func LapseSeries(temps []float64, dz, lapseRate float64) []float64 {
	out := make([]float64, len(temps))
	for i, t := range temps {
		out[i] = Lapse(t, dz, lapseRate)
	}
	return out
}

// OffsetSeries adds offset to every sample of temps. The input is not modified.
func OffsetSeries(temps []float64, offset float64) []float64 {
	out := make([]float64, len(temps))
	for i, t := range temps {
		out[i] = t + offset
	}
	return out
}
