package domain

// GlacierBalance is the result of integrating balance over a profile.
type GlacierBalance struct {
	// Mean is the glacier net balance in meters: the unweighted mean of Points.
	Mean float64
	// Points holds the net balance at each profile elevation, in profile order.
	Points []float64
}

// NewGlacierBalance aggregates per-point net balances into a glacier balance.
// The mean is a running sum in point order divided by the point count.
func NewGlacierBalance(points []float64) GlacierBalance {
	sum := 0.0
	for _, b := range points {
		sum += b
	}
	mean := 0.0
	if len(points) > 0 {
		mean = sum / float64(len(points))
	}
	return GlacierBalance{Mean: mean, Points: points}
}

// NetBalance integrates the balance rate over a time series at one point and
// returns the net balance in meters. Each step contributes
// (Accumulate - Melt) * dt; there is no higher-order quadrature.
// An empty series integrates to zero.
func NetBalance(p Params, temps, precip []float64) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if err := checkSeries(temps, precip); err != nil {
		return 0, err
	}
	return netBalance(p, temps, precip), nil
}

func netBalance(p Params, temps, precip []float64) float64 {
	total := 0.0
	for i, t := range temps {
		rate := -Melt(t, p.MeltFactor) + Accumulate(t, precip[i], p.TThreshold)
		total += rate * p.DT
	}
	return total
}

// PointNetBalance lapses the station series to dz and integrates it.
func PointNetBalance(p Params, dz float64, temps, precip []float64) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if err := checkSeries(temps, precip); err != nil {
		return 0, err
	}
	return netBalance(p, LapseSeries(temps, dz, p.LapseRate), precip), nil
}

// GlacierNetBalance integrates the balance at every elevation of zs (offsets
// from the station datum) and averages the results. Precipitation is used
// unlapsed at every elevation.
func GlacierNetBalance(p Params, zs, temps, precip []float64) (GlacierBalance, error) {
	if err := CheckInputs(p, zs, temps, precip); err != nil {
		return GlacierBalance{}, err
	}
	points := make([]float64, len(zs))
	for i, z := range zs {
		points[i] = netBalance(p, LapseSeries(temps, z, p.LapseRate), precip)
	}
	return NewGlacierBalance(points), nil
}

// TemperatureSweep re-runs GlacierNetBalance with every station temperature
// shifted by each offset and returns the glacier balances in offset order.
func TemperatureSweep(p Params, offsets, zs, temps, precip []float64) ([]float64, error) {
	if err := CheckInputs(p, zs, temps, precip); err != nil {
		return nil, err
	}
	out := make([]float64, len(offsets))
	for i, off := range offsets {
		gb, err := GlacierNetBalance(p, zs, OffsetSeries(temps, off), precip)
		if err != nil {
			return nil, err
		}
		out[i] = gb.Mean
	}
	return out, nil
}
