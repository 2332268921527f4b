// Package domain computes glacier surface mass balance with a degree-day melt
// model and linear temperature lapsing.
//
// # Units
//
// All quantities use one fixed convention and are never converted:
//
//	elevation      meters
//	temperature    degrees Celsius
//	precipitation  meters of water per day
//	time step      days
//	balance        meters (rates in meters per day)
//
// # Argument Order
//
// The point functions take the sample first and the model constant last:
//
//	Melt(t, meltFactor)
//	Accumulate(t, p, tThreshold)
//	Lapse(t, dz, lapseRate)
//
// Everything above the point functions takes a [Params] value as its first
// argument instead of loose constants.
//
// # Boundaries
//
// Both boundaries are inclusive. A sample at exactly 0 °C melts (with zero
// melt), and a sample at exactly the threshold accumulates. With a threshold
// of 0 °C a 0 °C sample therefore both melts nothing and accumulates its
// full precipitation.
//
// # Integration
//
// [NetBalance] integrates the balance rate -Melt + Accumulate over a time
// series with the rectangle rule, summing in input order. [GlacierNetBalance]
// lapses the station series to every elevation of a profile, integrates each
// one, and reports the unweighted arithmetic mean of the per-point results.
// Elevations are offsets from the station datum unless a request says
// otherwise (see [Datum]).
//
// Band area is not taken into account: every profile point counts the same
// regardless of how much glacier surface it represents.
//
// # Sweeps
//
// [TemperatureSweep] shifts the station temperature by each offset and
// re-runs the spatial integration from scratch for every offset.
package domain
