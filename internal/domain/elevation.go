package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrElevationNotFound is returned by resolvers that have no data for a location.
var ErrElevationNotFound = errors.New("elevation not found")

// ElevationResolver looks up terrain elevation for a coordinate.
type ElevationResolver interface {
	// StationElevation returns meters above sea level at lat/lon.
	StationElevation(ctx context.Context, lat, lon float64) (float64, error)
}

// RelativeElevations converts the request profile into offsets from the
// station datum. Sea-level profiles need the station elevation, taken from
// the request when present and from resolver otherwise.
func RelativeElevations(ctx context.Context, req BalanceRequest, resolver ElevationResolver) ([]float64, error) {
	switch req.Datum {
	case "", DatumStation:
		return req.Elevations, nil
	case DatumSeaLevel:
	default:
		return nil, fmt.Errorf("%w: unknown datum %q", ErrPrecondition, req.Datum)
	}

	var base float64
	switch {
	case req.Station.Elevation != nil:
		base = *req.Station.Elevation
	case resolver == nil:
		return nil, fmt.Errorf("%w: sea_level datum needs a station elevation", ErrPrecondition)
	default:
		lat, lon, ok := req.Station.Coordinates()
		if !ok {
			return nil, fmt.Errorf("%w: sea_level datum needs a station elevation or coordinates", ErrPrecondition)
		}
		z, err := resolver.StationElevation(ctx, lat, lon)
		if err != nil {
			return nil, fmt.Errorf("resolve station elevation: %w", err)
		}
		base = z
	}

	dz := make([]float64, len(req.Elevations))
	for i, z := range req.Elevations {
		dz[i] = z - base
	}
	return dz, nil
}
