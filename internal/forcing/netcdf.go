package forcing

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/couchcryptid/glacier-balance/internal/domain"
)

// NetCDFOptions selects the variables and grid cell to read. Variables are
// either 1-D over time or 3-D over (time, latitude, longitude). Values must
// already be in °C and m/day; CF packing (scale_factor, add_offset) is undone.
type NetCDFOptions struct {
	TemperatureVar   string // default "t2m"
	PrecipitationVar string // default "tp"
	TimeVar          string // optional, values in days
	LatIndex         int
	LonIndex         int
}

// ReadNetCDF reads a station series from a NetCDF file.
func ReadNetCDF(path string, opts NetCDFOptions) (domain.Forcing, error) {
	if opts.TemperatureVar == "" {
		opts.TemperatureVar = "t2m"
	}
	if opts.PrecipitationVar == "" {
		opts.PrecipitationVar = "tp"
	}

	nc, err := netcdf.Open(path)
	if err != nil {
		return domain.Forcing{}, fmt.Errorf("open netcdf %s: %w", path, err)
	}
	defer nc.Close()

	var f domain.Forcing
	if f.Temperature, err = readVar(nc, opts.TemperatureVar, opts.LatIndex, opts.LonIndex); err != nil {
		return domain.Forcing{}, err
	}
	if f.Precipitation, err = readVar(nc, opts.PrecipitationVar, opts.LatIndex, opts.LonIndex); err != nil {
		return domain.Forcing{}, err
	}
	if opts.TimeVar != "" {
		if f.Time, err = readVar(nc, opts.TimeVar, 0, 0); err != nil {
			return domain.Forcing{}, err
		}
	}

	if err := f.Validate(); err != nil {
		return domain.Forcing{}, err
	}
	return f, nil
}

func readVar(nc api.Group, name string, lat, lon int) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("read variable %s: %w", name, err)
	}
	series, err := cellSeries(v, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}

	attrs := vg.Attributes()
	scale, hasScale := floatAttr(attrs, "scale_factor")
	offset, hasOffset := floatAttr(attrs, "add_offset")
	if hasScale || hasOffset {
		if !hasScale {
			scale = 1
		}
		unpack(series, scale, offset)
	}
	return series, nil
}

// cellSeries flattens a 1-D time series or picks one grid cell out of a
// (time, lat, lon) cube.
func cellSeries(v any, lat, lon int) ([]float64, error) {
	switch vals := v.(type) {
	case []float64:
		return append([]float64(nil), vals...), nil
	case []float32:
		return widen(vals), nil
	case []int16:
		return widen(vals), nil
	case []int32:
		return widen(vals), nil
	case [][][]float64:
		return pick(vals, lat, lon)
	case [][][]float32:
		return pick(vals, lat, lon)
	case [][][]int16:
		return pick(vals, lat, lon)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

type number interface {
	~int16 | ~int32 | ~float32 | ~float64
}

func widen[T number](vals []T) []float64 {
	out := make([]float64, len(vals))
	for i, x := range vals {
		out[i] = float64(x)
	}
	return out
}

func pick[T number](cube [][][]T, lat, lon int) ([]float64, error) {
	out := make([]float64, len(cube))
	for t, grid := range cube {
		if lat < 0 || lat >= len(grid) || lon < 0 || lon >= len(grid[lat]) {
			return nil, fmt.Errorf("grid cell (%d, %d) out of range", lat, lon)
		}
		out[t] = float64(grid[lat][lon])
	}
	return out, nil
}

func floatAttr(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	v, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case []float64:
		if len(x) == 1 {
			return x[0], true
		}
	case []float32:
		if len(x) == 1 {
			return float64(x[0]), true
		}
	}
	return 0, false
}

func unpack(series []float64, scale, offset float64) {
	for i, x := range series {
		series[i] = x*scale + offset
	}
}
