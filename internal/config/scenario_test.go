package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/glacier-balance/internal/domain"
)

const referenceScenario = `
params:
  melt_factor: 0.005
  t_threshold: 4
  lapse_rate: -0.006
  dt: 0.041666666666666664
profile:
  linear: {extent: 5000, step: 500, slope: 0.2, base: 1400}
point_elevation: 1500
forcing:
  source: synthetic
  days: 365
offsets:
  from: -4
  to: 4
  step: 1
output:
  dir: out
  sha_names: true
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(referenceScenario))
	require.NoError(t, err)

	assert.Equal(t, domain.DatumStation, s.Datum)
	assert.Equal(t, SourceSynthetic, s.Forcing.Source)
	assert.InDelta(t, 365.0, s.Forcing.Days, 0)
	require.NotNil(t, s.PointElevation)
	assert.InDelta(t, 1500.0, *s.PointElevation, 0)
	assert.Equal(t, "out", s.Output.Dir)
	assert.True(t, s.Output.ShaNames)

	zs := s.Profile.ElevationList()
	require.Len(t, zs, 11)
	assert.InDelta(t, 1400.0, zs[0], 1e-9)
	assert.InDelta(t, 2400.0, zs[10], 1e-9)

	assert.Equal(t, []float64{-4, -3, -2, -1, 0, 1, 2, 3, 4}, s.Offsets.List())
}

func TestParseScenario_MatchesDefault(t *testing.T) {
	s, err := ParseScenario([]byte(referenceScenario))
	require.NoError(t, err)
	d := DefaultScenario()

	assert.Equal(t, d.Profile.ElevationList(), s.Profile.ElevationList())
	assert.Equal(t, d.Offsets.List(), s.Offsets.List())
	want, got := d.ParamsOr(domain.Params{}), s.ParamsOr(domain.Params{})
	assert.InDelta(t, want.DT, got.DT, 1e-15)
	assert.InDelta(t, want.LapseRate, got.LapseRate, 1e-15)
}

func TestParseScenario_Defaults(t *testing.T) {
	s, err := ParseScenario([]byte("profile:\n  elevations: [0, 100]\nforcing:\n  days: 10\n"))
	require.NoError(t, err)

	assert.Nil(t, s.Params)
	assert.Equal(t, domain.DefaultParams(), s.ParamsOr(domain.DefaultParams()))
	assert.Equal(t, SourceSynthetic, s.Forcing.Source)
	assert.Equal(t, ".", s.Output.Dir)
	assert.Equal(t, []float64{0, 100}, s.Profile.ElevationList())
	assert.Empty(t, s.Offsets.List())
	assert.Equal(t, ',', s.Forcing.Delimiter())
}

func TestParseScenario_PartialParams(t *testing.T) {
	s, err := ParseScenario([]byte("params: {melt_factor: 0.007}\nprofile: {elevations: [0]}\nforcing: {days: 1}\n"))
	require.NoError(t, err)

	want := domain.DefaultParams()
	want.MeltFactor = 0.007
	assert.Equal(t, want, s.ParamsOr(domain.DefaultParams()))
}

func TestParseScenario_CSVForcing(t *testing.T) {
	doc := `
profile: {elevations: [0]}
forcing:
  source: csv
  path: station.tsv
  comma: "\t"
  temperature_column: t2m
  constant_precipitation: 0.002
offsets: {values: [-1, 1]}
`
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)

	opts := s.Forcing.CSVOptions()
	assert.Equal(t, '\t', opts.Comma)
	assert.Equal(t, "t2m", opts.TemperatureColumn)
	require.NotNil(t, opts.ConstantPrecipitation)
	assert.InDelta(t, 0.002, *opts.ConstantPrecipitation, 0)
	assert.Equal(t, []float64{-1, 1}, s.Offsets.List())
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "profile: {elevations: [0]}\nforcing: {days: 1}\nbogus: 1\n", "decode scenario"},
		{"no profile", "forcing: {days: 1}\n", "elevations or linear"},
		{"both profiles", "profile: {elevations: [0], linear: {extent: 1, step: 1}}\nforcing: {days: 1}\n", "mutually exclusive"},
		{"bad linear step", "profile: {linear: {extent: 1, step: 0}}\nforcing: {days: 1}\n", "step > 0"},
		{"no days", "profile: {elevations: [0]}\n", "days > 0"},
		{"csv without path", "profile: {elevations: [0]}\nforcing: {source: csv}\n", "needs a path"},
		{"unknown source", "profile: {elevations: [0]}\nforcing: {source: grib}\n", "unknown source"},
		{"long comma", "profile: {elevations: [0]}\nforcing: {source: csv, path: a, comma: ';;'}\n", "single character"},
		{"convert netcdf", "profile: {elevations: [0]}\nforcing: {source: netcdf, path: a.nc, convert_to: b.csv}\n", "convert_to"},
		{"half range", "profile: {elevations: [0]}\nforcing: {days: 1}\noffsets: {from: 1}\n", "set together"},
		{"reversed range", "profile: {elevations: [0]}\nforcing: {days: 1}\noffsets: {from: 1, to: 0, step: 1}\n", "to >= from"},
		{"values and range", "profile: {elevations: [0]}\nforcing: {days: 1}\noffsets: {values: [1], from: 0, to: 1, step: 1}\n", "mutually exclusive"},
		{"bad params", "params: {melt_factor: 0, dt: 1}\nprofile: {elevations: [0]}\nforcing: {days: 1}\n", "melt_factor"},
		{"negative workers", "profile: {elevations: [0]}\nforcing: {days: 1}\nworkers: -2\n", "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(referenceScenario), 0o600))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Len(t, s.Offsets.List(), 9)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read scenario")
}
