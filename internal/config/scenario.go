package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/glacier-balance/internal/domain"
	"github.com/couchcryptid/glacier-balance/internal/forcing"
)

// Forcing sources understood by the massbalance command.
const (
	SourceSynthetic = "synthetic"
	SourceCSV       = "csv"
	SourceNetCDF    = "netcdf"
)

// Scenario is a model run described in a YAML file.
type Scenario struct {
	Params         *domain.ParamOverrides `yaml:"params"`
	Station        domain.Station         `yaml:"station"`
	Datum          domain.Datum           `yaml:"datum"`
	Profile        ProfileSpec            `yaml:"profile"`
	PointElevation *float64               `yaml:"point_elevation"`
	Forcing        ForcingSpec            `yaml:"forcing"`
	Offsets        OffsetSpec             `yaml:"offsets"`
	Output         OutputSpec             `yaml:"output"`
	Workers        int                    `yaml:"workers"`
}

// ProfileSpec lists elevations explicitly or samples a constant-slope glacier.
type ProfileSpec struct {
	Elevations []float64   `yaml:"elevations"`
	Linear     *LinearSpec `yaml:"linear"`
}

// LinearSpec parameterizes forcing.LinearProfile.
type LinearSpec struct {
	Extent float64 `yaml:"extent"`
	Step   float64 `yaml:"step"`
	Slope  float64 `yaml:"slope"`
	Base   float64 `yaml:"base"`
}

// ForcingSpec selects where the station series come from.
type ForcingSpec struct {
	Source string  `yaml:"source"`
	Days   float64 `yaml:"days"` // synthetic only

	Path      string `yaml:"path"`
	URL       string `yaml:"url"`        // fetched when Path is missing
	Archive   string `yaml:"archive"`    // zip member extracted to Path when URL is a zip
	ConvertTo string `yaml:"convert_to"` // comma-separated copy of a csv source to read from

	Comma                 string   `yaml:"comma"`
	TimeColumn            string   `yaml:"time_column"`
	TemperatureColumn     string   `yaml:"temperature_column"`
	PrecipitationColumn   string   `yaml:"precipitation_column"`
	ConstantPrecipitation *float64 `yaml:"constant_precipitation"`

	TemperatureVar   string `yaml:"temperature_var"`
	PrecipitationVar string `yaml:"precipitation_var"`
	TimeVar          string `yaml:"time_var"`
	LatIndex         int    `yaml:"lat_index"`
	LonIndex         int    `yaml:"lon_index"`
}

// OffsetSpec lists temperature offsets explicitly or as an inclusive range.
type OffsetSpec struct {
	Values []float64 `yaml:"values"`
	From   *float64  `yaml:"from"`
	To     *float64  `yaml:"to"`
	Step   float64   `yaml:"step"`
}

// OutputSpec controls where results are written.
type OutputSpec struct {
	Dir      string `yaml:"dir"`
	ShaNames bool   `yaml:"sha_names"`
	DB       string `yaml:"db"`
}

// DefaultScenario is the reference run: one year of hourly synthetic forcing
// over a 5 km glacier rising from 1400 m at slope 1:5, swept from -4 to +4 °C.
func DefaultScenario() *Scenario {
	from, to := -4.0, 4.0
	point := 1500.0
	return &Scenario{
		Params:         domain.Override(domain.DefaultParams()),
		Datum:          domain.DatumStation,
		Profile:        ProfileSpec{Linear: &LinearSpec{Extent: 5000, Step: 500, Slope: 0.2, Base: 1400}},
		PointElevation: &point,
		Forcing:        ForcingSpec{Source: SourceSynthetic, Days: 365},
		Offsets:        OffsetSpec{From: &from, To: &to, Step: 1},
		Output:         OutputSpec{Dir: "."},
	}
}

// LoadScenario reads a scenario file. Unknown keys are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if s.Datum == "" {
		s.Datum = domain.DatumStation
	}
	if s.Forcing.Source == "" {
		s.Forcing.Source = SourceSynthetic
	}
	if s.Output.Dir == "" {
		s.Output.Dir = "."
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario for combinations the CLI cannot run.
func (s *Scenario) Validate() error {
	if err := s.ParamsOr(domain.DefaultParams()).Validate(); err != nil {
		return fmt.Errorf("scenario params: %w", err)
	}
	if len(s.Profile.Elevations) > 0 && s.Profile.Linear != nil {
		return errors.New("scenario profile: elevations and linear are mutually exclusive")
	}
	if len(s.Profile.Elevations) == 0 && s.Profile.Linear == nil {
		return errors.New("scenario profile: elevations or linear is required")
	}
	if l := s.Profile.Linear; l != nil && (!(l.Step > 0) || l.Extent < 0) {
		return errors.New("scenario profile: linear needs step > 0 and extent >= 0")
	}
	if s.Workers < 0 {
		return errors.New("scenario workers: must be >= 0")
	}

	switch s.Forcing.Source {
	case SourceSynthetic:
		if !(s.Forcing.Days > 0) {
			return errors.New("scenario forcing: synthetic needs days > 0")
		}
	case SourceCSV, SourceNetCDF:
		if s.Forcing.Path == "" {
			return fmt.Errorf("scenario forcing: %s needs a path", s.Forcing.Source)
		}
		if len([]rune(s.Forcing.Comma)) > 1 {
			return errors.New("scenario forcing: comma must be a single character")
		}
		if s.Forcing.ConvertTo != "" && s.Forcing.Source != SourceCSV {
			return errors.New("scenario forcing: convert_to only applies to csv sources")
		}
	default:
		return fmt.Errorf("scenario forcing: unknown source %q", s.Forcing.Source)
	}

	o := s.Offsets
	if len(o.Values) > 0 && (o.From != nil || o.To != nil) {
		return errors.New("scenario offsets: values and from/to are mutually exclusive")
	}
	if (o.From == nil) != (o.To == nil) {
		return errors.New("scenario offsets: from and to must be set together")
	}
	if o.From != nil && (!(o.Step > 0) || *o.To < *o.From) {
		return errors.New("scenario offsets: range needs step > 0 and to >= from")
	}
	return nil
}

// ParamsOr overlays the scenario's parameters on defaults.
func (s *Scenario) ParamsOr(defaults domain.Params) domain.Params {
	return s.Params.Apply(defaults)
}

// ElevationList returns the profile elevations.
func (p ProfileSpec) ElevationList() []float64 {
	if p.Linear != nil {
		l := p.Linear
		return forcing.LinearProfile(l.Extent, l.Step, l.Slope, l.Base)
	}
	return p.Elevations
}

// List returns the offsets to sweep, possibly none.
func (o OffsetSpec) List() []float64 {
	if o.From != nil {
		return forcing.Range(*o.From, *o.To, o.Step)
	}
	return o.Values
}

// Delimiter returns the CSV field separator, defaulting to a comma.
func (f ForcingSpec) Delimiter() rune {
	if r := []rune(f.Comma); len(r) == 1 {
		return r[0]
	}
	return ','
}

// CSVOptions maps the forcing settings onto forcing.CSVOptions.
func (f ForcingSpec) CSVOptions() forcing.CSVOptions {
	return forcing.CSVOptions{
		Comma:                 f.Delimiter(),
		TimeColumn:            f.TimeColumn,
		TemperatureColumn:     f.TemperatureColumn,
		PrecipitationColumn:   f.PrecipitationColumn,
		ConstantPrecipitation: f.ConstantPrecipitation,
	}
}

// NetCDFOptions maps the forcing settings onto forcing.NetCDFOptions.
func (f ForcingSpec) NetCDFOptions() forcing.NetCDFOptions {
	return forcing.NetCDFOptions{
		TemperatureVar:   f.TemperatureVar,
		PrecipitationVar: f.PrecipitationVar,
		TimeVar:          f.TimeVar,
		LatIndex:         f.LatIndex,
		LonIndex:         f.LonIndex,
	}
}
