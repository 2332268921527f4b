package domain

import (
	"context"
	"time"
)

// Datum names the reference a request's elevations are measured from.
type Datum string

const (
	// DatumStation means elevations are already offsets from the station.
	DatumStation Datum = "station"
	// DatumSeaLevel means elevations are absolute and the station elevation
	// has to be subtracted before lapsing.
	DatumSeaLevel Datum = "sea_level"
)

// RawMessage represents an unprocessed message from the source topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Station describes the weather station the forcing was recorded at.
// Coordinates and elevation are optional; nil means not supplied.
type Station struct {
	Name      string   `json:"name,omitempty" yaml:"name"`
	Lat       *float64 `json:"lat,omitempty" yaml:"lat"`
	Lon       *float64 `json:"lon,omitempty" yaml:"lon"`
	Elevation *float64 `json:"elevation,omitempty" yaml:"elevation"` // meters above sea level
}

// Coordinates returns the station position when both lat and lon are set.
func (s Station) Coordinates() (lat, lon float64, ok bool) {
	if s.Lat == nil || s.Lon == nil {
		return 0, 0, false
	}
	return *s.Lat, *s.Lon, true
}

// BalanceRequest asks for a glacier balance evaluation.
type BalanceRequest struct {
	ID            string          `json:"id"`
	Station       Station         `json:"station"`
	Params        *ParamOverrides `json:"params,omitempty"` // unset fields take service defaults
	Datum         Datum           `json:"datum,omitempty"`  // empty means DatumStation
	Elevations    []float64       `json:"elevations"`
	Temperature   []float64       `json:"temperature"`
	Precipitation []float64       `json:"precipitation"`
	Offsets       []float64       `json:"offsets,omitempty"`
}

// PointBalance is the net balance at one profile elevation.
type PointBalance struct {
	Elevation  float64 `json:"elevation"`
	NetBalance float64 `json:"net_balance"`
}

// SweepPoint is the glacier balance for one temperature offset.
type SweepPoint struct {
	Offset            float64 `json:"offset"`
	GlacierNetBalance float64 `json:"glacier_net_balance"`
}

// BalanceResult is the evaluated form of a BalanceRequest.
type BalanceResult struct {
	ID                string         `json:"id"`
	RequestID         string         `json:"request_id"`
	Station           string         `json:"station,omitempty"`
	Params            Params         `json:"params"`
	Datum             Datum          `json:"datum"`
	GlacierNetBalance float64        `json:"glacier_net_balance"`
	Points            []PointBalance `json:"points"`
	ELA               *float64       `json:"ela,omitempty"`
	AAR               float64        `json:"aar"`
	Sweep             []SweepPoint   `json:"sweep,omitempty"`
	Sensitivity       *float64       `json:"sensitivity,omitempty"` // m per °C
	ComputedAt        time.Time      `json:"computed_at"`
}

// OutputMessage is the serialized form destined for the sink topic.
type OutputMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Forcing is a station time series. Time is optional; when present it must
// be aligned with the other two series.
type Forcing struct {
	Time          []float64
	Temperature   []float64
	Precipitation []float64
}
