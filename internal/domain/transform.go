package domain

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ErrMalformedRequest is wrapped when a request payload cannot be decoded.
var ErrMalformedRequest = errors.New("malformed request")

var (
	// requestNamespace seeds IDs for requests that arrive without one.
	requestNamespace = uuid.MustParse("6f1c7a0e-3b52-4d7e-9a47-2f0d8c61b5e3")
	// resultNamespace seeds result IDs.
	resultNamespace = uuid.MustParse("b4e0d2a9-51c8-4f3a-8e6d-97a1c0f4e2d7")
)

// ParseRequest deserializes a RawMessage's value into a BalanceRequest.
// Requests without an ID get one derived from the payload, so replaying the
// same message yields the same ID.
func ParseRequest(raw RawMessage) (BalanceRequest, error) {
	var req BalanceRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return BalanceRequest{}, fmt.Errorf("parse balance request: %w: %w", ErrMalformedRequest, err)
	}
	if req.ID == "" {
		req.ID = uuid.NewSHA1(requestNamespace, raw.Value).String()
	}
	if req.Datum == "" {
		req.Datum = DatumStation
	}
	return req, nil
}

// ParamsOr overlays the request's parameters on defaults.
func (r BalanceRequest) ParamsOr(defaults Params) Params {
	return r.Params.Apply(defaults)
}

// Validate checks the request shape before any model run.
func (r BalanceRequest) Validate() error {
	if len(r.Elevations) == 0 {
		return fmt.Errorf("%w: elevation profile is empty", ErrPrecondition)
	}
	f := Forcing{Temperature: r.Temperature, Precipitation: r.Precipitation}
	return f.Validate()
}

// NewBalanceResult assembles the result for req from the evaluated profile
// balance and the sweep balances (one per req.Offsets entry).
func NewBalanceResult(req BalanceRequest, p Params, gb GlacierBalance, sweep []float64) BalanceResult {
	points := make([]PointBalance, len(gb.Points))
	for i, b := range gb.Points {
		points[i] = PointBalance{Elevation: req.Elevations[i], NetBalance: b}
	}

	result := BalanceResult{
		ID:                generateID(req, p),
		RequestID:         req.ID,
		Station:           req.Station.Name,
		Params:            p,
		Datum:             req.Datum,
		GlacierNetBalance: gb.Mean,
		Points:            points,
		AAR:               AccumulationAreaRatio(gb.Points),
		ComputedAt:        clock.Now().UTC(),
	}
	if result.Datum == "" {
		result.Datum = DatumStation
	}
	if ela, ok := EquilibriumLineAltitude(req.Elevations, gb.Points); ok {
		result.ELA = &ela
	}

	if len(sweep) > 0 {
		result.Sweep = make([]SweepPoint, len(sweep))
		for i, b := range sweep {
			result.Sweep[i] = SweepPoint{Offset: req.Offsets[i], GlacierNetBalance: b}
		}
		if s, ok := Sensitivity(req.Offsets, sweep); ok {
			result.Sensitivity = &s
		}
	}
	return result
}

// SerializeResult marshals a BalanceResult into an OutputMessage keyed by request ID.
func SerializeResult(result BalanceResult) (OutputMessage, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return OutputMessage{}, fmt.Errorf("serialize balance result: %w", err)
	}
	return OutputMessage{
		Key:   []byte(result.RequestID),
		Value: data,
		Headers: map[string]string{
			"result_id":   result.ID,
			"computed_at": result.ComputedAt.Format(time.RFC3339),
		},
	}, nil
}

// generateID derives the result ID from everything that shapes the result:
// request ID, parameters, datum, station elevation, and the exact bits of
// the profile, forcing and offsets. Re-evaluating an identical request gives
// the same ID, which keeps downstream upserts idempotent.
func generateID(req BalanceRequest, p Params) string {
	datum := req.Datum
	if datum == "" {
		datum = DatumStation
	}
	buf := fmt.Appendf(nil, "%s|%g|%g|%g|%g|%s|",
		req.ID, p.MeltFactor, p.TThreshold, p.LapseRate, p.DT, datum)
	if z := req.Station.Elevation; z != nil {
		buf = fmt.Appendf(buf, "%g", *z)
	}
	for _, series := range [][]float64{req.Elevations, req.Temperature, req.Precipitation, req.Offsets} {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(series)))
		for _, v := range series {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	return uuid.NewSHA1(resultNamespace, buf).String()
}
