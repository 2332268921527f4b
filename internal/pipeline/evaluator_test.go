package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/glacier-balance/internal/domain"
	"github.com/couchcryptid/glacier-balance/internal/pipeline"
)

// smallGlacier has exact float64 balances: points [-0.25, 0.5, 0.5], mean 0.25,
// and sweep [0.5, 0.25, -1/6] for offsets [-1, 0, 1].
func smallGlacier() (domain.Params, []float64, []float64, []float64) {
	p := domain.Params{MeltFactor: 0.5, TThreshold: 0, LapseRate: -0.01, DT: 1}
	return p, []float64{0, 100, 200}, []float64{1, -1}, []float64{0.25, 0.25}
}

func smallRequest() domain.BalanceRequest {
	p, zs, temps, precip := smallGlacier()
	return domain.BalanceRequest{
		ID:            "req-1",
		Station:       domain.Station{Name: "breithorn"},
		Params:        domain.Override(p),
		Datum:         domain.DatumStation,
		Elevations:    zs,
		Temperature:   temps,
		Precipitation: precip,
		Offsets:       []float64{-1, 0, 1},
	}
}

func ptr(v float64) *float64 { return &v }

type stubResolver struct {
	elevation float64
	err       error
	calls     int
}

func (s *stubResolver) StationElevation(_ context.Context, _, _ float64) (float64, error) {
	s.calls++
	return s.elevation, s.err
}

func TestEvaluator_Evaluate(t *testing.T) {
	e := pipeline.NewEvaluator(domain.DefaultParams(), 2, nil, slog.Default(), newTestMetrics())

	result, err := e.Evaluate(context.Background(), smallRequest())
	require.NoError(t, err)

	assert.Equal(t, "req-1", result.RequestID)
	assert.Equal(t, "breithorn", result.Station)
	assert.Equal(t, 0.25, result.GlacierNetBalance)
	assert.Equal(t, []domain.PointBalance{
		{Elevation: 0, NetBalance: -0.25},
		{Elevation: 100, NetBalance: 0.5},
		{Elevation: 200, NetBalance: 0.5},
	}, result.Points)
	assert.Equal(t, []domain.SweepPoint{
		{Offset: -1, GlacierNetBalance: 0.5},
		{Offset: 0, GlacierNetBalance: 0.25},
		{Offset: 1, GlacierNetBalance: -1.0 / 6},
	}, result.Sweep)
	require.NotNil(t, result.ELA)
	assert.InDelta(t, 100.0/3, *result.ELA, 1e-9)
	assert.InDelta(t, 2.0/3, result.AAR, 1e-12)
	require.NotNil(t, result.Sensitivity)
	assert.Less(t, *result.Sensitivity, 0.0)
}

func TestEvaluator_UsesDefaultParams(t *testing.T) {
	p, _, _, _ := smallGlacier()
	req := smallRequest()
	req.Params = nil
	req.Offsets = nil

	e := pipeline.NewEvaluator(p, 1, nil, slog.Default(), newTestMetrics())
	result, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, p, result.Params)
	assert.Equal(t, 0.25, result.GlacierNetBalance)
	assert.Empty(t, result.Sweep)
	assert.Nil(t, result.Sensitivity)
}

func TestEvaluator_SeaLevelDatumResolvesStation(t *testing.T) {
	req := smallRequest()
	req.Datum = domain.DatumSeaLevel
	req.Station.Lat, req.Station.Lon = ptr(45.93), ptr(7.74)
	req.Elevations = []float64{3000, 3100, 3200}
	resolver := &stubResolver{elevation: 3000}

	e := pipeline.NewEvaluator(domain.DefaultParams(), 0, resolver, slog.Default(), newTestMetrics())
	result, err := e.Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, 0.25, result.GlacierNetBalance)
	assert.Equal(t, 3000.0, result.Points[0].Elevation)
}

func TestEvaluator_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*domain.BalanceRequest)
		resolver domain.ElevationResolver
		want     error
	}{
		{"empty profile", func(r *domain.BalanceRequest) { r.Elevations = nil }, nil, domain.ErrPrecondition},
		{"empty forcing", func(r *domain.BalanceRequest) { r.Temperature, r.Precipitation = nil, nil }, nil, domain.ErrPrecondition},
		{"misaligned forcing", func(r *domain.BalanceRequest) { r.Precipitation = r.Precipitation[:1] }, nil, domain.ErrPrecondition},
		{"bad params", func(r *domain.BalanceRequest) { r.Params = domain.Override(domain.Params{DT: 1}) }, nil, domain.ErrPrecondition},
		{
			"resolver failure",
			func(r *domain.BalanceRequest) {
				r.Datum = domain.DatumSeaLevel
				r.Station.Lat, r.Station.Lon = ptr(1), ptr(1)
			},
			&stubResolver{err: domain.ErrElevationNotFound},
			domain.ErrElevationNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := smallRequest()
			tt.mutate(&req)
			e := pipeline.NewEvaluator(domain.DefaultParams(), 2, tt.resolver, slog.Default(), newTestMetrics())

			_, err := e.Evaluate(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
