package main

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/glacier-balance/internal/domain"
	"github.com/couchcryptid/glacier-balance/internal/forcing"
)

func fixture(t *testing.T) ([]domain.BalanceRequest, []domain.BalanceResult) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
	t.Cleanup(func() { domain.SetClock(nil) })

	f := forcing.Synthetic(5, domain.DefaultParams().DT)
	req := domain.BalanceRequest{
		ID:            "test-000",
		Elevations:    []float64{0, 500, 1000},
		Temperature:   f.Temperature,
		Precipitation: f.Precipitation,
		Offsets:       []float64{-1, 0, 1},
	}
	res, err := evaluate(req)
	require.NoError(t, err)
	return []domain.BalanceRequest{req}, []domain.BalanceResult{res}
}

func TestPhases_CleanFixturePasses(t *testing.T) {
	reqs, results := fixture(t)

	assert.Empty(t, validateRequests(reqs).errors)
	assert.Empty(t, validateParity(reqs, results).errors)
	assert.Empty(t, validateInvariants(reqs, results).errors)
}

func TestValidateRequests_Duplicate(t *testing.T) {
	reqs, _ := fixture(t)
	reqs = append(reqs, reqs[0])

	p := validateRequests(reqs)
	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "duplicate id")
}

func TestValidateParity_TamperedMean(t *testing.T) {
	reqs, results := fixture(t)
	results[0].GlacierNetBalance += 1

	assert.False(t, validateParity(reqs, results).passed())
	assert.False(t, validateInvariants(reqs, results).passed())
}

func TestCheckSweepMonotone(t *testing.T) {
	var errs []string
	pf := func(format string, args ...any) { errs = append(errs, format) }

	r := &domain.BalanceResult{Sweep: []domain.SweepPoint{
		{Offset: 1, GlacierNetBalance: -1},
		{Offset: -1, GlacierNetBalance: 0.5},
		{Offset: 0, GlacierNetBalance: 0},
	}}
	checkSweepMonotone(pf, r)
	assert.Empty(t, errs)

	r.Sweep[0].GlacierNetBalance = 2
	checkSweepMonotone(pf, r)
	assert.Len(t, errs, 1)
}

func TestPtrFloatEq(t *testing.T) {
	a, b := 1.0, 1.0+1e-12
	assert.True(t, ptrFloatEq(nil, nil))
	assert.True(t, ptrFloatEq(&a, &b))
	assert.False(t, ptrFloatEq(&a, nil))
}
