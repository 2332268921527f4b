package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/glacier-balance/internal/domain"
	"github.com/couchcryptid/glacier-balance/internal/observability"
)

// Evaluator runs balance requests through the model.
type Evaluator struct {
	defaults domain.Params
	workers  int
	resolver domain.ElevationResolver
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewEvaluator creates an Evaluator. Requests without parameters use
// defaults. Pass a nil resolver to require station elevations on sea-level
// requests.
func NewEvaluator(defaults domain.Params, workers int, resolver domain.ElevationResolver, logger *slog.Logger, metrics *observability.Metrics) *Evaluator {
	return &Evaluator{
		defaults: defaults,
		workers:  workers,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
	}
}

// Evaluate computes the profile balance, the optional temperature sweep, and
// the profile diagnostics for req.
func (e *Evaluator) Evaluate(ctx context.Context, req domain.BalanceRequest) (domain.BalanceResult, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return domain.BalanceResult{}, err
	}
	p := req.ParamsOr(e.defaults)

	zs, err := domain.RelativeElevations(ctx, req, e.resolver)
	if err != nil {
		return domain.BalanceResult{}, err
	}

	gb, err := GlacierNetBalance(ctx, e.workers, p, zs, req.Temperature, req.Precipitation)
	if err != nil {
		return domain.BalanceResult{}, err
	}

	var sweep []float64
	if len(req.Offsets) > 0 {
		sweep, err = TemperatureSweep(ctx, e.workers, p, req.Offsets, zs, req.Temperature, req.Precipitation)
		if err != nil {
			return domain.BalanceResult{}, err
		}
	}

	result := domain.NewBalanceResult(req, p, gb, sweep)

	elapsed := time.Since(start)
	e.metrics.EvaluationDuration.Observe(elapsed.Seconds())
	e.metrics.ElevationPoints.Observe(float64(len(zs)))
	e.logger.Debug("request evaluated",
		"request_id", req.ID,
		"points", len(zs),
		"samples", len(req.Temperature),
		"offsets", len(req.Offsets),
		"glacier_net_balance", gb.Mean,
		"duration", elapsed,
	)
	return result, nil
}
