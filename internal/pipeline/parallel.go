package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/glacier-balance/internal/domain"
)

// The parallel integrators fan point integrations out over an errgroup.
// Every task writes only its own pre-sized slot and the mean is taken
// afterwards in point order, so results are bit-identical to the
// sequential functions in package domain.

func workerLimit(workers int) int {
	if workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return workers
}

// GlacierNetBalance is domain.GlacierNetBalance evaluated on up to workers
// goroutines (0 means GOMAXPROCS).
func GlacierNetBalance(ctx context.Context, workers int, p domain.Params, zs, temps, precip []float64) (domain.GlacierBalance, error) {
	if err := domain.CheckInputs(p, zs, temps, precip); err != nil {
		return domain.GlacierBalance{}, err
	}

	points := make([]float64, len(zs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(workers))
	for i, z := range zs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := domain.PointNetBalance(p, z, temps, precip)
			if err != nil {
				return err
			}
			points[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.GlacierBalance{}, err
	}
	return domain.NewGlacierBalance(points), nil
}

// TemperatureSweep is domain.TemperatureSweep evaluated on up to workers
// goroutines. Every (offset, elevation) pair is an independent task.
func TemperatureSweep(ctx context.Context, workers int, p domain.Params, offsets, zs, temps, precip []float64) ([]float64, error) {
	if err := domain.CheckInputs(p, zs, temps, precip); err != nil {
		return nil, err
	}
	if len(offsets) == 0 {
		return []float64{}, nil
	}

	shifted := make([][]float64, len(offsets))
	for i, off := range offsets {
		shifted[i] = domain.OffsetSeries(temps, off)
	}

	grid := make([][]float64, len(offsets))
	for i := range grid {
		grid[i] = make([]float64, len(zs))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(workers))
	for i := range offsets {
		for j, z := range zs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				b, err := domain.PointNetBalance(p, z, shifted[i], precip)
				if err != nil {
					return err
				}
				grid[i][j] = b
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]float64, len(offsets))
	for i, row := range grid {
		out[i] = domain.NewGlacierBalance(row).Mean
	}
	return out, nil
}
