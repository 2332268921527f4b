// Command massbalance runs the glacier mass balance model for one scenario:
// the net balance at a single elevation, the glacier net balance over the
// profile, and the temperature sensitivity sweep. Results go to CSV files and
// optionally to a SQLite archive.
//
// Usage:
//
//	go run ./cmd/massbalance -scenario scenarios/breithorn.yaml -out results
//
// Without -scenario the reference run is used: a year of hourly synthetic
// forcing over a 5 km glacier, swept from -4 to +4 °C.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/glacier-balance/internal/adapter/mapbox"
	"github.com/couchcryptid/glacier-balance/internal/adapter/sqlite"
	"github.com/couchcryptid/glacier-balance/internal/config"
	"github.com/couchcryptid/glacier-balance/internal/domain"
	"github.com/couchcryptid/glacier-balance/internal/observability"
	"github.com/couchcryptid/glacier-balance/internal/pipeline"
	"github.com/couchcryptid/glacier-balance/internal/report"
)

type options struct {
	scenario  string
	outDir    string
	db        string
	workers   int
	shaNames  bool
	logLevel  string
	logFormat string
}

func main() {
	var opts options
	flag.StringVar(&opts.scenario, "scenario", "", "path to a YAML scenario file (default: reference run)")
	flag.StringVar(&opts.outDir, "out", "", "output directory (overrides the scenario)")
	flag.StringVar(&opts.db, "db", "", "SQLite archive path (overrides the scenario)")
	flag.IntVar(&opts.workers, "workers", -1, "worker goroutines, 0 for GOMAXPROCS (overrides the scenario)")
	flag.BoolVar(&opts.shaNames, "sha-names", false, "suffix output files with the git revision")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	flag.Parse()

	logger := sharedobs.NewLogger(opts.logLevel, opts.logFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, logger, observability.NewMetrics()); err != nil {
		logger.Error("massbalance failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer, logger *slog.Logger, metrics *observability.Metrics) error {
	s := config.DefaultScenario()
	if opts.scenario != "" {
		var err error
		if s, err = config.LoadScenario(opts.scenario); err != nil {
			return err
		}
	}
	applyOverrides(s, opts)

	p := s.ParamsOr(domain.DefaultParams())
	f, err := loadForcing(ctx, s, p, logger)
	if err != nil {
		return err
	}
	checkStep(f, p, logger)

	req := domain.BalanceRequest{
		ID:            scenarioID(opts.scenario),
		Station:       s.Station,
		Params:        domain.Override(p),
		Datum:         s.Datum,
		Elevations:    s.Profile.ElevationList(),
		Temperature:   f.Temperature,
		Precipitation: f.Precipitation,
		Offsets:       s.Offsets.List(),
	}

	var resolver domain.ElevationResolver
	if token := os.Getenv("MAPBOX_TOKEN"); token != "" {
		resolver = mapbox.NewClient(token, mapboxTimeout, logger, metrics)
	}
	evaluator := pipeline.NewEvaluator(p, s.Workers, resolver, logger, metrics)

	result, err := evaluator.Evaluate(ctx, req)
	if err != nil {
		return fmt.Errorf("evaluate scenario: %w", err)
	}

	if s.PointElevation != nil {
		dz, err := pointOffset(ctx, s, *s.PointElevation, resolver)
		if err != nil {
			return err
		}
		b, err := domain.PointNetBalance(p, dz, f.Temperature, f.Precipitation)
		if err != nil {
			return fmt.Errorf("point balance: %w", err)
		}
		fmt.Fprintf(stdout, "Net balance at %g m: %.4f m\n", *s.PointElevation, b)
	}
	printSummary(stdout, result)

	if err := writeOutputs(ctx, s, result, logger); err != nil {
		return err
	}

	if s.Output.DB != "" {
		store, err := sqlite.Open(s.Output.DB)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveResult(ctx, result); err != nil {
			return fmt.Errorf("archive result: %w", err)
		}
		logger.Info("result archived", "db", s.Output.DB, "result_id", result.ID)
	}
	return nil
}

func applyOverrides(s *config.Scenario, opts options) {
	if opts.outDir != "" {
		s.Output.Dir = opts.outDir
	}
	if opts.db != "" {
		s.Output.DB = opts.db
	}
	if opts.workers >= 0 {
		s.Workers = opts.workers
	}
	if opts.shaNames {
		s.Output.ShaNames = true
	}
}

// scenarioID names the request after the scenario file.
func scenarioID(path string) string {
	if path == "" {
		return "reference"
	}
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// pointOffset converts a point elevation in the scenario's datum to an
// offset from the station.
func pointOffset(ctx context.Context, s *config.Scenario, z float64, resolver domain.ElevationResolver) (float64, error) {
	dz, err := domain.RelativeElevations(ctx, domain.BalanceRequest{
		Station:    s.Station,
		Datum:      s.Datum,
		Elevations: []float64{z},
	}, resolver)
	if err != nil {
		return 0, fmt.Errorf("point elevation: %w", err)
	}
	return dz[0], nil
}

func printSummary(w io.Writer, r domain.BalanceResult) {
	fmt.Fprintf(w, "Glacier net balance: %.4f m (%d points)\n", r.GlacierNetBalance, len(r.Points))
	if r.ELA != nil {
		fmt.Fprintf(w, "Equilibrium line altitude: %.1f m\n", *r.ELA)
	} else {
		fmt.Fprintln(w, "Equilibrium line altitude: none (no sign change)")
	}
	fmt.Fprintf(w, "Accumulation area ratio: %.2f\n", r.AAR)
	if len(r.Sweep) > 0 {
		fmt.Fprintln(w, "Temperature sensitivity:")
		for _, sp := range r.Sweep {
			fmt.Fprintf(w, "  %+5.1f °C  %9.4f m\n", sp.Offset, sp.GlacierNetBalance)
		}
		if r.Sensitivity != nil {
			fmt.Fprintf(w, "  slope %.4f m/°C\n", *r.Sensitivity)
		}
	}
}

func writeOutputs(ctx context.Context, s *config.Scenario, r domain.BalanceResult, logger *slog.Logger) error {
	if err := os.MkdirAll(s.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	name := func(base string) string { return filepath.Join(s.Output.Dir, base+".csv") }
	if s.Output.ShaNames {
		rev, err := report.GitRevision(ctx, ".")
		if err != nil {
			return fmt.Errorf("sha file names: %w", err)
		}
		name = func(base string) string { return report.FormatShaFilename(s.Output.Dir, base, ".csv", rev) }
	}

	profilePath := name("profile")
	if err := writeFile(profilePath, func(w io.Writer) error { return report.WriteProfileCSV(w, r.Points) }); err != nil {
		return err
	}
	logger.Info("wrote profile", "path", profilePath)

	if len(r.Sweep) > 0 {
		sweepPath := name("sweep")
		if err := writeFile(sweepPath, func(w io.Writer) error { return report.WriteSweepCSV(w, r.Sweep) }); err != nil {
			return err
		}
		logger.Info("wrote sweep", "path", sweepPath)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
