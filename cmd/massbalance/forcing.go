package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/glacier-balance/internal/config"
	"github.com/couchcryptid/glacier-balance/internal/domain"
	"github.com/couchcryptid/glacier-balance/internal/forcing"
)

const (
	downloadTimeout = 10 * time.Minute
	mapboxTimeout   = 5 * time.Second
)

// loadForcing builds the station series the scenario asks for, fetching and
// unpacking remote data first when needed. FORCING_USERNAME and
// FORCING_PASSWORD enable basic auth for downloads.
func loadForcing(ctx context.Context, s *config.Scenario, p domain.Params, logger *slog.Logger) (domain.Forcing, error) {
	fs := s.Forcing
	if fs.Source == config.SourceSynthetic {
		return forcing.Synthetic(fs.Days, p.DT), nil
	}

	if fs.URL != "" {
		if err := fetch(ctx, fs, logger); err != nil {
			return domain.Forcing{}, err
		}
	}

	switch fs.Source {
	case config.SourceCSV:
		return readCSV(fs, logger)
	case config.SourceNetCDF:
		f, err := forcing.ReadNetCDF(fs.Path, fs.NetCDFOptions())
		if err != nil {
			return domain.Forcing{}, fmt.Errorf("read forcing: %w", err)
		}
		return f, nil
	default:
		return domain.Forcing{}, fmt.Errorf("unknown forcing source %q", fs.Source)
	}
}

func fetch(ctx context.Context, fs config.ForcingSpec, logger *slog.Logger) error {
	if _, err := os.Stat(fs.Path); err == nil {
		return nil
	}

	d := forcing.NewDownloader(&http.Client{Timeout: downloadTimeout},
		os.Getenv("FORCING_USERNAME"), os.Getenv("FORCING_PASSWORD"), logger)

	if !strings.HasSuffix(strings.ToLower(fs.URL), ".zip") {
		_, err := d.Download(ctx, fs.URL, fs.Path)
		return err
	}

	dir := filepath.Dir(fs.Path)
	archive := filepath.Join(dir, filepath.Base(fs.URL))
	if _, err := d.Download(ctx, fs.URL, archive); err != nil {
		return err
	}
	if fs.Archive != "" {
		return forcing.UnzipOne(archive, fs.Archive, fs.Path)
	}
	n, err := forcing.UnzipAll(archive, dir)
	if err != nil {
		return err
	}
	logger.Info("unpacked archive", "archive", archive, "files", n)
	return nil
}

func readCSV(fs config.ForcingSpec, logger *slog.Logger) (domain.Forcing, error) {
	path := fs.Path
	opts := fs.CSVOptions()

	if fs.ConvertTo != "" {
		n, err := convert(path, fs.ConvertTo, opts.Comma)
		if err != nil {
			return domain.Forcing{}, err
		}
		logger.Info("converted forcing to csv", "from", path, "to", fs.ConvertTo, "records", n)
		path, opts.Comma = fs.ConvertTo, ','
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.Forcing{}, fmt.Errorf("open forcing: %w", err)
	}
	defer f.Close()

	out, err := forcing.ReadCSV(f, opts)
	if err != nil {
		return domain.Forcing{}, fmt.Errorf("read forcing %s: %w", path, err)
	}
	return out, nil
}

func convert(src, dst string, comma rune) (int, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open forcing: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}
	n, err := forcing.ConvertDelimited(in, out, comma)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("convert %s: %w", src, err)
	}
	return n, nil
}

// checkStep warns when the forcing's own time axis disagrees with the model
// time step, since every sample is integrated over p.DT.
func checkStep(f domain.Forcing, p domain.Params, logger *slog.Logger) {
	step, ok, err := f.Step()
	switch {
	case err != nil:
		logger.Warn("forcing time axis is irregular", "error", err)
	case ok && math.Abs(step-p.DT) > 1e-6*p.DT:
		logger.Warn("forcing time step differs from model dt", "forcing_step", step, "dt", p.DT)
	}
}
