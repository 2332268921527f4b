package forcing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/glacier-balance/internal/domain"
)

// CSVOptions selects columns from a delimited file with a header row.
// Column names match case-insensitively.
type CSVOptions struct {
	Comma               rune   // default ','
	TimeColumn          string // default "time"; optional in the file
	TemperatureColumn   string // default "temperature"
	PrecipitationColumn string // default "precipitation"

	// ConstantPrecipitation fills the precipitation series when the file has
	// no precipitation column. Nil makes a missing column an error.
	ConstantPrecipitation *float64
}

func (o CSVOptions) withDefaults() CSVOptions {
	if o.Comma == 0 {
		o.Comma = ','
	}
	if o.TimeColumn == "" {
		o.TimeColumn = "time"
	}
	if o.TemperatureColumn == "" {
		o.TemperatureColumn = "temperature"
	}
	if o.PrecipitationColumn == "" {
		o.PrecipitationColumn = "precipitation"
	}
	return o
}

// ReadCSV reads a station series from delimited text.
func ReadCSV(r io.Reader, opts CSVOptions) (domain.Forcing, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	cr.Comma = opts.Comma
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return domain.Forcing{}, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	tempIdx, ok := cols[strings.ToLower(opts.TemperatureColumn)]
	if !ok {
		return domain.Forcing{}, fmt.Errorf("missing column %q", opts.TemperatureColumn)
	}
	timeIdx, hasTime := cols[strings.ToLower(opts.TimeColumn)]
	precipIdx, hasPrecip := cols[strings.ToLower(opts.PrecipitationColumn)]
	if !hasPrecip && opts.ConstantPrecipitation == nil {
		return domain.Forcing{}, fmt.Errorf("missing column %q", opts.PrecipitationColumn)
	}

	var f domain.Forcing
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Forcing{}, fmt.Errorf("read line %d: %w", line, err)
		}

		temp, err := parseField(rec, tempIdx)
		if err != nil {
			return domain.Forcing{}, fmt.Errorf("line %d %s: %w", line, opts.TemperatureColumn, err)
		}
		f.Temperature = append(f.Temperature, temp)

		if hasPrecip {
			p, err := parseField(rec, precipIdx)
			if err != nil {
				return domain.Forcing{}, fmt.Errorf("line %d %s: %w", line, opts.PrecipitationColumn, err)
			}
			f.Precipitation = append(f.Precipitation, p)
		} else {
			f.Precipitation = append(f.Precipitation, *opts.ConstantPrecipitation)
		}

		if hasTime {
			ts, err := parseField(rec, timeIdx)
			if err != nil {
				return domain.Forcing{}, fmt.Errorf("line %d %s: %w", line, opts.TimeColumn, err)
			}
			f.Time = append(f.Time, ts)
		}
	}

	if err := f.Validate(); err != nil {
		return domain.Forcing{}, err
	}
	return f, nil
}

func parseField(rec []string, idx int) (float64, error) {
	if idx >= len(rec) {
		return 0, errors.New("field missing")
	}
	return strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
}

// ConvertDelimited rewrites delimited text (for example tab-separated station
// exports) as comma-separated values and returns the number of data rows.
func ConvertDelimited(src io.Reader, dst io.Writer, comma rune) (int, error) {
	cr := csv.NewReader(src)
	cr.Comma = comma
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	cw := csv.NewWriter(dst)
	rows := -1 // header
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read record: %w", err)
		}
		if err := cw.Write(rec); err != nil {
			return 0, fmt.Errorf("write record: %w", err)
		}
		rows++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return max(rows, 0), nil
}
