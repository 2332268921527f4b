// Package report writes model results as CSV tables and names output files
// after the source revision that produced them.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/glacier-balance/internal/domain"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteProfileCSV writes one row per profile elevation.
func WriteProfileCSV(w io.Writer, points []domain.PointBalance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"elevation", "net_balance"}); err != nil {
		return fmt.Errorf("write profile header: %w", err)
	}
	for _, p := range points {
		if err := cw.Write([]string{formatFloat(p.Elevation), formatFloat(p.NetBalance)}); err != nil {
			return fmt.Errorf("write profile row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSweepCSV writes one row per temperature offset.
func WriteSweepCSV(w io.Writer, sweep []domain.SweepPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"offset", "glacier_net_balance"}); err != nil {
		return fmt.Errorf("write sweep header: %w", err)
	}
	for _, s := range sweep {
		if err := cw.Write([]string{formatFloat(s.Offset), formatFloat(s.GlacierNetBalance)}); err != nil {
			return fmt.Errorf("write sweep row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
