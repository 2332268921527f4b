package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/glacier-balance/internal/domain"
	"github.com/couchcryptid/glacier-balance/internal/observability"
)

const defaultBaseURL = "https://api.mapbox.com/v4/mapbox.mapbox-terrain-v2/tilequery"

// Client implements domain.ElevationResolver with the Mapbox Tilequery API
// over the terrain contour layer. Elevations resolve to the nearest 10 m contour.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox elevation client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// StationElevation returns the highest contour elevation at lat/lon.
// It returns domain.ErrElevationNotFound when the point has no contour data.
func (c *Client) StationElevation(ctx context.Context, lat, lon float64) (float64, error) {
	// Mapbox uses lon,lat order.
	coord := strconv.FormatFloat(lon, 'f', 6, 64) + "," + strconv.FormatFloat(lat, 'f', 6, 64)
	params := url.Values{
		"access_token": {c.token},
		"layers":       {"contour"},
		"limit":        {"50"},
	}
	fullURL := fmt.Sprintf("%s/%s.json?%s", c.baseURL, coord, params.Encode())

	start := time.Now()
	elevation, err := c.doRequest(ctx, fullURL)
	c.metrics.ElevationAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		c.metrics.ElevationLookups.WithLabelValues("success").Inc()
	case errors.Is(err, domain.ErrElevationNotFound):
		c.metrics.ElevationLookups.WithLabelValues("empty").Inc()
	default:
		c.metrics.ElevationLookups.WithLabelValues("error").Inc()
		c.logger.Warn("mapbox elevation lookup failed", "lat", lat, "lon", lon, "error", err)
	}
	return elevation, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("tilequery request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var tq response
	if err := json.NewDecoder(resp.Body).Decode(&tq); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	found := false
	highest := 0.0
	for _, f := range tq.Features {
		if f.Properties.Ele == nil {
			continue
		}
		if !found || *f.Properties.Ele > highest {
			highest = *f.Properties.Ele
			found = true
		}
	}
	if !found {
		return 0, domain.ErrElevationNotFound
	}
	return highest, nil
}

// Mapbox Tilequery response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties properties `json:"properties"`
}

type properties struct {
	Ele *float64 `json:"ele"` // meters
}
