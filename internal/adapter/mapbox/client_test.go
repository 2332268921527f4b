package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/glacier-balance/internal/domain"
	"github.com/couchcryptid/glacier-balance/internal/observability"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func ele(v float64) *float64 { return &v }

func TestClient_StationElevation_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/7.740000,45.930000.json", r.URL.Path)
		assert.Equal(t, "contour", r.URL.Query().Get("layers"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := response{
			Features: []feature{
				{Properties: properties{Ele: ele(3150)}},
				{Properties: properties{Ele: ele(3160)}},
				{Properties: properties{}},
				{Properties: properties{Ele: ele(3100)}},
			},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	z, err := c.StationElevation(context.Background(), 45.93, 7.74)
	require.NoError(t, err)

	assert.Equal(t, 3160.0, z)
	assert.InDelta(t, 1.0, counterValue(t, c.metrics.ElevationLookups.WithLabelValues("success")), 0)
}

func TestClient_StationElevation_NoContours(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.StationElevation(context.Background(), 0.5, 0.5)
	require.ErrorIs(t, err, domain.ErrElevationNotFound)
	assert.InDelta(t, 1.0, counterValue(t, c.metrics.ElevationLookups.WithLabelValues("empty")), 0)
}

func TestClient_StationElevation_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.token = "bad-token"

	_, err := c.StationElevation(context.Background(), 45.93, 7.74)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.InDelta(t, 1.0, counterValue(t, c.metrics.ElevationLookups.WithLabelValues("error")), 0)
}

func TestClient_StationElevation_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.StationElevation(context.Background(), 45.93, 7.74)
	require.Error(t, err)
}

func TestClient_StationElevation_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"features": [`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).StationElevation(context.Background(), 45.93, 7.74)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
