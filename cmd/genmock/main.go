// Command genmock generates glacier balance request fixtures and the results
// the service is expected to produce for them. Results are computed with the
// sequential domain functions under a fixed clock, so they are reproducible
// and independent of the worker pool. With -brokers the requests are also
// published to Kafka.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -requests-out data/mock/balance_requests.json \
//	  -results-out data/mock/balance_results.json \
//	  -brokers localhost:9092 -topic balance-requests
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/glacier-balance/internal/domain"
	"github.com/couchcryptid/glacier-balance/internal/forcing"
)

// fixtureTime stamps every generated result.
var fixtureTime = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

type station struct {
	name      string
	lat, lon  float64
	elevation float64
	warming   float64 // °C added to the synthetic series
}

var stations = []station{
	{name: "breithorn", lat: 45.9410, lon: 7.7480, elevation: 1400, warming: 0},
	{name: "gorner", lat: 45.9700, lon: 7.8000, elevation: 2200, warming: -2},
	{name: "aletsch", lat: 46.4500, lon: 8.0500, elevation: 1600, warming: 1},
	{name: "rhone", lat: 46.6000, lon: 8.3800, elevation: 2000, warming: -1},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	requestsOut := flag.String("requests-out", "", "output path for the request fixture")
	resultsOut := flag.String("results-out", "", "output path for the expected result fixture")
	count := flag.Int("count", 12, "number of requests to generate")
	days := flag.Float64("days", 30, "length of each synthetic series in days")
	brokers := flag.String("brokers", "", "comma-separated Kafka brokers to publish requests to (optional)")
	topic := flag.String("topic", "balance-requests", "Kafka topic for published requests")
	flag.Parse()

	if *requestsOut == "" || *resultsOut == "" || *count <= 0 || *days <= 0 {
		flag.Usage()
		return fmt.Errorf("missing or invalid flags: -requests-out, -results-out, -count, -days")
	}

	domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
	defer domain.SetClock(nil)

	requests := generateRequests(*count, *days)
	results := make([]domain.BalanceResult, 0, len(requests))
	for _, req := range requests {
		result, err := evaluate(req)
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", req.ID, err)
		}
		results = append(results, result)
	}
	log.Printf("generated %d requests", len(requests))

	if err := writeJSON(*requestsOut, requests); err != nil {
		return fmt.Errorf("writing request fixture: %w", err)
	}
	log.Printf("wrote request fixture: %s", *requestsOut)

	if err := writeJSON(*resultsOut, results); err != nil {
		return fmt.Errorf("writing result fixture: %w", err)
	}
	log.Printf("wrote result fixture: %s", *resultsOut)

	if *brokers != "" {
		if err := publish(sharedcfg.ParseBrokers(*brokers), *topic, requests); err != nil {
			return fmt.Errorf("publishing requests: %w", err)
		}
		log.Printf("published %d requests to %s", len(requests), *topic)
	}

	printStats(results)
	return nil
}

// generateRequests cycles through the stations, alternating datums and
// profile lengths so the fixture covers both elevation conventions.
func generateRequests(n int, days float64) []domain.BalanceRequest {
	p := domain.DefaultParams()
	base := forcing.Synthetic(days, p.DT)
	offsets := forcing.Range(-2, 2, 1)

	out := make([]domain.BalanceRequest, n)
	for i := range out {
		st := stations[i%len(stations)]
		extent := float64(2000 + 1000*(i%4))
		req := domain.BalanceRequest{
			ID: fmt.Sprintf("%s-%03d", st.name, i),
			Station: domain.Station{
				Name: st.name,
				Lat:  &st.lat,
				Lon:  &st.lon,
			},
			Temperature:   domain.OffsetSeries(base.Temperature, st.warming),
			Precipitation: base.Precipitation,
			Offsets:       offsets,
		}
		if i%2 == 0 {
			req.Datum = domain.DatumStation
			req.Elevations = forcing.LinearProfile(extent, 500, 0.2, 0)
		} else {
			elev := st.elevation
			req.Datum = domain.DatumSeaLevel
			req.Station.Elevation = &elev
			req.Elevations = forcing.LinearProfile(extent, 500, 0.2, st.elevation)
		}
		if i%3 == 2 {
			melt := 0.007
			req.Params = &domain.ParamOverrides{MeltFactor: &melt}
		}
		out[i] = req
	}
	return out
}

func evaluate(req domain.BalanceRequest) (domain.BalanceResult, error) {
	if err := req.Validate(); err != nil {
		return domain.BalanceResult{}, err
	}
	p := req.ParamsOr(domain.DefaultParams())
	zs, err := domain.RelativeElevations(context.Background(), req, nil)
	if err != nil {
		return domain.BalanceResult{}, err
	}
	gb, err := domain.GlacierNetBalance(p, zs, req.Temperature, req.Precipitation)
	if err != nil {
		return domain.BalanceResult{}, err
	}
	sweep, err := domain.TemperatureSweep(p, req.Offsets, zs, req.Temperature, req.Precipitation)
	if err != nil {
		return domain.BalanceResult{}, err
	}
	return domain.NewBalanceResult(req, p, gb, sweep), nil
}

func publish(brokers []string, topic string, requests []domain.BalanceRequest) error {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	defer w.Close()

	msgs := make([]kafkago.Message, len(requests))
	for i, req := range requests {
		data, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("marshal request %s: %w", req.ID, err)
		}
		msgs[i] = kafkago.Message{Key: []byte(req.ID), Value: data}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return w.WriteMessages(ctx, msgs...)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(results []domain.BalanceResult) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(results))

	var withELA, positive int
	lo, hi := results[0].GlacierNetBalance, results[0].GlacierNetBalance
	for i := range results {
		r := &results[i]
		if r.ELA != nil {
			withELA++
		}
		if r.GlacierNetBalance > 0 {
			positive++
		}
		lo = min(lo, r.GlacierNetBalance)
		hi = max(hi, r.GlacierNetBalance)
	}
	fmt.Printf("With ELA: %d\n", withELA)
	fmt.Printf("Positive glacier balance: %d\n", positive)
	fmt.Printf("Glacier balance range: %.4f .. %.4f m\n", lo, hi)

	fmt.Println("\nPer request:")
	for i := range results {
		r := &results[i]
		ela := "none"
		if r.ELA != nil {
			ela = fmt.Sprintf("%.1f m", *r.ELA)
		}
		fmt.Printf("  %-16s %-9s points=%-2d balance=%9.4f m  ela=%s  aar=%.2f\n",
			r.RequestID, r.Datum, len(r.Points), r.GlacierNetBalance, ela, r.AAR)
	}
}
