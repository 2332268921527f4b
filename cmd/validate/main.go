// Command validate performs integrity checks on glacier balance fixtures:
// request shape, parity between the result fixture and a fresh sequential
// evaluation, the balance invariants every result must satisfy, and
// optionally parity with a SQLite result archive.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -requests data/mock/balance_requests.json \
//	  -results data/mock/balance_results.json \
//	  -db results.db
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/glacier-balance/internal/adapter/sqlite"
	"github.com/couchcryptid/glacier-balance/internal/domain"
)

// fixtureTime matches genmock so recomputed results carry the same timestamp.
var fixtureTime = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	requestsPath := flag.String("requests", "", "path to the request fixture")
	resultsPath := flag.String("results", "", "path to the result fixture")
	dbPath := flag.String("db", "", "SQLite result archive to compare against (optional)")
	flag.Parse()

	if *requestsPath == "" || *resultsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*requestsPath, *resultsPath, *dbPath); code != 0 {
		os.Exit(code)
	}
}

func run(requestsPath, resultsPath, dbPath string) int {
	domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
	defer domain.SetClock(nil)

	// ── Load fixtures ──
	fmt.Println("=== Glacier Balance Integrity Validation ===")
	fmt.Println()

	requests, err := loadJSON[domain.BalanceRequest](requestsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load requests: %v\n", err)
		return 1
	}
	results, err := loadJSON[domain.BalanceResult](resultsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load results: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateRequests(requests),
		validateParity(requests, results),
		validateInvariants(requests, results),
	}
	if dbPath != "" {
		phases = append(phases, validateArchive(dbPath, results))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d requests, %d results\n", len(requests), len(results))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Request Integrity ──

func validateRequests(requests []domain.BalanceRequest) *phase {
	p := &phase{name: "Phase 1: Request Integrity"}
	seen := make(map[string]bool, len(requests))
	for i := range requests {
		r := &requests[i]
		if r.ID == "" {
			p.errorf("request %d: missing id", i)
		} else if seen[r.ID] {
			p.errorf("request %s: duplicate id", r.ID)
		}
		seen[r.ID] = true

		if err := r.Validate(); err != nil {
			p.errorf("request %s: %v", r.ID, err)
		}
		if err := r.ParamsOr(domain.DefaultParams()).Validate(); err != nil {
			p.errorf("request %s: %v", r.ID, err)
		}
		if r.Datum == domain.DatumSeaLevel && r.Station.Elevation == nil {
			p.errorf("request %s: sea_level datum without station elevation", r.ID)
		}
	}
	return p
}

// ── Phase 2: Result Parity ──
// Re-evaluates each request sequentially and compares with the fixture.

func validateParity(requests []domain.BalanceRequest, results []domain.BalanceResult) *phase {
	p := &phase{name: "Phase 2: Result Parity (recomputed)"}
	if len(requests) != len(results) {
		p.errorf("count mismatch: %d requests, %d results", len(requests), len(results))
	}

	byRequest := make(map[string]*domain.BalanceResult, len(results))
	for i := range results {
		byRequest[results[i].RequestID] = &results[i]
	}

	for i := range requests {
		req := requests[i]
		got, ok := byRequest[req.ID]
		if !ok {
			p.errorf("request %s: no result", req.ID)
			continue
		}
		want, err := evaluate(req)
		if err != nil {
			p.errorf("request %s: recompute: %v", req.ID, err)
			continue
		}
		compareResults(p, &want, got)
	}
	return p
}

func evaluate(req domain.BalanceRequest) (domain.BalanceResult, error) {
	if err := req.Validate(); err != nil {
		return domain.BalanceResult{}, err
	}
	params := req.ParamsOr(domain.DefaultParams())
	zs, err := domain.RelativeElevations(context.Background(), req, nil)
	if err != nil {
		return domain.BalanceResult{}, err
	}
	gb, err := domain.GlacierNetBalance(params, zs, req.Temperature, req.Precipitation)
	if err != nil {
		return domain.BalanceResult{}, err
	}
	sweep, err := domain.TemperatureSweep(params, req.Offsets, zs, req.Temperature, req.Precipitation)
	if err != nil {
		return domain.BalanceResult{}, err
	}
	return domain.NewBalanceResult(req, params, gb, sweep), nil
}

func compareResults(p *phase, want, got *domain.BalanceResult) {
	pf := func(format string, args ...any) {
		p.errorf("result %s: "+format, append([]any{want.RequestID}, args...)...)
	}
	if want.ID != got.ID {
		pf("id %s != %s", got.ID, want.ID)
	}
	if want.Params != got.Params {
		pf("params %+v != %+v", got.Params, want.Params)
	}
	if !floatEq(want.GlacierNetBalance, got.GlacierNetBalance) {
		pf("glacier_net_balance %g != %g", got.GlacierNetBalance, want.GlacierNetBalance)
	}
	if len(want.Points) != len(got.Points) {
		pf("points %d != %d", len(got.Points), len(want.Points))
	} else {
		for i := range want.Points {
			if !floatEq(want.Points[i].NetBalance, got.Points[i].NetBalance) {
				pf("point %d net_balance %g != %g", i, got.Points[i].NetBalance, want.Points[i].NetBalance)
			}
		}
	}
	if len(want.Sweep) != len(got.Sweep) {
		pf("sweep %d != %d", len(got.Sweep), len(want.Sweep))
	} else {
		for i := range want.Sweep {
			if !floatEq(want.Sweep[i].GlacierNetBalance, got.Sweep[i].GlacierNetBalance) {
				pf("sweep %d %g != %g", i, got.Sweep[i].GlacierNetBalance, want.Sweep[i].GlacierNetBalance)
			}
		}
	}
	if !ptrFloatEq(want.ELA, got.ELA) {
		pf("ela %s != %s", ptrFloat(got.ELA), ptrFloat(want.ELA))
	}
	if !ptrFloatEq(want.Sensitivity, got.Sensitivity) {
		pf("sensitivity %s != %s", ptrFloat(got.Sensitivity), ptrFloat(want.Sensitivity))
	}
}

// ── Phase 3: Balance Invariants ──

func validateInvariants(requests []domain.BalanceRequest, results []domain.BalanceResult) *phase {
	p := &phase{name: "Phase 3: Balance Invariants"}
	reqs := make(map[string]*domain.BalanceRequest, len(requests))
	for i := range requests {
		reqs[requests[i].ID] = &requests[i]
	}

	for i := range results {
		r := &results[i]
		pf := func(format string, args ...any) {
			p.errorf("result %s: "+format, append([]any{r.RequestID}, args...)...)
		}
		checkMean(pf, r)
		checkDiagnostics(pf, r)
		checkSweepMonotone(pf, r)
		if req, ok := reqs[r.RequestID]; ok {
			checkBalanceBounds(pf, req, r)
		}
	}
	return p
}

// checkMean verifies the glacier balance is the unweighted mean of the points.
func checkMean(pf func(string, ...any), r *domain.BalanceResult) {
	if len(r.Points) == 0 {
		pf("no points")
		return
	}
	sum := 0.0
	for _, pt := range r.Points {
		sum += pt.NetBalance
	}
	if mean := sum / float64(len(r.Points)); !floatEq(mean, r.GlacierNetBalance) {
		pf("glacier_net_balance %g is not the point mean %g", r.GlacierNetBalance, mean)
	}
}

func checkDiagnostics(pf func(string, ...any), r *domain.BalanceResult) {
	if r.AAR < 0 || r.AAR > 1 {
		pf("aar %g outside [0, 1]", r.AAR)
	}
	if r.ELA != nil && len(r.Points) > 0 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, pt := range r.Points {
			lo, hi = min(lo, pt.Elevation), max(hi, pt.Elevation)
		}
		if *r.ELA < lo || *r.ELA > hi {
			pf("ela %g outside profile [%g, %g]", *r.ELA, lo, hi)
		}
	}
	if r.Sensitivity != nil && *r.Sensitivity > 0 {
		pf("sensitivity %g is positive", *r.Sensitivity)
	}
}

// checkSweepMonotone verifies warming never raises the glacier balance.
func checkSweepMonotone(pf func(string, ...any), r *domain.BalanceResult) {
	sweep := slices.Clone(r.Sweep)
	slices.SortStableFunc(sweep, func(a, b domain.SweepPoint) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	})
	for i := 1; i < len(sweep); i++ {
		if sweep[i].GlacierNetBalance > sweep[i-1].GlacierNetBalance+1e-12 {
			pf("sweep increases from %+g to %+g °C", sweep[i-1].Offset, sweep[i].Offset)
		}
	}
}

// checkBalanceBounds verifies no point gains more than the total
// precipitation over the run.
func checkBalanceBounds(pf func(string, ...any), req *domain.BalanceRequest, r *domain.BalanceResult) {
	dt := req.ParamsOr(domain.DefaultParams()).DT
	maxGain := 0.0
	for _, v := range req.Precipitation {
		maxGain += max(v, 0) * dt
	}
	for i, pt := range r.Points {
		if pt.NetBalance > maxGain+1e-9 {
			pf("point %d gains %g m, more than total precipitation %g m", i, pt.NetBalance, maxGain)
		}
	}
}

// ── Phase 4: Archive Parity ──

func validateArchive(dbPath string, results []domain.BalanceResult) *phase {
	p := &phase{name: "Phase 4: Archive Parity (SQLite)"}
	store, err := sqlite.Open(dbPath)
	if err != nil {
		p.errorf("open archive: %v", err)
		return p
	}
	defer store.Close()

	for i := range results {
		want := &results[i]
		got, err := store.LoadResult(context.Background(), want.ID)
		if errors.Is(err, sqlite.ErrNotFound) {
			p.errorf("result %s: not archived", want.ID)
			continue
		}
		if err != nil {
			p.errorf("result %s: %v", want.ID, err)
			continue
		}
		compareResults(p, want, &got)
	}
	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func ptrFloatEq(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return floatEq(*a, *b)
}

func ptrFloat(v *float64) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%g", *v)
}
