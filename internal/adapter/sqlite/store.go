// Package sqlite archives balance results in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/glacier-balance/internal/domain"
)

// ErrNotFound is returned by LoadResult for unknown result IDs.
var ErrNotFound = errors.New("result not found")

const schema = `
CREATE TABLE IF NOT EXISTS results (
	id                  TEXT PRIMARY KEY,
	request_id          TEXT NOT NULL,
	station             TEXT NOT NULL DEFAULT '',
	datum               TEXT NOT NULL,
	melt_factor         REAL NOT NULL,
	t_threshold         REAL NOT NULL,
	lapse_rate          REAL NOT NULL,
	dt                  REAL NOT NULL,
	glacier_net_balance REAL NOT NULL,
	ela                 REAL,
	aar                 REAL NOT NULL,
	sensitivity         REAL,
	computed_at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS results_request_id ON results (request_id);
CREATE TABLE IF NOT EXISTS result_points (
	result_id   TEXT NOT NULL REFERENCES results (id) ON DELETE CASCADE,
	idx         INTEGER NOT NULL,
	elevation   REAL NOT NULL,
	net_balance REAL NOT NULL,
	PRIMARY KEY (result_id, idx)
);
CREATE TABLE IF NOT EXISTS result_sweep (
	result_id           TEXT NOT NULL REFERENCES results (id) ON DELETE CASCADE,
	idx                 INTEGER NOT NULL,
	offset_c            REAL NOT NULL,
	glacier_net_balance REAL NOT NULL,
	PRIMARY KEY (result_id, idx)
);
`

// Store persists BalanceResults.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveResult inserts or replaces a result with its points and sweep.
func (s *Store) SaveResult(ctx context.Context, r domain.BalanceResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO results (
			id, request_id, station, datum,
			melt_factor, t_threshold, lapse_rate, dt,
			glacier_net_balance, ela, aar, sensitivity, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RequestID, r.Station, string(r.Datum),
		r.Params.MeltFactor, r.Params.TThreshold, r.Params.LapseRate, r.Params.DT,
		r.GlacierNetBalance, nullFloat(r.ELA), r.AAR, nullFloat(r.Sensitivity),
		r.ComputedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	for _, table := range []string{"result_points", "result_sweep"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE result_id = ?", r.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, p := range r.Points {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO result_points (result_id, idx, elevation, net_balance) VALUES (?, ?, ?, ?)`,
			r.ID, i, p.Elevation, p.NetBalance); err != nil {
			return fmt.Errorf("insert point %d: %w", i, err)
		}
	}
	for i, sp := range r.Sweep {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO result_sweep (result_id, idx, offset_c, glacier_net_balance) VALUES (?, ?, ?, ?)`,
			r.ID, i, sp.Offset, sp.GlacierNetBalance); err != nil {
			return fmt.Errorf("insert sweep %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit result: %w", err)
	}
	return nil
}

// LoadResult reads a result back by ID.
func (s *Store) LoadResult(ctx context.Context, id string) (domain.BalanceResult, error) {
	var (
		r                domain.BalanceResult
		datum            string
		ela, sensitivity sql.NullFloat64
		computedAt       string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, request_id, station, datum,
		       melt_factor, t_threshold, lapse_rate, dt,
		       glacier_net_balance, ela, aar, sensitivity, computed_at
		FROM results WHERE id = ?`, id).Scan(
		&r.ID, &r.RequestID, &r.Station, &datum,
		&r.Params.MeltFactor, &r.Params.TThreshold, &r.Params.LapseRate, &r.Params.DT,
		&r.GlacierNetBalance, &ela, &r.AAR, &sensitivity, &computedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BalanceResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return domain.BalanceResult{}, fmt.Errorf("query result: %w", err)
	}

	r.Datum = domain.Datum(datum)
	if ela.Valid {
		r.ELA = &ela.Float64
	}
	if sensitivity.Valid {
		r.Sensitivity = &sensitivity.Float64
	}
	if r.ComputedAt, err = time.Parse(time.RFC3339Nano, computedAt); err != nil {
		return domain.BalanceResult{}, fmt.Errorf("parse computed_at: %w", err)
	}

	if r.Points, err = s.loadPoints(ctx, id); err != nil {
		return domain.BalanceResult{}, err
	}
	if r.Sweep, err = s.loadSweep(ctx, id); err != nil {
		return domain.BalanceResult{}, err
	}
	return r, nil
}

func (s *Store) loadPoints(ctx context.Context, id string) ([]domain.PointBalance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT elevation, net_balance FROM result_points WHERE result_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	points := []domain.PointBalance{}
	for rows.Next() {
		var p domain.PointBalance
		if err := rows.Scan(&p.Elevation, &p.NetBalance); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *Store) loadSweep(ctx context.Context, id string) ([]domain.SweepPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT offset_c, glacier_net_balance FROM result_sweep WHERE result_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("query sweep: %w", err)
	}
	defer rows.Close()

	var sweep []domain.SweepPoint
	for rows.Next() {
		var sp domain.SweepPoint
		if err := rows.Scan(&sp.Offset, &sp.GlacierNetBalance); err != nil {
			return nil, fmt.Errorf("scan sweep: %w", err)
		}
		sweep = append(sweep, sp)
	}
	return sweep, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
