// Package sqlite keeps the aggregated series in a SQLite history database.
//
// Every run replaces the district_days and region_days tables inside one
// transaction, so readers see either the previous or the new aggregation and
// never a mix. The schema is created on Open.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS district_days (
	district_id          TEXT    NOT NULL,
	date                 TEXT    NOT NULL,
	seq                  INTEGER NOT NULL,
	reporting_areas      INTEGER NOT NULL,
	sites                INTEGER NOT NULL,
	beds_free            INTEGER NOT NULL,
	beds_occupied        INTEGER NOT NULL,
	beds_total           INTEGER NOT NULL,
	covid_cases          INTEGER NOT NULL,
	covid_ventilated     INTEGER NOT NULL,
	occupied_pct         REAL,
	covid_share_pct      REAL,
	ventilated_pct       REAL    NOT NULL,
	PRIMARY KEY (district_id, seq)
);

CREATE TABLE IF NOT EXISTS region_days (
	region               TEXT    NOT NULL,
	date                 TEXT    NOT NULL,
	reporting_areas      INTEGER NOT NULL,
	sites                INTEGER NOT NULL,
	beds_free            INTEGER NOT NULL,
	beds_occupied        INTEGER NOT NULL,
	beds_total           INTEGER NOT NULL,
	covid_cases          INTEGER NOT NULL,
	covid_ventilated     INTEGER NOT NULL,
	occupied_pct         REAL,
	covid_share_pct      REAL,
	ventilated_pct       REAL    NOT NULL,
	PRIMARY KEY (region, date)
);

CREATE INDEX IF NOT EXISTS idx_district_days_date ON district_days(date);
`

const recordColumns = `date, reporting_areas, sites, beds_free, beds_occupied, beds_total,
	covid_cases, covid_ventilated, occupied_pct, covid_share_pct, ventilated_pct`

// Store is the history database. It implements pipeline.Loader.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at path and migrates the schema.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name identifies the loader in logs.
func (s *Store) Name() string { return "sqlite" }

// Load stores the run's aggregation.
func (s *Store) Load(ctx context.Context, agg domain.Aggregate) error {
	return s.SaveAggregate(ctx, agg)
}

// SaveAggregate replaces the stored series with agg.
func (s *Store) SaveAggregate(ctx context.Context, agg domain.Aggregate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"district_days", "region_days"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	districtStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO district_days (district_id, seq, `+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare district insert: %w", err)
	}
	defer districtStmt.Close()

	var districtRows int
	for _, id := range agg.Districts.IDs() {
		for seq, r := range agg.Districts[id] {
			args := append([]any{id, seq}, recordArgs(r)...)
			if _, err := districtStmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert district %s on %s: %w", id, r.Date, err)
			}
			districtRows++
		}
	}

	regionStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO region_days (region, `+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare region insert: %w", err)
	}
	defer regionStmt.Close()

	days := domain.Flatten(agg.Regions)
	for _, d := range days {
		args := append([]any{d.Region}, recordArgs(d.DailyRecord)...)
		if _, err := regionStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert region %s on %s: %w", d.Region, d.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("history database updated", "district_rows", districtRows, "region_rows", len(days))
	return nil
}

// RegionRecords returns the stored records of a region ordered by date.
func (s *Store) RegionRecords(ctx context.Context, region string) ([]domain.DailyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM region_days WHERE region = ? ORDER BY date`, region)
	if err != nil {
		return nil, fmt.Errorf("query region %s: %w", region, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// DistrictRecords returns the stored records of a district in aggregation order.
func (s *Store) DistrictRecords(ctx context.Context, districtID string) ([]domain.DailyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM district_days WHERE district_id = ? ORDER BY seq`, districtID)
	if err != nil {
		return nil, fmt.Errorf("query district %s: %w", districtID, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func recordArgs(r domain.DailyRecord) []any {
	return []any{
		r.Date, r.ReportingAreas, r.Sites, r.BedsFree, r.BedsOccupied, r.BedsTotal,
		r.CovidCases, r.CovidVentilated, nullable(r.OccupiedPct), nullable(r.CovidSharePct), r.VentilatedPct,
	}
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func scanRecords(rows *sql.Rows) ([]domain.DailyRecord, error) {
	var out []domain.DailyRecord
	for rows.Next() {
		var r domain.DailyRecord
		if err := rows.Scan(
			&r.Date, &r.ReportingAreas, &r.Sites, &r.BedsFree, &r.BedsOccupied, &r.BedsTotal,
			&r.CovidCases, &r.CovidVentilated, &r.OccupiedPct, &r.CovidSharePct, &r.VentilatedPct,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
