// Package sqlite persists hourly AQI reports in a pure-Go SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
	"github.com/couchcryptid/aqi-etl-service/internal/domain"

	_ "modernc.org/sqlite"
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/upsert-report.sql
var upsertReportSQL string

//go:embed sql/get-readings.sql
var getReadingsSQL string

//go:embed sql/get-latest.sql
var getLatestSQL string

//go:embed sql/count-by-category.sql
var countByCategorySQL string

// ErrNotFound is returned when a station has no stored report.
var ErrNotFound = errors.New("no stored report")

// Timestamps are stored as UTC RFC3339 so that text order is time order.
const tsLayout = time.RFC3339

// Store is the report history. It implements pipeline.BatchLoader.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// A single writer avoids SQLITE_BUSY and keeps :memory: on one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadBatch upserts every trend report of every snapshot in one transaction.
// Rows are keyed by (station, hour), so forecast hours are overwritten as
// newer model runs arrive.
func (s *Store) LoadBatch(ctx context.Context, snaps []domain.StationSnapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertReportSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	rows := 0
	for _, snap := range snaps {
		for _, r := range snap.Trend {
			if _, err = stmt.ExecContext(ctx, upsertArgs(r)...); err != nil {
				return fmt.Errorf("upsert %s at %s: %w", r.StationID, r.Reading.Timestamp.Format(tsLayout), err)
			}
			rows++
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("reports stored", "rows", rows, "stations", len(snaps))
	return nil
}

// Readings returns a station's stored reports with from <= ts <= to, oldest first.
func (s *Store) Readings(ctx context.Context, stationID string, from, to time.Time) ([]domain.AQIReport, error) {
	rows, err := s.db.QueryContext(ctx, getReadingsSQL, stationID, formatTS(from), formatTS(to))
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("close readings rows", "error", err)
		}
	}()

	var out []domain.AQIReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Latest returns the most recent stored report at or before asOf.
func (s *Store) Latest(ctx context.Context, stationID string, asOf time.Time) (domain.AQIReport, error) {
	row := s.db.QueryRowContext(ctx, getLatestSQL, stationID, formatTS(asOf))
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AQIReport{}, fmt.Errorf("station %s: %w", stationID, ErrNotFound)
	}
	return r, err
}

// CategoryHours counts stored hours per category for a station in [from, to].
func (s *Store) CategoryHours(ctx context.Context, stationID string, from, to time.Time) (map[aqi.Category]int, error) {
	rows, err := s.db.QueryContext(ctx, countByCategorySQL, stationID, formatTS(from), formatTS(to))
	if err != nil {
		return nil, fmt.Errorf("query category hours: %w", err)
	}
	defer rows.Close()

	out := make(map[aqi.Category]int)
	for rows.Next() {
		var slug string
		var n int
		if err := rows.Scan(&slug, &n); err != nil {
			return nil, err
		}
		cat, err := aqi.ParseCategory(slug)
		if err != nil {
			return nil, err
		}
		out[cat] = n
	}
	return out, rows.Err()
}

func upsertArgs(r domain.AQIReport) []any {
	var pm10AQI sql.NullFloat64
	if r.PM10Index != nil {
		pm10AQI = sql.NullFloat64{Float64: r.PM10Index.Score, Valid: true}
	}
	return []any{
		r.ID, r.StationID, r.StationName, r.Geo.Lat, r.Geo.Lon, formatTS(r.Reading.Timestamp),
		r.Reading.PM25, nullable(r.Reading.PM10), nullable(r.Reading.NO2), nullable(r.Reading.Dust),
		r.AQI.Score, r.AQI.Category.String(), pm10AQI,
		string(r.Status), r.Source, formatTS(r.ProcessedAt),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (domain.AQIReport, error) {
	var (
		r                      domain.AQIReport
		ts, processedAt        string
		pm10, no2, dust, pm10I sql.NullFloat64
		score                  float64
		status                 string
	)
	if err := row.Scan(
		&r.ID, &r.StationID, &r.StationName, &r.Geo.Lat, &r.Geo.Lon, &ts,
		&r.Reading.PM25, &pm10, &no2, &dust, &score, &pm10I, &status, &r.Source, &processedAt,
	); err != nil {
		return domain.AQIReport{}, err
	}

	t, err := time.Parse(tsLayout, ts)
	if err != nil {
		return domain.AQIReport{}, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	pt, err := time.Parse(tsLayout, processedAt)
	if err != nil {
		return domain.AQIReport{}, fmt.Errorf("parse processed_at %q: %w", processedAt, err)
	}

	r.Reading.Timestamp = t
	r.Reading.PM10 = fromNullable(pm10)
	r.Reading.NO2 = fromNullable(no2)
	r.Reading.Dust = fromNullable(dust)
	r.AQI = aqi.NewResult(score)
	if pm10I.Valid {
		sub := aqi.NewResult(pm10I.Float64)
		r.PM10Index = &sub
	}
	r.Status = domain.SafetyStatus(status)
	r.TimeBucket = t.Truncate(time.Hour)
	r.ProcessedAt = pt
	return r, nil
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
