package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/sensorapi/types"
)

//go:embed sql/latest-readings.sql
var latestReadingsSQL string

//go:embed sql/upsert-station.sql
var upsertStationSQL string

//go:embed sql/get-station-id-by-name.sql
var getStationIDByNameSQL string

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/count-readings.sql
var countReadingsSQL string

// tsLayout is fixed width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

type SensorRepository interface {
	// LatestReadings returns up to limit of the newest readings, oldest
	// first. An empty stationID matches every station.
	LatestReadings(ctx context.Context, stationID string, limit int) ([]types.Reading, error)
	// InsertReading stores r, creating its station on first sight. A reading
	// for an existing station and timestamp is replaced.
	InsertReading(ctx context.Context, r types.Reading) error
	CountReadings(ctx context.Context) (int, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) SensorRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) LatestReadings(ctx context.Context, stationID string, limit int) ([]types.Reading, error) {
	rows, err := r.db.QueryContext(ctx, latestReadingsSQL, stationID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest readings rows", "error", err)
		}
	}()

	out := []types.Reading{}
	for rows.Next() {
		var (
			rec      types.Reading
			ts       string
			humidity sql.NullFloat64
			pressure sql.NullFloat64
		)
		if err := rows.Scan(&rec.StationID, &ts, &rec.Temperatura, &humidity, &pressure); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		rec.Timestamp = t
		if humidity.Valid {
			rec.Umidade = &humidity.Float64
		}
		if pressure.Valid {
			rec.Pressao = &pressure.Float64
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) InsertReading(ctx context.Context, rec types.Reading) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("rollback insert reading", "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, upsertStationSQL, rec.StationID); err != nil {
		return fmt.Errorf("upsert station %q: %w", rec.StationID, err)
	}
	var stationID int64
	if err := tx.QueryRowContext(ctx, getStationIDByNameSQL, rec.StationID).Scan(&stationID); err != nil {
		return fmt.Errorf("lookup station %q: %w", rec.StationID, err)
	}

	ts := rec.Timestamp.UTC().Format(tsLayout)
	if _, err := tx.ExecContext(ctx, insertReadingSQL, stationID, ts, rec.Temperatura, nullable(rec.Umidade), nullable(rec.Pressao)); err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return tx.Commit()
}

func (r *repositoryImpl) CountReadings(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countReadingsSQL).Scan(&n)
	return n, err
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
