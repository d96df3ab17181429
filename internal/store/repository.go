package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nullptr-deref/ms5540c-library-ru/internal/types"
)

//go:embed queries/insert-reading.sql
var insertReadingSQL string

//go:embed queries/get-latest-reading.sql
var getLatestReadingSQL string

//go:embed queries/get-readings.sql
var getReadingsSQL string

//go:embed queries/insert-calibration.sql
var insertCalibrationSQL string

//go:embed queries/get-latest-calibration.sql
var getLatestCalibrationSQL string

// tsLayout has a fixed width so stored timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a station has no stored rows.
var ErrNotFound = errors.New("store: not found")

type Repository interface {
	InsertReading(ctx context.Context, r types.Reading) error
	LatestReading(ctx context.Context, stationID string) (types.Reading, error)
	Readings(ctx context.Context, stationID string, from, to time.Time, limit int) ([]types.Reading, error)
	InsertCalibration(ctx context.Context, c types.Calibration) error
	LatestCalibration(ctx context.Context, stationID string) (types.Calibration, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repositoryImpl{db: db}
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func (r *repositoryImpl) InsertReading(ctx context.Context, rd types.Reading) error {
	if rd.StationID == "" {
		return fmt.Errorf("insert reading: empty station id")
	}
	_, err := r.db.ExecContext(ctx, insertReadingSQL,
		rd.StationID, formatTS(rd.Time), rd.D1, rd.D2,
		rd.TemperatureC, rd.PressureMbar, rd.PressureMmHg,
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *repositoryImpl) LatestReading(ctx context.Context, stationID string) (types.Reading, error) {
	rows, err := r.db.QueryContext(ctx, getLatestReadingSQL, stationID)
	if err != nil {
		return types.Reading{}, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest reading rows", "error", err)
		}
	}()
	out, err := scanReadings(rows)
	if err != nil {
		return types.Reading{}, err
	}
	if len(out) == 0 {
		return types.Reading{}, ErrNotFound
	}
	return out[0], nil
}

// Readings returns up to limit readings between from and to, newest first.
// A zero from or to leaves that side open.
func (r *repositoryImpl) Readings(ctx context.Context, stationID string, from, to time.Time, limit int) ([]types.Reading, error) {
	fromStr := "0000"
	if !from.IsZero() {
		fromStr = formatTS(from)
	}
	toStr := "9999"
	if !to.IsZero() {
		toStr = formatTS(to)
	}
	rows, err := r.db.QueryContext(ctx, getReadingsSQL, stationID, fromStr, toStr, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

func scanReadings(rows *sql.Rows) ([]types.Reading, error) {
	out := []types.Reading{}
	for rows.Next() {
		var rec types.Reading
		var ts string
		if err := rows.Scan(&rec.StationID, &ts, &rec.D1, &rec.D2,
			&rec.TemperatureC, &rec.PressureMbar, &rec.PressureMmHg); err != nil {
			return nil, err
		}
		t, err := parseTS(ts)
		if err != nil {
			return nil, err
		}
		rec.Time = t
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) InsertCalibration(ctx context.Context, c types.Calibration) error {
	w, k := c.Words, c.Coefficients
	_, err := r.db.ExecContext(ctx, insertCalibrationSQL,
		c.StationID, formatTS(c.ReadAt),
		w[0], w[1], w[2], w[3],
		k[0], k[1], k[2], k[3], k[4], k[5],
	)
	if err != nil {
		return fmt.Errorf("insert calibration: %w", err)
	}
	return nil
}

func (r *repositoryImpl) LatestCalibration(ctx context.Context, stationID string) (types.Calibration, error) {
	var c types.Calibration
	var ts string
	w, k := &c.Words, &c.Coefficients
	err := r.db.QueryRowContext(ctx, getLatestCalibrationSQL, stationID).Scan(
		&c.StationID, &ts,
		&w[0], &w[1], &w[2], &w[3],
		&k[0], &k[1], &k[2], &k[3], &k[4], &k[5],
	)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Calibration{}, ErrNotFound
	}
	if err != nil {
		return types.Calibration{}, fmt.Errorf("latest calibration: %w", err)
	}
	if c.ReadAt, err = parseTS(ts); err != nil {
		return types.Calibration{}, err
	}
	return c, nil
}
