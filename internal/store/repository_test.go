package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullptr-deref/ms5540c-library-ru/internal/types"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sub", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return db
}

func reading(station string, ts time.Time, d1 uint16) types.Reading {
	return types.Reading{
		StationID:    station,
		Time:         ts,
		D1:           d1,
		D2:           30000,
		TemperatureC: 24.8,
		PressureMbar: 994.1,
		PressureMmHg: 745.6,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Migrate(db))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestParseMigrationFilename(t *testing.T) {
	v, name, ok := parseMigrationFilename("0002_calibrations.sql")
	assert.True(t, ok)
	assert.Equal(t, "0002", v)
	assert.Equal(t, "calibrations", name)

	_, _, ok = parseMigrationFilename("readme.md")
	assert.False(t, ok)
}

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN("file:test.db?mode=memory")
	require.NoError(t, err)
	assert.Equal(t, "file:test.db?mode=memory&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", dsn)

	_, err = buildDSN("")
	assert.Error(t, err)
}

func TestReadings(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	_, err := repo.LatestReading(ctx, "home")
	assert.ErrorIs(t, err, ErrNotFound)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.InsertReading(ctx, reading("home", base.Add(time.Duration(i)*time.Minute), uint16(17000+i))))
	}
	require.NoError(t, repo.InsertReading(ctx, reading("garage", base, 1)))

	latest, err := repo.LatestReading(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, uint16(17004), latest.D1)
	assert.True(t, latest.Time.Equal(base.Add(4*time.Minute)))
	assert.Equal(t, 994.1, latest.PressureMbar)

	all, err := repo.Readings(ctx, "home", time.Time{}, time.Time{}, 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	window, err := repo.Readings(ctx, "home", base.Add(time.Minute), base.Add(3*time.Minute), 100)
	require.NoError(t, err)
	require.Len(t, window, 3)
	assert.Equal(t, uint16(17003), window[0].D1)
	assert.Equal(t, uint16(17001), window[2].D1)

	limited, err := repo.Readings(ctx, "home", time.Time{}, time.Time{}, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := repo.Readings(ctx, "attic", time.Time{}, time.Time{}, 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.Error(t, repo.InsertReading(ctx, reading("", base, 1)))
}

func TestCalibrations(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	_, err := repo.LatestCalibration(ctx, "home")
	assert.ErrorIs(t, err, ErrNotFound)

	first := types.Calibration{
		StationID:    "home",
		ReadAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Words:        [4]uint16{0xB75D, 0x1D5A, 0x8694, 0xB92C},
		Coefficients: [6]int64{23470, 1324, 740, 538, 1141, 26},
	}
	second := first
	second.ReadAt = first.ReadAt.Add(time.Hour)
	second.Words[0] = 0xB75C
	second.Coefficients[4] = 117

	require.NoError(t, repo.InsertCalibration(ctx, first))
	require.NoError(t, repo.InsertCalibration(ctx, second))

	got, err := repo.LatestCalibration(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, second.Words, got.Words)
	assert.Equal(t, second.Coefficients, got.Coefficients)
	assert.True(t, got.ReadAt.Equal(second.ReadAt))
}
