package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nullptr-deref/ms5540c-library-ru/internal/metrics"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/store"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/types"
	"github.com/nullptr-deref/ms5540c-library-ru/pkg/ms5540c"
)

type Sensor interface {
	Measure() (ms5540c.Reading, error)
}

// CalibrationSource is the part of the driver exposing PROM content.
type CalibrationSource interface {
	Words() ([4]uint16, error)
	Coefficients() (ms5540c.Coefficients, error)
}

type Publisher interface {
	PublishTelemetry(t types.Telemetry) error
	PublishStationHealth(h types.StationHealth) error
	PublishCalibration(c types.Calibration) error
}

type Options struct {
	StationID       string
	Interval        time.Duration
	Unit            ms5540c.PressureUnit
	MmHgSecondOrder bool
}

// Station polls the local sensor and fans readings out to the optional
// publisher, store and metrics.
type Station struct {
	sensor  Sensor
	pub     Publisher
	repo    store.Repository
	metrics *metrics.Metrics
	opts    Options
	now     func() time.Time

	sequence int
	healthy  *bool
	ok       atomic.Bool
}

// New returns a Station. pub, repo and m may be nil.
func New(sensor Sensor, pub Publisher, repo store.Repository, m *metrics.Metrics, opts Options) *Station {
	return &Station{
		sensor:  sensor,
		pub:     pub,
		repo:    repo,
		metrics: m,
		opts:    opts,
		now:     time.Now,
	}
}

// Healthy reports whether the last poll succeeded.
func (s *Station) Healthy() bool {
	return s.ok.Load()
}

// Run polls once immediately and then every Interval until ctx is done.
func (s *Station) Run(ctx context.Context) error {
	if s.opts.Interval <= 0 {
		return fmt.Errorf("station: invalid poll interval %s", s.opts.Interval)
	}
	slog.Info("station polling started", "station_id", s.opts.StationID, "interval", s.opts.Interval)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		if err := s.Poll(ctx); err != nil {
			slog.Warn("station poll failed", "station_id", s.opts.StationID, "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll takes one measurement. A sensor error is returned after health has
// been reported; publish and store errors are logged only.
func (s *Station) Poll(ctx context.Context) error {
	at := s.now()
	r, err := s.sensor.Measure()
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveFailure()
		}
		s.reportHealth(at, err)
		return fmt.Errorf("measure: %w", err)
	}
	s.reportHealth(at, nil)
	if s.metrics != nil {
		s.metrics.ObserveReading(r)
	}

	s.sequence++
	tel := s.telemetry(r, at)

	slog.Debug("station reading",
		"station_id", s.opts.StationID,
		"sequence", s.sequence,
		"d1", r.D1, "d2", r.D2,
		"temperature_c", *tel.Temperature,
		"pressure", *tel.Pressure,
		"unit", tel.PressureUnit,
	)

	if s.pub != nil {
		if err := s.pub.PublishTelemetry(tel); err != nil {
			slog.Warn("failed to publish telemetry", "station_id", s.opts.StationID, "error", err)
		}
	}
	if s.repo != nil {
		if err := s.repo.InsertReading(ctx, s.reading(r, at)); err != nil {
			slog.Warn("failed to store reading", "station_id", s.opts.StationID, "error", err)
		}
	}
	return nil
}

func (s *Station) mmHg(r ms5540c.Reading) float64 {
	if s.opts.MmHgSecondOrder {
		return r.CorrectedMmHg()
	}
	return r.MmHg()
}

func (s *Station) pressure(r ms5540c.Reading) float64 {
	if s.opts.Unit == ms5540c.MmHg {
		return s.mmHg(r)
	}
	return r.Millibar()
}

func (s *Station) telemetry(r ms5540c.Reading, at time.Time) types.Telemetry {
	temp := r.Celsius()
	press := s.pressure(r)
	seq := s.sequence
	return types.Telemetry{
		StationID:    s.opts.StationID,
		Timestamp:    at,
		Temperature:  &temp,
		Pressure:     &press,
		PressureUnit: s.opts.Unit.String(),
		Sequence:     &seq,
		Source:       "spi",
	}
}

func (s *Station) reading(r ms5540c.Reading, at time.Time) types.Reading {
	return types.Reading{
		StationID:    s.opts.StationID,
		Time:         at,
		D1:           r.D1,
		D2:           r.D2,
		TemperatureC: r.Celsius(),
		PressureMbar: r.Millibar(),
		PressureMmHg: s.mmHg(r),
	}
}

// reportHealth publishes only on transitions, and always after the first poll.
func (s *Station) reportHealth(at time.Time, err error) {
	ok := err == nil
	s.ok.Store(ok)
	if s.healthy != nil && *s.healthy == ok {
		return
	}
	s.healthy = &ok
	if !ok {
		slog.Error("station unhealthy", "station_id", s.opts.StationID, "error", err)
	} else {
		slog.Info("station healthy", "station_id", s.opts.StationID)
	}
	if s.pub == nil {
		return
	}
	h := types.StationHealth{StationID: s.opts.StationID, LastSeen: at, Healthy: ok}
	if err != nil {
		h.Error = err.Error()
	}
	if perr := s.pub.PublishStationHealth(h); perr != nil {
		slog.Warn("failed to publish health", "station_id", s.opts.StationID, "error", perr)
	}
}

// RecordCalibration logs the PROM content read by the last Init. pub, repo
// and m may be nil. Only a driver error is returned.
func RecordCalibration(ctx context.Context, src CalibrationSource, stationID string, pub Publisher, repo store.Repository, m *metrics.Metrics) (types.Calibration, error) {
	words, err := src.Words()
	if err != nil {
		return types.Calibration{}, err
	}
	coeffs, err := src.Coefficients()
	if err != nil {
		return types.Calibration{}, err
	}
	cal := types.Calibration{
		StationID:    stationID,
		ReadAt:       time.Now().UTC(),
		Words:        words,
		Coefficients: coeffs,
	}
	slog.Info("sensor calibration", "station_id", stationID, "coefficients", coeffs.String())

	if m != nil {
		m.ObserveCalibration(coeffs)
	}
	var errs []error
	if repo != nil {
		if err := repo.InsertCalibration(ctx, cal); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if pub != nil {
		if err := pub.PublishCalibration(cal); err != nil {
			errs = append(errs, fmt.Errorf("publish: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		slog.Warn("failed to record calibration", "station_id", stationID, "error", err)
	}
	return cal, nil
}
