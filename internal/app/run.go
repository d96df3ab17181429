package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nullptr-deref/ms5540c-library-ru/internal/advert"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/ble"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/config"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/hostbus"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/httpapi"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/metrics"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/mqtt"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/station"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/store"
	"github.com/nullptr-deref/ms5540c-library-ru/pkg/ms5540c"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("initializing gateway",
		"station_id", cfg.DeviceStationID,
		"bus_driver", cfg.Board.Driver,
		"mqtt_enabled", cfg.MQTTEnabled,
		"mqtt_broker", cfg.MQTTBroker,
		"mqtt_port", cfg.MQTTPort,
		"ble_enabled", cfg.BLEEnabled,
	)

	conn, err := hostbus.Open(hostbus.Options{
		Driver: cfg.Board.Driver,
		SCLK:   cfg.Board.SCLK,
		DIN:    cfg.Board.DIN,
		DOUT:   cfg.Board.DOUT,
		MCLK:   cfg.Board.MCLK,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Warn("bus close failed", "error", err)
		}
	}()

	opts := cfg.Board.DriverOpts()
	opts.CorrectMmHg = cfg.MmHgSecondOrder
	opts.Logger = slog.Default()
	dev := ms5540c.New(conn.Bus, conn.Clock, &opts)
	if err := dev.Init(); err != nil {
		return fmt.Errorf("sensor init: %w", err)
	}

	db, err := store.Open(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	repo := store.NewRepository(db)

	m := metrics.New()

	cal, err := station.RecordCalibration(ctx, dev, cfg.DeviceStationID, nil, repo, m)
	if err != nil {
		return err
	}

	var (
		pub     station.Publisher
		workers []func(context.Context)
	)
	if cfg.MQTTEnabled {
		mqttClient, err := mqtt.NewClient(cfg, slog.Default())
		if err != nil {
			return err
		}
		defer mqttClient.Disconnect()
		pub = mqttClient

		workers = append(workers, func(ctx context.Context) {
			if err := mqttClient.Connect(ctx); err != nil {
				slog.Error("mqtt connect failed", "error", err)
				return
			}
			if err := mqttClient.PublishCalibration(cal); err != nil {
				slog.Warn("failed to publish calibration", "error", err)
			}
		})

		if cfg.BLEEnabled {
			workers = append(workers, bleWorker(cfg, mqttClient, m))
		}
	} else if cfg.BLEEnabled {
		slog.Warn("ble relay needs mqtt; gateway continues without BLE")
	}

	st := station.New(dev, pub, repo, m, station.Options{
		StationID:       cfg.DeviceStationID,
		Interval:        cfg.SensorPollInterval,
		Unit:            cfg.PressureUnit,
		MmHgSecondOrder: cfg.MmHgSecondOrder,
	})
	workers = append(workers, func(ctx context.Context) {
		if err := st.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("station stopped", "error", err)
		}
	})

	srv := httpapi.NewServer(cfg.HTTPAddr, httpapi.NewMux(httpapi.Options{
		StationID: cfg.DeviceStationID,
		Repo:      repo,
		Metrics:   m,
		Ready:     st.Healthy,
	}))
	// Every worker has returned before the deferred closes run.
	return runServices(ctx, srv, workers...)
}

func bleWorker(cfg config.Config, pub ble.Publisher, m *metrics.Metrics) func(context.Context) {
	listener := ble.NewListener(ble.Options{
		Adapter: cfg.BLEAdapter,
		Filter: ble.Filter{
			CompanyID:            advert.CompanyID,
			ManufacturerDataPref: []byte{advert.Magic0, advert.Magic1},
		},
	})
	relay := ble.NewRelay(pub, cfg.PressureUnit)
	relay.OnRelayed = m.ObserveRelay
	return func(ctx context.Context) {
		if err := listener.Run(ctx, relay.HandleMatch); err != nil {
			slog.Warn("ble listener could not be initialized; gateway continues without BLE",
				"error", err,
			)
		}
	}
}

// runServices starts the workers, serves HTTP until ctx is done or the
// server fails, then cancels the workers and waits for all of them.
func runServices(ctx context.Context, srv *http.Server, workers ...func(context.Context)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w(ctx)
		}()
	}

	err := serve(ctx, srv)
	cancel()
	wg.Wait()
	slog.Info("workers stopped")
	return err
}

func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("gateway shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err := <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
