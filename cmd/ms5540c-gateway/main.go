package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nullptr-deref/ms5540c-library-ru/internal/app"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/config"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/logging"
)

var version = "dev"
var appName = "ms5540c-gateway"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
		"bus_driver", cfg.Board.Driver,
		"poll_interval", cfg.SensorPollInterval,
		"pressure_unit", cfg.PressureUnit.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}
