package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nullptr-deref/ms5540c-library-ru/pkg/ms5540c"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	MQTTEnabled  bool
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string

	Board              Board
	PressureUnit       ms5540c.PressureUnit
	MmHgSecondOrder    bool
	SensorPollInterval time.Duration
	DeviceStationID    string

	SQLitePath string
	HTTPAddr   string

	BLEEnabled bool
	BLEAdapter string
}

func LoadFromEnv() (Config, error) {
	appEnv := getenv("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	mqttEnabled, err := parseBool("MQTT_ENABLED", "true")
	if err != nil {
		return Config{}, err
	}

	mqttPortStr := getenv("MQTT_PORT", "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	board := DefaultBoard()
	if path := getenv("BOARD_FILE", ""); path != "" {
		board, err = LoadBoard(path)
		if err != nil {
			return Config{}, err
		}
	}
	if err := board.applyEnv(); err != nil {
		return Config{}, err
	}

	unitStr := getenv("PRESSURE_UNIT", "mbar")
	unit, err := ms5540c.ParsePressureUnit(unitStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid PRESSURE_UNIT %q: %w", unitStr, err)
	}

	mmHgSecondOrder, err := parseBool("MMHG_SECOND_ORDER", "false")
	if err != nil {
		return Config{}, err
	}

	sensorPollIntervalStr := getenv("SENSOR_POLL_INTERVAL", "5s")
	sensorPollInterval, err := time.ParseDuration(sensorPollIntervalStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SENSOR_POLL_INTERVAL %q: %w", sensorPollIntervalStr, err)
	}
	if minPoll := 2 * board.ConversionDelay; sensorPollInterval < minPoll {
		return Config{}, fmt.Errorf("SENSOR_POLL_INTERVAL must be at least %v, got %v", minPoll, sensorPollInterval)
	}

	bleEnabled, err := parseBool("BLE_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:             appEnv,
		LogLevel:           level,
		MQTTEnabled:        mqttEnabled,
		MQTTBroker:         getenv("MQTT_BROKER", "localhost"),
		MQTTPort:           mqttPort,
		MQTTClientID:       getenv("MQTT_CLIENT_ID", "ms5540c-gateway"),
		Board:              board,
		PressureUnit:       unit,
		MmHgSecondOrder:    mmHgSecondOrder,
		SensorPollInterval: sensorPollInterval,
		DeviceStationID:    getenv("DEVICE_STATION_ID", "home"),
		SQLitePath:         getenv("SQLITE_PATH", "data/ms5540c.db"),
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		BLEEnabled:         bleEnabled,
		BLEAdapter:         getenv("BLE_ADAPTER", "hci0"),
	}, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseBool(key, def string) (bool, error) {
	s := getenv(key, def)
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
