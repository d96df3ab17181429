package types

import "time"

// Telemetry represents a telemetry message from a weather station
type Telemetry struct {
	StationID    string    `json:"station_id"`
	Timestamp    time.Time `json:"timestamp"`
	Temperature  *float64  `json:"temperature_c,omitempty"`
	Pressure     *float64  `json:"pressure,omitempty"`
	PressureUnit string    `json:"pressure_unit,omitempty"`
	Sequence     *int      `json:"sequence,omitempty"`
	Source       string    `json:"source,omitempty"`
}

// StationHealth is published retained so late subscribers see the last state.
type StationHealth struct {
	StationID string    `json:"station_id"`
	LastSeen  time.Time `json:"last_seen"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
}

// Calibration is the decoded PROM content of a sensor, as logged after Init.
type Calibration struct {
	StationID    string    `json:"station_id"`
	ReadAt       time.Time `json:"read_at"`
	Words        [4]uint16 `json:"words"`
	Coefficients [6]int64  `json:"coefficients"`
}
