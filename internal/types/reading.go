package types

import "time"

// Reading is one stored measurement of the local sensor.
type Reading struct {
	StationID    string    `json:"station_id"`
	Time         time.Time `json:"time"`
	D1           uint16    `json:"d1"`
	D2           uint16    `json:"d2"`
	TemperatureC float64   `json:"temperature_c"`
	PressureMbar float64   `json:"pressure_mbar"`
	PressureMmHg float64   `json:"pressure_mmhg"`
}
