package ms5540c

import "errors"

var (
	// ErrNotInitialized is returned by measurement calls made before Init.
	ErrNotInitialized = errors.New("ms5540c: not initialized")
	// ErrUnknownUnit is returned for a PressureUnit outside Millibar and MmHg.
	ErrUnknownUnit = errors.New("ms5540c: unknown pressure unit")
	// ErrWordIndex is returned when a calibration word outside 0..3 is requested.
	ErrWordIndex = errors.New("ms5540c: calibration word index out of range")

	errContinuousRunning = errors.New("ms5540c: SenseContinuous already running")
	errIntervalTooShort  = errors.New("ms5540c: sample interval is shorter than a pressure and temperature conversion")
)
