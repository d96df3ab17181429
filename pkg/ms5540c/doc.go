// Package ms5540c controls a MEAS MS5540C barometric pressure and temperature
// sensor over its 3-wire serial interface.
//
// The sensor has no chip select and no data-ready line. Every transaction
// starts with a reset sequence, commands are latched on the rising edge of
// SCLK (SPI mode 0) and results are shifted out on the falling edge (SPI
// mode 1), so the bus mode changes inside a single transaction. Conversions
// only run while a 32.768 kHz master clock is present on MCLK.
//
// Calibration is read from the sensor's four PROM words on every Init and is
// never cached elsewhere.
package ms5540c
