package ms5540c

import (
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Bus is the serial link to the sensor. Bytes are sent MSB first.
//
// SetMode is called inside a transaction, so implementations must be able to
// switch between spi.Mode0 and spi.Mode1 without releasing the bus.
type Bus interface {
	// Configure sets the SCLK rate. It is called once from Init.
	Configure(maxHz physic.Frequency) error
	SetMode(m spi.Mode) error
	// Transfer writes b and returns the byte clocked in at the same time.
	Transfer(b byte) (byte, error)
}

// Clock drives the sensor's MCLK input with a 50% duty square wave.
type Clock interface {
	Start(f physic.Frequency) error
	Stop() error
}
