package hostbus

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// RPIOBus drives the BCM283x SPI0 controller through /dev/gpiomem. The
// controller's CPHA bit can be flipped between bytes, so no bit-banging is
// needed.
type RPIOBus struct{}

func (RPIOBus) Configure(maxHz physic.Frequency) error {
	if maxHz <= 0 {
		return fmt.Errorf("hostbus: invalid clock %s", maxHz)
	}
	rpio.SpiSpeed(int(maxHz / physic.Hertz))
	return nil
}

func (RPIOBus) SetMode(m spi.Mode) error {
	switch m {
	case spi.Mode0:
		rpio.SpiMode(0, 0)
	case spi.Mode1:
		rpio.SpiMode(0, 1)
	default:
		return fmt.Errorf("hostbus: unsupported %s", m)
	}
	return nil
}

func (RPIOBus) Transfer(b byte) (byte, error) {
	buf := []byte{b}
	rpio.SpiExchange(buf)
	return buf[0], nil
}

// GPClock runs MCLK from a general purpose clock pin (GPIO4, 20 or 32 for
// GPCLK0).
type GPClock struct {
	pin rpio.Pin
}

func NewGPClock(bcm int) *GPClock {
	return &GPClock{pin: rpio.Pin(bcm)}
}

func (c *GPClock) Start(f physic.Frequency) error {
	hz := int(f / physic.Hertz)
	if hz <= 0 {
		return fmt.Errorf("hostbus: invalid mclk %s", f)
	}
	c.pin.Mode(rpio.Clock)
	c.pin.Freq(hz)
	return nil
}

func (c *GPClock) Stop() error {
	c.pin.Output()
	c.pin.Low()
	return nil
}
