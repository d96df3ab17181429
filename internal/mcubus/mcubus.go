// Package mcubus runs the MS5540C on a microcontroller SPI peripheral under
// TinyGo.
package mcubus

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"tinygo.org/x/drivers"
)

// Reconfigure applies a clock rate and SPI mode (0 or 1) to the peripheral.
// On TinyGo it wraps machine.SPI.Configure.
type Reconfigure func(hz uint32, mode uint8) error

// Bus adapts a drivers.SPI. Peripherals only take a new clock phase through a
// full reconfigure, so SetMode skips it when the mode is unchanged.
type Bus struct {
	spi        drivers.SPI
	reconf     Reconfigure
	hz         uint32
	mode       spi.Mode
	configured bool
}

func NewBus(s drivers.SPI, reconf Reconfigure) *Bus {
	return &Bus{spi: s, reconf: reconf}
}

func (b *Bus) Configure(maxHz physic.Frequency) error {
	hz := uint32(maxHz / physic.Hertz)
	if hz == 0 {
		return fmt.Errorf("mcubus: invalid clock %s", maxHz)
	}
	b.hz = hz
	b.mode = spi.Mode0
	if err := b.reconf(b.hz, uint8(b.mode)); err != nil {
		return fmt.Errorf("mcubus: configure: %w", err)
	}
	b.configured = true
	return nil
}

func (b *Bus) SetMode(m spi.Mode) error {
	if m != spi.Mode0 && m != spi.Mode1 {
		return fmt.Errorf("mcubus: unsupported %s", m)
	}
	if !b.configured {
		return fmt.Errorf("mcubus: set %s before Configure", m)
	}
	if m == b.mode {
		return nil
	}
	if err := b.reconf(b.hz, uint8(m)); err != nil {
		return fmt.Errorf("mcubus: set %s: %w", m, err)
	}
	b.mode = m
	return nil
}

func (b *Bus) Transfer(x byte) (byte, error) {
	return b.spi.Transfer(x)
}

// PWM is the part of a TinyGo PWM group used to generate MCLK.
type PWM interface {
	SetPeriod(period uint64) error
	Top() uint32
	Set(channel uint8, value uint32)
}

// Clock drives MCLK from one PWM channel at 50% duty.
type Clock struct {
	pwm PWM
	ch  uint8
}

func NewClock(pwm PWM, channel uint8) *Clock {
	return &Clock{pwm: pwm, ch: channel}
}

func (c *Clock) Start(f physic.Frequency) error {
	period := f.Period()
	if period <= 0 {
		return fmt.Errorf("mcubus: invalid mclk %s", f)
	}
	if err := c.pwm.SetPeriod(uint64(period)); err != nil {
		return fmt.Errorf("mcubus: mclk period: %w", err)
	}
	c.pwm.Set(c.ch, c.pwm.Top()/2)
	return nil
}

func (c *Clock) Stop() error {
	c.pwm.Set(c.ch, 0)
	return nil
}
