package hostbus

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// BitBang is a software SPI master on plain GPIO pins. Unlike the kernel
// spidev driver it can change clock phase between bytes of one transaction,
// which the MS5540C needs.
//
// din and dout are named from the sensor's side: the host drives DIN and
// samples DOUT.
type BitBang struct {
	sclk gpio.PinOut
	din  gpio.PinOut
	dout gpio.PinIn
	mode spi.Mode
	half time.Duration
	wait func(time.Duration)
}

func NewBitBang(sclk, din gpio.PinOut, dout gpio.PinIn) *BitBang {
	return &BitBang{sclk: sclk, din: din, dout: dout, wait: spin}
}

// Configure sets the clock rate and parks SCLK and DIN low.
func (b *BitBang) Configure(maxHz physic.Frequency) error {
	if maxHz <= 0 {
		return fmt.Errorf("hostbus: invalid clock %s", maxHz)
	}
	b.half = maxHz.Period() / 2
	if err := b.dout.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return fmt.Errorf("hostbus: dout: %w", err)
	}
	if err := b.sclk.Out(gpio.Low); err != nil {
		return fmt.Errorf("hostbus: sclk: %w", err)
	}
	if err := b.din.Out(gpio.Low); err != nil {
		return fmt.Errorf("hostbus: din: %w", err)
	}
	return nil
}

// SetMode accepts spi.Mode0 and spi.Mode1, the only modes with SCLK idle low.
func (b *BitBang) SetMode(m spi.Mode) error {
	switch m {
	case spi.Mode0, spi.Mode1:
		b.mode = m
		return nil
	default:
		return fmt.Errorf("hostbus: unsupported %s", m)
	}
}

// Transfer shifts out one byte MSB first and returns the byte sampled on
// DOUT.
func (b *BitBang) Transfer(out byte) (byte, error) {
	var in byte
	for i := 7; i >= 0; i-- {
		bit := gpio.Level(out>>uint(i)&1 == 1)
		var got gpio.Level
		var err error
		if b.mode == spi.Mode0 {
			got, err = b.cycleMode0(bit)
		} else {
			got, err = b.cycleMode1(bit)
		}
		if err != nil {
			return 0, err
		}
		in <<= 1
		if got == gpio.High {
			in |= 1
		}
	}
	return in, nil
}

// cycleMode0 sets data before the rising edge and samples on it.
func (b *BitBang) cycleMode0(bit gpio.Level) (gpio.Level, error) {
	if err := b.din.Out(bit); err != nil {
		return gpio.Low, err
	}
	b.wait(b.half)
	if err := b.sclk.Out(gpio.High); err != nil {
		return gpio.Low, err
	}
	got := b.dout.Read()
	b.wait(b.half)
	return got, b.sclk.Out(gpio.Low)
}

// cycleMode1 sets data on the rising edge and samples on the falling edge.
func (b *BitBang) cycleMode1(bit gpio.Level) (gpio.Level, error) {
	if err := b.sclk.Out(gpio.High); err != nil {
		return gpio.Low, err
	}
	if err := b.din.Out(bit); err != nil {
		return gpio.Low, err
	}
	b.wait(b.half)
	if err := b.sclk.Out(gpio.Low); err != nil {
		return gpio.Low, err
	}
	got := b.dout.Read()
	b.wait(b.half)
	return got, nil
}

// spin busy-waits; time.Sleep cannot resolve microseconds on Linux.
func spin(d time.Duration) {
	for start := time.Now(); time.Since(start) < d; {
	}
}

// PWMClock generates MCLK with a hardware PWM or clock pin.
type PWMClock struct {
	pin gpio.PinOut
}

func NewPWMClock(pin gpio.PinOut) *PWMClock {
	return &PWMClock{pin: pin}
}

func (c *PWMClock) Start(f physic.Frequency) error {
	if err := c.pin.PWM(gpio.DutyHalf, f); err != nil {
		return fmt.Errorf("hostbus: mclk %s: %w", f, err)
	}
	return nil
}

func (c *PWMClock) Stop() error {
	return c.pin.Out(gpio.Low)
}

var errNoPin = errors.New("hostbus: pin not found")
