package ms5540c

import (
	"fmt"

	"periph.io/x/conn/v3/spi"
)

// Sequences from the datasheet. The reset is 21 bits, the sensor ignores the
// trailing zeros of the last byte.
var (
	resetSeq = [3]byte{0x15, 0x55, 0x40}

	wordCmds = [4][2]byte{
		{0x1D, 0x50},
		{0x1D, 0x60},
		{0x1D, 0x90},
		{0x1D, 0xA0},
	}
)

// kind selects which ADC conversion an acquisition starts.
type kind uint8

const (
	kindPressure kind = iota
	kindTemperature
)

var acquireCmds = [...][2]byte{
	kindPressure:    {0x0F, 0x40},
	kindTemperature: {0x0F, 0x20},
}

func (k kind) String() string {
	switch k {
	case kindPressure:
		return "D1"
	case kindTemperature:
		return "D2"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// send clocks b out in mode 0.
func (d *Dev) send(b []byte) error {
	if err := d.bus.SetMode(spi.Mode0); err != nil {
		return err
	}
	for _, x := range b {
		if _, err := d.bus.Transfer(x); err != nil {
			return err
		}
	}
	return nil
}

// recv16 clocks a big-endian word in using mode 1.
func (d *Dev) recv16() (uint16, error) {
	if err := d.bus.SetMode(spi.Mode1); err != nil {
		return 0, err
	}
	hi, err := d.bus.Transfer(0x00)
	if err != nil {
		return 0, err
	}
	lo, err := d.bus.Transfer(0x00)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (d *Dev) reset() error {
	if err := d.send(resetSeq[:]); err != nil {
		return fmt.Errorf("ms5540c: reset: %w", err)
	}
	return nil
}

// readWord reads calibration word i. The caller issues the reset.
func (d *Dev) readWord(i int) (uint16, error) {
	if i < 0 || i >= len(wordCmds) {
		return 0, ErrWordIndex
	}
	if err := d.send(wordCmds[i][:]); err != nil {
		return 0, fmt.Errorf("ms5540c: read word %d: %w", i, err)
	}
	w, err := d.recv16()
	if err != nil {
		return 0, fmt.Errorf("ms5540c: read word %d: %w", i, err)
	}
	return w, nil
}

// acquire runs one conversion and returns the raw ADC count. It blocks for
// the conversion delay; the sensor has no other completion signal.
func (d *Dev) acquire(k kind) (uint16, error) {
	if err := d.reset(); err != nil {
		return 0, err
	}
	cmd := acquireCmds[k]
	if err := d.send(cmd[:]); err != nil {
		return 0, fmt.Errorf("ms5540c: acquire %s: %w", k, err)
	}
	d.sleep(d.opts.ConversionDelay)
	v, err := d.recv16()
	if err != nil {
		return 0, fmt.Errorf("ms5540c: acquire %s: %w", k, err)
	}
	return v, nil
}
