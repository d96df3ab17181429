// Package hostbus provides MS5540C transports for Linux single board
// computers.
package hostbus

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/nullptr-deref/ms5540c-library-ru/pkg/ms5540c"
)

const (
	DriverPeriph = "periph"
	DriverRPIO   = "rpio"
)

// Options selects the backend and its pins. Pin names go through periph's
// gpioreg for the periph driver; the rpio driver only uses MCLK, as a BCM
// number with an optional GPIO prefix.
type Options struct {
	Driver string
	SCLK   string
	DIN    string
	DOUT   string
	MCLK   string
}

// Conn is an opened transport.
type Conn struct {
	Bus   ms5540c.Bus
	Clock ms5540c.Clock
	close func() error
}

// Close stops MCLK and releases the backend.
func (c *Conn) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

func Open(opts Options) (*Conn, error) {
	switch opts.Driver {
	case DriverPeriph, "":
		return openPeriph(opts)
	case DriverRPIO:
		return openRPIO(opts)
	default:
		return nil, fmt.Errorf("hostbus: unknown driver %q (allowed: %s, %s)", opts.Driver, DriverPeriph, DriverRPIO)
	}
}

func openPeriph(opts Options) (*Conn, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host.Init: %w", err)
	}
	pins := make([]gpio.PinIO, 0, 4)
	for _, name := range []string{opts.SCLK, opts.DIN, opts.DOUT, opts.MCLK} {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("%w: %q", errNoPin, name)
		}
		pins = append(pins, p)
	}
	sclk, din, dout, mclk := pins[0], pins[1], pins[2], pins[3]
	slog.Info("hostbus: periph bit-bang bus",
		"sclk", sclk.Name(), "din", din.Name(), "dout", dout.Name(), "mclk", mclk.Name(),
	)

	clk := NewPWMClock(mclk)
	return &Conn{
		Bus:   NewBitBang(sclk, din, dout),
		Clock: clk,
		close: func() error {
			err := clk.Stop()
			if herr := mclk.Halt(); err == nil {
				err = herr
			}
			return err
		},
	}, nil
}

func openRPIO(opts Options) (*Conn, error) {
	bcm, err := strconv.Atoi(strings.TrimPrefix(opts.MCLK, "GPIO"))
	if err != nil {
		return nil, fmt.Errorf("hostbus: rpio mclk must be a BCM number, got %q: %w", opts.MCLK, err)
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio.Open: %w", err)
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		_ = rpio.Close()
		return nil, fmt.Errorf("rpio.SpiBegin: %w", err)
	}
	slog.Info("hostbus: rpio SPI0 bus", "mclk_gpio", bcm)

	clk := NewGPClock(bcm)
	return &Conn{
		Bus:   RPIOBus{},
		Clock: clk,
		close: func() error {
			_ = clk.Stop()
			rpio.SpiEnd(rpio.Spi0)
			return rpio.Close()
		},
	}, nil
}
