package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/nullptr-deref/ms5540c-library-ru/pkg/ms5540c"
)

// Board describes how the sensor is wired to the host.
type Board struct {
	Driver          string        `yaml:"driver"`
	SCLK            string        `yaml:"sclk"`
	DIN             string        `yaml:"din"`
	DOUT            string        `yaml:"dout"`
	MCLK            string        `yaml:"mclk"`
	MCLKHz          int           `yaml:"mclk_hz"`
	SPIHz           int           `yaml:"spi_hz"`
	ConversionDelay time.Duration `yaml:"conversion_delay"`
}

// DefaultBoard is a Raspberry Pi with the sensor on the SPI0 pins and MCLK on
// GPCLK0.
func DefaultBoard() Board {
	return Board{
		Driver:          "periph",
		SCLK:            "GPIO11",
		DIN:             "GPIO10",
		DOUT:            "GPIO9",
		MCLK:            "GPIO4",
		MCLKHz:          32768,
		SPIHz:           500000,
		ConversionDelay: 35 * time.Millisecond,
	}
}

// LoadBoard reads a YAML board file. Missing fields keep their defaults.
func LoadBoard(filename string) (Board, error) {
	b := DefaultBoard()

	data, err := os.ReadFile(filename)
	if err != nil {
		return Board{}, fmt.Errorf("read board file: %w", err)
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Board{}, fmt.Errorf("parse board file %s: %w", filename, err)
	}
	b.ensureDefaults()
	return b, nil
}

func (b *Board) ensureDefaults() {
	def := DefaultBoard()
	if b.Driver == "" {
		b.Driver = def.Driver
	}
	if b.SCLK == "" {
		b.SCLK = def.SCLK
	}
	if b.DIN == "" {
		b.DIN = def.DIN
	}
	if b.DOUT == "" {
		b.DOUT = def.DOUT
	}
	if b.MCLK == "" {
		b.MCLK = def.MCLK
	}
	if b.MCLKHz == 0 {
		b.MCLKHz = def.MCLKHz
	}
	if b.SPIHz == 0 {
		b.SPIHz = def.SPIHz
	}
	if b.ConversionDelay == 0 {
		b.ConversionDelay = def.ConversionDelay
	}
}

// applyEnv lets single variables override the board file.
func (b *Board) applyEnv() error {
	b.Driver = getenv("BUS_DRIVER", b.Driver)
	switch b.Driver {
	case "periph", "rpio":
	default:
		return fmt.Errorf("invalid BUS_DRIVER %q (allowed: periph, rpio)", b.Driver)
	}
	b.SCLK = getenv("SPI_SCLK_PIN", b.SCLK)
	b.DIN = getenv("SPI_DIN_PIN", b.DIN)
	b.DOUT = getenv("SPI_DOUT_PIN", b.DOUT)
	b.MCLK = getenv("MCLK_PIN", b.MCLK)

	for _, v := range []struct {
		key string
		dst *int
	}{
		{"MCLK_HZ", &b.MCLKHz},
		{"SPI_HZ", &b.SPIHz},
	} {
		s := getenv(v.key, strconv.Itoa(*v.dst))
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", v.key, s, err)
		}
		if n <= 0 {
			return fmt.Errorf("%s must be positive, got %d", v.key, n)
		}
		*v.dst = n
	}

	delayStr := getenv("CONVERSION_DELAY", b.ConversionDelay.String())
	delay, err := time.ParseDuration(delayStr)
	if err != nil {
		return fmt.Errorf("invalid CONVERSION_DELAY %q: %w", delayStr, err)
	}
	if delay <= 0 {
		return fmt.Errorf("CONVERSION_DELAY must be positive, got %v", delay)
	}
	b.ConversionDelay = delay
	return nil
}

// DriverOpts converts the board timing into driver options.
func (b Board) DriverOpts() ms5540c.Opts {
	return ms5540c.Opts{
		BusFrequency:    physic.Frequency(b.SPIHz) * physic.Hertz,
		MCLK:            physic.Frequency(b.MCLKHz) * physic.Hertz,
		ConversionDelay: b.ConversionDelay,
	}
}
