//go:build tinygo

// Pico 2 W station: reads an MS5540C over SPI0 and advertises each reading
// as BLE manufacturer data for the gateway relay.
package main

import (
	"fmt"
	"machine"
	"strconv"
	"time"

	"github.com/nullptr-deref/ms5540c-library-ru/internal/mcubus"
	"github.com/nullptr-deref/ms5540c-library-ru/pkg/ms5540c"
)

// Set with -ldflags "-X main.deviceIDHex=...".
var deviceIDHex = "00000001"

const (
	pinSCK  = machine.GP18
	pinSDO  = machine.GP19
	pinSDI  = machine.GP16
	pinMCLK = machine.GP21

	pollInterval = 2 * time.Second
)

func main() {
	machine.Serial.Configure(machine.UARTConfig{})

	// Give the host time to enumerate the USB serial device.
	time.Sleep(1500 * time.Millisecond)

	fmt.Println("boot: ms5540c pico station")

	deviceID, err := strconv.ParseUint(deviceIDHex, 16, 32)
	if err != nil {
		halt("invalid device id", err)
	}

	dev, err := newSensor()
	if err != nil {
		halt("sensor init failed", err)
	}
	coeffs, _ := dev.Coefficients()
	fmt.Println("sensor: calibration", coeffs.String())

	b, err := NewBLE(uint32(deviceID), SendAdvertisementsOptions{
		Interval: 100 * time.Millisecond,
		Duration: 600 * time.Millisecond,
	})
	if err != nil {
		halt("adapter.Enable failed", err)
	}

	for {
		r, err := dev.Measure()
		if err != nil {
			fmt.Println("ERROR: measure failed:", err)
			time.Sleep(pollInterval)
			continue
		}
		id, err := b.Send(r)
		if err != nil {
			fmt.Println("ERROR: advertise failed:", err)
		} else {
			fmt.Printf("reading: id=%d T=%.1f P=%.1f mbar D1=%d D2=%d\n", id, r.Celsius(), r.Millibar(), r.D1, r.D2)
		}
		time.Sleep(pollInterval)
	}
}

func newSensor() (*ms5540c.Dev, error) {
	spi := machine.SPI0
	reconf := func(hz uint32, mode uint8) error {
		return spi.Configure(machine.SPIConfig{
			Frequency: hz,
			Mode:      mode,
			LSBFirst:  false,
			SCK:       pinSCK,
			SDO:       pinSDO,
			SDI:       pinSDI,
		})
	}

	pwm := machine.PWM2
	if err := pwm.Configure(machine.PWMConfig{}); err != nil {
		return nil, err
	}
	ch, err := pwm.Channel(pinMCLK)
	if err != nil {
		return nil, err
	}

	dev := ms5540c.New(mcubus.NewBus(spi, reconf), mcubus.NewClock(pwm, ch), nil)
	if err := dev.Init(); err != nil {
		return nil, err
	}
	return dev, nil
}

func halt(msg string, err error) {
	fmt.Println("FATAL:", msg+":", err)
	for {
		time.Sleep(1 * time.Second)
	}
}
