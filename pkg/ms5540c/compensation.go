package ms5540c

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// Reading is one compensated pressure and temperature measurement.
//
// Temperatures are in 0.1 °C and pressures in 0.1 mbar, as in the datasheet.
// Temp and PComp are first-order results; Temp2 and PComp2 include the
// second-order correction, which is only non-zero below 20 °C and above 45 °C.
type Reading struct {
	D1, D2 uint16
	DT     int64
	Temp   int64
	Temp2  int64
	PComp  int64
	PComp2 int64
}

// ut1 is the calibration temperature in ADC counts.
func (c Coefficients) ut1() int64 {
	return c[4]<<3 + 20224
}

// Temperature returns the first-order temperature for a D2 count, in 0.1 °C.
func (c Coefficients) Temperature(d2 uint16) int64 {
	dT := int64(d2) - c.ut1()
	return 200 + (dT*(c[5]+50))>>10
}

// Compensate converts a raw pressure count d1 and temperature count d2.
// All shifts are arithmetic; intermediates go negative below 20 °C.
func (c Coefficients) Compensate(d1, d2 uint16) Reading {
	c1, c2, c3, c4, c6 := c[0], c[1], c[2], c[3], c[5]

	dT := int64(d2) - c.ut1()
	temp := 200 + (dT*(c6+50))>>10

	off := c2*4 + ((c4-512)*dT)>>12
	sens := c1 + (c3*dT)>>10 + 24576
	x := (sens*(int64(d1)-7168))>>14 - off
	p := (x*10)>>5 + 2500

	t2, p2 := secondOrder(c6, temp, p)
	return Reading{
		D1:     d1,
		D2:     d2,
		DT:     dT,
		Temp:   temp,
		Temp2:  temp - t2,
		PComp:  p,
		PComp2: p - p2,
	}
}

// secondOrder returns the T2 and P2 corrections. Both are zero for
// 200 <= temp <= 450.
func secondOrder(c6, temp, pcomp int64) (t2, p2 int64) {
	switch {
	case temp < 200:
		d := 200 - temp
		t2 = (11 * (c6 + 24) * d * d) >> 20
		p2 = (3 * t2 * (pcomp - 3500)) >> 14
	case temp > 450:
		d := 450 - temp
		t2 = (3 * (c6 + 24) * d * d) >> 20
		p2 = (t2 * (pcomp - 10000)) >> 13
	}
	return t2, p2
}

// Celsius returns the corrected temperature.
func (r Reading) Celsius() float64 {
	return float64(r.Temp2) / 10
}

// Millibar returns the corrected pressure.
func (r Reading) Millibar() float64 {
	return float64(r.PComp2) / 10
}

// MmHg converts the uncorrected pressure. Use CorrectedMmHg for the value
// with the second-order correction applied.
func (r Reading) MmHg() float64 {
	return mmHg(r.PComp)
}

// CorrectedMmHg converts the corrected pressure.
func (r Reading) CorrectedMmHg() float64 {
	return mmHg(r.PComp2)
}

// Env fills e with the corrected values. Humidity is not measured.
func (r Reading) Env(e *physic.Env) {
	e.Temperature = physic.ZeroCelsius + physic.Temperature(r.Temp2)*100*physic.MilliKelvin
	e.Pressure = physic.Pressure(r.PComp2) * 10 * physic.Pascal
	e.Humidity = 0
}

func mmHg(pcomp int64) float64 {
	return float64(pcomp) * 750.06 / 10000
}

// PressureUnit selects the unit returned by Dev.Pressure.
type PressureUnit uint8

const (
	Millibar PressureUnit = iota
	MmHg
)

func (u PressureUnit) String() string {
	switch u {
	case Millibar:
		return "mbar"
	case MmHg:
		return "mmHg"
	default:
		return fmt.Sprintf("PressureUnit(%d)", uint8(u))
	}
}

// ParsePressureUnit accepts "mbar", "hpa" and "mmhg" in any case.
func ParsePressureUnit(s string) (PressureUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mbar", "hpa":
		return Millibar, nil
	case "mmhg":
		return MmHg, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
}
