package ms5540c

import "fmt"

// Coefficients are the factory calibration factors C1..C6.
type Coefficients [6]int64

// DecodeCoefficients unpacks the four PROM words, word 0 first.
func DecodeCoefficients(w [4]uint16) Coefficients {
	w0, w1, w2, w3 := int64(w[0]), int64(w[1]), int64(w[2]), int64(w[3])
	return Coefficients{
		(w0 >> 1) & 0x7FFF,
		((w2 & 0x3F) << 6) | (w3 & 0x3F),
		(w3 >> 6) & 0x3FF,
		(w2 >> 6) & 0x3FF,
		((w0 & 0x1) << 10) | ((w1 >> 6) & 0x3FF),
		w1 & 0x3F,
	}
}

// C1 is the pressure sensitivity.
func (c Coefficients) C1() int64 { return c[0] }

// C2 is the pressure offset.
func (c Coefficients) C2() int64 { return c[1] }

// C3 is the temperature coefficient of pressure sensitivity.
func (c Coefficients) C3() int64 { return c[2] }

// C4 is the temperature coefficient of pressure offset.
func (c Coefficients) C4() int64 { return c[3] }

// C5 is the reference temperature.
func (c Coefficients) C5() int64 { return c[4] }

// C6 is the temperature coefficient of the temperature.
func (c Coefficients) C6() int64 { return c[5] }

func (c Coefficients) String() string {
	return fmt.Sprintf("C1=%d C2=%d C3=%d C4=%d C5=%d C6=%d", c[0], c[1], c[2], c[3], c[4], c[5])
}
