package ms5540c

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

var typical = Coefficients{23470, 1324, 740, 538, 1141, 26}

func TestTemperatureAnchor(t *testing.T) {
	// With C5 = 0 the reference temperature count is 20224.
	assert.Equal(t, int64(200), Coefficients{}.Temperature(20224))
	assert.Equal(t, int64(200), typical.Temperature(uint16(typical.ut1())))

	r := typical.Compensate(17000, uint16(typical.ut1()))
	assert.Equal(t, int64(0), r.DT)
	assert.Equal(t, int64(200), r.Temp)
	assert.Equal(t, r.Temp, r.Temp2)
}

func TestCompensate(t *testing.T) {
	tests := []struct {
		name   string
		d1, d2 uint16
		want   Reading
	}{
		{
			name: "first order only",
			d1:   17000, d2: 30000,
			want: Reading{D1: 17000, D2: 30000, DT: 648, Temp: 248, Temp2: 248, PComp: 9941, PComp2: 9941},
		},
		{
			name: "cold",
			d1:   17000, d2: 22000,
			want: Reading{D1: 17000, D2: 22000, DT: -7352, Temp: -346, Temp2: -502, PComp: 8873, PComp2: 8720},
		},
		{
			name: "hot",
			d1:   20000, d2: 40000,
			want: Reading{D1: 20000, D2: 40000, DT: 10648, Temp: 990, Temp2: 949, PComp: 14466, PComp2: 14444},
		},
		{
			name: "hot with negative correction",
			d1:   15000, d2: 40000,
			want: Reading{D1: 15000, D2: 40000, DT: 10648, Temp: 990, Temp2: 949, PComp: 9150, PComp2: 9155},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, typical.Compensate(tt.d1, tt.d2))
		})
	}
}

func TestSecondOrderBoundaries(t *testing.T) {
	for _, temp := range []int64{200, 300, 450} {
		t2, p2 := secondOrder(26, temp, 10500)
		assert.Zero(t, t2, "temp %d", temp)
		assert.Zero(t, p2, "temp %d", temp)
	}

	t2, p2 := secondOrder(26, -346, 8873)
	assert.Equal(t, int64(156), t2)
	assert.Equal(t, int64(153), p2)

	t2, p2 = secondOrder(26, 990, 9150)
	assert.Equal(t, int64(41), t2)
	assert.Equal(t, int64(-5), p2)
}

func TestReadingUnits(t *testing.T) {
	r := Reading{Temp: 215, Temp2: 213, PComp: 10000, PComp2: 9990}
	assert.InDelta(t, 21.3, r.Celsius(), 1e-9)
	assert.InDelta(t, 999.0, r.Millibar(), 1e-9)
	assert.InDelta(t, 750.06, r.MmHg(), 1e-9)
	assert.InDelta(t, 749.31, r.CorrectedMmHg(), 1e-3)

	var e physic.Env
	r.Env(&e)
	assert.Equal(t, physic.ZeroCelsius+21300*physic.MilliKelvin, e.Temperature)
	assert.Equal(t, 99900*physic.Pascal, e.Pressure)
}

func TestParsePressureUnit(t *testing.T) {
	for in, want := range map[string]PressureUnit{"mbar": Millibar, "hPa": Millibar, " MMHG ": MmHg} {
		got, err := ParsePressureUnit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePressureUnit("psi")
	assert.True(t, errors.Is(err, ErrUnknownUnit))

	assert.Equal(t, "mbar", Millibar.String())
	assert.Equal(t, "mmHg", MmHg.String())
	assert.Equal(t, "PressureUnit(7)", PressureUnit(7).String())
}
