package ms5540c

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeCoefficients(t *testing.T) {
	tests := []struct {
		name  string
		words [4]uint16
		want  Coefficients
	}{
		{
			name:  "mixed bits",
			words: [4]uint16{0x1234, 0x5678, 0x9ABC, 0xDEF0},
			want:  Coefficients{2330, 3888, 891, 618, 345, 56},
		},
		{
			name:  "all zero",
			words: [4]uint16{},
			want:  Coefficients{},
		},
		{
			name:  "all ones",
			words: [4]uint16{0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF},
			want:  Coefficients{32767, 4095, 1023, 1023, 2047, 63},
		},
		{
			name:  "typical part",
			words: [4]uint16{0xB75D, 0x1D5A, 0x8694, 0xB92C},
			want:  Coefficients{23470, 1324, 740, 538, 1141, 26},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeCoefficients(tt.words))
		})
	}
}

func TestCoefficientsAccessors(t *testing.T) {
	c := Coefficients{1, 2, 3, 4, 5, 6}
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, []int64{c.C1(), c.C2(), c.C3(), c.C4(), c.C5(), c.C6()})
	assert.Equal(t, "C1=1 C2=2 C3=3 C4=4 C5=5 C6=6", c.String())
}
