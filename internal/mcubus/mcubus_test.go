package mcubus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

type loopSPI struct {
	sent []byte
}

func (l *loopSPI) Tx(w, r []byte) error {
	l.sent = append(l.sent, w...)
	copy(r, w)
	return nil
}

func (l *loopSPI) Transfer(b byte) (byte, error) {
	l.sent = append(l.sent, b)
	return ^b, nil
}

type reconfCall struct {
	hz   uint32
	mode uint8
}

func TestBusModeSwitch(t *testing.T) {
	s := &loopSPI{}
	var calls []reconfCall
	b := NewBus(s, func(hz uint32, mode uint8) error {
		calls = append(calls, reconfCall{hz, mode})
		return nil
	})

	assert.Error(t, b.SetMode(spi.Mode1))
	require.NoError(t, b.Configure(500*physic.KiloHertz))
	require.NoError(t, b.SetMode(spi.Mode0))
	require.NoError(t, b.SetMode(spi.Mode1))
	require.NoError(t, b.SetMode(spi.Mode1))
	require.NoError(t, b.SetMode(spi.Mode0))
	assert.Error(t, b.SetMode(spi.Mode3))

	assert.Equal(t, []reconfCall{{500000, 0}, {500000, 1}, {500000, 0}}, calls)

	got, err := b.Transfer(0x0F)
	require.NoError(t, err)
	assert.Equal(t, byte(0xF0), got)
	assert.Equal(t, []byte{0x0F}, s.sent)
}

func TestBusConfigureError(t *testing.T) {
	boom := errors.New("boom")
	b := NewBus(&loopSPI{}, func(uint32, uint8) error { return boom })
	assert.ErrorIs(t, b.Configure(physic.MegaHertz), boom)
	assert.Error(t, b.Configure(0))
}

type fakePWM struct {
	period uint64
	duty   map[uint8]uint32
}

func (p *fakePWM) SetPeriod(period uint64) error {
	p.period = period
	return nil
}

func (p *fakePWM) Top() uint32 { return 1000 }

func (p *fakePWM) Set(ch uint8, v uint32) {
	if p.duty == nil {
		p.duty = map[uint8]uint32{}
	}
	p.duty[ch] = v
}

func TestClock(t *testing.T) {
	p := &fakePWM{}
	c := NewClock(p, 1)

	require.NoError(t, c.Start(32768*physic.Hertz))
	assert.Equal(t, uint64((32768 * physic.Hertz).Period()), p.period)
	assert.InDelta(t, float64(30517*time.Nanosecond), float64(p.period), 1)
	assert.Equal(t, uint32(500), p.duty[1])

	require.NoError(t, c.Stop())
	assert.Zero(t, p.duty[1])
}
