// Package advert encodes station readings as BLE manufacturer data.
//
// Layout, little-endian: [0:2] magic 0x01 0xD0, [2:6] device id uint32,
// [6:10] reading id uint32, [10:14] temperature °C float32,
// [14:18] pressure mbar float32, [18:22] pressure mmHg float32.
package advert

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	Magic0    = 0x01
	Magic1    = 0xD0
	CompanyID = 0xFFFF
	Len       = 22
)

// Reading is one advertised measurement.
type Reading struct {
	DeviceID     uint32
	ReadingID    uint32
	TemperatureC float32
	PressureMbar float32
	PressureMmHg float32
}

// Encode writes r into buf without allocating.
func Encode(buf *[Len]byte, r Reading) {
	buf[0] = Magic0
	buf[1] = Magic1
	binary.LittleEndian.PutUint32(buf[2:6], r.DeviceID)
	binary.LittleEndian.PutUint32(buf[6:10], r.ReadingID)
	binary.LittleEndian.PutUint32(buf[10:14], math.Float32bits(r.TemperatureC))
	binary.LittleEndian.PutUint32(buf[14:18], math.Float32bits(r.PressureMbar))
	binary.LittleEndian.PutUint32(buf[18:22], math.Float32bits(r.PressureMmHg))
}

// Parse decodes manufacturer data. Trailing bytes are ignored.
func Parse(data []byte) (Reading, error) {
	if len(data) < Len {
		return Reading{}, fmt.Errorf("payload too short: %d", len(data))
	}
	if data[0] != Magic0 || data[1] != Magic1 {
		return Reading{}, fmt.Errorf("invalid magic: %02X %02X", data[0], data[1])
	}
	return Reading{
		DeviceID:     binary.LittleEndian.Uint32(data[2:6]),
		ReadingID:    binary.LittleEndian.Uint32(data[6:10]),
		TemperatureC: math.Float32frombits(binary.LittleEndian.Uint32(data[10:14])),
		PressureMbar: math.Float32frombits(binary.LittleEndian.Uint32(data[14:18])),
		PressureMmHg: math.Float32frombits(binary.LittleEndian.Uint32(data[18:22])),
	}, nil
}
