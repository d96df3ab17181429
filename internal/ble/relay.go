package ble

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nullptr-deref/ms5540c-library-ru/internal/advert"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/types"
	"github.com/nullptr-deref/ms5540c-library-ru/pkg/ms5540c"
)

const dedupMaxIDsPerDevice = 500

type Publisher interface {
	PublishTelemetry(t types.Telemetry) error
}

// Relay republishes remote station adverts as telemetry, once per reading id.
type Relay struct {
	pub  Publisher
	unit ms5540c.PressureUnit
	// OnRelayed, if set, is called after each successful publish.
	OnRelayed func()

	mu   sync.Mutex
	seen map[string]map[uint32]struct{}
}

// NewRelay publishes pressure in unit; adverts carry both.
func NewRelay(pub Publisher, unit ms5540c.PressureUnit) *Relay {
	return &Relay{
		pub:  pub,
		unit: unit,
		seen: make(map[string]map[uint32]struct{}),
	}
}

// StationID names a remote station after its device id.
func StationID(deviceID uint32) string {
	return fmt.Sprintf("pico-%08x", deviceID)
}

// HandleMatch is the Listener callback.
func (h *Relay) HandleMatch(m Match) {
	r, err := advert.Parse(m.Data)
	if err != nil {
		slog.Debug("ble: ignore non-sensor payload", "addr", m.Address, "error", err)
		return
	}
	if !h.firstSeen(m.Address, r.ReadingID) {
		return
	}

	temp := float64(r.TemperatureC)
	press := float64(r.PressureMbar)
	if h.unit == ms5540c.MmHg {
		press = float64(r.PressureMmHg)
	}
	seq := int(r.ReadingID)
	tel := types.Telemetry{
		StationID:    StationID(r.DeviceID),
		Timestamp:    m.SeenAt,
		Temperature:  &temp,
		Pressure:     &press,
		PressureUnit: h.unit.String(),
		Sequence:     &seq,
		Source:       "ble",
	}
	if err := h.pub.PublishTelemetry(tel); err != nil {
		slog.Warn("ble: failed to publish telemetry", "addr", m.Address, "reading_id", r.ReadingID, "error", err)
		return
	}
	if h.OnRelayed != nil {
		h.OnRelayed()
	}
	slog.Info("ble: sensor reading published",
		"addr", m.Address,
		"station_id", tel.StationID,
		"reading_id", r.ReadingID,
		"rssi", m.RSSI,
		"T", temp, "P", press, "unit", h.unit.String(),
		"data", fmt.Sprintf("%X", m.Data),
		"seen_at", m.SeenAt.Format(time.RFC3339),
	)
}

func (h *Relay) firstSeen(addr string, id uint32) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := h.seen[addr]
	if ids == nil {
		ids = make(map[uint32]struct{})
		h.seen[addr] = ids
	}
	if _, ok := ids[id]; ok {
		return false
	}
	if len(ids) >= dedupMaxIDsPerDevice {
		ids = make(map[uint32]struct{})
		h.seen[addr] = ids
	}
	ids[id] = struct{}{}
	return true
}
