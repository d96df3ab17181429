package ble

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"tinygo.org/x/bluetooth"
)

// Match is one advertisement that passed the filter.
type Match struct {
	Address   string
	RSSI      int16
	LocalName string
	CompanyID uint16
	Data      []byte
	SeenAt    time.Time
}

type Filter struct {
	LocalName            string
	CompanyID            uint16
	ManufacturerDataPref []byte
}

type Options struct {
	Adapter string // "hci0" by default
	Filter  Filter
}

// Listener wraps BlueZ scanning with context cancellation.
type Listener struct {
	adapter *bluetooth.Adapter
	opts    Options
}

func NewListener(opts Options) *Listener {
	if opts.Adapter == "" {
		opts.Adapter = "hci0"
	}
	return &Listener{
		adapter: bluetooth.NewAdapter(opts.Adapter),
		opts:    opts,
	}
}

// Run scans until ctx is done. A cancelled ctx is a clean stop.
func (l *Listener) Run(ctx context.Context, onMatch func(Match)) error {
	slog.Info("ble: enabling adapter", "adapter", l.opts.Adapter)
	if err := l.adapter.Enable(); err != nil {
		return fmt.Errorf("ble enable (%s): %w", l.opts.Adapter, err)
	}

	go func() {
		<-ctx.Done()
		_ = l.adapter.StopScan()
	}()

	slog.Info("ble: scanning started",
		"filter_name", l.opts.Filter.LocalName,
		"filter_company", fmt.Sprintf("0x%04X", l.opts.Filter.CompanyID),
		"filter_prefix", fmt.Sprintf("% X", l.opts.Filter.ManufacturerDataPref),
	)

	err := l.adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
		md := make([]manufacturerData, 0, 1)
		for _, e := range r.ManufacturerData() {
			md = append(md, manufacturerData{CompanyID: e.CompanyID, Data: e.Data})
		}
		if m, ok := l.opts.Filter.match(r.Address.String(), r.RSSI, r.LocalName(), md); ok && onMatch != nil {
			onMatch(m)
		}
	})

	if ctx.Err() != nil {
		slog.Info("ble: scanning stopped (context canceled)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("ble scan: %w", err)
	}
	slog.Info("ble: scanning stopped")
	return nil
}

type manufacturerData struct {
	CompanyID uint16
	Data      []byte
}

// match returns the first manufacturer data element accepted by f.
func (f Filter) match(addr string, rssi int16, name string, md []manufacturerData) (Match, bool) {
	if f.LocalName != "" && name != f.LocalName {
		return Match{}, false
	}
	for _, e := range md {
		if f.CompanyID != 0 && e.CompanyID != f.CompanyID {
			continue
		}
		if !bytes.HasPrefix(e.Data, f.ManufacturerDataPref) {
			continue
		}
		return Match{
			Address:   addr,
			RSSI:      rssi,
			LocalName: name,
			CompanyID: e.CompanyID,
			Data:      append([]byte(nil), e.Data...),
			SeenAt:    time.Now(),
		}, true
	}
	return Match{}, false
}
