//go:build tinygo

package main

import (
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/nullptr-deref/ms5540c-library-ru/internal/advert"
	"github.com/nullptr-deref/ms5540c-library-ru/pkg/ms5540c"
)

type SendAdvertisementsOptions struct {
	Interval time.Duration
	Duration time.Duration
}

type BLE struct {
	deviceID             uint32
	readingID            uint32
	adapter              *bluetooth.Adapter
	readingData          [advert.Len]byte
	advertisementOptions bluetooth.AdvertisementOptions
	advertisement        *bluetooth.Advertisement

	sleepDuration time.Duration
}

func NewBLE(deviceID uint32, options SendAdvertisementsOptions) (*BLE, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, err
	}

	b := &BLE{
		adapter:       adapter,
		deviceID:      deviceID,
		advertisement: adapter.DefaultAdvertisement(),
		sleepDuration: options.Duration,
	}
	b.advertisementOptions = bluetooth.AdvertisementOptions{
		AdvertisementType: bluetooth.AdvertisingTypeNonConnInd,
		LocalName:         "ms5540c-station",
		Interval:          bluetooth.NewDuration(options.Interval),
		ManufacturerData: []bluetooth.ManufacturerDataElement{
			{CompanyID: advert.CompanyID, Data: b.readingData[:]},
		},
	}
	return b, nil
}

// Send advertises r for the configured duration and returns its reading id.
func (b *BLE) Send(r ms5540c.Reading) (uint32, error) {
	id := b.readingID
	b.readingID++

	advert.Encode(&b.readingData, advert.Reading{
		DeviceID:     b.deviceID,
		ReadingID:    id,
		TemperatureC: float32(r.Celsius()),
		PressureMbar: float32(r.Millibar()),
		PressureMmHg: float32(r.MmHg()),
	})

	if err := b.advertisement.Configure(b.advertisementOptions); err != nil {
		return 0, err
	}
	if err := b.advertisement.Start(); err != nil {
		_ = b.advertisement.Stop()
		return 0, err
	}

	time.Sleep(b.sleepDuration)
	if err := b.advertisement.Stop(); err != nil {
		return id, err
	}
	return id, nil
}
