package ms5540c

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Opts holds the configuration options. Zero fields take the DefaultOpts
// value.
type Opts struct {
	// BusFrequency is the SCLK rate, at most 500 kHz.
	BusFrequency physic.Frequency
	// MCLK is the master clock frequency fed to the sensor.
	MCLK physic.Frequency
	// ConversionDelay is the wait between a conversion command and reading
	// its result.
	ConversionDelay time.Duration
	// CorrectMmHg applies the second-order correction to MmHg pressures as
	// well. Millibar pressures are always corrected.
	CorrectMmHg bool
	// Logger receives debug output. Nil disables it.
	Logger *slog.Logger
}

// DefaultOpts are the recommended settings.
var DefaultOpts = Opts{
	BusFrequency:    500 * physic.KiloHertz,
	MCLK:            32768 * physic.Hertz,
	ConversionDelay: 35 * time.Millisecond,
}

// Dev is a handle to an MS5540C.
//
// All methods are safe for concurrent use; every transaction holds the
// device lock from reset to the last byte read.
type Dev struct {
	bus   Bus
	clk   Clock
	opts  Opts
	sleep func(time.Duration)

	mu       sync.Mutex
	ready    bool
	words    [4]uint16
	coeffs   Coefficients
	shutdown chan struct{}
}

// New returns a Dev in the uninitialized state. No bus traffic happens until
// Init. clk may be nil when MCLK comes from an external oscillator.
func New(bus Bus, clk Clock, opts *Opts) *Dev {
	o := DefaultOpts
	if opts != nil {
		o = *opts
		if o.BusFrequency == 0 {
			o.BusFrequency = DefaultOpts.BusFrequency
		}
		if o.MCLK == 0 {
			o.MCLK = DefaultOpts.MCLK
		}
		if o.ConversionDelay == 0 {
			o.ConversionDelay = DefaultOpts.ConversionDelay
		}
	}
	return &Dev{bus: bus, clk: clk, opts: o, sleep: time.Sleep}
}

// Init configures the bus, starts MCLK and reads the calibration words.
//
// Init may be called again to re-read calibration. If it fails the device
// goes back to the uninitialized state.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ready = false

	if err := d.bus.Configure(d.opts.BusFrequency); err != nil {
		return fmt.Errorf("ms5540c: configure bus: %w", err)
	}
	if d.clk != nil {
		if err := d.clk.Start(d.opts.MCLK); err != nil {
			return fmt.Errorf("ms5540c: start mclk: %w", err)
		}
	}
	if err := d.reset(); err != nil {
		return err
	}

	var words [4]uint16
	for i := range words {
		if err := d.reset(); err != nil {
			return err
		}
		w, err := d.readWord(i)
		if err != nil {
			return err
		}
		words[i] = w
	}
	d.words = words
	d.coeffs = DecodeCoefficients(words)
	d.ready = true

	if d.opts.Logger != nil {
		d.opts.Logger.Debug("ms5540c: calibration read",
			"words", fmt.Sprintf("%04X %04X %04X %04X", words[0], words[1], words[2], words[3]),
			"coefficients", d.coeffs.String(),
		)
	}
	return nil
}

// Reset sends the reset sequence.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reset()
}

// Coefficients returns the decoded calibration.
func (d *Dev) Coefficients() (Coefficients, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ready {
		return Coefficients{}, ErrNotInitialized
	}
	return d.coeffs, nil
}

// Words returns the raw calibration words read by the last Init.
func (d *Dev) Words() ([4]uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ready {
		return [4]uint16{}, ErrNotInitialized
	}
	return d.words, nil
}

// Temperature runs a temperature conversion and returns the first-order
// result in °C.
func (d *Dev) Temperature() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ready {
		return 0, ErrNotInitialized
	}
	d2, err := d.acquire(kindTemperature)
	if err != nil {
		return 0, err
	}
	return float64(d.coeffs.Temperature(d2)) / 10, nil
}

// Pressure runs a pressure and a temperature conversion and returns the
// pressure in unit.
//
// Millibar is second-order corrected. MmHg is computed from the first-order
// pressure unless Opts.CorrectMmHg is set.
func (d *Dev) Pressure(unit PressureUnit) (float64, error) {
	if unit != Millibar && unit != MmHg {
		return 0, fmt.Errorf("%w: %s", ErrUnknownUnit, unit)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	r, err := d.measure()
	if err != nil {
		return 0, err
	}
	if unit == MmHg {
		if d.opts.CorrectMmHg {
			return r.CorrectedMmHg(), nil
		}
		return r.MmHg(), nil
	}
	return r.Millibar(), nil
}

// Measure runs a pressure and a temperature conversion and returns every
// intermediate of the compensation.
func (d *Dev) Measure() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.measure()
}

func (d *Dev) measure() (Reading, error) {
	if !d.ready {
		return Reading{}, ErrNotInitialized
	}
	d1, err := d.acquire(kindPressure)
	if err != nil {
		return Reading{}, err
	}
	d2, err := d.acquire(kindTemperature)
	if err != nil {
		return Reading{}, err
	}
	return d.coeffs.Compensate(d1, d2), nil
}

// Sense implements physic.SenseEnv. Values are second-order corrected.
func (d *Dev) Sense(e *physic.Env) error {
	r, err := d.Measure()
	if err != nil {
		return err
	}
	r.Env(e)
	return nil
}

// SenseContinuous measures every interval until Halt is called. Failed
// measurements are skipped and logged to Opts.Logger.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil {
		return nil, errContinuousRunning
	}
	if interval < 2*d.opts.ConversionDelay {
		return nil, errIntervalTooShort
	}
	if !d.ready {
		return nil, ErrNotInitialized
	}
	stop := make(chan struct{})
	d.shutdown = stop
	ch := make(chan physic.Env, 16)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(ch)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				var e physic.Env
				if err := d.Sense(&e); err != nil {
					if d.opts.Logger != nil {
						d.opts.Logger.Debug("ms5540c: sense failed", "error", err)
					}
					continue
				}
				select {
				case ch <- e:
				case <-stop:
					return
				}
			}
		}
	}()
	return ch, nil
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = 100 * physic.MilliKelvin
	e.Pressure = 10 * physic.Pascal
	e.Humidity = 0
}

// Halt stops a running SenseContinuous. The sensor itself has no shutdown
// sequence and MCLK keeps running.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil {
		close(d.shutdown)
		d.shutdown = nil
	}
	return nil
}

func (d *Dev) String() string {
	return "MS5540C"
}

var _ physic.SenseEnv = &Dev{}
