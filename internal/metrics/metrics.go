// Package metrics exposes station readings as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nullptr-deref/ms5540c-library-ru/pkg/ms5540c"
)

type Metrics struct {
	registry *prometheus.Registry

	temperature  prometheus.Gauge
	pressure     prometheus.Gauge
	rawADC       *prometheus.GaugeVec
	coefficients *prometheus.GaugeVec
	readings     *prometheus.CounterVec
	bleRelayed   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ms5540c_temperature_celsius",
			Help: "Second-order compensated temperature.",
		}),
		pressure: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ms5540c_pressure_millibar",
			Help: "Second-order compensated pressure.",
		}),
		rawADC: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ms5540c_adc_counts",
			Help: "Last raw conversion result (D1 pressure, D2 temperature).",
		}, []string{"channel"}),
		coefficients: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ms5540c_calibration_coefficient",
			Help: "Calibration coefficients C1..C6 read at init.",
		}, []string{"c"}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ms5540c_readings_total",
			Help: "Measurement attempts by result.",
		}, []string{"result"}),
		bleRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ms5540c_ble_relayed_total",
			Help: "BLE advertisements republished to MQTT.",
		}),
	}
	m.registry.MustRegister(
		m.temperature,
		m.pressure,
		m.rawADC,
		m.coefficients,
		m.readings,
		m.bleRelayed,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveReading(r ms5540c.Reading) {
	m.temperature.Set(r.Celsius())
	m.pressure.Set(r.Millibar())
	m.rawADC.WithLabelValues("D1").Set(float64(r.D1))
	m.rawADC.WithLabelValues("D2").Set(float64(r.D2))
	m.readings.WithLabelValues("ok").Inc()
}

func (m *Metrics) ObserveFailure() {
	m.readings.WithLabelValues("error").Inc()
}

func (m *Metrics) ObserveCalibration(c ms5540c.Coefficients) {
	for i, v := range c {
		m.coefficients.WithLabelValues("C" + strconv.Itoa(i+1)).Set(float64(v))
	}
}

func (m *Metrics) ObserveRelay() {
	m.bleRelayed.Inc()
}
