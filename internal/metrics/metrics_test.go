package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullptr-deref/ms5540c-library-ru/pkg/ms5540c"
)

func TestObserveReading(t *testing.T) {
	m := New()
	m.ObserveReading(ms5540c.Reading{D1: 17000, D2: 22000, Temp2: -502, PComp2: 8720})
	m.ObserveFailure()
	m.ObserveFailure()

	assert.InDelta(t, -50.2, testutil.ToFloat64(m.temperature), 1e-9)
	assert.InDelta(t, 872.0, testutil.ToFloat64(m.pressure), 1e-9)
	assert.Equal(t, 17000.0, testutil.ToFloat64(m.rawADC.WithLabelValues("D1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.readings.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.readings.WithLabelValues("error")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveCalibration(ms5540c.Coefficients{23470, 1324, 740, 538, 1141, 26})
	m.ObserveRelay()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `ms5540c_calibration_coefficient{c="C1"} 23470`)
	assert.Contains(t, string(body), "ms5540c_ble_relayed_total 1")
}
