package app

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullptr-deref/ms5540c-library-ru/internal/station"
	"github.com/nullptr-deref/ms5540c-library-ru/pkg/ms5540c"
)

func freeAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	addr := freeAddr(t)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := &http.Server{Addr: addr, Handler: mux}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/ping")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServe_ListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	srv := &http.Server{Addr: l.Addr().String()}
	assert.Error(t, serve(context.Background(), srv))
}

// slowSensor holds every Measure for delay, like two conversions on the bus.
type slowSensor struct {
	delay    time.Duration
	entered  chan struct{}
	inFlight atomic.Bool
	done     atomic.Int32
}

func (s *slowSensor) Measure() (ms5540c.Reading, error) {
	s.inFlight.Store(true)
	select {
	case s.entered <- struct{}{}:
	default:
	}
	time.Sleep(s.delay)
	s.inFlight.Store(false)
	s.done.Add(1)
	return ms5540c.Reading{D1: 17000, D2: 30000, Temp: 248, Temp2: 248, PComp: 9941, PComp2: 9941}, nil
}

func TestRunServices_WaitsForInFlightMeasure(t *testing.T) {
	sensor := &slowSensor{delay: 150 * time.Millisecond, entered: make(chan struct{}, 1)}
	st := station.New(sensor, nil, nil, nil, station.Options{StationID: "home", Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: freeAddr(t), Handler: http.NewServeMux()}
	done := make(chan error, 1)
	go func() {
		done <- runServices(ctx, srv, func(ctx context.Context) { _ = st.Run(ctx) })
	}()

	select {
	case <-sensor.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("station never polled")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("runServices did not return")
	}
	assert.False(t, sensor.inFlight.Load(), "returned while Measure was running")
	assert.Equal(t, int32(1), sensor.done.Load())
}

func TestRunServices_ListenErrorStopsWorkers(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	var stopped atomic.Bool
	srv := &http.Server{Addr: l.Addr().String()}
	err = runServices(context.Background(), srv, func(ctx context.Context) {
		<-ctx.Done()
		stopped.Store(true)
	})
	assert.Error(t, err)
	assert.True(t, stopped.Load())
}
