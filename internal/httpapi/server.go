package httpapi

import (
	"net/http"

	"github.com/nullptr-deref/ms5540c-library-ru/internal/metrics"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/store"
)

// Options carries what the handlers read from. Metrics may be nil, in which
// case /metrics is not routed.
type Options struct {
	StationID string
	Repo      store.Repository
	Metrics   *metrics.Metrics
	// Ready reports whether the sensor answered the last poll.
	Ready func() bool
}

func NewMux(opts Options) *http.ServeMux {
	api := &stationAPI{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", api.HandleHealthz)
	mux.HandleFunc("GET /api/v1/readings/latest", api.HandleLatest)
	mux.HandleFunc("GET /api/v1/readings", api.HandleReadings)
	mux.HandleFunc("GET /api/v1/calibration", api.HandleCalibration)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}
	return mux
}

func NewServer(addr string, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: requestLogger(mux),
	}
}
