package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nullptr-deref/ms5540c-library-ru/internal/store"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

type stationAPI struct {
	opts Options
}

func (a *stationAPI) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if a.opts.Ready != nil && !a.opts.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "sensor unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *stationAPI) HandleLatest(w http.ResponseWriter, r *http.Request) {
	rd, err := a.opts.Repo.LatestReading(r.Context(), a.opts.StationID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no readings yet")
		return
	}
	if err != nil {
		slog.Error("latest reading query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load reading")
		return
	}
	writeJSON(w, http.StatusOK, rd)
}

func (a *stationAPI) HandleReadings(w http.ResponseWriter, r *http.Request) {
	from, to, limit, err := parseReadingsQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := a.opts.Repo.Readings(r.Context(), a.opts.StationID, from, to, limit)
	if err != nil {
		slog.Error("readings query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}

	resp := map[string]any{
		"stationId": a.opts.StationID,
		"from":      zeroAsNullTime(from),
		"to":        zeroAsNullTime(to),
		"limit":     limit,
		"items":     items,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *stationAPI) HandleCalibration(w http.ResponseWriter, r *http.Request) {
	cal, err := a.opts.Repo.LatestCalibration(r.Context(), a.opts.StationID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "sensor not calibrated yet")
		return
	}
	if err != nil {
		slog.Error("calibration query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load calibration")
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

func parseReadingsQuery(r *http.Request) (from time.Time, to time.Time, limit int, err error) {
	q := r.URL.Query()

	if s := q.Get("from"); s != "" {
		from, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, time.Time{}, 0, errors.New("invalid 'from' (expected RFC3339)")
		}
	}
	if s := q.Get("to"); s != "" {
		to, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, time.Time{}, 0, errors.New("invalid 'to' (expected RFC3339)")
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, 0, errors.New("'from' must be <= 'to'")
	}

	limit = defaultLimit
	if s := q.Get("limit"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil {
			return time.Time{}, time.Time{}, 0, errors.New("invalid 'limit' (expected integer)")
		}
		if n <= 0 {
			return time.Time{}, time.Time{}, 0, errors.New("'limit' must be > 0")
		}
		if n > maxLimit {
			return time.Time{}, time.Time{}, 0, errors.New("'limit' must be <= 1000")
		}
		limit = n
	}

	return from, to, limit, nil
}

func zeroAsNullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": msg,
	})
}
