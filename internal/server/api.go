package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/afroash/plantlab/internal/metrics"
	"github.com/afroash/plantlab/internal/models"
	"github.com/afroash/plantlab/internal/monitor"
	"github.com/afroash/plantlab/internal/store"
	"github.com/rs/zerolog"
)

// Default history windows in minutes, matching what the dashboard asks
// for when no explicit window is given.
const (
	defaultHistoryMinutes       = 180
	defaultSensorHistoryMinutes = 720
)

// APIHandler handles HTTP API requests for the dashboard and for
// HTTP-posting devices
type APIHandler struct {
	svc     *monitor.Service
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(svc *monitor.Service, m *metrics.Metrics, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		svc:     svc,
		metrics: m,
		logger:  logger,
	}
}

// ingestPayload is the HTTP ingest request body. Percent is a pointer
// so an absent field is distinguishable from 0.0 and rejected. The
// device timestamp is accepted but ignored; server time is
// authoritative.
type ingestPayload struct {
	SensorID string   `json:"sensor_id"`
	Percent  *float64 `json:"percent"`
	Raw      *int     `json:"raw,omitempty"`
	TS       *int64   `json:"ts,omitempty"`
}

// HandleIngest accepts a single reading posted by a device
func (api *APIHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	defer api.observe("/api/ingest", time.Now())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload ingestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.metrics.RecordReject()
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.Percent == nil {
		api.metrics.RecordReject()
		writeError(w, http.StatusBadRequest, "percent is required")
		return
	}
	if !models.ValidPercent(*payload.Percent) {
		api.metrics.RecordReject()
		writeError(w, http.StatusBadRequest, "percent must be within [0,100]")
		return
	}

	result, err := api.svc.Ingest(payload.SensorID, *payload.Percent, payload.Raw)
	if err != nil {
		var unknown *store.UnknownSensorError
		if errors.As(err, &unknown) {
			api.metrics.RecordReject()
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":     "unknown sensor_id",
				"sensor_id": unknown.SensorID,
				"known":     unknown.Known,
			})
			return
		}
		api.logger.Error().Err(err).Msg("Ingest failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	api.metrics.RecordIngest(result.SensorID)
	writeJSON(w, http.StatusOK, result)
}

// HandleLatest returns the most recent state of every configured sensor
func (api *APIHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	defer api.observe("/api/latest", time.Now())
	writeJSON(w, http.StatusOK, api.svc.Latest())
}

// HandleHistory returns the bucketed multi-sensor history. With both
// start and end query parameters it switches to the date-range mode.
func (api *APIHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	defer api.observe("/api/history", time.Now())

	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start != "" && end != "" {
		series, err := api.svc.HistoryRange(start, end)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, series)
		return
	}

	writeJSON(w, http.StatusOK, api.svc.History(queryMinutes(r, defaultHistoryMinutes)))
}

// HandleHistorySensor returns the bucketed history for one sensor,
// routed as /api/history/{sensor_id}
func (api *APIHandler) HandleHistorySensor(w http.ResponseWriter, r *http.Request) {
	defer api.observe("/api/history/{sensor_id}", time.Now())

	sensorID := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if sensorID == "" || strings.Contains(sensorID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	series, err := api.svc.HistorySensor(sensorID, queryMinutes(r, defaultSensorHistoryMinutes))
	if err != nil {
		var unknown *store.UnknownSensorError
		if errors.As(err, &unknown) {
			writeError(w, http.StatusNotFound, "unknown sensor")
			return
		}
		api.logger.Error().Err(err).Msg("Sensor history failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// HandleConfig returns the dashboard configuration
func (api *APIHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	defer api.observe("/api/config", time.Now())
	writeJSON(w, http.StatusOK, api.svc.Config())
}

// HandleSensors returns the configured sensor list
func (api *APIHandler) HandleSensors(w http.ResponseWriter, r *http.Request) {
	defer api.observe("/api/sensors", time.Now())
	writeJSON(w, http.StatusOK, map[string]any{"sensors": api.svc.Sensors()})
}

// HandleStats returns store statistics
func (api *APIHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	defer api.observe("/api/stats", time.Now())
	writeJSON(w, http.StatusOK, api.svc.Stats())
}

func (api *APIHandler) observe(path string, started time.Time) {
	api.metrics.ObserveRequest(path, time.Since(started).Seconds())
}

func queryMinutes(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("minutes")
	if raw == "" {
		return fallback
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return minutes
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
