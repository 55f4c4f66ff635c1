// Package metrics provides Prometheus instrumentation for the hub.
//
// Metrics exposed via the /metrics endpoint:
//   - plantlab_ingest_samples_total: Counter of stored readings by sensor
//   - plantlab_ingest_rejected_total: Counter of rejected ingest attempts
//   - plantlab_ws_connections: Gauge of active probe WebSocket connections
//   - plantlab_http_request_duration_seconds: Histogram of API request durations by path
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SamplesIngested *prometheus.CounterVec
	IngestRejected  prometheus.Counter
	WSConnections   prometheus.Gauge
	RequestDuration *prometheus.HistogramVec
}

// New registers the hub's metrics with reg. Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SamplesIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plantlab_ingest_samples_total",
			Help: "Total number of readings stored, by sensor",
		}, []string{"sensor_id"}),

		IngestRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "plantlab_ingest_rejected_total",
			Help: "Total number of ingest attempts rejected (unknown sensor or invalid payload)",
		}),

		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "plantlab_ws_connections",
			Help: "Number of currently connected probe WebSocket clients",
		}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plantlab_http_request_duration_seconds",
			Help:    "Duration of API requests by path",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
	}
}

func (m *Metrics) RecordIngest(sensorID string) {
	m.SamplesIngested.WithLabelValues(sensorID).Inc()
}

func (m *Metrics) RecordReject() {
	m.IngestRejected.Inc()
}

func (m *Metrics) ProbeConnected() {
	m.WSConnections.Inc()
}

func (m *Metrics) ProbeDisconnected() {
	m.WSConnections.Dec()
}

func (m *Metrics) ObserveRequest(path string, seconds float64) {
	m.RequestDuration.WithLabelValues(path).Observe(seconds)
}
