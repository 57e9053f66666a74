package client

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the client connection.
// A nil *Metrics is a valid no-op recorder, so callers never guard.
type Metrics struct {
	// Session metrics
	connectionState   prometheus.Gauge
	reconnects        prometheus.Counter
	heartbeatTimeouts prometheus.Counter

	// Message metrics
	messagesReceived *prometheus.CounterVec // by message type
	messagesSent     *prometheus.CounterVec // by message type
	imagesReceived   prometheus.Counter
	parseErrors      prometheus.Counter
}

// NewMetrics creates a new metrics instance registered on the default registry
func NewMetrics() *Metrics {
	return &Metrics{
		connectionState: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "parley_connection_state",
				Help: "Current session state (0=disconnected 1=connecting 2=connected 3=reconnecting 4=terminated)",
			},
		),
		reconnects: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "parley_reconnect_attempts_total",
				Help: "Total number of reconnect attempts",
			},
		),
		heartbeatTimeouts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "parley_heartbeat_timeouts_total",
				Help: "Total number of heartbeats that went unacknowledged",
			},
		),
		messagesReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_messages_received_total",
				Help: "Total number of envelopes received from the server by type",
			},
			[]string{"type"},
		),
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_messages_sent_total",
				Help: "Total number of envelopes sent to the server by type",
			},
			[]string{"type"},
		),
		imagesReceived: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "parley_images_received_total",
				Help: "Total number of binary image frames accepted",
			},
		),
		parseErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "parley_parse_errors_total",
				Help: "Total number of inbound frames that failed to decode",
			},
		),
	}
}

// RecordConnectionState updates the session state gauge
func (m *Metrics) RecordConnectionState(state SessionState) {
	if m == nil {
		return
	}
	m.connectionState.Set(float64(state))
}

// RecordReconnectAttempt increments the reconnect counter
func (m *Metrics) RecordReconnectAttempt() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

// RecordHeartbeatTimeout increments the missed-heartbeat counter
func (m *Metrics) RecordHeartbeatTimeout() {
	if m == nil {
		return
	}
	m.heartbeatTimeouts.Inc()
}

// RecordMessageReceived increments the received counter for a type tag
func (m *Metrics) RecordMessageReceived(messageType string) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(messageType).Inc()
}

// RecordMessageSent increments the sent counter for a type tag
func (m *Metrics) RecordMessageSent(messageType string) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(messageType).Inc()
}

// RecordImageReceived increments the accepted image frame counter
func (m *Metrics) RecordImageReceived() {
	if m == nil {
		return
	}
	m.imagesReceived.Inc()
}

// RecordParseError increments the malformed-frame counter
func (m *Metrics) RecordParseError() {
	if m == nil {
		return
	}
	m.parseErrors.Inc()
}

// ServeMetrics exposes the default prometheus registry on addr. It blocks
// until the listener fails, so run it on its own goroutine.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
