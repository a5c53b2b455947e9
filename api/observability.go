package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics keep bounded cardinality: route patterns, not raw URLs, and
// no per-player or per-session labels.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snake_tick_duration_seconds",
		Help:    "Time spent advancing one session tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snake_sessions_active",
		Help: "Current number of live sessions",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	requestRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_rejected_total",
		Help: "Requests rejected before reaching a handler",
	}, []string{"reason"}) // bounded: "rate_limit"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "WebSocket messages by direction",
	}, []string{"direction"}) // bounded: "in", "out"
)

// RecordTick records how long one simulation tick took.
func RecordTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// UpdateActiveSessions sets the live session gauge.
func UpdateActiveSessions(n int) {
	sessionsActive.Set(float64(n))
}

// RecordWSConnect and RecordWSDisconnect track the connection gauge.
func RecordWSConnect()    { wsConnectionsActive.Inc() }
func RecordWSDisconnect() { wsConnectionsActive.Dec() }

// RecordWSMessage counts one WebSocket message; direction is "in" or
// "out".
func RecordWSMessage(direction string) {
	wsMessagesTotal.WithLabelValues(direction).Inc()
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware records latency and counts per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := routePattern(r)
		requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
	})
}
