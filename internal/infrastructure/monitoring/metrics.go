package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// API server metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  *prometheus.CounterVec
	Passes         *prometheus.CounterVec
	Results        *prometheus.CounterVec
	Calls          *prometheus.CounterVec

	// Outbound exchanges made on behalf of providers
	OutboundTotal    *prometheus.CounterVec
	OutboundDuration *prometheus.HistogramVec

	// Remote dispatch metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	Uptime    prometheus.GaugeFunc
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current values for the JSON health endpoint
type Snapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	ActiveSessions int64   `json:"active_sessions"`
	TotalSessions  int64   `json:"total_sessions"`
	AvgDurationSec float64 `json:"avg_duration_seconds"`

	totalDuration float64
}

// NewMetrics registers every collector on reg. A nil reg uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{startTime: time.Now()}

	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asybalance_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asybalance_http_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)
	m.RequestSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asybalance_http_request_size_bytes",
			Help:    "API request size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"method", "path"},
	)
	m.ResponseSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asybalance_http_response_size_bytes",
			Help:    "API response size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"method", "path"},
	)

	m.SessionsActive = factory.NewGauge(prometheus.GaugeOpts{
		Name: "asybalance_sessions_active",
		Help: "Number of provider sessions currently executing",
	})
	m.SessionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asybalance_sessions_total",
			Help: "Total number of provider sessions by transport",
		},
		[]string{"mode"},
	)
	m.Passes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asybalance_passes_total",
			Help: "Execution passes by outcome",
		},
		[]string{"outcome"},
	)
	m.Results = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asybalance_results_total",
			Help: "Accepted results by kind",
		},
		[]string{"kind"},
	)
	m.Calls = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asybalance_capability_calls_total",
			Help: "Capability calls made by provider programs",
		},
		[]string{"method"},
	)

	m.OutboundTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asybalance_outbound_requests_total",
			Help: "Outbound HTTP exchanges by method and status",
		},
		[]string{"method", "status"},
	)
	m.OutboundDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asybalance_outbound_request_duration_seconds",
			Help:    "Outbound HTTP exchange duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)

	m.WSConnections = factory.NewGauge(prometheus.GaugeOpts{
		Name: "asybalance_ws_connections",
		Help: "Number of active remote dispatch connections",
	})
	m.WSMessages = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asybalance_ws_messages_total",
			Help: "Remote dispatch frames by direction and type",
		},
		[]string{"direction", "type"},
	)

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "asybalance_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an API request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// SessionStarted marks a session as running
func (m *Metrics) SessionStarted(mode string) {
	m.SessionsActive.Inc()
	m.SessionsTotal.WithLabelValues(mode).Inc()

	m.mu.Lock()
	m.snapshot.ActiveSessions++
	m.snapshot.TotalSessions++
	m.mu.Unlock()
}

// SessionFinished marks a session as done
func (m *Metrics) SessionFinished() {
	m.SessionsActive.Dec()

	m.mu.Lock()
	m.snapshot.ActiveSessions--
	m.mu.Unlock()
}

// RecordCall counts a capability call
func (m *Metrics) RecordCall(method string) {
	m.Calls.WithLabelValues(method).Inc()
}

// RecordPass counts a finished execution pass
func (m *Metrics) RecordPass(outcome string) {
	m.Passes.WithLabelValues(outcome).Inc()
}

// RecordResult counts an accepted result
func (m *Metrics) RecordResult(kind string) {
	m.Results.WithLabelValues(kind).Inc()
}

// ObserveRequest records one outbound exchange
func (m *Metrics) ObserveRequest(method string, status int, duration time.Duration) {
	m.OutboundTotal.WithLabelValues(method, statusLabel(status)).Inc()
	m.OutboundDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordWSMessage records a remote dispatch frame
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments remote dispatch connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements remote dispatch connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns the current summary values
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AvgDurationSec = s.totalDuration / float64(s.TotalRequests)
	}
	return s
}
