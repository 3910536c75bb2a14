package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the presenter backend.
// All methods are safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	registry               *prometheus.Registry
	requestsTotal          prometheus.Counter
	errorsTotal            prometheus.Counter
	videoUpdatesTotal      prometheus.Counter
	videoClearsTotal       prometheus.Counter
	broadcastSessionsTotal prometheus.Counter
	broadcastTicksTotal    prometheus.Counter
	emitFailuresTotal      *prometheus.CounterVec
	activeBroadcastLoops   prometheus.Gauge
	connectedWindows       prometheus.Gauge
}

// New creates and registers Prometheus metrics for the presenter backend.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presenter_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presenter_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	videoUpdatesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presenter_video_updates_total",
		Help: "Total number of video state reports accepted from the output window",
	})
	videoClearsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presenter_video_clears_total",
		Help: "Total number of video state clears",
	})
	broadcastSessionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presenter_broadcast_sessions_total",
		Help: "Total number of broadcast sessions started",
	})
	broadcastTicksTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presenter_broadcast_ticks_total",
		Help: "Total number of extrapolated states emitted by broadcast loops",
	})
	emitFailuresTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presenter_emit_failures_total",
		Help: "Total number of events that could not be delivered to a window",
	}, []string{"event"})
	activeBroadcastLoops := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "presenter_active_broadcast_loops",
		Help: "Number of broadcast loop goroutines currently running",
	})
	connectedWindows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "presenter_connected_windows",
		Help: "Number of window websocket connections",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		videoUpdatesTotal,
		videoClearsTotal,
		broadcastSessionsTotal,
		broadcastTicksTotal,
		emitFailuresTotal,
		activeBroadcastLoops,
		connectedWindows,
	)

	return &Metrics{
		registry:               registry,
		requestsTotal:          requestsTotal,
		errorsTotal:            errorsTotal,
		videoUpdatesTotal:      videoUpdatesTotal,
		videoClearsTotal:       videoClearsTotal,
		broadcastSessionsTotal: broadcastSessionsTotal,
		broadcastTicksTotal:    broadcastTicksTotal,
		emitFailuresTotal:      emitFailuresTotal,
		activeBroadcastLoops:   activeBroadcastLoops,
		connectedWindows:       connectedWindows,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// IncVideoUpdates increments the accepted video update counter.
func (m *Metrics) IncVideoUpdates() {
	if m == nil {
		return
	}
	m.videoUpdatesTotal.Inc()
}

// IncVideoClears increments the video clear counter.
func (m *Metrics) IncVideoClears() {
	if m == nil {
		return
	}
	m.videoClearsTotal.Inc()
}

// BroadcastLoopStarted records a new session and its running loop.
func (m *Metrics) BroadcastLoopStarted() {
	if m == nil {
		return
	}
	m.broadcastSessionsTotal.Inc()
	m.activeBroadcastLoops.Inc()
}

// BroadcastLoopEnded records a loop goroutine exiting.
func (m *Metrics) BroadcastLoopEnded() {
	if m == nil {
		return
	}
	m.activeBroadcastLoops.Dec()
}

// IncBroadcastTicks increments the emitted tick counter.
func (m *Metrics) IncBroadcastTicks() {
	if m == nil {
		return
	}
	m.broadcastTicksTotal.Inc()
}

// IncEmitFailures increments the failed emission counter for event.
func (m *Metrics) IncEmitFailures(event string) {
	if m == nil {
		return
	}
	m.emitFailuresTotal.WithLabelValues(event).Inc()
}

// SetConnectedWindows sets the connected windows gauge.
func (m *Metrics) SetConnectedWindows(n int) {
	if m == nil {
		return
	}
	m.connectedWindows.Set(float64(n))
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. connected windows).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
