// Package metrics exposes agent counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/workplus/workplus/internal/config"
)

const namespace = "workplus"

type Recorder interface {
	IncTransitions(status string)
	IncUploads(outcome, source string)
	IncRetrySweeps(result string)
	SetQueueDepth(n int)
	IncCaptureErrors()
	IncDroppedTicks(task string)
	ObserveRequest(method, path string, status int, duration time.Duration)
	Handler() http.Handler
}

type Provider struct {
	registry        *prometheus.Registry
	transitions     *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	retrySweeps     *prometheus.CounterVec
	queueDepth      prometheus.Gauge
	captureErrors   prometheus.Counter
	droppedTicks    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New returns a Provider backed by its own registry, or a no-op recorder
// when metrics are disabled.
func New(cfg *config.Config) Recorder {
	if !cfg.Metrics.Enabled {
		return Noop()
	}
	return NewProvider(prometheus.NewRegistry())
}

// Noop returns a Recorder that discards everything
func Noop() Recorder {
	return &noopMetrics{}
}

func NewProvider(registry *prometheus.Registry) *Provider {
	factory := promauto.With(registry)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Provider{
		registry: registry,

		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Status transitions by the status entered.",
		}, []string{"status"}),

		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Screenshot upload attempts by outcome and source.",
		}, []string{"outcome", "source"}),

		retrySweeps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_sweeps_total",
			Help:      "Failed-queue sweeps by result.",
		}, []string{"result"}),

		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "failed_queue_depth",
			Help:      "Artifacts waiting in the failed queue.",
		}),

		captureErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_errors_total",
			Help:      "Screenshot captures that failed.",
		}),

		droppedTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_ticks_total",
			Help:      "Timer ticks dropped because the previous run was still in flight.",
		}, []string{"task"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of local status API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Provider) IncTransitions(status string) {
	m.transitions.WithLabelValues(status).Inc()
}

func (m *Provider) IncUploads(outcome, source string) {
	m.uploads.WithLabelValues(outcome, source).Inc()
}

func (m *Provider) IncRetrySweeps(result string) {
	m.retrySweeps.WithLabelValues(result).Inc()
}

func (m *Provider) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

func (m *Provider) IncCaptureErrors() {
	m.captureErrors.Inc()
}

func (m *Provider) IncDroppedTicks(task string) {
	m.droppedTicks.WithLabelValues(task).Inc()
}

func (m *Provider) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.requestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument wraps next so every request is observed by rec
func Instrument(rec Recorder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		rec.ObserveRequest(r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// noopMetrics is used when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncTransitions(_ string)                            {}
func (n *noopMetrics) IncUploads(_, _ string)                             {}
func (n *noopMetrics) IncRetrySweeps(_ string)                            {}
func (n *noopMetrics) SetQueueDepth(_ int)                                {}
func (n *noopMetrics) IncCaptureErrors()                                  {}
func (n *noopMetrics) IncDroppedTicks(_ string)                           {}
func (n *noopMetrics) ObserveRequest(_, _ string, _ int, _ time.Duration) {}
func (n *noopMetrics) Handler() http.Handler                              { return http.NotFoundHandler() }
