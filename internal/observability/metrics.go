package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets    = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	backendDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	bodySizeBuckets        = []float64{100, 1024, 10240, 102400, 1048576}
)

// Metrics holds all Prometheus metric instruments for the BFF.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSizeBytes  *prometheus.HistogramVec
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Session metrics
	SessionsOpenedTotal prometheus.Counter
	SessionsClosedTotal prometheus.Counter
	FieldUpdatesTotal   *prometheus.CounterVec

	// Validation metrics
	ValidationFailuresTotal *prometheus.CounterVec

	// Report generation metrics
	GenerationsTotal    *prometheus.CounterVec
	GenerationDuration  prometheus.Histogram
	SubmitsDroppedTotal prometheus.Counter

	// Catalog metrics
	CatalogLoadsTotal *prometheus.CounterVec

	// Backend invocation metrics
	BackendRequestsTotal       *prometheus.CounterVec
	BackendRequestDuration     *prometheus.HistogramVec
	BackendCircuitBreakerState *prometheus.GaugeVec
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ventas_bff_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ventas_bff_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPRequestSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ventas_bff_http_request_size_bytes",
			Help:    "HTTP request body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ventas_bff_http_response_size_bytes",
			Help:    "HTTP response body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),

		// Sessions
		SessionsOpenedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ventas_bff_filter_sessions_opened_total",
			Help: "Total number of filter sessions opened.",
		}),
		SessionsClosedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ventas_bff_filter_sessions_closed_total",
			Help: "Total number of filter sessions closed.",
		}),
		FieldUpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ventas_bff_filter_field_updates_total",
			Help: "Total number of draft field updates.",
		}, []string{"field"}),

		// Validation
		ValidationFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ventas_bff_filter_validation_failures_total",
			Help: "Total number of filter validation failures by rule.",
		}, []string{"rule"}),

		// Report generation
		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ventas_bff_report_generations_total",
			Help: "Total number of report generation attempts by outcome.",
		}, []string{"outcome"}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ventas_bff_report_generation_duration_seconds",
			Help:    "Report generation duration in seconds.",
			Buckets: backendDurationBuckets,
		}),
		SubmitsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ventas_bff_report_submits_dropped_total",
			Help: "Total number of submit events dropped while a generation was in flight.",
		}),

		// Catalogs
		CatalogLoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ventas_bff_catalog_loads_total",
			Help: "Total number of catalog fetches by catalog and status.",
		}, []string{"catalog", "status"}),

		// Backend
		BackendRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ventas_bff_backend_requests_total",
			Help: "Total number of backend service requests.",
		}, []string{"service_id", "status"}),
		BackendRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ventas_bff_backend_request_duration_seconds",
			Help:    "Backend request duration in seconds.",
			Buckets: backendDurationBuckets,
		}, []string{"service_id"}),
		BackendCircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ventas_bff_backend_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"service_id"}),
	}

	reg.MustRegister(
		// HTTP
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSizeBytes,
		m.HTTPResponseSizeBytes,
		// Sessions
		m.SessionsOpenedTotal,
		m.SessionsClosedTotal,
		m.FieldUpdatesTotal,
		// Validation
		m.ValidationFailuresTotal,
		// Report generation
		m.GenerationsTotal,
		m.GenerationDuration,
		m.SubmitsDroppedTotal,
		// Catalogs
		m.CatalogLoadsTotal,
		// Backend
		m.BackendRequestsTotal,
		m.BackendRequestDuration,
		m.BackendCircuitBreakerState,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration, reqSize, respSize int) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
	m.HTTPRequestSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(reqSize))
	m.HTTPResponseSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(respSize))
}

// RecordSessionOpened records a filter session open.
func (m *Metrics) RecordSessionOpened() {
	m.SessionsOpenedTotal.Inc()
}

// RecordSessionClosed records a filter session close.
func (m *Metrics) RecordSessionClosed() {
	m.SessionsClosedTotal.Inc()
}

// RecordFieldUpdate records a draft field update.
func (m *Metrics) RecordFieldUpdate(field string) {
	m.FieldUpdatesTotal.WithLabelValues(field).Inc()
}

// RecordValidationFailure records a failed validation rule.
func (m *Metrics) RecordValidationFailure(rule string) {
	m.ValidationFailuresTotal.WithLabelValues(rule).Inc()
}

// RecordGeneration records a report generation attempt.
func (m *Metrics) RecordGeneration(outcome string, duration time.Duration) {
	m.GenerationsTotal.WithLabelValues(outcome).Inc()
	m.GenerationDuration.Observe(duration.Seconds())
}

// RecordSubmitDropped records a submit dropped by the in-flight guard.
func (m *Metrics) RecordSubmitDropped() {
	m.SubmitsDroppedTotal.Inc()
}

// RecordCatalogLoad records one catalog fetch.
func (m *Metrics) RecordCatalogLoad(catalog, status string) {
	m.CatalogLoadsTotal.WithLabelValues(catalog, status).Inc()
}

// RecordBackendRequest records a backend service request.
func (m *Metrics) RecordBackendRequest(serviceID string, status int, duration time.Duration) {
	m.BackendRequestsTotal.WithLabelValues(serviceID, strconv.Itoa(status)).Inc()
	m.BackendRequestDuration.WithLabelValues(serviceID).Observe(duration.Seconds())
}

// SetBackendCircuitBreakerState sets the circuit breaker state for a service.
// State: 0=closed, 1=half-open, 2=open.
func (m *Metrics) SetBackendCircuitBreakerState(serviceID string, state float64) {
	m.BackendCircuitBreakerState.WithLabelValues(serviceID).Set(state)
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		pathPattern := routePattern(r)
		reqSize := 0
		if r.ContentLength > 0 {
			reqSize = int(r.ContentLength)
		}

		m.RecordHTTPRequest(r.Method, pathPattern, sw.status, duration, reqSize, sw.bytes)
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture status and bytes.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
