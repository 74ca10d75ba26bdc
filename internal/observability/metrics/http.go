package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics is the api binary's registry: HTTP surface counters plus
// the verification pipeline observations.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	sessionsStartedTotal    *prometheus.CounterVec
	stageTotal              *prometheus.CounterVec
	stageDuration           *prometheus.HistogramVec
	validationFailuresTotal *prometheus.CounterVec
	decisionsTotal          *prometheus.CounterVec
	riskScore               *prometheus.HistogramVec
	faceScore               *prometheus.HistogramVec
	blurScore               *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kyc",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kyc",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kyc",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	sessionsStartedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kyc",
			Subsystem: "pipeline",
			Name:      "sessions_started_total",
			Help:      "Total verification sessions created.",
		},
		[]string{"service"},
	)
	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kyc",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Total pipeline stage executions by outcome.",
		},
		[]string{"service", "stage", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kyc",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage"},
	)
	validationFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kyc",
			Subsystem: "pipeline",
			Name:      "validation_failures_total",
			Help:      "Total user-fixable validation rejections by stage.",
		},
		[]string{"service", "stage"},
	)
	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kyc",
			Subsystem: "pipeline",
			Name:      "decisions_total",
			Help:      "Total rendered decisions by outcome.",
		},
		[]string{"service", "outcome"},
	)
	riskScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kyc",
			Subsystem: "pipeline",
			Name:      "risk_score",
			Help:      "Distribution of risk scores on decided sessions.",
			Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"service", "source"},
	)
	faceScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kyc",
			Subsystem: "pipeline",
			Name:      "face_score",
			Help:      "Distribution of face similarity scores on decided sessions.",
			Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"service"},
	)
	blurScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kyc",
			Subsystem: "pipeline",
			Name:      "document_blur_score",
			Help:      "Distribution of document blur scores after normalization.",
			Buckets:   []float64{10, 25, 50, 60, 100, 150, 200, 300, 500, 1000},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		sessionsStartedTotal,
		stageTotal,
		stageDuration,
		validationFailuresTotal,
		decisionsTotal,
		riskScore,
		faceScore,
		blurScore,
	)

	return &HTTPServerMetrics{
		registry:                registry,
		requestTotal:            requestTotal,
		requestDuration:         requestDuration,
		requestInFlight:         requestInFlight,
		sessionsStartedTotal:    sessionsStartedTotal,
		stageTotal:              stageTotal,
		stageDuration:           stageDuration,
		validationFailuresTotal: validationFailuresTotal,
		decisionsTotal:          decisionsTotal,
		riskScore:               riskScore,
		faceScore:               faceScore,
		blurScore:               blurScore,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses session ids so the path label stays low-cardinality.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/v1/sessions/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/v1/sessions/")
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		return "/v1/sessions/{session_id}" + rest[idx:]
	}
	return "/v1/sessions/{session_id}"
}

func (m *HTTPServerMetrics) RecordSessionStarted(service string) {
	m.sessionsStartedTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordStage(service, stage, status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.stageTotal.WithLabelValues(service, stage, status).Inc()
	m.stageDuration.WithLabelValues(service, stage).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordValidationFailure(service, stage string) {
	m.validationFailuresTotal.WithLabelValues(service, stage).Inc()
}

func (m *HTTPServerMetrics) RecordDecision(service, outcome, riskSource string, riskScore, faceScore float64) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.decisionsTotal.WithLabelValues(service, outcome).Inc()
	m.riskScore.WithLabelValues(service, riskSource).Observe(riskScore)
	m.faceScore.WithLabelValues(service).Observe(faceScore)
}

func (m *HTTPServerMetrics) RecordBlurScore(service string, blur float64) {
	m.blurScore.WithLabelValues(service).Observe(blur)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
