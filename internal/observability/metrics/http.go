package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics holds the API registry: request-level families plus the
// resolution families recorded after each answered query.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	resolutionTotal      *prometheus.CounterVec
	resolutionConfidence *prometheus.HistogramVec
	resolutionDuration   *prometheus.HistogramVec
	topicsScored         *prometheus.HistogramVec
	degradedVerdicts     *prometheus.CounterVec
	skippedTopics        *prometheus.CounterVec
	catalogTopics        prometheus.Gauge
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdesk",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdesk",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docdesk",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	resolutionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdesk",
			Subsystem: "resolution",
			Name:      "requests_total",
			Help:      "Total answered queries by resolution source.",
		},
		[]string{"service", "source"},
	)
	resolutionConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdesk",
			Subsystem: "resolution",
			Name:      "confidence",
			Help:      "Winning verdict confidence per answered query.",
			Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"service", "source"},
	)
	resolutionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdesk",
			Subsystem: "resolution",
			Name:      "duration_seconds",
			Help:      "End-to-end answer duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "source"},
	)
	topicsScored := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdesk",
			Subsystem: "resolution",
			Name:      "topics_scored",
			Help:      "Distribution of oracle-scored topics per query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service"},
	)
	degradedVerdicts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdesk",
			Subsystem: "resolution",
			Name:      "degraded_verdicts_total",
			Help:      "Total oracle verdicts degraded to the zero verdict.",
		},
		[]string{"service"},
	)
	skippedTopics := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdesk",
			Subsystem: "resolution",
			Name:      "skipped_topics_total",
			Help:      "Total topics skipped for missing or unfetchable content.",
		},
		[]string{"service"},
	)
	catalogTopics := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docdesk",
			Subsystem: "catalog",
			Name:      "topics",
			Help:      "Number of topics loaded into the catalog.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		resolutionTotal,
		resolutionConfidence,
		resolutionDuration,
		topicsScored,
		degradedVerdicts,
		skippedTopics,
		catalogTopics,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		resolutionTotal:      resolutionTotal,
		resolutionConfidence: resolutionConfidence,
		resolutionDuration:   resolutionDuration,
		topicsScored:         topicsScored,
		degradedVerdicts:     degradedVerdicts,
		skippedTopics:        skippedTopics,
		catalogTopics:        catalogTopics,
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

// normalizePath keeps label cardinality bounded: anything outside the known
// route set is folded into one bucket.
func normalizePath(path string) string {
	switch path {
	case "/", "/healthz", "/metrics", "/api/chat", "/api/topics":
		return path
	default:
		return "other"
	}
}

// ResolutionObservation carries the per-query facts recorded after the
// handler produced an answer.
type ResolutionObservation struct {
	Source       string
	Confidence   int
	TopicsScored int
	Degraded     int
	Skipped      int
	Duration     time.Duration
}

func (m *HTTPServerMetrics) RecordResolution(service string, obs ResolutionObservation) {
	source := obs.Source
	if source == "" {
		source = "unknown"
	}

	m.resolutionTotal.WithLabelValues(service, source).Inc()
	m.resolutionConfidence.WithLabelValues(service, source).Observe(float64(obs.Confidence))
	m.resolutionDuration.WithLabelValues(service, source).Observe(obs.Duration.Seconds())
	m.topicsScored.WithLabelValues(service).Observe(float64(obs.TopicsScored))
	if obs.Degraded > 0 {
		m.degradedVerdicts.WithLabelValues(service).Add(float64(obs.Degraded))
	}
	if obs.Skipped > 0 {
		m.skippedTopics.WithLabelValues(service).Add(float64(obs.Skipped))
	}
}

func (m *HTTPServerMetrics) SetCatalogTopics(count int) {
	m.catalogTopics.Set(float64(count))
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
