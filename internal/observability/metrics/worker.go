package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics holds the analytics worker registry: consumed resolution
// events plus the lag between event creation and processing start.
type WorkerMetrics struct {
	registry *prometheus.Registry

	eventsTotal      *prometheus.CounterVec
	eventConfidence  *prometheus.HistogramVec
	eventFailures    *prometheus.CounterVec
	degradedVerdicts *prometheus.CounterVec
	queueLag         *prometheus.HistogramVec
	eventsInFlight   prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdesk",
			Subsystem: "worker",
			Name:      "events_total",
			Help:      "Total resolution events consumed by resolution source.",
		},
		[]string{"service", "source"},
	)
	eventConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdesk",
			Subsystem: "worker",
			Name:      "event_confidence",
			Help:      "Winning confidence carried by consumed resolution events.",
			Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"service", "source"},
	)
	eventFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdesk",
			Subsystem: "worker",
			Name:      "event_failures_total",
			Help:      "Total resolution events that failed processing.",
		},
		[]string{"service", "reason"},
	)
	degradedVerdicts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdesk",
			Subsystem: "worker",
			Name:      "degraded_verdicts_total",
			Help:      "Total degraded oracle verdicts reported by consumed events.",
		},
		[]string{"service"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdesk",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between event creation and processing start.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"service"},
	)
	eventsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docdesk",
			Subsystem: "worker",
			Name:      "events_in_flight",
			Help:      "Number of resolution events currently being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		eventsTotal,
		eventConfidence,
		eventFailures,
		degradedVerdicts,
		queueLag,
		eventsInFlight,
	)

	return &WorkerMetrics{
		registry:         registry,
		eventsTotal:      eventsTotal,
		eventConfidence:  eventConfidence,
		eventFailures:    eventFailures,
		degradedVerdicts: degradedVerdicts,
		queueLag:         queueLag,
		eventsInFlight:   eventsInFlight,
	}
}

func (m *WorkerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartEvent() {
	m.eventsInFlight.Inc()
}

func (m *WorkerMetrics) FinishEvent() {
	m.eventsInFlight.Dec()
}

func (m *WorkerMetrics) RecordEvent(service, source string, confidence int) {
	if source == "" {
		source = "unknown"
	}
	m.eventsTotal.WithLabelValues(service, source).Inc()
	m.eventConfidence.WithLabelValues(service, source).Observe(float64(confidence))
}

func (m *WorkerMetrics) RecordFailure(service, reason string) {
	m.eventFailures.WithLabelValues(service, reason).Inc()
}

func (m *WorkerMetrics) AddDegradedVerdicts(service string, count int) {
	if count <= 0 {
		return
	}
	m.degradedVerdicts.WithLabelValues(service).Add(float64(count))
}

// ObserveQueueLag records how long the event sat on the subject before a
// worker picked it up. A created-at in the future clamps to zero.
func (m *WorkerMetrics) ObserveQueueLag(service string, createdAt time.Time) {
	if createdAt.IsZero() {
		return
	}
	lag := time.Since(createdAt)
	if lag < 0 {
		lag = 0
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
