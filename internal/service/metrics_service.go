package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	reviewTotal     *prometheus.CounterVec
	stageTotal      *prometheus.CounterVec
	roundTotal      prometheus.Counter
	submissionTotal prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	reviewTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evidence_reviews_total",
		Help: "Total evidence review decisions by outcome",
	}, []string{"decision"})

	stageTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stage_completions_total",
		Help: "Total stage completions by stage",
	}, []string{"stage"})

	roundTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "round_completions_total",
		Help: "Total completed rounds across all schools",
	})

	submissionTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "evidence_submissions_total",
		Help: "Total evidence submissions accepted",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, reviewTotal, stageTotal, roundTotal, submissionTotal, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		reviewTotal:     reviewTotal,
		stageTotal:      stageTotal,
		roundTotal:      roundTotal,
		submissionTotal: submissionTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// IncReview counts a review decision.
func (m *MetricsService) IncReview(decision string) {
	if m == nil {
		return
	}
	m.reviewTotal.WithLabelValues(decision).Inc()
}

// IncStageComplete counts a stage completion.
func (m *MetricsService) IncStageComplete(stage string) {
	if m == nil {
		return
	}
	m.stageTotal.WithLabelValues(stage).Inc()
}

// IncRoundComplete counts a completed round.
func (m *MetricsService) IncRoundComplete() {
	if m == nil {
		return
	}
	m.roundTotal.Inc()
}

// IncSubmission counts an accepted evidence submission.
func (m *MetricsService) IncSubmission() {
	if m == nil {
		return
	}
	m.submissionTotal.Inc()
}
