package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyjia/media-collect/internal/application/dispatcher"
	"github.com/garyjia/media-collect/internal/domain/event"
)

// Metrics holds the service's Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	reviewsTotal     *prometheus.CounterVec
	assignmentsTotal prometheus.Counter
	eventsTotal      *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
}

// New registers every collector under namespace
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "endpoint"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		reviewsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submission_reviews_total",
				Help:      "Submission reviews by resulting status",
			},
			[]string{"status", "re_review"},
		),
		assignmentsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_assignments_added_total",
				Help:      "Collector links newly added to tasks",
			},
		),
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "domain_events_total",
				Help:      "Domain events dispatched by type",
			},
			[]string{"type"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_cache_lookups_total",
				Help:      "Query cache lookups by key namespace and result",
			},
			[]string{"namespace", "result"},
		),
	}
}

// Registry exposes the registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware collects request metrics labeled by route pattern
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.httpRequestsInFlight.Inc()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		c.Next()

		m.httpRequestsInFlight.Dec()
		status := strconv.Itoa(c.Writer.Status())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// CacheHit records a query cache hit
func (m *Metrics) CacheHit(namespace string) {
	m.cacheLookups.WithLabelValues(namespace, "hit").Inc()
}

// CacheMiss records a query cache miss
func (m *Metrics) CacheMiss(namespace string) {
	m.cacheLookups.WithLabelValues(namespace, "miss").Inc()
}

// HandleEvent counts domain events and review outcomes
func (m *Metrics) HandleEvent(ctx context.Context, evt *event.Event) error {
	m.eventsTotal.WithLabelValues(evt.Type.String()).Inc()

	switch evt.Type {
	case event.TypeSubmissionReviewed:
		m.reviewsTotal.WithLabelValues(
			evt.GetPayloadString(event.KeyStatus),
			strconv.FormatBool(evt.GetPayloadBool(event.KeyReReview)),
		).Inc()
	case event.TypeTaskAssigned:
		m.assignmentsTotal.Add(float64(evt.GetPayloadInt(event.KeyAdded)))
	}
	return nil
}

// Subscribe registers the event counter as a sync handler on every event type
func (m *Metrics) Subscribe(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypeTaskCreated,
		event.TypeTaskUpdated,
		event.TypeTaskAssigned,
		event.TypeCollectorRegistered,
		event.TypeSubmissionReviewed,
		event.TypeUserRegistered,
	} {
		d.SubscribeNamed(t, "metrics", m.HandleEvent)
	}
}
