package observability

import (
	"time"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the portal API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	reportsGenerated prometheus.Counter
	feedEvents       *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
		reportsGenerated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_reports_generated_total",
				Help: "Total sales reports generated.",
			},
		),
		feedEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_feed_events_total",
				Help: "Total change-feed events applied.",
			},
			[]string{"type"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// IncrReportGenerated increments the generated reports counter.
func (m *Metrics) IncrReportGenerated() {
	m.reportsGenerated.Inc()
}

// IncrFeedEvent increments the applied feed event counter.
func (m *Metrics) IncrFeedEvent(eventType string) {
	m.feedEvents.WithLabelValues(eventType).Inc()
}

// GetPortalSnapshot returns a snapshot of portal metrics suitable for
// the GET /v1/metrics/portal endpoint.
func (m *Metrics) GetPortalSnapshot() *domain.PortalMetrics {
	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "leads") + getCounterValue(m.cacheHits, "employees")
	cacheMisses := getCounterValue(m.cacheMisses, "leads") + getCounterValue(m.cacheMisses, "employees")

	errorRate := float64(0)
	cacheHitRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	feedTotal := getCounterValue(m.feedEvents, string(domain.ChangeInsert)) +
		getCounterValue(m.feedEvents, string(domain.ChangeUpdate)) +
		getCounterValue(m.feedEvents, string(domain.ChangeDelete))

	return &domain.PortalMetrics{
		TotalRequests:    int64(totalRequests),
		ErrorRate:        errorRate,
		CacheHitRate:     cacheHitRate,
		ReportsGenerated: int64(counterValue(m.reportsGenerated)),
		FeedEvents:       int64(feedTotal),
		Period:           "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
