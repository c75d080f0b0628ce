package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Canvas metrics
	Mutations       *prometheus.CounterVec
	ElementsAdded   prometheus.Counter
	ElementsDeleted prometheus.Counter

	// Ingestion metrics
	IngestionJobs     *prometheus.CounterVec
	IngestionDuration prometheus.Histogram
	ScrapeCacheHits   prometheus.Counter

	// Persistence metrics
	Saves *prometheus.CounterVec
}

// NewCollector creates a metrics collector with its own registry, so tests
// can instantiate collectors without duplicate-registration panics
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "canvas_mutations_total",
				Help:      "Total number of canvas store mutations by event type",
			},
			[]string{"event"},
		),
		ElementsAdded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "elements_added_total",
				Help:      "Total number of elements added to canvases",
			},
		),
		ElementsDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "elements_deleted_total",
				Help:      "Total number of elements deleted from canvases",
			},
		),
		IngestionJobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingestion_jobs_total",
				Help:      "Total number of ingestion jobs by terminal outcome",
			},
			[]string{"outcome"},
		),
		IngestionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ingestion_job_duration_seconds",
				Help:      "Ingestion job duration from start to terminal status",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		ScrapeCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scrape_cache_hits_total",
				Help:      "Total number of scrape requests answered from cache",
			},
		),
		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "canvas_saves_total",
				Help:      "Total number of canvas save attempts by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Mutations,
		c.ElementsAdded,
		c.ElementsDeleted,
		c.IngestionJobs,
		c.IngestionDuration,
		c.ScrapeCacheHits,
		c.Saves,
	)

	return c
}

// Registry returns the collector's registry for the /metrics endpoint
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
