package service

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the scoring
// engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	recalcDuration  prometheus.Observer
	recalcInFlight  prometheus.Gauge
	recalcTotal     *prometheus.CounterVec
	ingestTotal     *prometheus.CounterVec
	jobsFailed      prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "score_cache_latency_seconds",
		Help:    "Latency for score cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "score_cache_hits_total",
		Help: "Total score cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "score_cache_misses_total",
		Help: "Total score cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of event store queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	recalcDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "score_recalc_duration_seconds",
		Help:    "Duration of tutor score recalculations",
		Buckets: prometheus.DefBuckets,
	})

	recalcInFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "score_recalc_in_flight",
		Help: "Number of recalculations currently running",
	})

	recalcTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "score_recalc_total",
		Help: "Total recalculations by outcome",
	}, []string{"outcome"})

	ingestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_ingest_total",
		Help: "Total ingested session payloads by result",
	}, []string{"result"})

	jobsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_jobs_failed_total",
		Help: "Ingestion jobs that exhausted their retries",
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses,
		dbQueryDuration, recalcDuration, recalcInFlight, recalcTotal, ingestTotal, jobsFailed)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		recalcDuration:  recalcDuration,
		recalcInFlight:  recalcInFlight,
		recalcTotal:     recalcTotal,
		ingestTotal:     ingestTotal,
		jobsFailed:      jobsFailed,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return s.handler
}

// ObserveHTTPRequest records a completed HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	code := strconv.Itoa(status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
}

// RecordCacheOperation tallies a cache lookup.
func (s *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if s == nil {
		return
	}
	s.cacheLatency.Observe(duration.Seconds())
	if hit {
		s.cacheHits.Inc()
		atomic.AddUint64(&s.cacheHitCount, 1)
	} else {
		s.cacheMisses.Inc()
		atomic.AddUint64(&s.cacheMissCount, 1)
	}
}

// ObserveDBQuery records an event store query duration.
func (s *MetricsService) ObserveDBQuery(name string, duration time.Duration) {
	if s == nil {
		return
	}
	s.dbQueryDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// RecalcStarted marks a recalculation as in flight.
func (s *MetricsService) RecalcStarted() {
	if s == nil {
		return
	}
	s.recalcInFlight.Inc()
}

// RecalcFinished records a recalculation outcome.
func (s *MetricsService) RecalcFinished(outcome string, duration time.Duration) {
	if s == nil {
		return
	}
	s.recalcInFlight.Dec()
	s.recalcDuration.Observe(duration.Seconds())
	s.recalcTotal.WithLabelValues(outcome).Inc()
}

// RecordIngest tallies an ingestion result (accepted, duplicate, invalid).
func (s *MetricsService) RecordIngest(result string) {
	if s == nil {
		return
	}
	s.ingestTotal.WithLabelValues(result).Inc()
}

// RecordJobFailure counts an ingestion job that exhausted its retries.
func (s *MetricsService) RecordJobFailure() {
	if s == nil {
		return
	}
	s.jobsFailed.Inc()
}

// CacheHitRatio returns the observed hit ratio for quick health inspection.
func (s *MetricsService) CacheHitRatio() float64 {
	if s == nil {
		return 0
	}
	hits := atomic.LoadUint64(&s.cacheHitCount)
	misses := atomic.LoadUint64(&s.cacheMissCount)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
