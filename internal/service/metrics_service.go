package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is the JSON summary served next to the Prometheus endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	Published                uint64    `json:"circulars_published"`
	Edited                   uint64    `json:"circulars_edited"`
	Acknowledged             uint64    `json:"circulars_acknowledged"`
	ValidationFailures       uint64    `json:"validation_failures"`
	BoardSessions            int64     `json:"board_sessions_active"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// MetricsService owns the Prometheus registry for HTTP, cache, store and board metrics.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	storeDuration   *prometheus.HistogramVec
	published       prometheus.Counter
	edited          prometheus.Counter
	acknowledged    prometheus.Counter
	validationFails prometheus.Counter
	boardSessions   prometheus.Gauge
	jobResults      *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	publishedCount       uint64
	editedCount          uint64
	acknowledgedCount    uint64
	validationFailCount  uint64
	boardSessionCount    int64
}

// NewMetricsService registers the collectors on a private registry.
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
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "circular_store_duration_seconds",
		Help:    "Duration of record store calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "circulars_published_total",
		Help: "Communications published",
	})

	edited := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "circulars_edited_total",
		Help: "Committed communication edits",
	})

	acknowledged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "circulars_acknowledged_total",
		Help: "Recorded acknowledgements, repeats excluded",
	})

	validationFails := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "circulars_validation_failures_total",
		Help: "Drafts rejected by validation",
	})

	boardSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "board_sessions_active",
		Help: "Open board sessions",
	})

	jobResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "background_jobs_total",
		Help: "Background jobs by type and outcome",
	}, []string{"type", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		storeDuration, published, edited, acknowledged, validationFails, boardSessions, jobResults, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		storeDuration:   storeDuration,
		published:       published,
		edited:          edited,
		acknowledged:    acknowledged,
		validationFails: validationFails,
		boardSessions:   boardSessions,
		jobResults:      jobResults,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveStoreCall records how long a record store call took and whether it failed.
func (m *MetricsService) ObserveStoreCall(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.storeDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// CircularPublished increments the publish counter.
func (m *MetricsService) CircularPublished() {
	if m == nil {
		return
	}
	m.published.Inc()
	atomic.AddUint64(&m.publishedCount, 1)
}

// CircularEdited increments the edit counter.
func (m *MetricsService) CircularEdited() {
	if m == nil {
		return
	}
	m.edited.Inc()
	atomic.AddUint64(&m.editedCount, 1)
}

// CircularAcknowledged increments the acknowledgement counter.
func (m *MetricsService) CircularAcknowledged() {
	if m == nil {
		return
	}
	m.acknowledged.Inc()
	atomic.AddUint64(&m.acknowledgedCount, 1)
}

// ValidationFailed increments the rejected-draft counter.
func (m *MetricsService) ValidationFailed() {
	if m == nil {
		return
	}
	m.validationFails.Inc()
	atomic.AddUint64(&m.validationFailCount, 1)
}

// BoardSessionOpened and BoardSessionClosed keep the active session gauge current.
func (m *MetricsService) BoardSessionOpened() {
	if m == nil {
		return
	}
	m.boardSessions.Set(float64(atomic.AddInt64(&m.boardSessionCount, 1)))
}

func (m *MetricsService) BoardSessionClosed() {
	if m == nil {
		return
	}
	m.boardSessions.Set(float64(atomic.AddInt64(&m.boardSessionCount, -1)))
}

// ObserveJob counts a finished background job.
func (m *MetricsService) ObserveJob(jobType string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.jobResults.WithLabelValues(jobType, outcome).Inc()
}

// Snapshot returns aggregated counters for the JSON metrics summary.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if lookups := hits + misses; lookups > 0 {
		cacheRatio = float64(hits) / float64(lookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		Published:                atomic.LoadUint64(&m.publishedCount),
		Edited:                   atomic.LoadUint64(&m.editedCount),
		Acknowledged:             atomic.LoadUint64(&m.acknowledgedCount),
		ValidationFailures:       atomic.LoadUint64(&m.validationFailCount),
		BoardSessions:            atomic.LoadInt64(&m.boardSessionCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
