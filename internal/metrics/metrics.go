package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_engine_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "album_engine_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "album_engine_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Pipeline metrics
var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_engine_pipeline_runs_total",
			Help: "Total number of pipeline runs by terminal state",
		},
		[]string{"state"}, // "completed", "cancelled", "failed"
	)

	PipelineIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "album_engine_pipeline_running",
			Help: "Whether a pipeline run is in progress (1 = running, 0 = idle)",
		},
	)

	PipelineProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "album_engine_pipeline_progress_ratio",
			Help: "Progress of the current pipeline run (0.0-1.0)",
		},
	)

	PipelineBatchSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "album_engine_pipeline_batch_size",
			Help: "Current batch size used by the scheduler",
		},
	)

	PipelineBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_engine_pipeline_batches_total",
			Help: "Total number of batches processed",
		},
		[]string{"status"}, // "saved", "failed"
	)

	PipelineLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "album_engine_pipeline_last_run_duration_seconds",
			Help: "Duration of the last pipeline run in seconds",
		},
	)

	PipelineLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "album_engine_pipeline_last_run_timestamp",
			Help: "Unix timestamp of the last completed pipeline run",
		},
	)

	AlbumsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "album_engine_albums_generated_total",
			Help: "Total number of smart albums generated",
		},
	)
)

// Clustering metrics
var (
	ClustersEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "album_engine_clusters_emitted_total",
			Help: "Total number of valid clusters emitted",
		},
	)

	ClustersDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_engine_clusters_discarded_total",
			Help: "Total number of clusters discarded by validity check",
		},
		[]string{"reason"}, // "too_small", "too_short"
	)
)

// Classification metrics
var (
	ClassifyCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_engine_classify_calls_total",
			Help: "Total number of classifier calls",
		},
		[]string{"status"}, // "ok", "failed", "sentinel"
	)

	ClassifyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "album_engine_classify_duration_seconds",
			Help:    "Duration of a single classifier call in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	HeuristicFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "album_engine_heuristic_fallbacks_total",
			Help: "Total number of clusters tagged by the heuristic fallback",
		},
	)

	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_engine_geocode_lookups_total",
			Help: "Total number of reverse geocode lookups",
		},
		[]string{"status"}, // "ok", "timeout", "error", "cached"
	)
)

// Store metrics
var (
	StoreQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_engine_store_queries_total",
			Help: "Total number of album store queries",
		},
		[]string{"operation", "status"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "album_engine_store_query_duration_seconds",
			Help:    "Album store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	StoreTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "album_engine_store_transaction_duration_seconds",
			Help:    "Album store transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"type"}, // "commit", "rollback"
	)

	StoreAlbumsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "album_engine_store_albums_total",
			Help: "Number of albums currently persisted",
		},
	)
)

// Cache validity metrics
var (
	CacheValidityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_engine_cache_validity_checks_total",
			Help: "Total number of cache validity checks",
		},
		[]string{"result"}, // "valid", "stale_hash", "expired", "empty"
	)
)

// Image cache metrics
var (
	ImageCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_engine_image_cache_hits_total",
			Help: "Total number of image cache hits",
		},
		[]string{"tier"}, // "thumbnail", "highquality"
	)

	ImageCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_engine_image_cache_misses_total",
			Help: "Total number of image cache misses",
		},
		[]string{"tier"},
	)

	ImageCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_engine_image_cache_evictions_total",
			Help: "Total number of image cache evictions",
		},
		[]string{"tier"},
	)

	ImageCacheCancellations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_engine_image_cache_cancellations_total",
			Help: "Total number of superseded in-flight image requests",
		},
		[]string{"tier"},
	)

	ImageCacheSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "album_engine_image_cache_size_bytes",
			Help: "Total cost of cached decoded images in bytes",
		},
		[]string{"tier"},
	)

	ImageCacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "album_engine_image_cache_entries",
			Help: "Number of entries in the image cache",
		},
		[]string{"tier"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "album_engine_memory_usage_ratio",
			Help: "Current memory usage as a ratio of the configured limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "album_engine_memory_paused",
			Help: "Whether processing is paused due to memory pressure (1 = paused)",
		},
	)

	MemoryPressureSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_engine_memory_pressure_signals_total",
			Help: "Total number of memory pressure signals delivered",
		},
		[]string{"source"}, // "monitor", "os"
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "album_engine_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
