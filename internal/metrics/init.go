package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, state := range []string{"completed", "cancelled", "failed"} {
		PipelineRunsTotal.WithLabelValues(state)
	}

	for _, status := range []string{"saved", "failed"} {
		PipelineBatchesTotal.WithLabelValues(status)
	}

	for _, reason := range []string{"too_small", "too_short"} {
		ClustersDiscarded.WithLabelValues(reason)
	}

	for _, status := range []string{"ok", "failed", "sentinel"} {
		ClassifyCallsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"ok", "timeout", "error", "cached"} {
		GeocodeLookups.WithLabelValues(status)
	}

	storeOps := []string{"replace_all", "append_batch", "all", "featured",
		"delete", "count", "get_meta", "set_meta"}
	for _, op := range storeOps {
		StoreQueryTotal.WithLabelValues(op, "success")
		StoreQueryTotal.WithLabelValues(op, "error")
		StoreQueryDuration.WithLabelValues(op)
	}

	for _, t := range []string{"commit", "rollback"} {
		StoreTransactionDuration.WithLabelValues(t)
	}

	for _, result := range []string{"valid", "stale_hash", "expired", "empty"} {
		CacheValidityChecks.WithLabelValues(result)
	}

	for _, tier := range []string{"thumbnail", "highquality"} {
		ImageCacheHits.WithLabelValues(tier)
		ImageCacheMisses.WithLabelValues(tier)
		ImageCacheEvictions.WithLabelValues(tier)
		ImageCacheCancellations.WithLabelValues(tier)
		ImageCacheSizeBytes.WithLabelValues(tier)
		ImageCacheEntries.WithLabelValues(tier)
	}

	for _, source := range []string{"monitor", "os"} {
		MemoryPressureSignals.WithLabelValues(source)
	}
}
