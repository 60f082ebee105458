package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestInitializeMetricsDoesNotPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("InitializeMetrics panicked: %v", r)
		}
	}()
	InitializeMetrics()
}

func TestMetricsAreRegistered(t *testing.T) {
	// Incrementing a couple of representative metrics must not panic and the
	// values must be observable through the default gatherer.
	PipelineRunsTotal.WithLabelValues("completed").Inc()
	ImageCacheHits.WithLabelValues("thumbnail").Inc()
	MemoryUsageRatio.Set(0.5)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}

	for _, name := range []string{
		"album_engine_pipeline_runs_total",
		"album_engine_image_cache_hits_total",
		"album_engine_memory_usage_ratio",
	} {
		if !found[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc123", "go1.25")

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	for _, f := range families {
		if f.GetName() == "album_engine_app_info" {
			if len(f.GetMetric()) == 0 {
				t.Error("app info metric has no series")
			}
			return
		}
	}
	t.Error("app info metric not found")
}
