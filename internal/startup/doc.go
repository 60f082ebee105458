// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - LIBRARY_DIR: Path to the photo library root (default: /library)
//   - DATA_DIR: Path to the data directory holding the album database (default: /data)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - POLL_INTERVAL: Library change detection interval as Go duration (default: 30s)
//   - CLASSIFIER_URL: Remote classifier endpoint; empty disables remote
//     classification and every cluster is tagged heuristically
//   - CLASSIFIER_TIMEOUT: Per-call classifier timeout as Go duration (default: 10s)
//   - PLACES_FILE: JSON file with named places for reverse geocoding;
//     empty disables location tags and location-based titles
//   - MEMORY_LIMIT_BYTES: Soft memory limit for the pressure monitor
//     (default: 0, meaning GOMEMLIMIT or unlimited)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: false)
//   - LOG_LEVEL: Logging verbosity (see the logging package)
//
// Build information (version, commit, build time) is injected at build
// time via -ldflags and exposed through [GetBuildInfo].
package startup
