// Package metrics defines all Prometheus metrics exported by the engine.
// Metrics are registered at package init time via promauto; call
// InitializeMetrics once at startup to pre-populate label combinations so
// dashboards see zero-valued series before the first event.
package metrics
