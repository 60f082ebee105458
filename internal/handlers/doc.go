// Package handlers provides HTTP request handlers for the album engine API.
//
// It includes handlers for:
//   - Album listing, featured selection, and deletion
//   - Pipeline control (generate, refresh, cancel) and state reporting
//   - Image delivery through the tiered image caches
//   - Health checks, version, and Prometheus metrics
package handlers
