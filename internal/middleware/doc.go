// Package middleware provides HTTP middleware for the album engine API.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with bounded label cardinality
//   - Configurable filtering for health check endpoints
package middleware
