package handlers

import (
	"net/http"
	"runtime"
	"time"

	"album-engine/internal/logging"
	"album-engine/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	Generating bool   `json:"generating"`
	CacheValid bool   `json:"cacheValid"`
	LastUpdate string `json:"lastUpdate,omitempty"`

	AlbumCount int `json:"albumCount"`
	AssetCount int `json:"assetCount"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	cacheState := h.tracker.State()

	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Generating:   h.scheduler.IsGenerating(),
		CacheValid:   cacheState.IsValid,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if !cacheState.LastUpdate.IsZero() {
		response.LastUpdate = cacheState.LastUpdate.Format(time.RFC3339)
	}

	if count, err := h.store.Count(r.Context()); err == nil {
		response.AlbumCount = count
	} else {
		logging.Warn("health check: album count failed: %v", err)
		response.Status = statusDegraded
	}

	if count, err := h.library.Count(r.Context()); err == nil {
		response.AssetCount = count
	} else {
		logging.Warn("health check: asset count failed: %v", err)
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once the database is reachable
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := h.store.Count(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{
		"status": "ready",
	})
}
