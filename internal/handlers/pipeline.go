package handlers

import (
	"net/http"
	"strconv"

	"album-engine/internal/cachestate"
	"album-engine/internal/scheduler"
)

// StateResponse is the combined pipeline and cache state snapshot.
type StateResponse struct {
	IsGenerating bool             `json:"isGenerating"`
	Pipeline     scheduler.Event  `json:"pipeline"`
	Cache        cachestate.State `json:"cache"`
}

// GetState reports the current pipeline and cache-validity state. It
// never triggers generation.
func (h *Handlers) GetState(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, StateResponse{
		IsGenerating: h.scheduler.IsGenerating(),
		Pipeline:     h.scheduler.Snapshot(),
		Cache:        h.tracker.State(),
	})
}

// GenerateAlbums starts an incremental generation run. A valid album
// cache makes the run complete immediately without work. Returns 409
// when a run is already in progress.
func (h *Handlers) GenerateAlbums(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	if !h.scheduler.Start(scheduler.Options{Mode: scheduler.ModeGenerate, Limit: limit}) {
		writeJSONError(w, "generation already in progress", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, h.scheduler.Snapshot())
}

// RefreshAlbums starts a full regeneration run that replaces the entire
// album set, ignoring cache validity. Returns 409 when a run is already
// in progress.
func (h *Handlers) RefreshAlbums(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	if !h.scheduler.Start(scheduler.Options{Mode: scheduler.ModeRefresh, Limit: limit}) {
		writeJSONError(w, "generation already in progress", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, h.scheduler.Snapshot())
}

// CancelGeneration requests cancellation of the running pipeline. The
// run stops at the next batch boundary; albums saved so far are kept.
// Cancelling an idle pipeline is a no-op.
func (h *Handlers) CancelGeneration(w http.ResponseWriter, _ *http.Request) {
	h.scheduler.Cancel()
	writeJSONStatus(w, "cancel_requested")
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeJSONError(w, "limit must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return limit, true
}
