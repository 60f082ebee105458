package handlers

import (
	"net/http"

	"album-engine/internal/logging"
	"album-engine/internal/store"

	"github.com/gorilla/mux"
)

// AlbumsResponse wraps an album listing.
type AlbumsResponse struct {
	Albums []*store.SmartAlbum `json:"albums"`
	Count  int                 `json:"count"`
}

// ListAlbums returns all stored albums. The sort query parameter selects
// the order: "created" (default, newest first) or "score".
func (h *Handlers) ListAlbums(w http.ResponseWriter, r *http.Request) {
	order := store.SortByCreated
	switch r.URL.Query().Get("sort") {
	case "", "created":
	case "score":
		order = store.SortByScore
	default:
		writeJSONError(w, "sort must be 'created' or 'score'", http.StatusBadRequest)
		return
	}

	albums, err := h.store.All(r.Context(), order)
	if err != nil {
		logging.Error("failed to list albums: %v", err)
		writeJSONError(w, "failed to list albums", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AlbumsResponse{Albums: albums, Count: len(albums)})
}

// FeaturedAlbums returns the featured selection: the best recent albums,
// topped up with older high scorers when recent ones are scarce.
func (h *Handlers) FeaturedAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.store.Featured(r.Context())
	if err != nil {
		logging.Error("failed to load featured albums: %v", err)
		writeJSONError(w, "failed to load featured albums", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AlbumsResponse{Albums: albums, Count: len(albums)})
}

// DeleteAlbum removes one album by ID. Deleting an unknown ID succeeds.
func (h *Handlers) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeJSONError(w, "album ID is required", http.StatusBadRequest)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		logging.Error("failed to delete album %s: %v", id, err)
		writeJSONError(w, "failed to delete album", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "deleted")
}
