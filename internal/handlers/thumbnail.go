package handlers

import (
	"context"
	"errors"
	"image"
	"net/http"
	"strconv"
	"time"

	"album-engine/internal/imagecache"
	"album-engine/internal/logging"

	"github.com/disintegration/imaging"
	"github.com/gorilla/mux"
)

const (
	defaultThumbnailSize   = 320
	defaultHighQualitySize = 1200
	imageWaitTimeout       = 15 * time.Second
	jpegQuality            = 85
)

var errImageTimeout = errors.New("timed out waiting for image")

// GetThumbnail serves an asset rendition through the image caches. The
// size query parameter picks the target edge in pixels; quality=high
// routes the request through the high quality tier instead of the
// thumbnail tier.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	assetID := mux.Vars(r)["id"]
	if assetID == "" {
		writeJSONError(w, "asset ID is required", http.StatusBadRequest)
		return
	}

	if !h.library.Resolve(assetID) {
		writeJSONError(w, "asset not found", http.StatusNotFound)
		return
	}

	cache := h.thumbs
	size := defaultThumbnailSize
	if r.URL.Query().Get("quality") == "high" {
		cache = h.hq
		size = defaultHighQualitySize
	}

	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSONError(w, "size must be a positive integer", http.StatusBadRequest)
			return
		}
		size = parsed
	}

	img, err := awaitImage(r.Context(), cache, assetID, size)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			// Client went away, nothing to write.
		case errors.Is(err, errImageTimeout):
			logging.Warn("thumbnail %s timed out", assetID)
			writeJSONError(w, "image not available", http.StatusGatewayTimeout)
		default:
			logging.Error("thumbnail %s failed: %v", assetID, err)
			writeJSONError(w, "failed to load image", http.StatusNotFound)
		}
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		logging.Error("failed to encode thumbnail %s: %v", assetID, err)
	}
}

// awaitImage bridges the cache's callback delivery onto a synchronous
// HTTP response. A cache hit delivers before Request returns; a miss
// delivers from the decode goroutine. A request superseded by a newer
// one for the same asset never delivers, so the wait is bounded.
func awaitImage(ctx context.Context, cache *imagecache.Cache, assetID string, size int) (image.Image, error) {
	final := make(chan image.Image, 1)
	cache.Request(ctx, assetID, size, func(img image.Image, done bool) {
		if !done {
			return
		}
		select {
		case final <- img:
		default:
		}
	})

	select {
	case img := <-final:
		return img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(imageWaitTimeout):
		return nil, errImageTimeout
	}
}
