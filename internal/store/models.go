package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoAssets is returned when an album has no asset references; that
// is the one defect validation cannot repair.
var ErrNoAssets = errors.New("album has no assets")

// DefaultTag fills an album whose classification produced nothing.
const DefaultTag = "Photos"

// SmartAlbum is a persisted, titled, scored grouping of asset ids.
// Albums are created only by the generation pipeline and mutated only
// by full regeneration or explicit delete.
type SmartAlbum struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	CreatedAt        time.Time `json:"createdAt"`
	RelevanceScore   float64   `json:"relevanceScore"`
	Tags             []string  `json:"tags"`
	AssetIDs         []string  `json:"assetIds"`
	ThumbnailAssetID string    `json:"thumbnailAssetId"`
}

// Validate repairs the repairable defects in place instead of failing:
// a missing id gets a fresh UUID, an empty title and tag list get
// defaults, a missing thumbnail falls back to the first asset, and the
// score is clamped to [0, 100]. An empty asset list is an error.
func (a *SmartAlbum) Validate() error {
	if len(a.AssetIDs) == 0 {
		return ErrNoAssets
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Title == "" {
		a.Title = DefaultTag
	}
	if len(a.Tags) == 0 {
		a.Tags = []string{DefaultTag}
	}
	if a.ThumbnailAssetID == "" {
		a.ThumbnailAssetID = a.AssetIDs[0]
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.RelevanceScore < 0 {
		a.RelevanceScore = 0
	}
	if a.RelevanceScore > 100 {
		a.RelevanceScore = 100
	}
	return nil
}

// SortOrder selects the ordering of album list reads.
type SortOrder string

const (
	// SortByCreated orders newest first.
	SortByCreated SortOrder = "created"
	// SortByScore orders highest relevance first.
	SortByScore SortOrder = "score"
)
