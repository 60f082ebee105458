package library

import "time"

// MediaType identifies the kind of a media asset.
type MediaType string

const (
	// MediaTypeImage represents a still photo.
	MediaTypeImage MediaType = "image"
	// MediaTypeVideo represents a video clip.
	MediaTypeVideo MediaType = "video"
)

// UtilityType classifies non-memory "utility" captures that should not be
// grouped into event albums.
type UtilityType string

const (
	UtilityReceipt    UtilityType = "receipt"
	UtilityDocument   UtilityType = "document"
	UtilityScreenshot UtilityType = "screenshot"
	UtilityWhiteboard UtilityType = "whiteboard"
	UtilityQRCode     UtilityType = "qrCode"
	UtilityUnknown    UtilityType = "unknown"
)

// MediaAsset is a read-only handle to one item in the asset library.
// A zero CaptureTime means the capture timestamp is unknown.
type MediaAsset struct {
	ID           string    `json:"id"`
	CaptureTime  time.Time `json:"captureTime"`
	Latitude     float64   `json:"latitude,omitempty"`
	Longitude    float64   `json:"longitude,omitempty"`
	HasLocation  bool      `json:"hasLocation"`
	MediaType    MediaType `json:"mediaType"`
	PixelWidth   int       `json:"pixelWidth"`
	PixelHeight  int       `json:"pixelHeight"`
	IsScreenshot bool      `json:"isScreenshot"`
	BurstID      string    `json:"burstId,omitempty"`
	SourcePath   string    `json:"-"`
}

// AssetMetadata is the per-asset record the pipeline operates on. It
// carries the dimension and burst fields the heuristic tagger needs so the
// raw asset handle never has to be re-fetched mid-pipeline.
type AssetMetadata struct {
	AssetID     string
	CaptureTime time.Time
	Latitude    float64
	Longitude   float64
	HasLocation bool
	MediaType   MediaType
	IsUtility   bool
	UtilityType UtilityType
	PixelWidth  int
	PixelHeight int
	BurstID     string
}

// HasTimestamp reports whether the asset carries a usable capture time.
func (m AssetMetadata) HasTimestamp() bool {
	return !m.CaptureTime.IsZero()
}

// Filter narrows an asset enumeration.
type Filter struct {
	MediaTypes        []MediaType
	SortByCaptureTime bool
	Limit             int
}
