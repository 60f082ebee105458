package library

// Extractor derives pipeline metadata from raw asset handles.
type Extractor struct{}

// NewExtractor returns a metadata extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract derives AssetMetadata for a single asset. Screenshots are flagged
// as utility captures and excluded from event clustering; aspect-ratio
// classification is advisory only and feeds the heuristic tagger, not the
// utility flag, since ordinary landscape photos share the "document" band.
func (e *Extractor) Extract(asset MediaAsset) AssetMetadata {
	meta := AssetMetadata{
		AssetID:     asset.ID,
		CaptureTime: asset.CaptureTime,
		Latitude:    asset.Latitude,
		Longitude:   asset.Longitude,
		HasLocation: asset.HasLocation,
		MediaType:   asset.MediaType,
		UtilityType: UtilityUnknown,
		PixelWidth:  asset.PixelWidth,
		PixelHeight: asset.PixelHeight,
		BurstID:     asset.BurstID,
	}

	if asset.IsScreenshot {
		meta.IsUtility = true
		meta.UtilityType = UtilityScreenshot
	}

	return meta
}

// ExtractAll derives metadata for a slice of assets.
func (e *Extractor) ExtractAll(assets []MediaAsset) []AssetMetadata {
	out := make([]AssetMetadata, 0, len(assets))
	for _, a := range assets {
		out = append(out, e.Extract(a))
	}
	return out
}

// AspectUtility classifies an asset's pixel aspect ratio into a utility
// shape hint. Thresholds:
//
//	ratio < 0.6                     receipt-like
//	ratio in [0.65,0.85] or [1.2,1.5]  document-like
//	ratio within 0.05 of 1.0        QR-like
//
// Anything else, or missing dimensions, is UtilityUnknown.
func AspectUtility(width, height int) UtilityType {
	if width <= 0 || height <= 0 {
		return UtilityUnknown
	}

	ratio := float64(width) / float64(height)

	switch {
	case ratio < 0.6:
		return UtilityReceipt
	case ratio >= 0.65 && ratio <= 0.85:
		return UtilityDocument
	case ratio >= 1.2 && ratio <= 1.5:
		return UtilityDocument
	case ratio > 0.95 && ratio < 1.05:
		return UtilityQRCode
	default:
		return UtilityUnknown
	}
}
