package classify

import (
	"context"

	"album-engine/internal/library"
)

// Result is one weighted label from the classifier.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier maps an asset to weighted labels. Implementations may be
// remote services; the aggregator imposes no per-call timeout, so a
// caller-supplied context is the only way to bound a call.
type Classifier interface {
	Classify(ctx context.Context, asset library.AssetMetadata) ([]Result, error)
}

// The classifier signals "model unavailable" by returning exactly this
// label pair instead of an error.
var sentinelPair = [2]string{"Photo", "Image"}

// isFailure reports whether a classify call produced no usable labels:
// an error, an empty result, or the two-label unavailable sentinel.
func isFailure(results []Result, err error) bool {
	if err != nil || len(results) == 0 {
		return true
	}
	if len(results) == 2 {
		a, b := results[0].Label, results[1].Label
		if (a == sentinelPair[0] && b == sentinelPair[1]) ||
			(a == sentinelPair[1] && b == sentinelPair[0]) {
			return true
		}
	}
	return false
}

// genericLabels are dropped from combined results; they describe the medium
// rather than the event.
var genericLabels = map[string]bool{
	"photo":       true,
	"image":       true,
	"picture":     true,
	"img":         true,
	"snapshot":    true,
	"photograph":  true,
	"camera":      true,
	"screenshots": true,
}
