package classify

import (
	"context"
	"time"

	"album-engine/internal/cluster"
	"album-engine/internal/library"
	"album-engine/internal/logging"
)

// geocodeTimeout bounds the reverse geocode lookup in the fallback path.
// On timeout the location tag is omitted, never surfaced as an error.
const geocodeTimeout = 1 * time.Second

// burstTagThreshold is the fraction of burst-capture assets above which a
// cluster is tagged as a burst session.
const burstTagThreshold = 0.5

// HeuristicTagger derives tags from asset metadata alone. It is the
// deterministic fallback used when every classifier call for a cluster
// fails, and it always produces at least a time-of-day and a season tag.
type HeuristicTagger struct {
	geocoder Geocoder
	log      *logging.Component
}

// NewHeuristicTagger creates a tagger. The geocoder may be nil, in which
// case location tags are skipped.
func NewHeuristicTagger(g Geocoder) *HeuristicTagger {
	return &HeuristicTagger{
		geocoder: g,
		log:      logging.ForComponent("classify"),
	}
}

// Tags returns the heuristic tag list for a cluster.
func (t *HeuristicTagger) Tags(ctx context.Context, c cluster.Cluster) []string {
	tags := make([]string, 0, 6)

	start := c.Start()
	tags = append(tags, TimeOfDay(start), Season(start))

	if ratio := burstRatio(c.Assets); ratio >= burstTagThreshold {
		tags = append(tags, "Burst Photos")
	}

	if tag, ok := aspectTag(c.Assets); ok {
		tags = append(tags, tag)
	}

	if place, ok := t.lookupPlace(ctx, c.Assets); ok {
		tags = append(tags, place)
	}

	return tags
}

// lookupPlace reverse-geocodes the first located asset in the cluster
// under a hard timeout. A timeout or error omits the tag.
func (t *HeuristicTagger) lookupPlace(ctx context.Context, assets []library.AssetMetadata) (string, bool) {
	if t.geocoder == nil {
		return "", false
	}

	var located *library.AssetMetadata
	for i := range assets {
		if assets[i].HasLocation {
			located = &assets[i]
			break
		}
	}
	if located == nil {
		return "", false
	}

	gctx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()

	place, err := t.geocoder.ReverseGeocode(gctx, located.Latitude, located.Longitude)
	if err != nil {
		t.log.Debug("geocode for %s skipped: %v", located.AssetID, err)
		return "", false
	}
	return place, place != ""
}

// TimeOfDay buckets a timestamp into Morning, Afternoon, Evening or
// Night.
func TimeOfDay(ts time.Time) string {
	switch h := ts.Hour(); {
	case h >= 5 && h < 12:
		return "Morning"
	case h >= 12 && h < 17:
		return "Afternoon"
	case h >= 17 && h < 21:
		return "Evening"
	default:
		return "Night"
	}
}

// Season maps a timestamp's month to a northern-hemisphere season.
func Season(ts time.Time) string {
	switch ts.Month() {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Autumn"
	}
}

// burstRatio is the fraction of assets that belong to a capture burst.
func burstRatio(assets []library.AssetMetadata) float64 {
	if len(assets) == 0 {
		return 0
	}
	n := 0
	for _, a := range assets {
		if a.BurstID != "" {
			n++
		}
	}
	return float64(n) / float64(len(assets))
}

// aspectTag inspects pixel aspect ratios across the cluster and tags it
// when a majority of assets look like the same kind of utility capture.
// Screenshot flags from the source library win over ratio guesses.
func aspectTag(assets []library.AssetMetadata) (string, bool) {
	if len(assets) == 0 {
		return "", false
	}

	counts := make(map[library.UtilityType]int)
	for _, a := range assets {
		if a.IsUtility && a.UtilityType == library.UtilityScreenshot {
			counts[library.UtilityScreenshot]++
			continue
		}
		if u := library.AspectUtility(a.PixelWidth, a.PixelHeight); u != library.UtilityUnknown {
			counts[u]++
		}
	}

	majority := len(assets)/2 + 1
	for utility, n := range counts {
		if n < majority {
			continue
		}
		switch utility {
		case library.UtilityScreenshot:
			return "Screenshots", true
		case library.UtilityReceipt:
			return "Receipts", true
		case library.UtilityDocument:
			return "Documents", true
		case library.UtilityQRCode:
			return "QR Codes", true
		}
	}
	return "", false
}
