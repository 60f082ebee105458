package cluster

import (
	"math"
	"sort"
	"time"

	"album-engine/internal/library"
	"album-engine/internal/metrics"
)

// Options are the clustering tunables.
type Options struct {
	// MaxTimeWindow is the largest gap between consecutive assets within
	// one event.
	MaxTimeWindow time.Duration

	// MaxDistance is the largest distance in meters between consecutive
	// assets within one event. Only enforced when both assets carry a
	// coordinate.
	MaxDistance float64

	// MinSize is the minimum number of assets for a valid cluster.
	MinSize int

	// MinDuration is the minimum time span for a valid cluster.
	MinDuration time.Duration
}

// DefaultOptions returns the tunables used by the primary grouping pass.
func DefaultOptions() Options {
	return Options{
		MaxTimeWindow: 2 * time.Hour,
		MaxDistance:   300,
		MinSize:       3,
		MinDuration:   30 * time.Minute,
	}
}

// WideOptions returns the looser tunables used for a secondary grouping
// pass (longer events such as day trips).
func WideOptions() Options {
	return Options{
		MaxTimeWindow: 12 * time.Hour,
		MaxDistance:   1000,
		MinSize:       3,
		MinDuration:   30 * time.Minute,
	}
}

// Cluster is a temporally contiguous run of assets treated as one event.
// Assets are ordered ascending by capture time.
type Cluster struct {
	Assets []library.AssetMetadata
}

// Start returns the capture time of the first asset.
func (c Cluster) Start() time.Time {
	if len(c.Assets) == 0 {
		return time.Time{}
	}
	return c.Assets[0].CaptureTime
}

// End returns the capture time of the last asset.
func (c Cluster) End() time.Time {
	if len(c.Assets) == 0 {
		return time.Time{}
	}
	return c.Assets[len(c.Assets)-1].CaptureTime
}

// Duration returns the time span covered by the cluster.
func (c Cluster) Duration() time.Duration {
	return c.End().Sub(c.Start())
}

// AssetIDs returns the member asset ids in order.
func (c Cluster) AssetIDs() []string {
	ids := make([]string, len(c.Assets))
	for i, a := range c.Assets {
		ids[i] = a.AssetID
	}
	return ids
}

// Clusterer groups asset metadata into event clusters.
type Clusterer struct {
	opts Options
}

// New creates a Clusterer with the given options.
func New(opts Options) *Clusterer {
	if opts.MinSize < 1 {
		opts.MinSize = 1
	}
	return &Clusterer{opts: opts}
}

// Cluster groups the input into valid event clusters. Entries without a
// timestamp and utility captures are filtered out first; the rest is sorted
// ascending by capture time and scanned once. A cluster boundary falls when
// the time gap exceeds MaxTimeWindow, or when both neighbors carry a
// coordinate and their distance exceeds MaxDistance. Accumulated runs that
// fail the validity check (MinSize, MinDuration) are dropped.
func (cl *Clusterer) Cluster(input []library.AssetMetadata) []Cluster {
	eligible := make([]library.AssetMetadata, 0, len(input))
	for _, m := range input {
		if !m.HasTimestamp() || m.IsUtility {
			continue
		}
		eligible = append(eligible, m)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].CaptureTime.Before(eligible[j].CaptureTime)
	})

	var clusters []Cluster
	var current []library.AssetMetadata

	for i, m := range eligible {
		if i == 0 {
			current = append(current, m)
			continue
		}

		prev := eligible[i-1]
		if cl.isBoundary(prev, m) {
			if c, ok := cl.validate(current); ok {
				clusters = append(clusters, c)
			}
			current = nil
		}
		current = append(current, m)
	}

	if c, ok := cl.validate(current); ok {
		clusters = append(clusters, c)
	}

	return clusters
}

// isBoundary reports whether an event boundary falls between two
// consecutive assets.
func (cl *Clusterer) isBoundary(prev, next library.AssetMetadata) bool {
	timeDelta := next.CaptureTime.Sub(prev.CaptureTime)
	if timeDelta > cl.opts.MaxTimeWindow {
		return true
	}

	// Location only splits when both sides carry a coordinate; a missing
	// coordinate is treated as acceptable, not as movement.
	if prev.HasLocation && next.HasLocation {
		d := HaversineMeters(prev.Latitude, prev.Longitude, next.Latitude, next.Longitude)
		if d > cl.opts.MaxDistance {
			return true
		}
	}

	return false
}

// validate applies the cluster validity invariant: at least MinSize assets
// spanning at least MinDuration.
func (cl *Clusterer) validate(assets []library.AssetMetadata) (Cluster, bool) {
	if len(assets) == 0 {
		return Cluster{}, false
	}
	if len(assets) < cl.opts.MinSize {
		metrics.ClustersDiscarded.WithLabelValues("too_small").Inc()
		return Cluster{}, false
	}

	span := assets[len(assets)-1].CaptureTime.Sub(assets[0].CaptureTime)
	if span < cl.opts.MinDuration {
		metrics.ClustersDiscarded.WithLabelValues("too_short").Inc()
		return Cluster{}, false
	}

	metrics.ClustersEmitted.Inc()
	return Cluster{Assets: assets}, true
}

const earthRadiusMeters = 6371000

// HaversineMeters returns the great-circle distance between two
// coordinates in meters.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}
