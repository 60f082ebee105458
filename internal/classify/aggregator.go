package classify

import (
	"context"
	"sort"
	"strings"
	"time"

	"album-engine/internal/cluster"
	"album-engine/internal/library"
	"album-engine/internal/logging"
	"album-engine/internal/metrics"

	"golang.org/x/sync/errgroup"
)

const (
	// maxSamples is how many representative assets are classified per
	// cluster: first, middle, last for temporal diversity.
	maxSamples = 3

	// maxCombinedLabels caps the combined label set after filtering.
	maxCombinedLabels = 5

	// maxUnfilteredLabels caps the fallback set when filtering removed
	// every label.
	maxUnfilteredLabels = 3
)

// Aggregator samples assets from a cluster, classifies them concurrently,
// and combines the results. When every sampled call fails it falls back to
// the deterministic heuristic tagger, so it always produces at least one
// tag for a valid cluster.
type Aggregator struct {
	classifier Classifier
	tagger     *HeuristicTagger
	log        *logging.Component
}

// NewAggregator creates an aggregator backed by the given classifier and
// heuristic fallback.
func NewAggregator(c Classifier, tagger *HeuristicTagger) *Aggregator {
	return &Aggregator{
		classifier: c,
		tagger:     tagger,
		log:        logging.ForComponent("classify"),
	}
}

// Aggregate returns the combined, filtered label set for a cluster sorted
// by descending confidence. Heuristic fallback tags carry zero confidence;
// the relevance score then rests on the count and tag components alone.
func (a *Aggregator) Aggregate(ctx context.Context, c cluster.Cluster) []Result {
	samples := sampleAssets(c)
	// A nil classifier means heuristic-only operation.
	if a.classifier == nil || len(samples) == 0 {
		return a.fallback(ctx, c)
	}

	perSample := make([][]Result, len(samples))

	// Fan out one classify call per sample and join before aggregation.
	// There is deliberately no per-call timeout here; a hung classifier
	// blocks this cluster until the caller's context is cancelled.
	g, gctx := errgroup.WithContext(ctx)
	for i, sample := range samples {
		i, sample := i, sample
		g.Go(func() error {
			start := time.Now()
			results, err := a.classifier.Classify(gctx, sample)
			metrics.ClassifyDuration.Observe(time.Since(start).Seconds())

			switch {
			case err != nil:
				metrics.ClassifyCallsTotal.WithLabelValues("failed").Inc()
				a.log.Debug("classify %s failed: %v", sample.AssetID, err)
			case isFailure(results, nil):
				metrics.ClassifyCallsTotal.WithLabelValues("sentinel").Inc()
			default:
				metrics.ClassifyCallsTotal.WithLabelValues("ok").Inc()
				perSample[i] = results
			}
			// Failures are absorbed; the fallback decision needs every
			// call to have finished.
			return nil
		})
	}
	_ = g.Wait()

	allFailed := true
	for _, results := range perSample {
		if len(results) > 0 {
			allFailed = false
			break
		}
	}

	if allFailed {
		return a.fallback(ctx, c)
	}

	return combine(perSample)
}

// fallback produces heuristic tags for a cluster.
func (a *Aggregator) fallback(ctx context.Context, c cluster.Cluster) []Result {
	metrics.HeuristicFallbacks.Inc()
	tags := a.tagger.Tags(ctx, c)

	results := make([]Result, 0, len(tags))
	for _, tag := range tags {
		results = append(results, Result{Label: tag})
	}
	return results
}

// sampleAssets picks up to three representative assets: first, middle,
// last. Smaller clusters yield fewer samples.
func sampleAssets(c cluster.Cluster) []library.AssetMetadata {
	n := len(c.Assets)
	switch {
	case n == 0:
		return nil
	case n <= maxSamples:
		out := make([]library.AssetMetadata, n)
		copy(out, c.Assets)
		return out
	default:
		return []library.AssetMetadata{
			c.Assets[0],
			c.Assets[n/2],
			c.Assets[n-1],
		}
	}
}

// combine merges per-sample results: confidence is summed per unique
// label, generic labels are filtered, and the top five remain. If the
// filter removes everything, the top three unfiltered labels are kept so a
// classified cluster never ends up untagged. The result is independent of
// sample order: ties are broken by label.
func combine(perSample [][]Result) []Result {
	byLabel := make(map[string]float64)
	for _, results := range perSample {
		for _, r := range results {
			byLabel[r.Label] += r.Confidence
		}
	}

	all := make([]Result, 0, len(byLabel))
	for label, confidence := range byLabel {
		all = append(all, Result{Label: label, Confidence: confidence})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Confidence != all[j].Confidence {
			return all[i].Confidence > all[j].Confidence
		}
		return all[i].Label < all[j].Label
	})

	filtered := make([]Result, 0, len(all))
	for _, r := range all {
		if genericLabels[strings.ToLower(r.Label)] {
			continue
		}
		filtered = append(filtered, r)
	}

	if len(filtered) == 0 {
		if len(all) > maxUnfilteredLabels {
			all = all[:maxUnfilteredLabels]
		}
		return all
	}

	if len(filtered) > maxCombinedLabels {
		filtered = filtered[:maxCombinedLabels]
	}
	return filtered
}

// Labels extracts the plain label strings from a result list.
func Labels(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Label
	}
	return out
}

// TopConfidence returns the highest confidence in a result list, or 0.
func TopConfidence(results []Result) float64 {
	top := 0.0
	for _, r := range results {
		if r.Confidence > top {
			top = r.Confidence
		}
	}
	return top
}
