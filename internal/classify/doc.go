// Package classify turns event clusters into tag lists.
//
// The Aggregator samples up to three representative assets from a
// cluster (first, middle, last), classifies them concurrently through
// the configured Classifier, and merges the per-sample results into a
// single confidence-sorted label set with generic labels filtered out.
//
// A classifier call that errors, returns nothing, or returns the
// sentinel pair {"Photo", "Image"} counts as failed. When every sampled
// call fails the aggregator switches to the HeuristicTagger, which
// derives tags deterministically from metadata (time of day, season,
// burst ratio, aspect-ratio utility hints, reverse geocoding). Heuristic
// tags carry zero confidence; the fallback always yields at least the
// time-of-day and season tags, so a valid cluster is never left
// untagged.
package classify
