package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"album-engine/internal/cluster"
	"album-engine/internal/metrics"

	gocache "github.com/patrickmn/go-cache"
)

// ErrNoPlace indicates no place name is known for a coordinate.
var ErrNoPlace = errors.New("no place for coordinate")

// Geocoder resolves a coordinate to a human-readable place name.
// Implementations must honor context cancellation; lookups in the
// heuristic fallback path run under a 1 second deadline.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

const (
	geocodeCacheTTL     = 30 * time.Minute
	geocodeCacheCleanup = 10 * time.Minute
)

// CachedGeocoder wraps another geocoder with a TTL cache keyed by rounded
// coordinates, so repeated lookups within the same neighbourhood resolve
// without hitting the backend.
type CachedGeocoder struct {
	backend Geocoder
	cache   *gocache.Cache
}

// NewCachedGeocoder wraps backend with a 30 minute lookup cache.
func NewCachedGeocoder(backend Geocoder) *CachedGeocoder {
	return &CachedGeocoder{
		backend: backend,
		cache:   gocache.New(geocodeCacheTTL, geocodeCacheCleanup),
	}
}

// ReverseGeocode returns the cached place for the rounded coordinate, or
// consults the backend and caches the answer. Negative answers are cached
// too so a coordinate with no known place is not retried every cluster.
func (g *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	key := geocodeKey(lat, lon)
	if cached, found := g.cache.Get(key); found {
		metrics.GeocodeLookups.WithLabelValues("cached").Inc()
		place := cached.(string)
		if place == "" {
			return "", ErrNoPlace
		}
		return place, nil
	}

	place, err := g.backend.ReverseGeocode(ctx, lat, lon)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		metrics.GeocodeLookups.WithLabelValues("timeout").Inc()
		return "", err
	case errors.Is(err, ErrNoPlace):
		metrics.GeocodeLookups.WithLabelValues("ok").Inc()
		g.cache.SetDefault(key, "")
		return "", err
	case err != nil:
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.GeocodeLookups.WithLabelValues("ok").Inc()
	g.cache.SetDefault(key, place)
	return place, nil
}

// geocodeKey rounds coordinates to roughly a 1 km grid. Assets shot at
// the same venue collapse onto one cache entry.
func geocodeKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

// Place is a named location with a match radius used by StaticGeocoder.
type Place struct {
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// StaticGeocoder resolves coordinates against a fixed list of named
// places. It needs no network and suits libraries whose photos cluster
// around a handful of known venues.
type StaticGeocoder struct {
	places []Place
}

// NewStaticGeocoder creates a geocoder over the given places.
func NewStaticGeocoder(places []Place) *StaticGeocoder {
	return &StaticGeocoder{places: places}
}

// ReverseGeocode returns the nearest place whose radius covers the
// coordinate, or ErrNoPlace.
func (g *StaticGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	best := ""
	bestDistance := 0.0
	for _, p := range g.places {
		d := cluster.HaversineMeters(lat, lon, p.Latitude, p.Longitude)
		if d > p.RadiusMeters {
			continue
		}
		if best == "" || d < bestDistance {
			best = p.Name
			bestDistance = d
		}
	}
	if best == "" {
		return "", ErrNoPlace
	}
	return best, nil
}

// LoadPlaces reads a JSON array of places from path. A missing file is not
// an error; it yields an empty place list.
func LoadPlaces(path string) ([]Place, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read places file: %w", err)
	}
	var places []Place
	if err := json.Unmarshal(data, &places); err != nil {
		return nil, fmt.Errorf("parse places file %s: %w", path, err)
	}
	return places, nil
}
