// Command regenerate runs one full album regeneration against a library
// directory and exits. It is the offline counterpart of POST /api/refresh,
// useful for cron jobs and for rebuilding the album database without a
// running server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"album-engine/internal/cachestate"
	"album-engine/internal/classify"
	"album-engine/internal/cluster"
	"album-engine/internal/library"
	"album-engine/internal/logging"
	"album-engine/internal/memory"
	"album-engine/internal/scheduler"
	"album-engine/internal/score"
	"album-engine/internal/store"
)

func main() {
	libraryDir := flag.String("library", envOr("LIBRARY_DIR", "/library"), "path to the photo library root")
	dataDir := flag.String("data", envOr("DATA_DIR", "/data"), "path to the data directory holding the album database")
	limit := flag.Int("limit", 0, "cap the number of albums to produce (0 = no cap)")
	placesPath := flag.String("places", envOr("PLACES_FILE", ""), "JSON file with named places for reverse geocoding")
	classifierURL := flag.String("classifier", envOr("CLASSIFIER_URL", ""), "remote classifier endpoint (empty = heuristic only)")
	flag.Parse()

	if err := run(*libraryDir, *dataDir, *placesPath, *classifierURL, *limit); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(libraryDir, dataDir, placesPath, classifierURL string, limit int) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	s, err := store.New(ctx, filepath.Join(dataDir, "albums.db"))
	if err != nil {
		return fmt.Errorf("failed to open album store: %w", err)
	}
	defer s.Close()

	provider := library.NewDirProvider(libraryDir)
	if err := provider.Start(); err != nil {
		return fmt.Errorf("failed to scan library: %w", err)
	}
	defer provider.Stop()
	s.SetResolver(provider.Resolve)

	count, err := provider.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count assets: %w", err)
	}
	logging.Info("Library scanned: %d assets", count)

	var geocoder classify.Geocoder
	if placesPath != "" {
		places, err := classify.LoadPlaces(placesPath)
		if err != nil {
			return fmt.Errorf("failed to load places: %w", err)
		}
		if len(places) > 0 {
			geocoder = classify.NewCachedGeocoder(classify.NewStaticGeocoder(places))
		}
	}

	var classifier classify.Classifier
	if classifierURL != "" {
		classifier = classify.NewRemoteClassifier(classifierURL, 0)
	}

	sched := scheduler.New(scheduler.Config{
		Library:    provider,
		Extractor:  library.NewExtractor(),
		Clusterer:  cluster.New(cluster.DefaultOptions()),
		Aggregator: classify.NewAggregator(classifier, classify.NewHeuristicTagger(geocoder)),
		Titler:     score.NewTitler(),
		Geocoder:   geocoder,
		Sink:       s,
		Validity:   cachestate.New(provider, s),
		Tier:       memory.DetectTier(),
	})

	start := time.Now()
	if !sched.Start(scheduler.Options{Mode: scheduler.ModeRefresh, Limit: limit}) {
		return fmt.Errorf("failed to start regeneration")
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigChan:
			logging.Warn("Received %s, cancelling", sig)
			sched.Cancel()
		case <-ticker.C:
			snap := sched.Snapshot()
			switch snap.State {
			case scheduler.StateCompleted:
				logging.Info("Regeneration complete: %d albums from %d assets in %v",
					snap.Albums, snap.Processed, time.Since(start).Round(time.Millisecond))
				return nil
			case scheduler.StateCancelled:
				return fmt.Errorf("regeneration cancelled after %d of %d assets", snap.Processed, snap.Total)
			case scheduler.StateFailed:
				return fmt.Errorf("regeneration failed after %d of %d assets", snap.Processed, snap.Total)
			}
		}
	}
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
