package cachestate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"album-engine/internal/logging"
	"album-engine/internal/metrics"
)

// TTL is how long a completed pipeline run stays reusable, counted from
// the last update.
const TTL = 24 * time.Hour

// Metadata keys in the store.
const (
	keyLibraryHash = "library_hash"
	keyLastUpdate  = "cache_last_update"
)

// LibraryInfo is the slice of the asset library the tracker needs.
type LibraryInfo interface {
	Count(ctx context.Context) (int, error)
	NewestCaptureTime(ctx context.Context) (time.Time, error)
	Subscribe(fn func())
}

// StateStore persists the tracker's signature and holds the cached
// album count.
type StateStore interface {
	GetMetadata(ctx context.Context, key string) (string, error)
	SetMetadata(ctx context.Context, key, value string) error
	GetMetadataTime(ctx context.Context, key string) (time.Time, error)
	SetMetadataTime(ctx context.Context, key string, t time.Time) error
	Count(ctx context.Context) (int, error)
}

// State is a snapshot of cache validity.
type State struct {
	IsValid          bool      `json:"isValid"`
	LastUpdate       time.Time `json:"lastUpdate"`
	LibraryHash      string    `json:"libraryHash"`
	CachedAlbumCount int       `json:"cachedAlbumCount"`
}

// Tracker decides whether persisted albums may be reused without
// re-running the pipeline. Validity requires cached albums to exist,
// the stored library signature to match the current one, and the last
// update to be younger than the TTL.
type Tracker struct {
	library LibraryInfo
	store   StateStore
	log     *logging.Component

	mu    sync.RWMutex
	state State
}

// New creates a tracker and subscribes it to library change
// notifications. Call Start to run the initial check.
func New(library LibraryInfo, store StateStore) *Tracker {
	t := &Tracker{
		library: library,
		store:   store,
		log:     logging.ForComponent("cachestate"),
	}
	library.Subscribe(t.onLibraryChange)
	return t
}

// Start runs the initial validity check asynchronously so construction
// never blocks on the library scan.
func (t *Tracker) Start(ctx context.Context) {
	go func() {
		if _, err := t.Check(ctx); err != nil {
			t.log.Warn("initial validity check failed: %v", err)
		}
	}()
}

// LibraryHash computes the current library signature: asset count plus
// the newest capture timestamp, as epoch seconds. A cheap approximate
// signature, not a content hash; an edit that changes neither count nor
// the newest capture time goes unnoticed.
func (t *Tracker) LibraryHash(ctx context.Context) (string, error) {
	count, err := t.library.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("library count: %w", err)
	}
	newest, err := t.library.NewestCaptureTime(ctx)
	if err != nil {
		return "", fmt.Errorf("newest capture time: %w", err)
	}
	epoch := int64(0)
	if !newest.IsZero() {
		epoch = newest.Unix()
	}
	return fmt.Sprintf("%d-%d", count, epoch), nil
}

// Check recomputes validity from the persisted signature and the
// current library, updates the snapshot, and returns it.
func (t *Tracker) Check(ctx context.Context) (State, error) {
	current, err := t.LibraryHash(ctx)
	if err != nil {
		return t.State(), err
	}

	stored, err := t.store.GetMetadata(ctx, keyLibraryHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return t.State(), err
	}
	lastUpdate, err := t.store.GetMetadataTime(ctx, keyLastUpdate)
	if err != nil {
		return t.State(), err
	}
	albums, err := t.store.Count(ctx)
	if err != nil {
		return t.State(), err
	}

	valid := true
	switch {
	case albums == 0:
		metrics.CacheValidityChecks.WithLabelValues("empty").Inc()
		valid = false
	case stored != current:
		metrics.CacheValidityChecks.WithLabelValues("stale_hash").Inc()
		valid = false
	case lastUpdate.IsZero() || time.Since(lastUpdate) >= TTL:
		metrics.CacheValidityChecks.WithLabelValues("expired").Inc()
		valid = false
	default:
		metrics.CacheValidityChecks.WithLabelValues("valid").Inc()
	}

	t.mu.Lock()
	t.state = State{
		IsValid:          valid,
		LastUpdate:       lastUpdate,
		LibraryHash:      current,
		CachedAlbumCount: albums,
	}
	state := t.state
	t.mu.Unlock()

	t.log.Debug("validity check: valid=%v hash=%s albums=%d", valid, current, albums)
	return state, nil
}

// onLibraryChange recomputes the signature immediately. A mismatch
// invalidates the cache, and the fresh signature is persisted so the
// next check compares against current reality even before a pipeline
// run happens.
func (t *Tracker) onLibraryChange() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	current, err := t.LibraryHash(ctx)
	if err != nil {
		t.log.Warn("hash recompute after library change failed: %v", err)
		return
	}

	t.mu.Lock()
	changed := t.state.LibraryHash != current
	if changed {
		t.state.IsValid = false
		t.state.LibraryHash = current
	}
	t.mu.Unlock()

	if !changed {
		return
	}

	t.log.Info("library changed, cache invalidated (hash %s)", current)
	if err := t.store.SetMetadata(ctx, keyLibraryHash, current); err != nil {
		t.log.Warn("failed to persist library hash: %v", err)
	}
}

// MarkUpdated records a completed pipeline run. It is the only path
// that sets IsValid to true.
func (t *Tracker) MarkUpdated(ctx context.Context, albumCount int) error {
	hash, err := t.LibraryHash(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := t.store.SetMetadata(ctx, keyLibraryHash, hash); err != nil {
		return err
	}
	if err := t.store.SetMetadataTime(ctx, keyLastUpdate, now); err != nil {
		return err
	}

	t.mu.Lock()
	t.state = State{
		IsValid:          albumCount > 0,
		LastUpdate:       now,
		LibraryHash:      hash,
		CachedAlbumCount: albumCount,
	}
	t.mu.Unlock()

	t.log.Info("cache marked updated: %d albums, hash %s", albumCount, hash)
	return nil
}

// State returns the latest snapshot without recomputation.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}
