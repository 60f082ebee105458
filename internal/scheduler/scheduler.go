package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"album-engine/internal/cachestate"
	"album-engine/internal/classify"
	"album-engine/internal/cluster"
	"album-engine/internal/library"
	"album-engine/internal/logging"
	"album-engine/internal/memory"
	"album-engine/internal/metrics"
	"album-engine/internal/score"
	"album-engine/internal/store"
)

// State is the scheduler's lifecycle position.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Mode selects how a run persists its albums.
type Mode string

const (
	// ModeGenerate appends albums batch by batch and honors cache
	// validity: a valid cache makes the run a no-op.
	ModeGenerate Mode = "generate"
	// ModeRefresh regenerates from scratch, replacing the whole album
	// set in one transaction at the end of the run.
	ModeRefresh Mode = "refresh"
)

// Batch sizes by memory tier, and the floor the size never halves below.
const (
	batchSizeLow  = 200
	batchSizeMid  = 500
	batchSizeHigh = 1000
	minBatchSize  = 25

	// pressurePause is the brief hold between batches after a pressure
	// signal.
	pressurePause = 1 * time.Second

	geocodeTitleTimeout = 1 * time.Second
)

// Event is a progress snapshot published on every state or progress
// change.
type Event struct {
	State     State   `json:"state"`
	Progress  float64 `json:"progress"`
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
	Albums    int     `json:"albums"`
	BatchSize int     `json:"batchSize"`
}

// AlbumSink is the slice of the album store the scheduler writes to.
type AlbumSink interface {
	AppendBatch(ctx context.Context, albums []*store.SmartAlbum) error
	ReplaceAll(ctx context.Context, albums []*store.SmartAlbum) error
	Count(ctx context.Context) (int, error)
}

// Validity gates runs on cached-album freshness.
type Validity interface {
	Check(ctx context.Context) (cachestate.State, error)
	MarkUpdated(ctx context.Context, albumCount int) error
}

// Config wires a scheduler.
type Config struct {
	Library    library.Provider
	Extractor  *library.Extractor
	Clusterer  *cluster.Clusterer
	Aggregator *classify.Aggregator
	Titler     *score.Titler
	// Geocoder fills title locations; may be nil.
	Geocoder classify.Geocoder
	Sink     AlbumSink
	Validity Validity
	// Monitor supplies pressure signals; may be nil in tests.
	Monitor *memory.Monitor
	// ClearCaches drops the image caches on pressure; may be nil.
	ClearCaches func()
	// Tier sizes the batches. Detect with memory.DetectTier.
	Tier memory.Tier
}

// Options tunes one run.
type Options struct {
	Mode Mode
	// Limit caps the number of albums a run may produce; 0 means no cap.
	Limit int
}

// Scheduler drives the album pipeline over the library in memory-aware
// batches. One run at a time; progress is published on an event channel
// and through snapshot getters.
type Scheduler struct {
	cfg Config
	log *logging.Component

	isGenerating atomic.Bool
	cancelled    atomic.Bool
	pausePending atomic.Bool

	mu        sync.RWMutex
	state     State
	processed int
	total     int
	albums    int
	batchSize int

	events chan Event
}

// New creates a scheduler and subscribes it to memory pressure.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		cfg:       cfg,
		log:       logging.ForComponent("scheduler"),
		state:     StateIdle,
		batchSize: initialBatchSize(cfg.Tier),
		events:    make(chan Event, 16),
	}
	metrics.PipelineBatchSize.Set(float64(s.batchSize))

	if cfg.Monitor != nil {
		cfg.Monitor.Subscribe(s.onPressure)
	}
	return s
}

func initialBatchSize(tier memory.Tier) int {
	switch tier {
	case memory.TierLow:
		return batchSizeLow
	case memory.TierMid:
		return batchSizeMid
	default:
		return batchSizeHigh
	}
}

// onPressure halves the batch size, schedules a brief pause before the
// next batch, and clears the image caches. Each delivered signal does
// this exactly once.
func (s *Scheduler) onPressure(source memory.Source) {
	s.mu.Lock()
	half := s.batchSize / 2
	if half < minBatchSize {
		half = minBatchSize
	}
	s.batchSize = half
	s.mu.Unlock()

	metrics.PipelineBatchSize.Set(float64(half))
	s.pausePending.Store(true)

	if s.cfg.ClearCaches != nil {
		s.cfg.ClearCaches()
	}
	s.log.Warn("memory pressure (%s): batch size now %d, caches cleared", source, half)
}

// Events returns the progress channel. Slow consumers lose events;
// Snapshot always has the current truth.
func (s *Scheduler) Events() <-chan Event {
	return s.events
}

// Snapshot returns the current state without blocking the run.
func (s *Scheduler) Snapshot() Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// snapshotLocked must be called with at least a read lock held.
func (s *Scheduler) snapshotLocked() Event {
	var progress float64
	if s.total > 0 {
		progress = float64(s.processed) / float64(s.total)
	}
	return Event{
		State:     s.state,
		Progress:  progress,
		Processed: s.processed,
		Total:     s.total,
		Albums:    s.albums,
		BatchSize: s.batchSize,
	}
}

// IsGenerating reports whether a run is in flight.
func (s *Scheduler) IsGenerating() bool {
	return s.isGenerating.Load()
}

// Start launches a run in the background. A second call while one is
// running is a no-op returning false; the in-flight run keeps
// publishing its own completion.
func (s *Scheduler) Start(opts Options) bool {
	if !s.isGenerating.CompareAndSwap(false, true) {
		s.log.Info("generation already running, ignoring start request")
		return false
	}

	s.cancelled.Store(false)
	s.mu.Lock()
	s.state = StateRunning
	s.processed = 0
	s.total = 0
	s.albums = 0
	s.mu.Unlock()

	metrics.PipelineIsRunning.Set(1)
	metrics.PipelineProgress.Set(0)
	s.publish()

	go s.run(opts)
	return true
}

// Cancel requests a cooperative stop. The current batch finishes;
// batches already saved stay persisted.
func (s *Scheduler) Cancel() {
	if !s.isGenerating.Load() {
		return
	}
	s.log.Info("cancellation requested")
	s.cancelled.Store(true)
}

func (s *Scheduler) run(opts Options) {
	started := time.Now()
	ctx := context.Background()

	terminal := s.execute(ctx, opts)

	s.mu.Lock()
	s.state = terminal
	s.mu.Unlock()

	metrics.PipelineIsRunning.Set(0)
	metrics.PipelineRunsTotal.WithLabelValues(string(terminal)).Inc()
	metrics.PipelineLastRunDuration.Set(time.Since(started).Seconds())
	metrics.PipelineLastRunTimestamp.Set(float64(time.Now().Unix()))

	s.isGenerating.Store(false)
	s.publish()
	s.log.Info("run finished: %s in %s", terminal, time.Since(started).Round(time.Millisecond))
}

func (s *Scheduler) execute(ctx context.Context, opts Options) State {
	if opts.Mode == "" {
		opts.Mode = ModeGenerate
	}

	if opts.Mode == ModeGenerate && s.cfg.Validity != nil {
		state, err := s.cfg.Validity.Check(ctx)
		if err != nil {
			s.log.Warn("validity check failed, regenerating: %v", err)
		} else if state.IsValid {
			s.log.Info("cached albums still valid (%d albums), skipping run", state.CachedAlbumCount)
			return StateCompleted
		}
	}

	assets, err := s.cfg.Library.Assets(ctx, library.Filter{SortByCaptureTime: true})
	if err != nil {
		s.log.Error("listing library assets failed: %v", err)
		return StateFailed
	}
	metas := s.cfg.Extractor.ExtractAll(assets)

	s.mu.Lock()
	s.total = len(metas)
	s.mu.Unlock()
	s.publish()

	var replacement []*store.SmartAlbum
	produced := 0
	limitReached := false

	for start := 0; start < len(metas); {
		if s.cancelled.Load() {
			s.log.Info("run cancelled after %d of %d assets", start, len(metas))
			return StateCancelled
		}
		if s.cfg.Monitor != nil && !s.cfg.Monitor.WaitIfPaused() {
			return StateCancelled
		}
		if s.pausePending.CompareAndSwap(true, false) {
			time.Sleep(pressurePause)
		}

		s.mu.RLock()
		size := s.batchSize
		s.mu.RUnlock()

		end := start + size
		if end > len(metas) {
			end = len(metas)
		}

		albums := s.buildAlbums(ctx, metas[start:end], opts.Limit, produced, &limitReached)
		produced += len(albums)

		switch opts.Mode {
		case ModeRefresh:
			replacement = append(replacement, albums...)
		default:
			if len(albums) > 0 {
				if err := s.cfg.Sink.AppendBatch(ctx, albums); err != nil {
					metrics.PipelineBatchesTotal.WithLabelValues("failed").Inc()
					s.log.Error("batch save failed, continuing with next batch: %v", err)
				} else {
					metrics.PipelineBatchesTotal.WithLabelValues("saved").Inc()
					s.addAlbums(len(albums))
				}
			}
		}

		s.advance(end)
		start = end

		if limitReached {
			s.log.Info("album limit %d reached", opts.Limit)
			s.finishEarly(len(metas))
			break
		}
	}

	if opts.Mode == ModeRefresh {
		if err := s.cfg.Sink.ReplaceAll(ctx, replacement); err != nil {
			s.log.Error("full refresh save failed: %v", err)
			return StateFailed
		}
		metrics.PipelineBatchesTotal.WithLabelValues("saved").Inc()
		s.addAlbums(len(replacement))
	}

	if s.cfg.Validity != nil {
		count := s.albumCount(ctx)
		if err := s.cfg.Validity.MarkUpdated(ctx, count); err != nil {
			s.log.Warn("failed to mark cache updated: %v", err)
		}
	}
	return StateCompleted
}

// buildAlbums runs one batch through cluster, classify, score and title.
func (s *Scheduler) buildAlbums(ctx context.Context, batch []library.AssetMetadata, limit, produced int, limitReached *bool) []*store.SmartAlbum {
	clusters := s.cfg.Clusterer.Cluster(batch)

	albums := make([]*store.SmartAlbum, 0, len(clusters))
	for _, c := range clusters {
		albums = append(albums, s.buildAlbum(ctx, c))
		metrics.AlbumsGenerated.Inc()

		if limit > 0 && produced+len(albums) >= limit {
			*limitReached = true
			break
		}
	}
	return albums
}

func (s *Scheduler) buildAlbum(ctx context.Context, c cluster.Cluster) *store.SmartAlbum {
	results := s.cfg.Aggregator.Aggregate(ctx, c)
	labels := classify.Labels(results)
	topConfidence := classify.TopConfidence(results)

	relevance := score.Relevance(labels, topConfidence, len(c.Assets))
	title := s.cfg.Titler.Title(score.TitleContext{
		Location:  s.titleLocation(ctx, c),
		TimeOfDay: classify.TimeOfDay(c.Start()),
		Date:      c.Start(),
		Count:     len(c.Assets),
		Tags:      labels,
	})

	ids := c.AssetIDs()
	return &store.SmartAlbum{
		Title:            title,
		CreatedAt:        time.Now(),
		RelevanceScore:   relevance,
		Tags:             labels,
		AssetIDs:         ids,
		ThumbnailAssetID: ids[len(ids)/2],
	}
}

// titleLocation resolves a display location for the cluster under the
// same hard timeout the heuristic tagger uses. Failures leave the
// title location empty.
func (s *Scheduler) titleLocation(ctx context.Context, c cluster.Cluster) string {
	if s.cfg.Geocoder == nil {
		return ""
	}
	for _, a := range c.Assets {
		if !a.HasLocation {
			continue
		}
		gctx, cancel := context.WithTimeout(ctx, geocodeTitleTimeout)
		place, err := s.cfg.Geocoder.ReverseGeocode(gctx, a.Latitude, a.Longitude)
		cancel()
		if err != nil {
			return ""
		}
		return place
	}
	return ""
}

func (s *Scheduler) albumCount(ctx context.Context) int {
	count, err := s.cfg.Sink.Count(ctx)
	if err != nil {
		s.log.Warn("album count failed: %v", err)
		s.mu.RLock()
		count = s.albums
		s.mu.RUnlock()
	}
	return count
}

func (s *Scheduler) addAlbums(n int) {
	s.mu.Lock()
	s.albums += n
	s.mu.Unlock()
}

// advance moves progress forward. Progress never regresses within a
// run.
func (s *Scheduler) advance(processed int) {
	s.mu.Lock()
	if processed > s.processed {
		s.processed = processed
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	metrics.PipelineProgress.Set(snapshot.Progress)
	s.publishEvent(snapshot)
}

// finishEarly pins progress to complete when a run stops at its album
// limit.
func (s *Scheduler) finishEarly(total int) {
	s.mu.Lock()
	s.processed = total
	s.mu.Unlock()
	metrics.PipelineProgress.Set(1)
}

func (s *Scheduler) publish() {
	s.publishEvent(s.Snapshot())
}

func (s *Scheduler) publishEvent(e Event) {
	select {
	case s.events <- e:
	default:
		// Drop rather than stall the pipeline on a slow consumer.
	}
}
