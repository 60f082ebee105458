package imagecache

import (
	"container/list"
	"context"
	"image"
	"io"
	"sync"

	"github.com/disintegration/imaging"

	"album-engine/internal/logging"
	"album-engine/internal/metrics"
)

// Tier names a cache instance for metrics and logs.
type Tier string

const (
	// TierThumbnail holds small, fast-decoded previews.
	TierThumbnail Tier = "thumbnail"
	// TierHighQuality holds large, exact renditions.
	TierHighQuality Tier = "highquality"
)

// Config bounds one cache tier.
type Config struct {
	Tier         Tier
	MaxCostBytes int64
	MaxEntries   int
	MaxDimension int
	// Filter trades decode quality for speed per tier.
	Filter imaging.ResampleFilter
}

// ThumbnailConfig returns the preview tier: 25 MiB, 100 entries,
// decodes capped at 1024 px with a cheap box filter.
func ThumbnailConfig() Config {
	return Config{
		Tier:         TierThumbnail,
		MaxCostBytes: 25 << 20,
		MaxEntries:   100,
		MaxDimension: 1024,
		Filter:       imaging.Box,
	}
}

// HighQualityConfig returns the display tier: 50 MiB, 30 entries,
// decodes capped at 1800 px with Lanczos resampling.
func HighQualityConfig() Config {
	return Config{
		Tier:         TierHighQuality,
		MaxCostBytes: 50 << 20,
		MaxEntries:   30,
		MaxDimension: 1800,
		Filter:       imaging.Lanczos,
	}
}

// Opener supplies raw asset bytes for decoding.
type Opener interface {
	Open(ctx context.Context, id string) (io.ReadCloser, error)
}

// Delivery receives images for a request. It is called once
// synchronously with a nil placeholder on a miss, and once more with
// the final decoded image unless the request was superseded.
type Delivery func(img image.Image, final bool)

type cacheKey struct {
	assetID    string
	targetSize int
}

type entry struct {
	key  cacheKey
	img  image.Image
	cost int64
}

// inflight tracks the single outstanding decode per asset id.
type inflight struct {
	key    cacheKey
	cancel context.CancelFunc
}

// Cache is one bounded, evictable tier of decoded images. Entries are
// keyed by (assetID, targetSize) and accounted at width*height*4 bytes.
// Requests are cancellable per asset id with last-request-wins
// semantics.
type Cache struct {
	cfg    Config
	opener Opener
	log    *logging.Component

	mu       sync.Mutex
	order    *list.List // front = most recently used
	entries  map[cacheKey]*list.Element
	cost     int64
	requests map[string]*inflight
}

// New creates a cache tier over the given asset opener.
func New(cfg Config, opener Opener) *Cache {
	return &Cache{
		cfg:      cfg,
		opener:   opener,
		log:      logging.ForComponent("imagecache/" + string(cfg.Tier)),
		order:    list.New(),
		entries:  make(map[cacheKey]*list.Element),
		requests: make(map[string]*inflight),
	}
}

// Request delivers the image for (assetID, targetSize). On a hit the
// delivery fires immediately with the cached image. On a miss it fires
// synchronously with a nil placeholder, cancels any in-flight request
// for the same asset id, and decodes in the background; the final image
// is delivered unless a newer request supersedes this one first.
func (c *Cache) Request(ctx context.Context, assetID string, targetSize int, deliver Delivery) {
	k := cacheKey{assetID: assetID, targetSize: c.clampSize(targetSize)}

	c.mu.Lock()
	if elem, ok := c.entries[k]; ok {
		c.order.MoveToFront(elem)
		img := elem.Value.(*entry).img
		c.mu.Unlock()
		metrics.ImageCacheHits.WithLabelValues(string(c.cfg.Tier)).Inc()
		deliver(img, true)
		return
	}

	metrics.ImageCacheMisses.WithLabelValues(string(c.cfg.Tier)).Inc()

	// A newer request for the same asset wins; the old decode is
	// cancelled and its delivery suppressed.
	if prev, ok := c.requests[assetID]; ok {
		prev.cancel()
		metrics.ImageCacheCancellations.WithLabelValues(string(c.cfg.Tier)).Inc()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	req := &inflight{key: k, cancel: cancel}
	c.requests[assetID] = req
	c.mu.Unlock()

	deliver(nil, false)

	go c.load(reqCtx, req, deliver)
}

// Preload issues a priority request at 1.5 times the target size so a
// later exact-size request lands on an already-decoded neighbor.
func (c *Cache) Preload(ctx context.Context, assetID string, targetSize int, deliver Delivery) {
	c.Request(ctx, assetID, targetSize*3/2, deliver)
}

func (c *Cache) load(ctx context.Context, req *inflight, deliver Delivery) {
	defer req.cancel()

	img, err := c.decode(ctx, req.key)

	c.mu.Lock()
	current := c.requests[req.key.assetID] == req
	if current {
		delete(c.requests, req.key.assetID)
	}
	c.mu.Unlock()

	if err != nil {
		if ctx.Err() == nil {
			c.log.Warn("decode %s failed: %v", req.key.assetID, err)
		}
		return
	}
	if !current || ctx.Err() != nil {
		return // superseded, the winning request delivers instead
	}

	c.store(req.key, img)
	deliver(img, true)
}

func (c *Cache) decode(ctx context.Context, k cacheKey) (image.Image, error) {
	rc, err := c.opener.Open(ctx, k.assetID)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() > k.targetSize || bounds.Dy() > k.targetSize {
		img = imaging.Fit(img, k.targetSize, k.targetSize, c.cfg.Filter)
	}
	return img, nil
}

// store inserts a decoded image and evicts from the LRU tail until both
// the cost and count bounds hold again.
func (c *Cache) store(k cacheKey, img image.Image) {
	bounds := img.Bounds()
	cost := int64(bounds.Dx()) * int64(bounds.Dy()) * 4

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[k]; ok {
		c.cost -= elem.Value.(*entry).cost
		c.order.Remove(elem)
		delete(c.entries, k)
	}

	c.entries[k] = c.order.PushFront(&entry{key: k, img: img, cost: cost})
	c.cost += cost

	for (c.cost > c.cfg.MaxCostBytes || c.order.Len() > c.cfg.MaxEntries) && c.order.Len() > 1 {
		c.evictOldest()
	}
	c.publishGauges()
}

func (c *Cache) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	victim := elem.Value.(*entry)
	c.order.Remove(elem)
	delete(c.entries, victim.key)
	c.cost -= victim.cost
	metrics.ImageCacheEvictions.WithLabelValues(string(c.cfg.Tier)).Inc()
}

// Clear drops every entry. Wired to memory pressure and background
// signals.
func (c *Cache) Clear() {
	c.mu.Lock()
	n := c.order.Len()
	c.order.Init()
	c.entries = make(map[cacheKey]*list.Element)
	c.cost = 0
	c.publishGauges()
	c.mu.Unlock()

	if n > 0 {
		c.log.Info("cleared %d cached images", n)
	}
}

// Stats returns the live entry count and total cost in bytes.
func (c *Cache) Stats() (entries int, costBytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len(), c.cost
}

func (c *Cache) clampSize(size int) int {
	if size <= 0 || size > c.cfg.MaxDimension {
		return c.cfg.MaxDimension
	}
	return size
}

// publishGauges must be called with the lock held.
func (c *Cache) publishGauges() {
	metrics.ImageCacheSizeBytes.WithLabelValues(string(c.cfg.Tier)).Set(float64(c.cost))
	metrics.ImageCacheEntries.WithLabelValues(string(c.cfg.Tier)).Set(float64(c.order.Len()))
}
