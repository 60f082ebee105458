package library

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"album-engine/internal/logging"
	"album-engine/internal/workers"

	"golang.org/x/sync/errgroup"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tiff": true, ".tif": true,
	".heic": true, ".heif": true, ".avif": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
	".wmv": true, ".webm": true, ".m4v": true, ".mpeg": true,
	".mpg": true, ".3gp": true,
}

// Default polling interval for change detection
const defaultPollInterval = 30 * time.Second

// DirProvider is a filesystem-backed Provider. It scans a directory tree,
// exposes files with supported extensions as assets, and polls for changes
// with a cheap root-mtime plus top-level-count check rather than a
// recursive walk.
type DirProvider struct {
	root         string
	pollInterval time.Duration
	stopChan     chan struct{}
	stopOnce     sync.Once
	log          *logging.Component

	mu     sync.RWMutex
	assets map[string]MediaAsset

	subMu       sync.RWMutex
	subscribers []func()

	// Last known state for lightweight change detection
	stateMu           sync.RWMutex
	lastRootModTime   time.Time
	lastTopLevelCount int
}

// NewDirProvider creates a provider rooted at dir. Call Start to begin
// change polling.
func NewDirProvider(dir string) *DirProvider {
	return &DirProvider{
		root:         dir,
		pollInterval: defaultPollInterval,
		stopChan:     make(chan struct{}),
		assets:       make(map[string]MediaAsset),
		log:          logging.ForComponent("library"),
	}
}

// SetPollInterval sets the change-detection polling interval.
func (p *DirProvider) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		p.pollInterval = interval
	}
}

// Start performs the initial scan and begins change polling.
func (p *DirProvider) Start() error {
	if err := p.scan(); err != nil {
		return fmt.Errorf("initial library scan: %w", err)
	}
	go p.pollForChanges()
	return nil
}

// Stop stops change polling.
func (p *DirProvider) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
}

// Subscribe registers a change callback.
func (p *DirProvider) Subscribe(fn func()) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

func (p *DirProvider) notify() {
	p.subMu.RLock()
	subs := make([]func(), len(p.subscribers))
	copy(subs, p.subscribers)
	p.subMu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}

// Assets returns assets matching the filter.
func (p *DirProvider) Assets(_ context.Context, f Filter) ([]MediaAsset, error) {
	p.mu.RLock()
	out := make([]MediaAsset, 0, len(p.assets))
	for _, a := range p.assets {
		if len(f.MediaTypes) > 0 && !containsType(f.MediaTypes, a.MediaType) {
			continue
		}
		out = append(out, a)
	}
	p.mu.RUnlock()

	if f.SortByCaptureTime {
		sort.Slice(out, func(i, j int) bool {
			return out[i].CaptureTime.Before(out[j].CaptureTime)
		})
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Count returns the number of known assets.
func (p *DirProvider) Count(_ context.Context) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.assets), nil
}

// NewestCaptureTime returns the most recent capture timestamp, or the zero
// time for an empty library.
func (p *DirProvider) NewestCaptureTime(_ context.Context) (time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var newest time.Time
	for _, a := range p.assets {
		if a.CaptureTime.After(newest) {
			newest = a.CaptureTime
		}
	}
	return newest, nil
}

// Resolve reports whether the asset id is still present.
func (p *DirProvider) Resolve(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.assets[id]
	return ok
}

// Open returns the asset's raw bytes.
func (p *DirProvider) Open(_ context.Context, id string) (io.ReadCloser, error) {
	p.mu.RLock()
	asset, ok := p.assets[id]
	p.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("asset %q not found", id)
	}
	return os.Open(asset.SourcePath)
}

// scan walks the root directory and rebuilds the asset snapshot. Asset
// construction reads image headers, so it runs on a bounded IO worker
// pool while the walk itself stays sequential.
func (p *DirProvider) scan() error {
	start := time.Now()
	found := make(map[string]MediaAsset)

	var foundMu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(workers.ForScan(16))

	err := filepath.Walk(p.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			p.log.Warn("error accessing %s: %v", path, err)
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		g.Go(func() error {
			asset, ok := p.buildAsset(path, info)
			if !ok {
				return nil
			}
			foundMu.Lock()
			found[asset.ID] = asset
			foundMu.Unlock()
			return nil
		})
		return nil
	})
	_ = g.Wait()
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.assets = found
	p.mu.Unlock()

	p.updateLastKnownState()
	p.log.Info("scan complete: %d assets in %v", len(found), time.Since(start))
	return nil
}

// buildAsset creates a MediaAsset from a file on disk. Files with
// unsupported extensions are skipped.
func (p *DirProvider) buildAsset(path string, info os.FileInfo) (MediaAsset, bool) {
	ext := strings.ToLower(filepath.Ext(info.Name()))

	var mediaType MediaType
	switch {
	case imageExts[ext]:
		mediaType = MediaTypeImage
	case videoExts[ext]:
		mediaType = MediaTypeVideo
	default:
		return MediaAsset{}, false
	}

	relPath, err := filepath.Rel(p.root, path)
	if err != nil {
		return MediaAsset{}, false
	}

	asset := MediaAsset{
		ID:           relPath,
		CaptureTime:  info.ModTime(),
		MediaType:    mediaType,
		IsScreenshot: looksLikeScreenshot(info.Name()),
		BurstID:      burstIDFromName(info.Name()),
		SourcePath:   path,
	}

	if mediaType == MediaTypeImage {
		if w, h, err := imageDimensions(path); err == nil {
			asset.PixelWidth = w
			asset.PixelHeight = h
		}
	}

	return asset, true
}

// imageDimensions reads only the image header to get pixel dimensions.
func imageDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func looksLikeScreenshot(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "screenshot") || strings.HasPrefix(lower, "screen_shot")
}

// burstIDFromName extracts a burst group id from filenames like
// "IMG_BURST20240115_003.jpg". Returns "" when the name carries no burst
// marker.
func burstIDFromName(name string) string {
	upper := strings.ToUpper(name)
	idx := strings.Index(upper, "BURST")
	if idx < 0 {
		return ""
	}
	rest := upper[idx+len("BURST"):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return ""
	}
	return rest[:end]
}

// pollForChanges periodically checks for library changes.
func (p *DirProvider) pollForChanges() {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			changed, err := p.detectChanges()
			if err != nil {
				p.log.Error("change detection: %v", err)
				continue
			}
			if changed {
				p.log.Info("library changes detected, rescanning")
				if err := p.scan(); err != nil {
					p.log.Error("rescan failed: %v", err)
					continue
				}
				p.notify()
			}
		case <-p.stopChan:
			return
		}
	}
}

// detectChanges does a lightweight check: root directory mtime and a
// top-level entry count. It avoids recursive walks on every poll.
func (p *DirProvider) detectChanges() (bool, error) {
	rootInfo, err := os.Stat(p.root)
	if err != nil {
		return false, fmt.Errorf("stat library root: %w", err)
	}

	p.stateMu.RLock()
	lastRootModTime := p.lastRootModTime
	lastTopLevelCount := p.lastTopLevelCount
	p.stateMu.RUnlock()

	if rootInfo.ModTime().After(lastRootModTime) {
		return true, nil
	}

	entries, err := os.ReadDir(p.root)
	if err != nil {
		return false, fmt.Errorf("read library root: %w", err)
	}

	topLevelCount := 0
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), ".") {
			topLevelCount++
		}
	}

	return topLevelCount != lastTopLevelCount, nil
}

// updateLastKnownState records the root state after a scan.
func (p *DirProvider) updateLastKnownState() {
	rootInfo, err := os.Stat(p.root)
	if err != nil {
		p.log.Warn("failed to stat library root for state update: %v", err)
		return
	}

	entries, err := os.ReadDir(p.root)
	if err != nil {
		p.log.Warn("failed to read library root for state update: %v", err)
		return
	}

	topLevelCount := 0
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), ".") {
			topLevelCount++
		}
	}

	p.stateMu.Lock()
	p.lastRootModTime = rootInfo.ModTime()
	p.lastTopLevelCount = topLevelCount
	p.stateMu.Unlock()
}

func containsType(types []MediaType, t MediaType) bool {
	for _, mt := range types {
		if mt == t {
			return true
		}
	}
	return false
}
