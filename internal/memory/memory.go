package memory

import (
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"album-engine/internal/logging"
	"album-engine/internal/metrics"
)

// Source identifies where a pressure signal came from.
type Source string

const (
	// SourceMonitor marks signals raised by the periodic usage check.
	SourceMonitor Source = "monitor"
	// SourceOS marks signals injected from outside, e.g. a process
	// signal handler.
	SourceOS Source = "os"
)

// Config holds memory management configuration
type Config struct {
	// MemoryLimitBytes is the soft memory limit (0 = use GOMEMLIMIT or no limit)
	MemoryLimitBytes int64

	// HighWaterMark is the fraction of limit at which pressure signals fire (0.0-1.0)
	HighWaterMark float64

	// CriticalWaterMark is the fraction at which to pause processing entirely (0.0-1.0)
	CriticalWaterMark float64

	// CheckInterval is how often to check memory usage
	CheckInterval time.Duration
}

// DefaultConfig returns sensible defaults for memory management
func DefaultConfig() Config {
	return Config{
		MemoryLimitBytes:  0, // Use GOMEMLIMIT if set
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     2 * time.Second,
	}
}

// Monitor tracks memory usage, provides backpressure, and fans pressure
// signals out to subscribers. A signal fires once per excursion above
// the high water mark, not once per check, so subscribers can treat
// each delivery as a discrete event.
type Monitor struct {
	config   Config
	limit    int64
	stopChan chan struct{}
	stopOnce sync.Once

	mu          sync.RWMutex
	current     uint64
	isPaused    bool
	underStress bool
	pauseChan   chan struct{}
	subscribers []func(Source)
}

// NewMonitor creates a new memory monitor
func NewMonitor(config Config) *Monitor {
	limit := config.MemoryLimitBytes

	// If no explicit limit, try to get GOMEMLIMIT
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %d bytes (%.1f MB)", limit, float64(limit)/(1024*1024))
		}
	}

	if limit == 0 {
		logging.Warn("Memory monitor: no memory limit configured, periodic pressure checks disabled")
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		stopChan:  make(chan struct{}),
		pauseChan: make(chan struct{}),
	}
}

// Subscribe registers a callback invoked on every pressure signal.
// Callbacks run on the monitor's goroutine and must return quickly.
func (m *Monitor) Subscribe(fn func(Source)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// SignalPressure injects an external pressure signal, typically from an
// OS signal handler or a lifecycle hook.
func (m *Monitor) SignalPressure(source Source) {
	logging.Warn("Memory pressure signaled (source=%s)", source)
	m.notify(source)
}

func (m *Monitor) notify(source Source) {
	metrics.MemoryPressureSignals.WithLabelValues(string(source)).Inc()

	m.mu.RLock()
	subs := make([]func(Source), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.RUnlock()

	for _, fn := range subs {
		fn(source)
	}
}

// Start begins monitoring memory usage
func (m *Monitor) Start() {
	if m.limit == 0 {
		return // No limit configured, nothing to monitor
	}

	go m.monitorLoop()
}

// Stop stops the memory monitor
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) monitorLoop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkMemory()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) checkMemory() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	signal := false

	m.mu.Lock()
	m.current = stats.Alloc

	if m.limit > 0 {
		usage := float64(stats.Alloc) / float64(m.limit)
		metrics.MemoryUsageRatio.Set(usage)

		switch {
		case usage >= m.config.HighWaterMark:
			if !m.underStress {
				m.underStress = true
				signal = true
			}
			if usage >= m.config.CriticalWaterMark && !m.isPaused {
				logging.Warn("Memory critical (%.1f%% of limit), pausing processing", usage*100)
				m.isPaused = true
				metrics.MemoryPaused.Set(1)
				go runtime.GC()
			}
		case usage < m.config.HighWaterMark:
			m.underStress = false
			if m.isPaused {
				logging.Info("Memory recovered (%.1f%% of limit), resuming processing", usage*100)
				m.isPaused = false
				metrics.MemoryPaused.Set(0)
				close(m.pauseChan)
				m.pauseChan = make(chan struct{})
			}
		}
	}
	m.mu.Unlock()

	if signal {
		logging.Warn("Memory above high water mark, signaling pressure")
		m.notify(SourceMonitor)
	}
}

// WaitIfPaused blocks if memory usage is critical, returns when it's safe to proceed
// Returns false if the stop channel is closed
func (m *Monitor) WaitIfPaused() bool {
	m.mu.RLock()
	if !m.isPaused {
		m.mu.RUnlock()
		return true
	}
	pauseChan := m.pauseChan
	m.mu.RUnlock()

	select {
	case <-pauseChan:
		return true
	case <-m.stopChan:
		return false
	}
}

// ShouldThrottle returns true if memory usage is above the high water mark
func (m *Monitor) ShouldThrottle() bool {
	if m.limit == 0 {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return float64(m.current) >= float64(m.limit)*m.config.HighWaterMark
}

// IsPaused returns true if processing should be paused entirely
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// GetUsage returns current memory usage as a percentage of the limit (0.0-1.0)
// Returns 0 if no limit is configured
func (m *Monitor) GetUsage() float64 {
	if m.limit == 0 {
		return 0
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return float64(m.current) / float64(m.limit)
}

// GetStats returns current memory statistics
func (m *Monitor) GetStats() (current, limit int64, usage float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var currentInt64 int64
	if m.current > math.MaxInt64 {
		currentInt64 = math.MaxInt64
	} else {
		currentInt64 = int64(m.current)
	}

	var usageRatio float64
	if m.limit > 0 {
		usageRatio = float64(m.current) / float64(m.limit)
	}

	return currentInt64, m.limit, usageRatio
}

// ForceGC triggers a garbage collection
func (m *Monitor) ForceGC() {
	runtime.GC()
}
