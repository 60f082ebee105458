package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"album-engine/internal/cachestate"
	"album-engine/internal/classify"
	"album-engine/internal/cluster"
	"album-engine/internal/handlers"
	"album-engine/internal/imagecache"
	"album-engine/internal/library"
	"album-engine/internal/logging"
	"album-engine/internal/memory"
	"album-engine/internal/metrics"
	"album-engine/internal/middleware"
	"album-engine/internal/scheduler"
	"album-engine/internal/score"
	"album-engine/internal/startup"
	"album-engine/internal/store"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()
	ctx := context.Background()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.SetAppInfo(startup.Version, startup.Commit, runtime.Version())
	metrics.InitializeMetrics()

	// Initialize album store
	dbStart := time.Now()
	s, err := store.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize album store: %v", err)
	}
	defer s.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Initialize library provider
	startup.LogLibraryInit(config.LibraryDir, config.PollInterval)
	provider := library.NewDirProvider(config.LibraryDir)
	provider.SetPollInterval(config.PollInterval)
	if err := provider.Start(); err != nil {
		logging.Warn("Initial library scan failed: %v", err)
	}
	defer provider.Stop()

	// Stale asset references are pruned from album reads
	s.SetResolver(provider.Resolve)

	if count, err := provider.Count(ctx); err == nil {
		startup.LogLibraryStarted(count)
	}

	// Cache validity tracking
	tracker := cachestate.New(provider, s)
	tracker.Start(ctx)

	// Memory pressure monitoring
	memConfig := memory.DefaultConfig()
	memConfig.MemoryLimitBytes = config.MemoryLimitBytes
	monitor := memory.NewMonitor(memConfig)
	monitor.Start()
	defer monitor.Stop()

	// Geocoding (optional, from a static places file)
	var geocoder classify.Geocoder
	if config.PlacesPath != "" {
		places, err := classify.LoadPlaces(config.PlacesPath)
		if err != nil {
			logging.Warn("Failed to load places file: %v", err)
		} else if len(places) > 0 {
			geocoder = classify.NewCachedGeocoder(classify.NewStaticGeocoder(places))
			logging.Info("Loaded %d places for geocoding", len(places))
		}
	}

	// Classification (optional remote service, heuristic fallback)
	var classifier classify.Classifier
	if config.ClassifierURL != "" {
		classifier = classify.NewRemoteClassifier(config.ClassifierURL, config.ClassifierTimeout)
	}
	aggregator := classify.NewAggregator(classifier, classify.NewHeuristicTagger(geocoder))

	// Tiered image caches
	thumbs := imagecache.New(imagecache.ThumbnailConfig(), provider)
	hq := imagecache.New(imagecache.HighQualityConfig(), provider)

	// Album pipeline scheduler
	sched := scheduler.New(scheduler.Config{
		Library:    provider,
		Extractor:  library.NewExtractor(),
		Clusterer:  cluster.New(cluster.DefaultOptions()),
		Aggregator: aggregator,
		Titler:     score.NewTitler(),
		Geocoder:   geocoder,
		Sink:       s,
		Validity:   tracker,
		Monitor:    monitor,
		ClearCaches: func() {
			thumbs.Clear()
			hq.Clear()
		},
		Tier: config.MemoryTier,
	})
	startup.LogPipelineInit(config.MemoryTier, sched.Snapshot().BatchSize)

	// Drain pipeline events into the debug log
	go func() {
		for e := range sched.Events() {
			logging.Debug("pipeline: state=%s processed=%d/%d albums=%d batch=%d",
				e.State, e.Processed, e.Total, e.Albums, e.BatchSize)
		}
	}()

	// Initialize handlers
	h := handlers.New(s, sched, tracker, provider, thumbs, hq)

	// Setup router
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply logging and metrics middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics server on its own port
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:         ":" + config.MetricsPort,
			Handler:      metricsMux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// SIGUSR2 injects a pressure signal, mirroring an OS low-memory
	// notification
	go handlePressureSignal(monitor)

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, provider, monitor, sched)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}

	startup.LogShutdownComplete()
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health and version endpoints
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// API endpoints
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/albums", h.ListAlbums).Methods("GET")
	api.HandleFunc("/albums/featured", h.FeaturedAlbums).Methods("GET")
	api.HandleFunc("/albums/{id}", h.DeleteAlbum).Methods("DELETE")
	api.HandleFunc("/state", h.GetState).Methods("GET")
	api.HandleFunc("/generate", h.GenerateAlbums).Methods("POST")
	api.HandleFunc("/refresh", h.RefreshAlbums).Methods("POST")
	api.HandleFunc("/cancel", h.CancelGeneration).Methods("POST")
	api.HandleFunc("/thumbnail/{id}", h.GetThumbnail).Methods("GET")

	return r
}

func handlePressureSignal(monitor *memory.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGUSR2)
	for range sigChan {
		logging.Warn("Received SIGUSR2, injecting memory pressure signal")
		monitor.SignalPressure(memory.SourceOS)
	}
}

func handleShutdown(srv, metricsSrv *http.Server, provider *library.DirProvider,
	monitor *memory.Monitor, sched *scheduler.Scheduler) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Cancelling album pipeline")
	sched.Cancel()
	startup.LogShutdownStepComplete("Album pipeline cancelled")

	startup.LogShutdownStep("Stopping library poller")
	provider.Stop()
	startup.LogShutdownStepComplete("Library poller stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Error("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("HTTP server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}
}
