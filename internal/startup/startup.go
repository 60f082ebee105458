package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"album-engine/internal/logging"
	"album-engine/internal/memory"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	LibraryDir        string
	DataDir           string
	Port              string
	MetricsPort       string
	PollInterval      time.Duration
	ClassifierURL     string
	ClassifierTimeout time.Duration
	PlacesPath        string
	MemoryLimitBytes  int64
	LogHealthChecks   bool
	MetricsEnabled    bool

	// Derived paths
	DatabasePath string

	// Memory tier detected at startup, used for batch sizing.
	MemoryTier memory.Tier
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	libraryDir := getEnv("LIBRARY_DIR", "/library")
	dataDir := getEnv("DATA_DIR", "/data")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	pollIntervalStr := getEnv("POLL_INTERVAL", "30s")
	classifierURL := getEnv("CLASSIFIER_URL", "")
	classifierTimeoutStr := getEnv("CLASSIFIER_TIMEOUT", "10s")
	placesPath := getEnv("PLACES_FILE", "")
	memoryLimitStr := getEnv("MEMORY_LIMIT_BYTES", "0")
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", false)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  LIBRARY_DIR:         %s", libraryDir)
	logging.Info("  DATA_DIR:            %s", dataDir)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  POLL_INTERVAL:       %s", pollIntervalStr)
	logging.Info("  CLASSIFIER_URL:      %s", orNone(classifierURL))
	logging.Info("  CLASSIFIER_TIMEOUT:  %s", classifierTimeoutStr)
	logging.Info("  PLACES_FILE:         %s", orNone(placesPath))
	logging.Info("  MEMORY_LIMIT_BYTES:  %s", memoryLimitStr)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	pollInterval, err := time.ParseDuration(pollIntervalStr)
	if err != nil {
		logging.Warn("  Invalid POLL_INTERVAL, using default: 30s")
		pollInterval = 30 * time.Second
	}

	classifierTimeout, err := time.ParseDuration(classifierTimeoutStr)
	if err != nil {
		logging.Warn("  Invalid CLASSIFIER_TIMEOUT, using default: 10s")
		classifierTimeout = 10 * time.Second
	}

	memoryLimit, err := strconv.ParseInt(memoryLimitStr, 10, 64)
	if err != nil || memoryLimit < 0 {
		logging.Warn("  Invalid MEMORY_LIMIT_BYTES, using default: 0 (auto)")
		memoryLimit = 0
	}

	// Resolve paths
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	libraryDir, err = filepath.Abs(libraryDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library directory path: %w", err)
	}
	logging.Info("  Library directory (absolute): %s", libraryDir)

	dataDir, err = filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	logging.Info("  Data directory (absolute): %s", dataDir)

	// Check library directory (warning only; the poller recovers when it
	// appears later)
	if err := ensureDirectory(libraryDir, "library"); err != nil {
		logging.Warn("  Library directory issue: %v", err)
	}

	config := &Config{
		LibraryDir:        libraryDir,
		DataDir:           dataDir,
		Port:              port,
		MetricsPort:       metricsPort,
		PollInterval:      pollInterval,
		ClassifierURL:     classifierURL,
		ClassifierTimeout: classifierTimeout,
		PlacesPath:        placesPath,
		MemoryLimitBytes:  memoryLimit,
		LogHealthChecks:   logHealthChecks,
		MetricsEnabled:    metricsEnabled,
		DatabasePath:      filepath.Join(dataDir, "albums.db"),
		MemoryTier:        memory.DetectTier(),
	}

	// Data directory holds the album database (required)
	if err := ensureDirectory(dataDir, "data"); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}

	logging.Debug("  Testing data directory write access...")
	if err := testWriteAccess(dataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Data directory is writable")

	// Summary
	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (required)")
	logging.Info("    Classifier:  %s", classifierMode(classifierURL))
	logging.Info("    Geocoding:   %s", geocodeMode(placesPath))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func classifierMode(url string) string {
	if url == "" {
		return "HEURISTIC ONLY (set CLASSIFIER_URL to enable)"
	}
	return "REMOTE"
}

func geocodeMode(path string) string {
	if path == "" {
		return "DISABLED (set PLACES_FILE to enable)"
	}
	return "ENABLED"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogLibraryInit logs library provider initialization
func LogLibraryInit(dir string, interval time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("LIBRARY PROVIDER")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Library root: %s", dir)
	logging.Info("  Poll interval: %v", interval)
	logging.Info("  Starting scanner...")
}

// LogLibraryStarted logs successful provider start
func LogLibraryStarted(assetCount int) {
	logging.Info("  [OK] Library scanned: %d assets", assetCount)
}

// LogPipelineInit logs album pipeline initialization
func LogPipelineInit(tier memory.Tier, batchSize int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("ALBUM PIPELINE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Memory tier: %s", tier)
	logging.Info("  Initial batch size: %d", batchSize)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    API:           http://localhost:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ___    ____                      ______            _
   /   |  / / /  __  ______ ___     / ____/___  ____ _(_)___  ___
  / /| | / / __ \/ / / / __ '__ \  / __/ / __ \/ __ '/ / __ \/ _ \
 / ___ |/ / /_/ / /_/ / / / / / / / /___/ / / / /_/ / / / / /  __/
/_/  |_/_/_.___/\__,_/_/ /_/ /_/ /_____/_/ /_/\__, /_/_/ /_/\___/
                                             /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if total := memory.TotalBytes(); total > 0 {
		logging.Info("  Memory:          %.1f GiB (%s tier)",
			float64(total)/(1<<30), memory.TierForBytes(total))
	}

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if name == "library" && logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			fileCount := 0
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", fileCount, dirCount)
		}
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Write access was confirmed regardless
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
