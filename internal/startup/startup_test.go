package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}

	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_UNSET_VAR",
			defaultValue: "default",
			want:         "default",
			setEnv:       false,
		},
		{
			name:         "Returns env value when set",
			key:          "TEST_SET_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
			setEnv:       true,
		},
		{
			name:         "Empty env value falls back to default",
			key:          "TEST_EMPTY_VAR",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
		setEnv       bool
	}{
		{name: "Unset returns default true", defaultValue: true, want: true},
		{name: "Unset returns default false", defaultValue: false, want: false},
		{name: "true parses", envValue: "true", setEnv: true, want: true},
		{name: "false parses", envValue: "false", setEnv: true, defaultValue: true, want: false},
		{name: "1 parses as true", envValue: "1", setEnv: true, want: true},
		{name: "garbage falls back to default", envValue: "banana", setEnv: true, defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}

			got := getEnvBool(key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	libraryDir := t.TempDir()
	dataDir := t.TempDir()

	t.Setenv("LIBRARY_DIR", libraryDir)
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("PORT", "9999")
	t.Setenv("POLL_INTERVAL", "45s")
	t.Setenv("CLASSIFIER_URL", "http://classifier:5000/labels")
	t.Setenv("MEMORY_LIMIT_BYTES", "1073741824")
	t.Setenv("METRICS_ENABLED", "false")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.LibraryDir != libraryDir {
		t.Errorf("LibraryDir = %q, want %q", config.LibraryDir, libraryDir)
	}
	if config.Port != "9999" {
		t.Errorf("Port = %q, want 9999", config.Port)
	}
	if config.PollInterval != 45*time.Second {
		t.Errorf("PollInterval = %v, want 45s", config.PollInterval)
	}
	if config.ClassifierURL != "http://classifier:5000/labels" {
		t.Errorf("ClassifierURL = %q", config.ClassifierURL)
	}
	if config.MemoryLimitBytes != 1<<30 {
		t.Errorf("MemoryLimitBytes = %d, want %d", config.MemoryLimitBytes, 1<<30)
	}
	if config.MetricsEnabled {
		t.Error("expected MetricsEnabled=false")
	}

	want := filepath.Join(dataDir, "albums.db")
	if config.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", config.DatabasePath, want)
	}
}

func TestLoadConfigInvalidDurationsFallBack(t *testing.T) {
	t.Setenv("LIBRARY_DIR", t.TempDir())
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("POLL_INTERVAL", "not-a-duration")
	t.Setenv("CLASSIFIER_TIMEOUT", "also-bad")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s default", config.PollInterval)
	}
	if config.ClassifierTimeout != 10*time.Second {
		t.Errorf("ClassifierTimeout = %v, want 10s default", config.ClassifierTimeout)
	}
}

func TestEnsureDirectory(t *testing.T) {
	t.Run("creates missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir")
		if err := ensureDirectory(path, "data"); err != nil {
			t.Fatalf("ensureDirectory failed: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory at %s", path)
		}
	})

	t.Run("accepts existing directory", func(t *testing.T) {
		if err := ensureDirectory(t.TempDir(), "data"); err != nil {
			t.Errorf("ensureDirectory failed: %v", err)
		}
	})

	t.Run("rejects file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := ensureDirectory(path, "data"); err == nil {
			t.Error("expected error for non-directory path")
		}
	})
}

func TestTestWriteAccess(t *testing.T) {
	dir := t.TempDir()
	if err := testWriteAccess(dir); err != nil {
		t.Errorf("testWriteAccess failed on temp dir: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected test file to be cleaned up, found %d entries", len(entries))
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/albums", "api/albums"},
		{"/api/albums/{id}", "api/albums"},
		{"/api/thumbnail/{id}", "api/thumbnail"},
		{"/healthz", "healthz"},
		{"/metrics", "metrics"},
		{"/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := getRouteGroup(tt.path); got != tt.want {
				t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/albums", func(http.ResponseWriter, *http.Request) {}).Methods("GET")
	router.HandleFunc("/api/albums/{id}", func(http.ResponseWriter, *http.Request) {}).Methods("DELETE")
	router.HandleFunc("/healthz", func(http.ResponseWriter, *http.Request) {})

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("expected 3 routes, got %d", len(routes))
	}

	found := false
	for _, r := range routes {
		if r.Path == "/api/albums/{id}" && r.Method == "DELETE" {
			found = true
		}
	}
	if !found {
		t.Error("expected DELETE /api/albums/{id} in route list")
	}
}
