package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"asset-thumbnails/internal/logging"
)

func TestMain(m *testing.M) {
	logging.SetLevel(logging.LevelError)
	os.Exit(m.Run())
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_SET_VAR", "custom")

	if got := getEnv("TEST_SET_VAR", "default"); got != "custom" {
		t.Errorf("getEnv() = %q, want custom", got)
	}
	if got := getEnv("TEST_UNSET_VAR_XYZ", "default"); got != "default" {
		t.Errorf("getEnv() = %q, want default", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"unset keeps default true", "", true, true},
		{"unset keeps default false", "", false, false},
		{"true", "true", false, true},
		{"false", "false", true, false},
		{"one", "1", false, true},
		{"zero", "0", true, false},
		{"invalid keeps default", "maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.envValue)
			if got := getEnvBool("TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     time.Duration
	}{
		{"unset", "", 3 * time.Second},
		{"valid", "750ms", 750 * time.Millisecond},
		{"invalid", "soon", 3 * time.Second},
		{"negative", "-1s", 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.envValue)
			if got := getEnvDuration("TEST_DURATION", 3*time.Second); got != tt.want {
				t.Errorf("getEnvDuration() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDefaultAppDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg")
	if got := DefaultAppDataDir(); got != filepath.Join("/xdg", appName) {
		t.Errorf("DefaultAppDataDir() = %q", got)
	}

	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "/home/tester")
	if got := DefaultAppDataDir(); got != filepath.Join("/home/tester", ".local", "share", appName) {
		t.Errorf("DefaultAppDataDir() = %q", got)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CACHE_DIR", dir)
	t.Setenv("PORT", "9999")
	t.Setenv("IMAGE_WORKERS", "4")
	t.Setenv("MAX_ACTIVE_VIDEOS", "")
	t.Setenv("VIDEO_TIMEOUT", "5s")
	t.Setenv("VIDEO_FALLBACK", "false")
	t.Setenv("REQUEST_WAIT", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if config.AppDataDir != dir {
		t.Errorf("AppDataDir = %q, want %q", config.AppDataDir, dir)
	}
	if want := filepath.Join(dir, "data", "thumbnails"); config.ThumbnailDir != want {
		t.Errorf("ThumbnailDir = %q, want %q", config.ThumbnailDir, want)
	}
	if info, err := os.Stat(config.ThumbnailDir); err != nil || !info.IsDir() {
		t.Errorf("thumbnail directory not created: %v", err)
	}
	if config.Port != "9999" {
		t.Errorf("Port = %q", config.Port)
	}
	if config.ImageWorkers != 4 || config.MaxActiveVideos != 2 {
		t.Errorf("ImageWorkers=%d MaxActiveVideos=%d, want 4 and 2", config.ImageWorkers, config.MaxActiveVideos)
	}
	if config.VideoTimeout != 5*time.Second || config.VideoFallback {
		t.Errorf("VideoTimeout=%s VideoFallback=%v", config.VideoTimeout, config.VideoFallback)
	}
	if config.RequestWait != 10*time.Second {
		t.Errorf("RequestWait = %s, want 10s", config.RequestWait)
	}
}

func TestLoadConfig_CacheDirIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CACHE_DIR", file)

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should fail when CACHE_DIR is a file")
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	noop := func(_ http.ResponseWriter, _ *http.Request) {}
	router.HandleFunc("/api/thumbnail", noop).Methods("GET").Name("thumbnail")
	router.HandleFunc("/api/thumbnails/cache", noop).Methods("DELETE")
	router.HandleFunc("/health", noop)

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error: %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("routes = %d, want 3", len(routes))
	}

	found := map[string]RouteInfo{}
	for _, r := range routes {
		found[r.Path] = r
	}
	if found["/api/thumbnail"].Name != "thumbnail" {
		t.Errorf("route name = %q", found["/api/thumbnail"].Name)
	}
	if found["/health"].Method != "*" {
		t.Errorf("method-less route = %q, want *", found["/health"].Method)
	}
}
