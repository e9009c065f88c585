package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"asset-thumbnails/internal/filesystem"
	"asset-thumbnails/internal/handlers"
	"asset-thumbnails/internal/logging"
	"asset-thumbnails/internal/memory"
	"asset-thumbnails/internal/metrics"
	"asset-thumbnails/internal/middleware"
	"asset-thumbnails/internal/startup"
	"asset-thumbnails/internal/thumbnail"

	"github.com/gorilla/mux"
)

// collectInterval is how often the metrics collector samples the cache.
const collectInterval = 30 * time.Second

func main() {
	startTime := time.Now()

	memConfig := memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}
	if memConfig.Configured {
		logging.Info("Memory limit from %s: %d bytes", memConfig.Source, memConfig.GoMemLimit)
	}

	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		metrics.SetAppInfo(startup.Version, startup.Commit, runtime.Version())
		filesystem.SetObserver(metrics.NewFilesystemObserver())
	}

	vipsErr := thumbnail.InitVips()
	startup.LogThumbnailInit(config, vipsErr)

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	progress := handlers.NewProgressTracker()
	opts := thumbnail.Options{
		CacheDir:        config.ThumbnailDir,
		ImageWorkers:    config.ImageWorkers,
		MaxActiveVideos: config.MaxActiveVideos,
		VideoTimeout:    config.VideoTimeout,
		NewPlayer:       thumbnail.NewFFmpegPlayer(config.FFmpegPath, config.FFprobePath),
		Progress:        progress,
		Gate:            monitor,
		VideoObserver:   observeVideo,
	}
	if config.VideoFallback {
		opts.Fallback = thumbnail.NewFFmpegGrabber(config.FFmpegPath)
	}

	coord, err := thumbnail.New(opts)
	if err != nil {
		logging.Fatal("Failed to initialize thumbnail coordinator: %v", err)
	}

	// Initialize handlers before starting so no signal is missed
	h := handlers.New(coord, progress, config.RequestWait)
	coord.Start()

	var collector *metrics.Collector
	if config.MetricsEnabled {
		collector = metrics.NewCollector(coord, collectInterval)
		collector.Start()
	}

	// Setup router
	router := setupRouter(h, config.MetricsEnabled)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply metrics and logging middleware
	if config.MetricsEnabled {
		router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	}
	router.Use(middleware.Logger(middleware.LoggingConfig{LogHealthChecks: config.LogHealthChecks}))

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: config.RequestWait + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	done := make(chan struct{})
	go handleShutdown(srv, coord, collector, monitor, done)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
	<-done
}

func observeVideo(path string, state thumbnail.VideoState) {
	metrics.ThumbnailVideoTransitions.WithLabelValues(state.String()).Inc()
	if state.Terminal() {
		logging.Debug("Video job for %s finished: %s", path, state)
	}
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/thumbnail/cached", h.GetCachedThumbnail).Methods("GET")

	thumbs := api.PathPrefix("/thumbnails").Subrouter()
	thumbs.HandleFunc("/session", h.BeginSession).Methods("POST")
	thumbs.HandleFunc("/batch", h.StartBatch).Methods("POST")
	thumbs.HandleFunc("/progress", h.GetProgress).Methods("GET")
	thumbs.HandleFunc("/cache", h.ClearCache).Methods("DELETE")

	return r
}

func handleShutdown(srv *http.Server, coord *thumbnail.Coordinator, collector *metrics.Collector, monitor *memory.Monitor, done chan<- struct{}) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping thumbnail coordinator")
	monitor.Stop()
	coord.Stop()
	startup.LogShutdownStepComplete("Thumbnail coordinator stopped")

	if collector != nil {
		collector.Stop()
	}
	thumbnail.ShutdownVips()

	startup.LogShutdownComplete()
}
