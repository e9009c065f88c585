package handlers

import (
	"net/http"
	"runtime"
	"time"

	"asset-thumbnails/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStopping = "stopping"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Coordinator state
	Session      uint64 `json:"session"`
	Pending      int    `json:"pending"`
	QueuedImages int    `json:"queuedImages"`
	ActiveVideos int    `json:"activeVideos"`
	QueuedVideos int    `json:"queuedVideos"`
	Dropped      uint64 `json:"dropped"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	stats := h.thumbs.Stats()

	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Session:      stats.Session,
		Pending:      stats.Pending,
		QueuedImages: stats.QueuedImages,
		ActiveVideos: stats.ActiveVideos,
		QueuedVideos: stats.QueuedVideos,
		Dropped:      stats.Dropped,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	statusCode := http.StatusOK
	if stats.Stopping {
		response.Status = statusStopping
		statusCode = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, statusCode, response)
}

// LivenessCheck is a simple liveness check (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}
