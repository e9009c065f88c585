// Package startup handles configuration loading and startup/shutdown
// logging for the thumbnail server.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - CACHE_DIR: application data directory; thumbnails live in
//     CACHE_DIR/data/thumbnails (default: $XDG_DATA_HOME/asset-thumbnails or
//     ~/.local/share/asset-thumbnails)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_ENABLED: serve Prometheus metrics on /metrics (default: true)
//   - IMAGE_WORKERS: image decode pool size (default: 2)
//   - MAX_ACTIVE_VIDEOS: concurrently running video jobs (default: 2)
//   - VIDEO_TIMEOUT: deadline for a video frame as Go duration (default: 3s)
//   - VIDEO_FALLBACK: retry failed videos with a one-shot ffmpeg grab (default: true)
//   - FFMPEG_PATH, FFPROBE_PATH: decoder binaries (default: from PATH)
//   - REQUEST_WAIT: how long GET /api/thumbnail waits for generation (default: 10s)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: log /health requests (default: false)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: heap limit, see package memory
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
