// Package main provides the entry point for the Asset Thumbnails service.
//
// Asset Thumbnails generates and caches 256px JPEG thumbnails for images and
// videos on local disk and serves them over HTTP. Requests never block on
// decoding: the coordinator deduplicates them, runs images on a bounded
// worker pool, runs videos on a bounded number of player slots, and reports
// each completion once.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT if given
//  2. Configuration Loading: Reads environment variables and prepares the cache directory
//  3. Component Initialization:
//     - Metrics: Registers Prometheus collectors and the filesystem observer
//     - libvips: Enables SVG and ICO decoding and shrink-on-load
//     - Memory Monitor: Holds image decoding back under memory pressure
//     - Thumbnail Coordinator: Image pool, video slots and result owner
//     - Metrics Collector: Samples the on-disk cache size
//  4. HTTP Server Setup: Configures routes, middleware, and starts server
//  5. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP API
//
//   - GET /api/thumbnail?path=: Thumbnail, generated if needed (202 while pending)
//   - GET /api/thumbnail/cached?path=: Thumbnail only if already cached
//   - POST /api/thumbnails/session: Supersede all in-flight work
//   - POST /api/thumbnails/batch: Start a progress batch and request its paths
//   - GET /api/thumbnails/progress: Current batch progress
//   - DELETE /api/thumbnails/cache: Remove every cached thumbnail
//   - GET /health, /healthz, /livez, /version, /metrics
//
// # Graceful Shutdown
//
//  1. Stop accepting new HTTP requests (30s timeout)
//  2. Stop the memory monitor and the thumbnail coordinator
//  3. Stop the metrics collector
//  4. Shut down libvips
//
// See [asset-thumbnails/internal/startup] for the environment variables.
package main
