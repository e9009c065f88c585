// Package metrics provides Prometheus instrumentation for the thumbnail
// service. All metrics are registered on the default registry through
// promauto and are prefixed with "asset_thumbnails_".
//
// # Metric Categories
//
// Request coordinator:
//   - ThumbnailRequestsTotal: requests by resolution (cache_hit, pending, dispatched, not_found, unsupported)
//   - ThumbnailPending, ThumbnailSession: in-flight paths and the session counter
//   - ThumbnailStaleResults: results discarded after BeginNewSession
//   - ThumbnailBatchesTotal: progress batches that finished
//
// Generation:
//   - ThumbnailGenerationsTotal: by type (image/video/unsupported) and status
//   - ThumbnailGenerationDuration: histogram by type
//   - ThumbnailImageDecodeByBackend: libvips versus pure Go decodes
//   - ThumbnailVideoActive, ThumbnailVideoQueued: video slots in use and waiting requests
//   - ThumbnailVideoFallbackTotal: out-of-process fallback attempts by status
//
// Cache:
//   - ThumbnailCacheHits, ThumbnailCacheMisses (absent/stale)
//   - ThumbnailCacheSize, ThumbnailCacheCount: sampled by Collector
//   - ThumbnailCacheCleared: files removed by ClearCache
//
// Filesystem and memory gauges are fed by the filesystem Observer and the
// memory Monitor respectively.
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
