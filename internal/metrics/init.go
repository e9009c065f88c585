package metrics

// Generation status labels.
const (
	StatusSuccess          = "success"
	StatusErrorDecode      = "error_decode"
	StatusErrorEncode      = "error_encode"
	StatusErrorUnsupported = "error_unsupported"
	StatusErrorTimeout     = "error_timeout"
	StatusErrorVideoDecode = "error_video_decode"
	StatusError            = "error"
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, result := range []string{"cache_hit", "pending", "dispatched", "not_found", "unsupported"} {
		ThumbnailRequestsTotal.WithLabelValues(result)
	}

	statuses := []string{
		StatusSuccess, StatusErrorDecode, StatusErrorEncode, StatusErrorUnsupported,
		StatusErrorTimeout, StatusErrorVideoDecode, StatusError,
	}
	for _, t := range []string{"image", "video", "unsupported"} {
		for _, s := range statuses {
			ThumbnailGenerationsTotal.WithLabelValues(t, s)
		}
		ThumbnailGenerationDuration.WithLabelValues(t)
	}

	for _, backend := range []string{"vips", "imaging"} {
		ThumbnailImageDecodeByBackend.WithLabelValues(backend)
	}

	for _, s := range []string{StatusSuccess, StatusError} {
		ThumbnailVideoFallbackTotal.WithLabelValues(s)
	}

	for _, state := range []string{"loading", "awaiting_frame", "capturing", "saved", "failed", "timed_out"} {
		ThumbnailVideoTransitions.WithLabelValues(state)
	}

	for _, reason := range []string{"absent", "stale"} {
		ThumbnailCacheMisses.WithLabelValues(reason)
	}

	for _, vol := range []string{"media", "cache"} {
		for _, op := range []string{"stat", "open", "write"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(vol, op)
		}
	}
}
