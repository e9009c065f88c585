package workers

import (
	"os"
	"runtime"
	"strconv"
)

const (
	// ImageWorkersEnv overrides the size of the image decode pool.
	ImageWorkersEnv = "IMAGE_WORKERS"
	// VideoSlotsEnv overrides the number of concurrently running video jobs.
	VideoSlotsEnv = "MAX_ACTIVE_VIDEOS"

	// DefaultImageWorkers is the cap applied when sizing the image pool.
	DefaultImageWorkers = 2
	// DefaultVideoSlots is the cap applied when sizing video slots.
	DefaultVideoSlots = 2
)

// Count returns a worker count derived from the available CPUs.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks (image decode and resize)
//   - 0.5 for tasks that spawn their own multi-threaded process (ffmpeg)
//
// The limit parameter caps the worker count; use 0 for no limit. A positive
// integer in envVar replaces the calculation but is still capped by limit.
func Count(envVar string, multiplier float64, limit int) int {
	if envVar != "" {
		if override := os.Getenv(envVar); override != "" {
			if count, err := strconv.Atoi(override); err == nil && count > 0 {
				if limit > 0 && count > limit {
					return limit
				}
				return count
			}
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForImages returns the image pool size: one worker per CPU, capped by limit,
// overridable with IMAGE_WORKERS.
func ForImages(limit int) int {
	return Count(ImageWorkersEnv, 1.0, limit)
}

// ForVideos returns the number of video slots. Each slot runs an ffmpeg
// process that is itself multi-threaded, so the ratio is lower.
func ForVideos(limit int) int {
	return Count(VideoSlotsEnv, 0.5, limit)
}

// Configured returns the positive integer set in envVar, or fallback when
// it is unset or invalid. Long-running services use it so that the
// defaults stay fixed regardless of the host's CPU count.
func Configured(envVar string, fallback int) int {
	if value := os.Getenv(envVar); value != "" {
		if count, err := strconv.Atoi(value); err == nil && count > 0 {
			return count
		}
	}
	return fallback
}
