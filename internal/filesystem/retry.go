package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"asset-thumbnails/internal/logging"
)

const (
	// VolumeMedia labels operations on source files.
	VolumeMedia = "media"
	// VolumeCache labels operations on the thumbnail cache.
	VolumeCache = "cache"
)

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Volume is the metric label for the operation, VolumeMedia if empty.
	Volume string
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
		Volume:         VolumeMedia,
	}
}

func (c RetryConfig) volume() string {
	if c.Volume == "" {
		return VolumeMedia
	}
	return c.Volume
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// withRetry runs fn until it succeeds, fails with something other than
// ESTALE, or the retries are exhausted.
func withRetry[T any](operation, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	volume := config.volume()
	backoff := config.InitialBackoff

	var (
		result T
		err    error
	)
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err = fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", operation, attempt, path)
			}
			break
		}
		if !isNFSStaleError(err) {
			break
		}
		if attempt < config.MaxRetries {
			observeRetry(volume, operation)
			logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
				operation, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
			continue
		}
		logging.Warn("NFS %s failed after %d retries for %s: %v", operation, config.MaxRetries, path, err)
	}

	observeOperation(volume, operation, time.Since(start).Seconds(), err)
	return result, err
}

// Stat performs os.Stat, retrying on NFS stale file handle errors.
func Stat(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// Open performs os.Open, retrying on NFS stale file handle errors.
func Open(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}
