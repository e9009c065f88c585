package thumbnail

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	gocache "github.com/patrickmn/go-cache"

	"asset-thumbnails/internal/filesystem"
	"asset-thumbnails/internal/logging"
	"asset-thumbnails/internal/metrics"
)

const (
	// Size is the bounding box, in pixels, every thumbnail fits inside.
	Size = 256
	// Quality is the JPEG quality used for cache files.
	Quality = 85

	cacheExt = ".jpg"

	// freshTTL bounds how long a verified entry skips the cache-file stat.
	freshTTL = time.Minute
)

// DirFor returns the thumbnail directory below an application data dir.
func DirFor(appDataDir string) string {
	return filepath.Join(appDataDir, "data", "thumbnails")
}

// Store maps source paths to JPEG files in a single flat directory.
//
// Keys are derived from the absolute path only, so a file that is touched
// without changing is regenerated, and a content change that preserves
// the modification time is not noticed.
type Store struct {
	dir        string
	mediaRetry filesystem.RetryConfig
	cacheRetry filesystem.RetryConfig

	// fresh remembers the source mtime each entry was last verified
	// against. A memo hit only skips the mtime comparison.
	fresh *gocache.Cache
}

// NewStore creates dir if needed and returns a Store rooted there.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("thumbnail store: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("thumbnail store: %w", err)
	}

	cacheRetry := filesystem.DefaultRetryConfig()
	cacheRetry.Volume = filesystem.VolumeCache

	return &Store{
		dir:        dir,
		mediaRetry: filesystem.DefaultRetryConfig(),
		cacheRetry: cacheRetry,
		fresh:      gocache.New(freshTTL, 2*freshTTL),
	}, nil
}

// Dir returns the directory holding the cache files.
func (s *Store) Dir() string {
	return s.dir
}

// normalizePath returns the absolute, cleaned form used for keys.
func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// Key returns the hex SHA-256 of the normalized source path.
func Key(path string) string {
	sum := sha256.Sum256([]byte(normalizePath(path)))
	return hex.EncodeToString(sum[:])
}

// PathFor returns where the thumbnail for path lives, whether or not it
// exists.
func (s *Store) PathFor(path string) string {
	return filepath.Join(s.dir, Key(path)+cacheExt)
}

// CachedPath returns the cache file for path if it exists and is not older
// than the source. Otherwise it returns "".
func (s *Store) CachedPath(path string) string {
	src := normalizePath(path)

	srcInfo, err := filesystem.Stat(src, s.mediaRetry)
	if err != nil {
		return ""
	}
	srcMod := srcInfo.ModTime()

	// A memo hit only skips the mtime comparison; the file may have been
	// removed by another process.
	verified := false
	if v, ok := s.fresh.Get(src); ok {
		if seen, _ := v.(time.Time); seen.Equal(srcMod) {
			verified = true
		} else {
			s.fresh.Delete(src)
		}
	}

	target := s.PathFor(src)
	info, err := filesystem.Stat(target, s.cacheRetry)
	if err != nil {
		s.fresh.Delete(src)
		metrics.ThumbnailCacheMisses.WithLabelValues("absent").Inc()
		return ""
	}
	if verified {
		return target
	}
	if info.ModTime().Before(srcMod) {
		metrics.ThumbnailCacheMisses.WithLabelValues("stale").Inc()
		return ""
	}

	s.fresh.SetDefault(src, srcMod)
	return target
}

// Invalidate forgets any verified state for path and removes its cache
// file, so the next request regenerates it.
func (s *Store) Invalidate(path string) {
	src := normalizePath(path)
	s.fresh.Delete(src)

	if err := os.Remove(s.PathFor(src)); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to remove thumbnail for %s: %v", src, err)
	}
}

// ClearAll deletes every file in the cache directory and returns how many
// were removed. Removal continues past individual failures.
func (s *Store) ClearAll() (int, error) {
	s.fresh.Flush()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	var errs []error
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			if !os.IsNotExist(err) {
				errs = append(errs, err)
			}
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}

// Stats counts the thumbnails in the cache directory and their total size.
func (s *Store) Stats() (files int, bytes int64, err error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), cacheExt) || filesystem.IsTempFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files++
		bytes += info.Size()
	}
	return files, bytes, nil
}

// save encodes img as the thumbnail for src. srcMod is the source mtime
// observed before decoding; it seeds the freshness memo.
func (s *Store) save(src string, srcMod time.Time, img image.Image) (string, error) {
	target := s.PathFor(src)

	err := filesystem.WriteFileAtomic(target, 0o644, func(w io.Writer) error {
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(Quality))
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncode, err)
	}

	// A source stamped in the future would otherwise look newer than its
	// freshly written thumbnail forever.
	if now := time.Now(); srcMod.After(now) {
		if err := os.Chtimes(target, srcMod, srcMod); err != nil {
			logging.Debug("Failed to align thumbnail mtime for %s: %v", src, err)
		}
	}

	s.fresh.SetDefault(normalizePath(src), srcMod)
	return target, nil
}
