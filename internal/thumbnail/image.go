package thumbnail

import (
	"fmt"
	"image"
	"io"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"asset-thumbnails/internal/filesystem"
	"asset-thumbnails/internal/logging"
	"asset-thumbnails/internal/mediatypes"
	"asset-thumbnails/internal/metrics"
)

// FitSize scales width x height down to fit inside limit x limit while
// keeping the aspect ratio. Images that already fit are left alone and no
// side drops below one pixel.
func FitSize(width, height, limit int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	if width <= limit && height <= limit {
		return width, height
	}
	if width >= height {
		return limit, max(1, height*limit/width)
	}
	return max(1, width*limit/height), limit
}

// fitThumbnail resizes img into the thumbnail bounding box.
func fitThumbnail(img image.Image) image.Image {
	return imaging.Fit(img, Size, Size, imaging.Lanczos)
}

// decodeImage loads the image at path already fitted to the thumbnail box.
// Every failure wraps ErrDecode.
func decodeImage(path string, retry filesystem.RetryConfig) (image.Image, error) {
	if mediatypes.NeedsVips(path) {
		img, err := loadWithVips(path, Size, Size)
		if err != nil {
			return nil, fmt.Errorf("%w: %s requires libvips: %v", ErrDecode, filepath.Ext(path), err)
		}
		metrics.ThumbnailImageDecodeByBackend.WithLabelValues("vips").Inc()
		return fitThumbnail(img), nil
	}

	f, err := filesystem.Open(path, retry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable dimensions: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}

	width, height := FitSize(cfg.Width, cfg.Height, Size)
	logging.Debug("Image %s: %dx%d -> %dx%d", filepath.Base(path), cfg.Width, cfg.Height, width, height)

	if VipsAvailable() {
		img, err := loadWithVips(path, width, height)
		if err == nil {
			metrics.ThumbnailImageDecodeByBackend.WithLabelValues("vips").Inc()
			return fitThumbnail(img), nil
		}
		logging.Debug("Vips failed for %s, falling back to imaging: %v", path, err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	metrics.ThumbnailImageDecodeByBackend.WithLabelValues("imaging").Inc()

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	return fitThumbnail(img), nil
}

// generateImage produces and stores the thumbnail for an image task.
func generateImage(store *Store, t task) (string, error) {
	img, err := decodeImage(t.path, store.mediaRetry)
	if err != nil {
		return "", err
	}

	return store.save(t.path, t.modTime, img)
}
