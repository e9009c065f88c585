package mediatypes

import (
	"path/filepath"
	"sort"
	"strings"
)

// Kind is the thumbnail pipeline a source file is routed to.
type Kind string

const (
	// KindImage routes to the image decode pool.
	KindImage Kind = "image"
	// KindVideo routes to the video frame capture pipeline.
	KindVideo Kind = "video"
	// KindUnsupported fails without doing any work.
	KindUnsupported Kind = "unsupported"
)

// ImageExtensions lists the supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".ico":  true,
	".svg":  true,
}

// VideoExtensions lists the supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".flv":  true,
	".wmv":  true,
	".m4v":  true,
	".mpg":  true,
	".mpeg": true,
}

// vipsOnlyExtensions cannot be decoded by the pure Go decoders.
var vipsOnlyExtensions = map[string]bool{
	".svg": true,
	".ico": true,
}

// Ext returns the lowercased extension of path including the leading dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// KindForExt returns the Kind for an extension such as ".JPG" or ".mp4".
func KindForExt(ext string) Kind {
	ext = strings.ToLower(ext)
	if ImageExtensions[ext] {
		return KindImage
	}
	if VideoExtensions[ext] {
		return KindVideo
	}
	return KindUnsupported
}

// Classify returns the Kind for a file path.
func Classify(path string) Kind {
	return KindForExt(Ext(path))
}

// NeedsVips reports whether an image can only be rasterised by libvips.
func NeedsVips(path string) bool {
	return vipsOnlyExtensions[Ext(path)]
}

// Extensions returns every supported extension of a kind, sorted.
func Extensions(kind Kind) []string {
	var src map[string]bool
	switch kind {
	case KindImage:
		src = ImageExtensions
	case KindVideo:
		src = VideoExtensions
	default:
		return nil
	}
	exts := make([]string, 0, len(src))
	for ext := range src {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
