package thumbnail

import (
	"context"
	"errors"

	"asset-thumbnails/internal/metrics"
)

var (
	// ErrNotFound is returned when the source file does not exist.
	ErrNotFound = errors.New("source not found")
	// ErrUnsupportedType is reported for extensions outside the allow-lists.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrDecode is reported when an image cannot be read or decoded.
	ErrDecode = errors.New("decode failed")
	// ErrEncode is reported when the thumbnail cannot be encoded or written.
	ErrEncode = errors.New("encode failed")
	// ErrVideoTimeout is reported when no frame arrived before the deadline.
	ErrVideoTimeout = errors.New("video frame timeout")
	// ErrVideoDecode is reported when the video decoder itself fails.
	ErrVideoDecode = errors.New("video decode failed")
)

// statusFor maps an outcome to its generations_total status label.
func statusFor(err error) string {
	switch {
	case err == nil:
		return metrics.StatusSuccess
	case errors.Is(err, ErrUnsupportedType):
		return metrics.StatusErrorUnsupported
	case errors.Is(err, ErrVideoTimeout):
		return metrics.StatusErrorTimeout
	case errors.Is(err, ErrVideoDecode):
		return metrics.StatusErrorVideoDecode
	case errors.Is(err, ErrEncode):
		return metrics.StatusErrorEncode
	case errors.Is(err, ErrDecode):
		return metrics.StatusErrorDecode
	default:
		return metrics.StatusError
	}
}

// fallbackEligible reports whether a failed video job may be retried with
// the out-of-process grabber.
func fallbackEligible(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrVideoTimeout) || errors.Is(err, ErrVideoDecode)
}
