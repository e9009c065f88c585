package thumbnail

import (
	"context"
	"image"
	"time"
)

// PlayerEventKind identifies a Player event.
type PlayerEventKind int

const (
	// EventLoaded reports that the source is open and its duration known.
	EventLoaded PlayerEventKind = iota
	// EventFrame carries a decoded frame after Play.
	EventFrame
	// EventError reports a decoder failure.
	EventError
)

// PlayerEvent is delivered on a Player's event channel.
type PlayerEvent struct {
	Kind     PlayerEventKind
	Duration time.Duration
	Frame    image.Image
	Err      error
}

// Player is an event-driven video decoder. Open starts loading
// asynchronously and reports EventLoaded or EventError. After Seek and
// Play, decoded frames arrive as EventFrame. Stop releases the decoder
// and may be called more than once. Players are single use.
type Player interface {
	Open(ctx context.Context, path string) error
	Seek(position time.Duration)
	Play()
	Stop()
	Events() <-chan PlayerEvent
}

// FrameGrabber extracts one representative frame in a single blocking
// call. It is the fallback when a Player times out or fails.
type FrameGrabber interface {
	Grab(ctx context.Context, path string) (image.Image, error)
}

// seekTarget returns where to look for a representative frame: one second
// in, or a tenth of the duration for clips shorter than ten seconds.
func seekTarget(duration time.Duration) time.Duration {
	if duration <= 0 {
		return 0
	}
	return min(time.Second, duration/10)
}
