package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"asset-thumbnails/internal/logging"
)

const (
	defaultFFmpeg  = "ffmpeg"
	defaultFFprobe = "ffprobe"
)

// ffmpegPlayer implements Player with ffprobe for the duration and one
// ffmpeg process that seeks and pipes a single PNG frame.
type ffmpegPlayer struct {
	ffmpeg  string
	ffprobe string
	events  chan PlayerEvent

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	path     string
	position time.Duration
	playing  bool
}

// NewFFmpegPlayer returns a Player factory backed by the given binaries.
// Empty paths resolve ffmpeg and ffprobe from PATH.
func NewFFmpegPlayer(ffmpegPath, ffprobePath string) func() Player {
	if ffmpegPath == "" {
		ffmpegPath = defaultFFmpeg
	}
	if ffprobePath == "" {
		ffprobePath = defaultFFprobe
	}
	return func() Player {
		return &ffmpegPlayer{
			ffmpeg:  ffmpegPath,
			ffprobe: ffprobePath,
			events:  make(chan PlayerEvent, 2),
		}
	}
}

func (p *ffmpegPlayer) Events() <-chan PlayerEvent {
	return p.events
}

func (p *ffmpegPlayer) Open(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx != nil {
		return fmt.Errorf("player already opened")
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.path = path

	go func(ctx context.Context) {
		duration, err := probeDuration(ctx, p.ffprobe, path)
		if err != nil {
			p.send(ctx, PlayerEvent{Kind: EventError, Err: err})
			return
		}
		p.send(ctx, PlayerEvent{Kind: EventLoaded, Duration: duration})
	}(p.ctx)
	return nil
}

func (p *ffmpegPlayer) Seek(position time.Duration) {
	p.mu.Lock()
	p.position = position
	p.mu.Unlock()
}

func (p *ffmpegPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx == nil || p.playing {
		return
	}
	p.playing = true

	go func(ctx context.Context, path string, position time.Duration) {
		img, err := extractFrame(ctx, p.ffmpeg,
			"-ss", formatSeconds(position),
			"-i", path,
			"-frames:v", "1")
		if err != nil {
			p.send(ctx, PlayerEvent{Kind: EventError, Err: err})
			return
		}
		p.send(ctx, PlayerEvent{Kind: EventFrame, Frame: img})
	}(p.ctx, p.path, p.position)
}

func (p *ffmpegPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *ffmpegPlayer) send(ctx context.Context, ev PlayerEvent) {
	select {
	case p.events <- ev:
	case <-ctx.Done():
	}
}

// ffmpegGrabber implements FrameGrabber by letting ffmpeg's thumbnail
// filter pick a frame from the start of the stream.
type ffmpegGrabber struct {
	ffmpeg string
}

// NewFFmpegGrabber returns a FrameGrabber using the given ffmpeg binary.
func NewFFmpegGrabber(ffmpegPath string) FrameGrabber {
	if ffmpegPath == "" {
		ffmpegPath = defaultFFmpeg
	}
	return &ffmpegGrabber{ffmpeg: ffmpegPath}
}

func (g *ffmpegGrabber) Grab(ctx context.Context, path string) (image.Image, error) {
	return extractFrame(ctx, g.ffmpeg,
		"-i", path,
		"-vf", "thumbnail",
		"-frames:v", "1")
}

// extractFrame runs ffmpeg with args and decodes the PNG it writes to
// stdout.
func extractFrame(ctx context.Context, ffmpeg string, args ...string) (image.Image, error) {
	full := append([]string{"-v", "error"}, args...)
	full = append(full, "-f", "image2pipe", "-vcodec", "png", "-")

	cmd := exec.CommandContext(ctx, ffmpeg, full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame")
	}

	logging.Debug("ffmpeg frame output: %d bytes", stdout.Len())
	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode ffmpeg output: %w", err)
	}
	return img, nil
}

// probeDuration asks ffprobe for the container duration. Streams without
// one report zero.
func probeDuration(ctx context.Context, ffprobe, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("ffprobe: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseDuration(string(out)), nil
}

func parseDuration(s string) time.Duration {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
