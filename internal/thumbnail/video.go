package thumbnail

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"asset-thumbnails/internal/logging"
)

// VideoState is a stage of a video job.
type VideoState int

const (
	VideoIdle VideoState = iota
	VideoLoading
	VideoAwaitingFrame
	VideoCapturing
	VideoSaved
	VideoFailed
	VideoTimedOut
)

func (s VideoState) String() string {
	switch s {
	case VideoIdle:
		return "idle"
	case VideoLoading:
		return "loading"
	case VideoAwaitingFrame:
		return "awaiting_frame"
	case VideoCapturing:
		return "capturing"
	case VideoSaved:
		return "saved"
	case VideoFailed:
		return "failed"
	case VideoTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a job.
func (s VideoState) Terminal() bool {
	return s == VideoSaved || s == VideoFailed || s == VideoTimedOut
}

// videoJob drives one Player from open to a single saved frame. It runs on
// its own goroutine and reaches exactly one terminal state.
type videoJob struct {
	id      string
	task    task
	player  Player
	store   *Store
	timeout time.Duration
	observe func(path string, s VideoState)

	state VideoState
}

func newVideoJob(t task, player Player, store *Store, timeout time.Duration, observe func(string, VideoState)) *videoJob {
	return &videoJob{
		id:      uuid.NewString(),
		task:    t,
		player:  player,
		store:   store,
		timeout: timeout,
		observe: observe,
	}
}

func (j *videoJob) setState(s VideoState) {
	logging.Debug("Video job %s (%s): %s -> %s", j.id, j.task.path, j.state, s)
	j.state = s
	if j.observe != nil {
		j.observe(j.task.path, s)
	}
}

func (j *videoJob) fail(s VideoState, err error) (string, error) {
	j.setState(s)
	return "", err
}

// run executes the job. The deadline covers loading as well as waiting for
// the first frame; only the first frame is captured.
func (j *videoJob) run(ctx context.Context) (string, error) {
	defer j.player.Stop()

	j.setState(VideoLoading)
	if err := j.player.Open(ctx, j.task.path); err != nil {
		return j.fail(VideoFailed, fmt.Errorf("%w: %v", ErrVideoDecode, err))
	}

	deadline := time.NewTimer(j.timeout)
	defer deadline.Stop()

	events := j.player.Events()
	for {
		select {
		case <-ctx.Done():
			return j.fail(VideoFailed, fmt.Errorf("%w: %w", ErrVideoDecode, ctx.Err()))

		case <-deadline.C:
			return j.fail(VideoTimedOut, fmt.Errorf("%w: no frame after %s", ErrVideoTimeout, j.timeout))

		case ev, ok := <-events:
			if !ok {
				return j.fail(VideoFailed, fmt.Errorf("%w: decoder closed", ErrVideoDecode))
			}

			switch ev.Kind {
			case EventLoaded:
				if j.state != VideoLoading {
					continue
				}
				position := seekTarget(ev.Duration)
				logging.Debug("Video job %s: duration %s, seeking to %s", j.id, ev.Duration, position)
				j.player.Seek(position)
				j.player.Play()
				j.setState(VideoAwaitingFrame)

			case EventFrame:
				if j.state != VideoAwaitingFrame || ev.Frame == nil {
					continue
				}
				return j.capture(ev.Frame)

			case EventError:
				return j.fail(VideoFailed, fmt.Errorf("%w: %v", ErrVideoDecode, ev.Err))
			}
		}
	}
}

func (j *videoJob) capture(frame image.Image) (string, error) {
	j.setState(VideoCapturing)
	j.player.Stop()

	cachePath, err := j.store.save(j.task.path, j.task.modTime, fitThumbnail(frame))
	if err != nil {
		return j.fail(VideoFailed, err)
	}
	j.setState(VideoSaved)
	return cachePath, nil
}
