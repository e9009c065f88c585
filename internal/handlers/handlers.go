package handlers

import (
	"time"

	"asset-thumbnails/internal/thumbnail"
)

// Thumbnailer is the part of thumbnail.Coordinator the handlers use.
type Thumbnailer interface {
	Request(path string)
	CachedPath(path string) string
	IsPending(path string) bool
	BeginNewSession() uint64
	RequestBatch(message string, paths []string) int
	ClearCache() (int, error)
	Subscribe(l thumbnail.Listener)
	Stats() thumbnail.Stats
}

type Handlers struct {
	thumbs      Thumbnailer
	waiters     *waiters
	progress    *ProgressTracker
	requestWait time.Duration
	startTime   time.Time
}

// New subscribes to thumbs and returns handlers serving it. progress must
// be the aggregator the coordinator was created with.
func New(thumbs Thumbnailer, progress *ProgressTracker, requestWait time.Duration) *Handlers {
	h := &Handlers{
		thumbs:      thumbs,
		waiters:     newWaiters(),
		progress:    progress,
		requestWait: requestWait,
		startTime:   time.Now(),
	}
	thumbs.Subscribe(h.waiters)
	return h
}
