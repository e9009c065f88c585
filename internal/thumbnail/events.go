package thumbnail

import "sync"

// Listener receives one terminal signal per surfaced request. Calls may
// come from the goroutine that called Request (cache hits, unsupported
// types) or from the Coordinator's owner goroutine, so implementations
// must be safe for concurrent use. A Listener may call back into the
// Coordinator.
type Listener interface {
	ThumbnailReady(sourcePath, cachePath string)
	ThumbnailFailed(sourcePath string, err error)
}

// ListenerFuncs adapts a pair of functions to Listener. Nil fields are
// skipped.
type ListenerFuncs struct {
	Ready  func(sourcePath, cachePath string)
	Failed func(sourcePath string, err error)
}

func (f ListenerFuncs) ThumbnailReady(sourcePath, cachePath string) {
	if f.Ready != nil {
		f.Ready(sourcePath, cachePath)
	}
}

func (f ListenerFuncs) ThumbnailFailed(sourcePath string, err error) {
	if f.Failed != nil {
		f.Failed(sourcePath, err)
	}
}

type listeners struct {
	mu   sync.RWMutex
	list []Listener
}

func (l *listeners) add(listener Listener) {
	l.mu.Lock()
	l.list = append(l.list, listener)
	l.mu.Unlock()
}

func (l *listeners) snapshot() []Listener {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.list
}

func (l *listeners) ready(src, cachePath string) {
	for _, listener := range l.snapshot() {
		listener.ThumbnailReady(src, cachePath)
	}
}

func (l *listeners) failed(src string, err error) {
	for _, listener := range l.snapshot() {
		listener.ThumbnailFailed(src, err)
	}
}
