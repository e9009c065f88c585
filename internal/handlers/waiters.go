package handlers

import (
	"sync"
)

// outcome is the terminal signal delivered to a waiting request.
type outcome struct {
	cachePath string
	err       error
}

// waiters fans coordinator signals out to HTTP requests blocked on a path.
type waiters struct {
	mu      sync.Mutex
	pending map[string]map[chan outcome]struct{}
}

func newWaiters() *waiters {
	return &waiters{pending: make(map[string]map[chan outcome]struct{})}
}

// add registers interest in path. The returned channel receives at most
// one outcome; cancel must be called once the caller stops waiting.
func (w *waiters) add(path string) (ch chan outcome, cancel func()) {
	ch = make(chan outcome, 1)

	w.mu.Lock()
	set, ok := w.pending[path]
	if !ok {
		set = make(map[chan outcome]struct{})
		w.pending[path] = set
	}
	set[ch] = struct{}{}
	w.mu.Unlock()

	return ch, func() { w.remove(path, ch) }
}

func (w *waiters) remove(path string, ch chan outcome) {
	w.mu.Lock()
	defer w.mu.Unlock()
	set, ok := w.pending[path]
	if !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(w.pending, path)
	}
}

func (w *waiters) count(path string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending[path])
}

func (w *waiters) deliver(path string, o outcome) {
	w.mu.Lock()
	set := w.pending[path]
	delete(w.pending, path)
	w.mu.Unlock()

	for ch := range set {
		select {
		case ch <- o:
		default:
		}
	}
}

// ThumbnailReady implements thumbnail.Listener.
func (w *waiters) ThumbnailReady(sourcePath, cachePath string) {
	w.deliver(sourcePath, outcome{cachePath: cachePath})
}

// ThumbnailFailed implements thumbnail.Listener.
func (w *waiters) ThumbnailFailed(sourcePath string, err error) {
	w.deliver(sourcePath, outcome{err: err})
}
