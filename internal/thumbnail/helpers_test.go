package thumbnail

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

// writeImage saves a solid width x height image at dir/name, encoded by
// extension.
func writeImage(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// writeFile creates dir/name with the given content.
func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func solidFrame(width, height int) image.Image {
	return imaging.New(width, height, color.NRGBA{G: 255, A: 255})
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// recorder is a Listener that keeps every signal.
type recorder struct {
	mu     sync.Mutex
	ready  map[string][]string
	failed map[string][]error
	total  int
}

func newRecorder() *recorder {
	return &recorder{
		ready:  make(map[string][]string),
		failed: make(map[string][]error),
	}
}

func (r *recorder) ThumbnailReady(src, cachePath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready[src] = append(r.ready[src], cachePath)
	r.total++
}

func (r *recorder) ThumbnailFailed(src string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[src] = append(r.failed[src], err)
	r.total++
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

func (r *recorder) readyFor(src string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ready[src]...)
}

func (r *recorder) failedFor(src string) []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.failed[src]...)
}

func (r *recorder) waitTotal(t *testing.T, n int) {
	t.Helper()
	waitFor(t, 5*time.Second, "signals", func() bool { return r.count() >= n })
}

// fakeProgress records aggregator calls.
type fakeProgress struct {
	mu       sync.Mutex
	starts   []int
	updates  []int
	finishes int
}

func (p *fakeProgress) Start(_ string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts = append(p.starts, total)
}

func (p *fakeProgress) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, current)
}

func (p *fakeProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishes++
}

func (p *fakeProgress) snapshot() (starts, updates []int, finishes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.starts...), append([]int(nil), p.updates...), p.finishes
}

// blockingGate holds image tasks until released.
type blockingGate struct {
	release chan struct{}
}

func newBlockingGate() *blockingGate {
	return &blockingGate{release: make(chan struct{})}
}

func (g *blockingGate) Wait(ctx context.Context) error {
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *blockingGate) open() {
	close(g.release)
}

// playerScript describes how a fakePlayer behaves.
type playerScript struct {
	duration time.Duration
	frame    image.Image
	frames   int
	openErr  error
	loadErr  error
	playErr  error
	hang     bool
	release  <-chan struct{}
}

// fakePlayer is a scripted Player.
type fakePlayer struct {
	playerScript
	events chan PlayerEvent

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	seeks   []time.Duration
	stopped int
}

func newFakePlayer(script playerScript) *fakePlayer {
	return &fakePlayer{playerScript: script, events: make(chan PlayerEvent, 4)}
}

func (p *fakePlayer) Events() <-chan PlayerEvent {
	return p.events
}

func (p *fakePlayer) Open(ctx context.Context, _ string) error {
	if p.openErr != nil {
		return p.openErr
	}
	p.mu.Lock()
	p.ctx, p.cancel = context.WithCancel(ctx)
	ctx = p.ctx
	p.mu.Unlock()

	go func() {
		if p.loadErr != nil {
			p.send(ctx, PlayerEvent{Kind: EventError, Err: p.loadErr})
			return
		}
		p.send(ctx, PlayerEvent{Kind: EventLoaded, Duration: p.duration})
	}()
	return nil
}

func (p *fakePlayer) Seek(position time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, position)
}

func (p *fakePlayer) Play() {
	if p.hang {
		return
	}
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()

	go func() {
		if p.release != nil {
			select {
			case <-p.release:
			case <-ctx.Done():
				return
			}
		}
		if p.playErr != nil {
			p.send(ctx, PlayerEvent{Kind: EventError, Err: p.playErr})
			return
		}
		frames := max(1, p.frames)
		for i := 0; i < frames; i++ {
			p.send(ctx, PlayerEvent{Kind: EventFrame, Frame: p.frame})
		}
	}()
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped++
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *fakePlayer) send(ctx context.Context, ev PlayerEvent) {
	select {
	case p.events <- ev:
	case <-ctx.Done():
	}
}

func (p *fakePlayer) stopCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

func (p *fakePlayer) seekPositions() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.seeks...)
}

// fakePlayers hands out scripted players and remembers them.
type fakePlayers struct {
	script playerScript

	mu      sync.Mutex
	players []*fakePlayer
}

func (f *fakePlayers) New() Player {
	p := newFakePlayer(f.script)
	f.mu.Lock()
	f.players = append(f.players, p)
	f.mu.Unlock()
	return p
}

func (f *fakePlayers) all() []*fakePlayer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakePlayer(nil), f.players...)
}

// fakeGrabber is a scripted FrameGrabber.
type fakeGrabber struct {
	mu    sync.Mutex
	calls int
	frame image.Image
	err   error
}

func (g *fakeGrabber) Grab(_ context.Context, _ string) (image.Image, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if g.frame == nil {
		return nil, errors.New("no frame")
	}
	return g.frame, nil
}

func (g *fakeGrabber) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
