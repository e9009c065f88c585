package thumbnail

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"asset-thumbnails/internal/filesystem"
	"asset-thumbnails/internal/logging"
	"asset-thumbnails/internal/mediatypes"
	"asset-thumbnails/internal/metrics"
)

const (
	DefaultImageWorkers    = 2
	DefaultMaxActiveVideos = 2
	DefaultVideoTimeout    = 3 * time.Second
	DefaultFallbackTimeout = 10 * time.Second
	DefaultResultBuffer    = 64
)

// Gate holds back decoding, for example under memory pressure.
type Gate interface {
	Wait(ctx context.Context) error
}

// Options configures a Coordinator. Zero values select the defaults.
type Options struct {
	// CacheDir is the directory holding thumbnail files.
	CacheDir string

	ImageWorkers    int
	MaxActiveVideos int

	// VideoTimeout bounds a video job from open to first frame.
	VideoTimeout time.Duration

	// NewPlayer creates the decoder for each video job. Defaults to ffmpeg
	// from PATH.
	NewPlayer func() Player

	// Fallback is tried once when a video job times out or fails to
	// decode. Nil disables it.
	Fallback        FrameGrabber
	FallbackTimeout time.Duration

	Progress Progress
	Gate     Gate

	// ResultBuffer sizes the channel carrying results to the owner
	// goroutine.
	ResultBuffer int

	// VideoObserver, if set, is called on every video state transition
	// from the job's goroutine.
	VideoObserver func(path string, state VideoState)
}

func (o *Options) setDefaults() {
	if o.ImageWorkers <= 0 {
		o.ImageWorkers = DefaultImageWorkers
	}
	if o.MaxActiveVideos <= 0 {
		o.MaxActiveVideos = DefaultMaxActiveVideos
	}
	if o.VideoTimeout <= 0 {
		o.VideoTimeout = DefaultVideoTimeout
	}
	if o.FallbackTimeout <= 0 {
		o.FallbackTimeout = DefaultFallbackTimeout
	}
	if o.NewPlayer == nil {
		o.NewPlayer = NewFFmpegPlayer("", "")
	}
	if o.Progress == nil {
		o.Progress = noopProgress{}
	}
	if o.ResultBuffer <= 0 {
		o.ResultBuffer = DefaultResultBuffer
	}
}

// result is what a job reports back to the owner goroutine.
type result struct {
	task      task
	cachePath string
	err       error
	elapsed   time.Duration
}

// Coordinator deduplicates thumbnail requests, runs them on bounded image
// and video pools and reports completions to Listeners.
type Coordinator struct {
	opts      Options
	store     *Store
	state     *state
	pool      *ants.Pool
	listeners listeners
	reporter  progressReporter
	retry     filesystem.RetryConfig

	ctx    context.Context
	cancel context.CancelFunc
	jobs   sync.WaitGroup

	results    chan result
	wake       chan struct{}
	imageWake  chan struct{}
	stopChan   chan struct{}
	ownerStop  chan struct{}
	ownerDone  chan struct{}
	dispatched chan struct{}

	started  atomic.Bool
	stopOnce sync.Once
}

// New creates a Coordinator. Call Start before expecting results.
func New(opts Options) (*Coordinator, error) {
	opts.setDefaults()

	store, err := NewStore(opts.CacheDir)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(opts.ImageWorkers, ants.WithPanicHandler(func(p interface{}) {
		logging.Error("Thumbnail worker panic: %v", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("create image pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		opts:       opts,
		store:      store,
		pool:       pool,
		reporter:   progressReporter{sink: opts.Progress},
		retry:      filesystem.DefaultRetryConfig(),
		ctx:        ctx,
		cancel:     cancel,
		results:    make(chan result, opts.ResultBuffer),
		wake:       make(chan struct{}, 1),
		imageWake:  make(chan struct{}, 1),
		stopChan:   make(chan struct{}),
		ownerStop:  make(chan struct{}),
		ownerDone:  make(chan struct{}),
		dispatched: make(chan struct{}),
	}
	c.state = newState(opts.MaxActiveVideos, &c.jobs)

	logging.Info("Thumbnail coordinator: cache=%s image workers=%d video slots=%d video timeout=%s fallback=%v",
		store.Dir(), opts.ImageWorkers, opts.MaxActiveVideos, opts.VideoTimeout, opts.Fallback != nil)
	return c, nil
}

// Store returns the underlying cache store.
func (c *Coordinator) Store() *Store {
	return c.store
}

// Subscribe registers a Listener for completion signals.
func (c *Coordinator) Subscribe(l Listener) {
	c.listeners.add(l)
}

// Start launches the owner and dispatcher goroutines.
func (c *Coordinator) Start() {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go c.own()
	go c.dispatch()
}

// Stop cancels running video jobs, waits for in-flight work to report and
// releases the pools. Queued tasks are discarded. Stop is idempotent.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		c.state.stop()
		c.cancel()
		close(c.stopChan)

		if c.started.Load() {
			<-c.dispatched
			c.jobs.Wait()
			close(c.ownerStop)
			<-c.ownerDone
		}
		c.pool.Release()
		logging.Info("Thumbnail coordinator stopped")
	})
}

// CachedPath returns the fresh cache file for path, or "".
func (c *Coordinator) CachedPath(path string) string {
	return c.store.CachedPath(path)
}

// IsPending reports whether path has been dispatched and not yet completed.
func (c *Coordinator) IsPending(path string) bool {
	return c.state.isPending(normalizePath(path))
}

// Invalidate forces path to be regenerated on its next request.
func (c *Coordinator) Invalidate(path string) {
	c.store.Invalidate(path)
}

// BeginNewSession supersedes all in-flight work. Results of tasks
// dispatched earlier are still cached but no longer reported.
func (c *Coordinator) BeginNewSession() uint64 {
	session := c.state.nextSession()
	metrics.ThumbnailSession.Set(float64(session))
	logging.Debug("Thumbnail session %d started", session)
	return session
}

// StartProgress opens a progress batch of total completions. A zero total
// is ignored.
func (c *Coordinator) StartProgress(message string, total int) {
	if total <= 0 {
		return
	}
	c.state.startBatch(message, total)
	metrics.ThumbnailBatchesTotal.Inc()
	c.wakeOwner()
}

// RequestBatch opens a progress batch over paths and requests each of them.
// Empty, duplicate and missing paths are left out of the batch so that it
// can complete; a source that disappears before its request is dispatched
// is removed from the total. It returns the number of paths requested.
func (c *Coordinator) RequestBatch(message string, paths []string) int {
	sources := c.batchSources(paths)
	if len(sources) == 0 {
		return 0
	}

	id := c.state.startBatch(message, len(sources))
	metrics.ThumbnailBatchesTotal.Inc()
	c.wakeOwner()

	requested := 0
	for _, src := range sources {
		if c.request(src) {
			requested++
			continue
		}
		c.state.shrinkBatch(id)
		c.wakeOwner()
	}
	return requested
}

// batchSources normalizes paths and keeps the existing files once each, in
// their original order.
func (c *Coordinator) batchSources(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	sources := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		src := normalizePath(p)
		if _, dup := seen[src]; dup {
			continue
		}
		seen[src] = struct{}{}

		info, err := filesystem.Stat(src, c.retry)
		if err != nil || info.IsDir() {
			metrics.ThumbnailRequestsTotal.WithLabelValues("not_found").Inc()
			logging.Debug("Batch entry %s skipped: %v", src, ErrNotFound)
			continue
		}
		sources = append(sources, src)
	}
	return sources
}

// ClearCache removes every cached thumbnail. Pending work is unaffected.
func (c *Coordinator) ClearCache() (int, error) {
	removed, err := c.store.ClearAll()
	metrics.ThumbnailCacheCleared.Add(float64(removed))
	logging.Info("Cleared %d cached thumbnails", removed)
	return removed, err
}

// Stats returns a snapshot of the Coordinator's bookkeeping.
func (c *Coordinator) Stats() Stats {
	return c.state.stats()
}

// GetStats implements metrics.StatsProvider.
func (c *Coordinator) GetStats() metrics.Stats {
	s := c.state.stats()
	files, bytes, err := c.store.Stats()
	if err != nil {
		logging.Debug("Failed to scan thumbnail cache: %v", err)
	}
	return metrics.Stats{
		CacheFiles:   files,
		CacheBytes:   bytes,
		Pending:      s.Pending,
		ActiveVideos: s.ActiveVideos,
		QueuedVideos: s.QueuedVideos,
		Session:      s.Session,
	}
}

// Request asks for the thumbnail of path and never blocks on decoding.
// Missing sources are ignored. A fresh cache entry is reported before
// Request returns; a path that is already pending is not queued twice.
// Everything else is reported once through the Listeners.
func (c *Coordinator) Request(path string) {
	c.request(normalizePath(path))
}

// request handles one normalized path. It returns false when the request
// was dropped and will never complete.
func (c *Coordinator) request(src string) bool {
	if c.state.isStopping() {
		return false
	}

	info, err := filesystem.Stat(src, c.retry)
	if err != nil || info.IsDir() {
		metrics.ThumbnailRequestsTotal.WithLabelValues("not_found").Inc()
		logging.Debug("Thumbnail request for %s dropped: %v", src, ErrNotFound)
		return false
	}

	if cachePath := c.store.CachedPath(src); cachePath != "" {
		metrics.ThumbnailRequestsTotal.WithLabelValues("cache_hit").Inc()
		metrics.ThumbnailCacheHits.Inc()
		c.state.finishSync("")
		c.wakeOwner()
		c.listeners.ready(src, cachePath)
		return true
	}

	if !c.state.tryAdd(src) {
		metrics.ThumbnailRequestsTotal.WithLabelValues("pending").Inc()
		return true
	}

	t := task{
		path:     src,
		kind:     mediatypes.Classify(src),
		modTime:  info.ModTime(),
		queuedAt: time.Now(),
	}

	switch t.kind {
	case mediatypes.KindImage:
		metrics.ThumbnailRequestsTotal.WithLabelValues("dispatched").Inc()
		c.state.pushImage(t)
		select {
		case c.imageWake <- struct{}{}:
		default:
		}

	case mediatypes.KindVideo:
		metrics.ThumbnailRequestsTotal.WithLabelValues("dispatched").Inc()
		if c.state.admitVideo(t) {
			go c.runVideo(t)
		}

	default:
		metrics.ThumbnailRequestsTotal.WithLabelValues("unsupported").Inc()
		metrics.ThumbnailGenerationsTotal.WithLabelValues(string(mediatypes.KindUnsupported), metrics.StatusErrorUnsupported).Inc()
		c.state.finishSync(src)
		c.wakeOwner()
		err := fmt.Errorf("%w: %q", ErrUnsupportedType, mediatypes.Ext(src))
		logging.Debug("Thumbnail for %s failed: %v", src, err)
		c.listeners.failed(src, err)
	}
	return true
}

func (c *Coordinator) wakeOwner() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// dispatch feeds queued image tasks to the pool in FIFO order. Submit
// blocks while every worker is busy, which keeps Request non-blocking.
func (c *Coordinator) dispatch() {
	defer close(c.dispatched)

	for {
		for {
			t, ok := c.state.popImage()
			if !ok {
				break
			}
			if err := c.pool.Submit(func() { c.runImage(t) }); err != nil {
				c.report(result{task: t, err: fmt.Errorf("%w: %v", ErrDecode, err)})
				c.jobs.Done()
			}
		}

		select {
		case <-c.imageWake:
		case <-c.stopChan:
			return
		}
	}
}

// report hands a result to the owner goroutine.
func (c *Coordinator) report(r result) {
	c.results <- r
}

func (c *Coordinator) runImage(t task) {
	defer c.jobs.Done()
	start := time.Now()
	logging.Debug("Image %s started after %s queued", t.path, start.Sub(t.queuedAt))

	r := result{task: t}
	defer func() {
		if p := recover(); p != nil {
			r.cachePath = ""
			r.err = fmt.Errorf("%w: panic: %v", ErrDecode, p)
		}
		r.elapsed = time.Since(start)
		c.report(r)
	}()

	if c.opts.Gate != nil {
		if err := c.opts.Gate.Wait(c.ctx); err != nil {
			r.err = fmt.Errorf("%w: %v", ErrDecode, err)
			return
		}
	}

	r.cachePath, r.err = generateImage(c.store, t)
}

func (c *Coordinator) runVideo(t task) {
	defer c.jobs.Done()
	start := time.Now()
	logging.Debug("Video %s started after %s queued", t.path, start.Sub(t.queuedAt))

	job := newVideoJob(t, c.opts.NewPlayer(), c.store, c.opts.VideoTimeout, c.opts.VideoObserver)
	cachePath, err := job.run(c.ctx)

	if err != nil && c.opts.Fallback != nil && c.ctx.Err() == nil && fallbackEligible(err) {
		cachePath, err = c.fallback(t, err)
	}

	c.report(result{task: t, cachePath: cachePath, err: err, elapsed: time.Since(start)})
}

// fallback makes the single out-of-process attempt for a failed video.
func (c *Coordinator) fallback(t task, cause error) (string, error) {
	logging.Debug("Video %s failed (%v), trying fallback grabber", t.path, cause)

	ctx, cancel := context.WithTimeout(c.ctx, c.opts.FallbackTimeout)
	defer cancel()

	frame, err := c.opts.Fallback.Grab(ctx, t.path)
	if err == nil {
		var cachePath string
		cachePath, err = c.store.save(t.path, t.modTime, fitThumbnail(frame))
		if err == nil {
			metrics.ThumbnailVideoFallbackTotal.WithLabelValues(metrics.StatusSuccess).Inc()
			return cachePath, nil
		}
	}

	metrics.ThumbnailVideoFallbackTotal.WithLabelValues(metrics.StatusError).Inc()
	return "", fmt.Errorf("%w (fallback: %v)", cause, err)
}

// own is the single consumer of results. It is the only goroutine that
// talks to the Progress aggregator.
func (c *Coordinator) own() {
	defer close(c.ownerDone)

	for {
		select {
		case r := <-c.results:
			c.complete(r)
		case <-c.wake:
		case <-c.ownerStop:
			for {
				select {
				case r := <-c.results:
					c.complete(r)
				default:
					c.reporter.sync(c.state.currentBatch())
					return
				}
			}
		}
		c.reporter.sync(c.state.currentBatch())
	}
}

func (c *Coordinator) complete(r result) {
	out := c.state.finish(r.task)
	if out.next != nil {
		go c.runVideo(*out.next)
	}

	kind := string(r.task.kind)
	metrics.ThumbnailGenerationsTotal.WithLabelValues(kind, statusFor(r.err)).Inc()
	metrics.ThumbnailGenerationDuration.WithLabelValues(kind).Observe(r.elapsed.Seconds())
	if out.dropped > 0 {
		metrics.ThumbnailStaleResults.Add(float64(out.dropped))
	}

	if out.stale {
		metrics.ThumbnailStaleResults.Inc()
		logging.Debug("Discarding stale result for %s", r.task.path)
		return
	}

	if r.err != nil {
		logging.Warn("Thumbnail for %s failed: %v", r.task.path, r.err)
		c.listeners.failed(r.task.path, r.err)
		return
	}

	logging.Debug("Thumbnail for %s ready in %s: %s", r.task.path, r.elapsed, r.cachePath)
	c.listeners.ready(r.task.path, r.cachePath)
}
