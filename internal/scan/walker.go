package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"asset-thumbnails/internal/logging"
	"asset-thumbnails/internal/mediatypes"
)

// Config configures the parallel directory walker
type Config struct {
	// NumWorkers is the number of parallel workers
	NumWorkers int
	// ChannelBuffer is the size of the work channel buffer
	ChannelBuffer int
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
	// IsCached, if set, drops sources for which it returns a non-empty path.
	IsCached func(path string) string
}

// DefaultConfig returns defaults that are safe on NFS.
func DefaultConfig() Config {
	return Config{
		NumWorkers:    3,
		ChannelBuffer: 1000,
		SkipHidden:    true,
	}
}

// Source is a file with a thumbnail pipeline.
type Source struct {
	Path    string
	Kind    mediatypes.Kind
	Size    int64
	ModTime time.Time
}

// Stats reports what a walk saw.
type Stats struct {
	Files   int64
	Sources int64
	Cached  int64
	Errors  int64
}

type fileJob struct {
	path string
	info os.FileInfo
}

// Walker walks a directory tree in parallel
type Walker struct {
	config Config
	root   string

	jobs    chan fileJob
	results chan Source
	wg      sync.WaitGroup

	files   atomic.Int64
	sources atomic.Int64
	cached  atomic.Int64
	errors  atomic.Int64
}

// NewWalker creates a walker over root.
func NewWalker(root string, config Config) *Walker {
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	return &Walker{
		config:  config,
		root:    root,
		jobs:    make(chan fileJob, config.ChannelBuffer),
		results: make(chan Source, config.ChannelBuffer),
	}
}

// Walk returns every source under root, sorted by path. A Walker is good
// for one Walk.
func (w *Walker) Walk(ctx context.Context) ([]Source, error) {
	logging.Debug("Scanning %s with %d workers", w.root, w.config.NumWorkers)
	startTime := time.Now()

	for i := 0; i < w.config.NumWorkers; i++ {
		w.wg.Add(1)
		go w.worker(ctx)
	}

	var found []Source
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for s := range w.results {
			found = append(found, s)
		}
	}()

	err := w.walkAndEnqueue(ctx)
	close(w.jobs)
	w.wg.Wait()
	close(w.results)
	<-collected

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })

	stats := w.Stats()
	logging.Info("Scan of %s complete: %d files, %d sources, %d cached in %v (errors: %d)",
		w.root, stats.Files, stats.Sources, stats.Cached, time.Since(startTime).Round(time.Millisecond), stats.Errors)

	if err == nil {
		err = ctx.Err()
	}
	return found, err
}

func (w *Walker) walkAndEnqueue(ctx context.Context) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}

		if err != nil {
			if path == w.root {
				return err
			}
			w.errors.Add(1)
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}

		if w.config.SkipHidden && path != w.root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			w.errors.Add(1)
			logging.Warn("Error getting info for %s: %v", path, err)
			return nil
		}

		select {
		case w.jobs <- fileJob{path: path, info: info}:
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
}

func (w *Walker) worker(ctx context.Context) {
	defer w.wg.Done()

	for job := range w.jobs {
		if ctx.Err() != nil {
			continue
		}
		w.files.Add(1)

		s, ok := w.processFile(job)
		if !ok {
			continue
		}
		w.results <- s
	}
}

func (w *Walker) processFile(job fileJob) (Source, bool) {
	kind := mediatypes.Classify(job.path)
	if kind == mediatypes.KindUnsupported {
		return Source{}, false
	}
	w.sources.Add(1)

	if w.config.IsCached != nil && w.config.IsCached(job.path) != "" {
		w.cached.Add(1)
		return Source{}, false
	}

	return Source{
		Path:    job.path,
		Kind:    kind,
		Size:    job.info.Size(),
		ModTime: job.info.ModTime(),
	}, true
}

// Stats returns the counters of the current or last walk.
func (w *Walker) Stats() Stats {
	return Stats{
		Files:   w.files.Load(),
		Sources: w.sources.Load(),
		Cached:  w.cached.Load(),
		Errors:  w.errors.Load(),
	}
}
