package thumbnail

import (
	"sync"
	"time"

	"asset-thumbnails/internal/mediatypes"
)

// task is one dispatched generation.
type task struct {
	path     string
	kind     mediatypes.Kind
	modTime  time.Time
	queuedAt time.Time
}

// completion describes what the owner goroutine must do after a result has
// been booked.
type completion struct {
	stale   bool
	next    *task
	dropped int
}

// state is all mutable bookkeeping shared between callers and the owner
// goroutine. Every read-modify-write happens under mu, and no method calls
// out while holding it.
type state struct {
	mu sync.Mutex

	// pending maps a path to the session it was last requested in.
	pending  map[string]uint64
	session  uint64
	stopping bool

	images []task

	maxVideos    int
	activeVideos int
	videos       []task

	batch    batch
	batchSeq uint64
	dropped  uint64
	jobs     *sync.WaitGroup
}

func newState(maxVideos int, jobs *sync.WaitGroup) *state {
	return &state{
		pending:   make(map[string]uint64),
		maxVideos: maxVideos,
		jobs:      jobs,
	}
}

// tryAdd inserts path into the pending set. A path already pending from an
// older session is adopted by the current one so its result is surfaced.
func (s *state) tryAdd(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return false
	}
	if _, ok := s.pending[path]; ok {
		s.pending[path] = s.session
		return false
	}
	s.pending[path] = s.session
	return true
}

func (s *state) isPending(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[path]
	return ok
}

func (s *state) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

func (s *state) nextSession() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session++
	return s.session
}

// isCurrentLocked reports whether the pending entry for path belongs to
// the current session.
func (s *state) isCurrentLocked(path string) bool {
	stamp, ok := s.pending[path]
	return ok && stamp == s.session
}

// dropLocked removes a queued task that will never run.
func (s *state) dropLocked(t task) {
	delete(s.pending, t.path)
	s.dropped++
	s.batch.advance()
}

func (s *state) pushImage(t task) {
	s.mu.Lock()
	s.images = append(s.images, t)
	s.mu.Unlock()
}

// popImage returns the next image task from the current session. Tasks
// queued by a superseded session are dropped without running. The job is
// registered with the wait group before the lock is released.
func (s *state) popImage() (task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for !s.stopping && len(s.images) > 0 {
		t := s.images[0]
		s.images = s.images[1:]
		if len(s.images) == 0 {
			s.images = nil
		}
		if !s.isCurrentLocked(t.path) {
			s.dropLocked(t)
			continue
		}
		s.jobs.Add(1)
		return t, true
	}
	return task{}, false
}

// admitVideo takes a slot for t if one is free. Otherwise t joins the FIFO
// queue and false is returned.
func (s *state) admitVideo(t task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		delete(s.pending, t.path)
		return false
	}
	if s.activeVideos < s.maxVideos {
		s.activeVideos++
		s.jobs.Add(1)
		return true
	}
	s.videos = append(s.videos, t)
	return false
}

// nextVideoLocked hands the slot of a finished video to the next current
// queued one, or releases it.
func (s *state) nextVideoLocked() *task {
	for !s.stopping && len(s.videos) > 0 {
		t := s.videos[0]
		s.videos = s.videos[1:]
		if len(s.videos) == 0 {
			s.videos = nil
		}
		if !s.isCurrentLocked(t.path) {
			s.dropLocked(t)
			continue
		}
		s.jobs.Add(1)
		return &t
	}
	s.activeVideos--
	return nil
}

// finish books a completed task.
func (s *state) finish(t task) completion {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.dropped
	out := completion{stale: !s.isCurrentLocked(t.path)}
	delete(s.pending, t.path)
	s.batch.advance()

	if t.kind == mediatypes.KindVideo {
		out.next = s.nextVideoLocked()
	}
	out.dropped = int(s.dropped - before)
	return out
}

// finishSync books a request that completed without being dispatched.
func (s *state) finishSync(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path != "" {
		delete(s.pending, path)
	}
	s.batch.advance()
}

// startBatch opens a new progress batch, replacing any unfinished one, and
// returns its id.
func (s *state) startBatch(message string, total int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchSeq++
	s.batch = batch{id: s.batchSeq, message: message, total: total}
	return s.batchSeq
}

// shrinkBatch removes one expected completion from batch id, if it is still
// open. It never takes total below the completions already counted.
func (s *state) shrinkBatch(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch.id == id && s.batch.total > s.batch.completed {
		s.batch.total--
	}
}

func (s *state) currentBatch() batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batch
}

// stop refuses further work and forgets queued tasks.
func (s *state) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopping = true
	for _, t := range s.images {
		delete(s.pending, t.path)
	}
	for _, t := range s.videos {
		delete(s.pending, t.path)
	}
	s.images = nil
	s.videos = nil
}

// Stats is a point-in-time view of the Coordinator's bookkeeping.
type Stats struct {
	Pending      int
	QueuedImages int
	ActiveVideos int
	QueuedVideos int
	Session      uint64
	Dropped      uint64
	Stopping     bool
}

func (s *state) stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Pending:      len(s.pending),
		QueuedImages: len(s.images),
		ActiveVideos: s.activeVideos,
		QueuedVideos: len(s.videos),
		Session:      s.session,
		Dropped:      s.dropped,
		Stopping:     s.stopping,
	}
}
