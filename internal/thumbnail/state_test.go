package thumbnail

import (
	"sync"
	"testing"

	"asset-thumbnails/internal/mediatypes"
)

func newTestState(maxVideos int) (*state, *sync.WaitGroup) {
	var wg sync.WaitGroup
	return newState(maxVideos, &wg), &wg
}

func TestState_TryAdd(t *testing.T) {
	s, _ := newTestState(2)

	if !s.tryAdd("/a.jpg") {
		t.Fatal("first tryAdd should insert")
	}
	if s.tryAdd("/a.jpg") {
		t.Error("second tryAdd should report the path as pending")
	}
	if !s.isPending("/a.jpg") {
		t.Error("path should be pending")
	}

	s.finish(task{path: "/a.jpg", kind: mediatypes.KindImage})
	if s.isPending("/a.jpg") {
		t.Error("path should be removed after finish")
	}
	if !s.tryAdd("/a.jpg") {
		t.Error("path should be insertable again after finish")
	}
}

func TestState_SessionStaleness(t *testing.T) {
	s, _ := newTestState(2)

	s.tryAdd("/old.jpg")
	s.tryAdd("/adopted.jpg")
	s.nextSession()
	s.tryAdd("/new.jpg")

	// Re-requesting in the new session adopts the in-flight task.
	if s.tryAdd("/adopted.jpg") {
		t.Error("adopted path should still be pending")
	}

	tests := []struct {
		path      string
		wantStale bool
	}{
		{"/old.jpg", true},
		{"/adopted.jpg", false},
		{"/new.jpg", false},
	}
	for _, tt := range tests {
		out := s.finish(task{path: tt.path, kind: mediatypes.KindImage})
		if out.stale != tt.wantStale {
			t.Errorf("finish(%s).stale = %v, want %v", tt.path, out.stale, tt.wantStale)
		}
	}

	if got := s.stats().Pending; got != 0 {
		t.Errorf("Pending = %d, want 0", got)
	}
}

func TestState_VideoSlots(t *testing.T) {
	s, wg := newTestState(2)
	defer func() {
		for i := 0; i < 5; i++ {
			wg.Done()
		}
	}()

	paths := []string{"/1.mp4", "/2.mp4", "/3.mp4", "/4.mp4", "/5.mp4"}
	var started []string
	for _, p := range paths {
		s.tryAdd(p)
		if s.admitVideo(task{path: p, kind: mediatypes.KindVideo}) {
			started = append(started, p)
		}
	}

	if len(started) != 2 {
		t.Fatalf("started %d videos immediately, want 2", len(started))
	}
	if st := s.stats(); st.ActiveVideos != 2 || st.QueuedVideos != 3 {
		t.Fatalf("active=%d queued=%d, want 2 and 3", st.ActiveVideos, st.QueuedVideos)
	}

	// Finishing a video hands its slot to the oldest queued one.
	for _, want := range []string{"/3.mp4", "/4.mp4", "/5.mp4"} {
		out := s.finish(task{path: started[0], kind: mediatypes.KindVideo})
		started = started[1:]
		if out.next == nil || out.next.path != want {
			t.Fatalf("next = %v, want %s", out.next, want)
		}
		started = append(started, out.next.path)
		if st := s.stats(); st.ActiveVideos != 2 {
			t.Errorf("active = %d, want 2", st.ActiveVideos)
		}
	}

	for len(started) > 0 {
		out := s.finish(task{path: started[0], kind: mediatypes.KindVideo})
		started = started[1:]
		if out.next != nil {
			t.Errorf("unexpected next %s", out.next.path)
		}
	}
	if st := s.stats(); st.ActiveVideos != 0 || st.QueuedVideos != 0 {
		t.Errorf("active=%d queued=%d, want 0 and 0", st.ActiveVideos, st.QueuedVideos)
	}
}

func TestState_DropsSupersededQueuedWork(t *testing.T) {
	s, wg := newTestState(1)

	s.tryAdd("/running.mp4")
	if !s.admitVideo(task{path: "/running.mp4", kind: mediatypes.KindVideo}) {
		t.Fatal("first video should start")
	}
	s.tryAdd("/queued.mp4")
	s.admitVideo(task{path: "/queued.mp4", kind: mediatypes.KindVideo})
	s.tryAdd("/queued.jpg")
	s.pushImage(task{path: "/queued.jpg", kind: mediatypes.KindImage})

	s.nextSession()

	if _, ok := s.popImage(); ok {
		t.Error("superseded image should not be dispatched")
	}

	out := s.finish(task{path: "/running.mp4", kind: mediatypes.KindVideo})
	wg.Done()
	if out.next != nil {
		t.Errorf("superseded video %s should not start", out.next.path)
	}
	if !out.stale {
		t.Error("running video result should be stale")
	}

	st := s.stats()
	if st.Pending != 0 || st.ActiveVideos != 0 || st.Dropped != 2 {
		t.Errorf("stats = %+v, want nothing pending, no active videos and 2 dropped", st)
	}
}

func TestState_StopRefusesWork(t *testing.T) {
	s, _ := newTestState(1)

	s.tryAdd("/a.jpg")
	s.pushImage(task{path: "/a.jpg", kind: mediatypes.KindImage})
	s.stop()

	if s.tryAdd("/b.jpg") {
		t.Error("tryAdd should fail after stop")
	}
	if _, ok := s.popImage(); ok {
		t.Error("popImage should return nothing after stop")
	}
	if st := s.stats(); st.Pending != 0 || st.QueuedImages != 0 {
		t.Errorf("stats = %+v, want empty", st)
	}
}

func TestState_BatchCounting(t *testing.T) {
	s, _ := newTestState(1)

	// Completions outside a batch are not counted.
	s.finishSync("")
	if b := s.currentBatch(); b.id != 0 || b.completed != 0 {
		t.Fatalf("batch = %+v, want none", b)
	}

	s.startBatch("Generating", 2)
	for i := 0; i < 4; i++ {
		s.finishSync("")
	}
	b := s.currentBatch()
	if b.completed != 2 || b.total != 2 {
		t.Errorf("batch = %+v, want completed capped at total", b)
	}

	s.startBatch("Again", 3)
	if b := s.currentBatch(); b.completed != 0 || b.id != 2 {
		t.Errorf("new batch = %+v, want reset counters", b)
	}
}

func TestState_ShrinkBatch(t *testing.T) {
	s, _ := newTestState(1)

	old := s.startBatch("First", 3)
	id := s.startBatch("Second", 3)
	s.finishSync("")

	s.shrinkBatch(old)
	if b := s.currentBatch(); b.total != 3 {
		t.Fatalf("shrinking a replaced batch changed the current one: %+v", b)
	}

	s.shrinkBatch(id)
	s.shrinkBatch(id)
	s.shrinkBatch(id)
	b := s.currentBatch()
	if b.total != 1 || b.completed != 1 {
		t.Errorf("batch = %+v, want total shrunk to the completed count", b)
	}
}
