package thumbnail

// Progress receives batch progress. The Coordinator calls it from a single
// goroutine: Start once per batch, Update with a non-decreasing count that
// never exceeds total, and Finish exactly once per batch, either when the
// count reaches total or, for a batch replaced before completing, just
// before the next Start.
type Progress interface {
	Start(message string, total int)
	Update(current int)
	Finish()
}

type noopProgress struct{}

func (noopProgress) Start(string, int) {}
func (noopProgress) Update(int)        {}
func (noopProgress) Finish()           {}

// batch holds the counters for the current progress batch.
type batch struct {
	id        uint64
	message   string
	total     int
	completed int
}

// advance counts one completion if a batch is open.
func (b *batch) advance() {
	if b.id != 0 && b.completed < b.total {
		b.completed++
	}
}

// progressReporter tracks what the aggregator has already been told so the
// owner goroutine can replay batch snapshots idempotently.
type progressReporter struct {
	sink     Progress
	id       uint64
	reported int
	finished bool
}

func (r *progressReporter) sync(b batch) {
	if b.id == 0 {
		return
	}
	if b.id != r.id {
		// A replaced batch that never completed still ends.
		if r.id != 0 && !r.finished {
			r.sink.Finish()
		}
		r.id, r.reported, r.finished = b.id, 0, false
		r.sink.Start(b.message, b.total)
	}
	if r.finished {
		return
	}
	if b.completed > r.reported {
		r.reported = b.completed
		r.sink.Update(b.completed)
	}
	if b.completed == b.total {
		r.finished = true
		r.sink.Finish()
	}
}
