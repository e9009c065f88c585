package handlers

import (
	"sync"
	"time"
)

// ProgressSnapshot is the JSON view of the current batch.
type ProgressSnapshot struct {
	Active     bool      `json:"active"`
	Message    string    `json:"message,omitempty"`
	Total      int       `json:"total"`
	Current    int       `json:"current"`
	Percent    float64   `json:"percent"`
	StartedAt  time.Time `json:"startedAt,omitempty"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
	Batches    int       `json:"batches"`
}

// ProgressTracker implements thumbnail.Progress and keeps the latest batch
// for polling clients.
type ProgressTracker struct {
	mu   sync.RWMutex
	snap ProgressSnapshot
}

func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{}
}

// Start implements thumbnail.Progress.
func (p *ProgressTracker) Start(message string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap = ProgressSnapshot{
		Active:    true,
		Message:   message,
		Total:     total,
		StartedAt: time.Now(),
		Batches:   p.snap.Batches + 1,
	}
}

// Update implements thumbnail.Progress.
func (p *ProgressTracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Current = current
	if p.snap.Total > 0 {
		p.snap.Percent = float64(current) * 100 / float64(p.snap.Total)
	}
}

// Finish implements thumbnail.Progress.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Active = false
	p.snap.FinishedAt = time.Now()
}

// Snapshot returns a copy of the current batch state.
func (p *ProgressTracker) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}
