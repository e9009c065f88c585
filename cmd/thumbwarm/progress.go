package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	defaultBarWidth = 30
	// plainStep is how many percent must pass between lines when the
	// output is not a terminal.
	plainStep = 10
)

// termProgress draws batch progress on a writer. On a terminal it redraws a
// single line; otherwise it prints a line every plainStep percent.
type termProgress struct {
	w   io.Writer
	tty bool

	mu          sync.Mutex
	message     string
	total       int
	current     int
	startedAt   time.Time
	lastPercent int
	width       int

	done     chan struct{}
	doneOnce sync.Once
}

func newTermProgress(f *os.File) *termProgress {
	p := &termProgress{
		w:     f,
		width: defaultBarWidth,
		done:  make(chan struct{}),
	}
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		p.tty = true
		if cols, _, err := term.GetSize(fd); err == nil {
			p.width = barWidth(cols)
		}
	}
	return p
}

// barWidth sizes the bar to leave room for the counters and message.
func barWidth(columns int) int {
	w := columns - 50
	if w < 10 {
		return 10
	}
	if w > 60 {
		return 60
	}
	return w
}

func (p *termProgress) Start(message string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.message = message
	p.total = total
	p.current = 0
	p.lastPercent = -1
	p.startedAt = time.Now()
	p.render()
}

func (p *termProgress) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
	p.render()
}

func (p *termProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tty {
		fmt.Fprintln(p.w)
	}
	fmt.Fprintf(p.w, "%s: done in %s\n", p.message, time.Since(p.startedAt).Round(time.Millisecond))
	p.doneOnce.Do(func() { close(p.done) })
}

// Done is closed when the first batch finishes.
func (p *termProgress) Done() <-chan struct{} {
	return p.done
}

func (p *termProgress) render() {
	percent := 0
	if p.total > 0 {
		percent = p.current * 100 / p.total
	}

	if !p.tty {
		if percent/plainStep == p.lastPercent/plainStep && p.lastPercent >= 0 {
			return
		}
		p.lastPercent = percent
		fmt.Fprintf(p.w, "%s: %d/%d (%d%%)\n", p.message, p.current, p.total, percent)
		return
	}

	filled := p.width * percent / 100
	bar := strings.Repeat("#", filled) + strings.Repeat(".", p.width-filled)
	fmt.Fprintf(p.w, "\r[%s] %d/%d %3d%% %s", bar, p.current, p.total, percent, p.message)
}
