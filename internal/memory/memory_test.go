package memory

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestMonitor(heap *uint64) *Monitor {
	m := NewMonitor(Config{
		LimitBytes:        1000,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Hour,
	})
	m.readHeap = func() uint64 { return *heap }
	return m
}

func TestMonitorPausesAndResumes(t *testing.T) {
	heap := uint64(500)
	m := newTestMonitor(&heap)

	m.check()
	if m.IsPaused() {
		t.Fatal("monitor paused at 50% usage")
	}

	heap = 900
	m.check()
	if !m.IsPaused() {
		t.Fatal("monitor not paused at 90% usage")
	}
	if got := m.Usage(); got != 0.9 {
		t.Errorf("Usage() = %v, want 0.9", got)
	}

	released := make(chan error, 1)
	go func() { released <- m.Wait(context.Background()) }()

	// Between the water marks the monitor stays paused.
	heap = 800
	m.check()
	select {
	case <-released:
		t.Fatal("Wait returned while usage was between the water marks")
	case <-time.After(20 * time.Millisecond):
	}

	heap = 600
	m.check()
	select {
	case err := <-released:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after memory recovered")
	}
}

func TestMonitorWaitHonoursContext(t *testing.T) {
	heap := uint64(950)
	m := newTestMonitor(&heap)
	m.check()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := m.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
}

func TestMonitorStopReleasesWaiters(t *testing.T) {
	heap := uint64(950)
	m := newTestMonitor(&heap)
	m.check()

	done := make(chan struct{})
	go func() {
		_ = m.Wait(context.Background())
		close(done)
	}()

	m.Stop()
	m.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not release waiter")
	}
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"", DefaultMemoryRatio},
		{"0.5", 0.5},
		{"1", 1.0},
		{"0", DefaultMemoryRatio},
		{"1.5", DefaultMemoryRatio},
		{"abc", DefaultMemoryRatio},
	}
	for _, tt := range tests {
		if got := parseRatio(tt.input); got != tt.want {
			t.Errorf("parseRatio(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1024 * 1024 * 1024, "1.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.input); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestConfigureFromEnvWithoutLimit(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "")

	result := ConfigureFromEnv()
	if result.Configured {
		t.Error("Configured = true with no limits set")
	}
	if result.Source != "none" {
		t.Errorf("Source = %q, want none", result.Source)
	}
}
