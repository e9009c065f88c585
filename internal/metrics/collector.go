package metrics

import (
	"time"

	"asset-thumbnails/internal/logging"
)

// StatsProvider reports the state sampled on every collection.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	CacheFiles   int
	CacheBytes   int64
	Pending      int
	ActiveVideos int
	QueuedVideos int
	Session      uint64
}

// Collector periodically collects and updates gauges that are too expensive
// to maintain on every request, such as the on-disk cache size.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	doneChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection and waits for the loop to exit.
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.doneChan
}

func (c *Collector) collectLoop() {
	defer close(c.doneChan)

	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	ThumbnailCacheCount.Set(float64(stats.CacheFiles))
	ThumbnailCacheSize.Set(float64(stats.CacheBytes))
	ThumbnailPending.Set(float64(stats.Pending))
	ThumbnailVideoActive.Set(float64(stats.ActiveVideos))
	ThumbnailVideoQueued.Set(float64(stats.QueuedVideos))
	ThumbnailSession.Set(float64(stats.Session))

	logging.Debug("Metrics collected: cache=%d files (%d bytes), pending=%d, videos active=%d queued=%d",
		stats.CacheFiles, stats.CacheBytes, stats.Pending, stats.ActiveVideos, stats.QueuedVideos)
}
