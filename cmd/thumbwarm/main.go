package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"asset-thumbnails/internal/logging"
	"asset-thumbnails/internal/scan"
	"asset-thumbnails/internal/startup"
	"asset-thumbnails/internal/thumbnail"
	"asset-thumbnails/internal/workers"
)

// maxVideoSlots caps the CPU-derived video job count.
const maxVideoSlots = 4

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	cacheDir := thumbnail.DirFor(cacheRoot())

	var ok bool
	switch command {
	case "warm":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: warm needs a directory")
			printUsage()
			os.Exit(1)
		}
		ok = warm(ctx, cacheDir, os.Args[2])
	case "stats":
		ok = showStats(cacheDir)
	case "clear":
		ok = clearCache(cacheDir)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

func cacheRoot() string {
	if dir := os.Getenv("CACHE_DIR"); dir != "" {
		return dir
	}
	return startup.DefaultAppDataDir()
}

// sanitizeCommand returns a safe representation of a command string for display.
// Any character that is not alphanumeric, a hyphen, or an underscore becomes '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Asset Thumbnails Cache Tool")
	fmt.Println("")
	fmt.Println("Usage: thumbwarm <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  warm <dir>  - Generate thumbnails for every supported file under dir")
	fmt.Println("  stats       - Show cache size")
	fmt.Println("  clear       - Remove every cached thumbnail")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  CACHE_DIR - Application data directory (default: %s)\n", startup.DefaultAppDataDir())
}

// warmCounts tallies the signals of a warm run.
type warmCounts struct {
	ready  atomic.Int64
	failed atomic.Int64
}

func (c *warmCounts) ThumbnailReady(string, string) {
	c.ready.Add(1)
}

func (c *warmCounts) ThumbnailFailed(path string, err error) {
	c.failed.Add(1)
	logging.Debug("Thumbnail for %s failed: %v", path, err)
}

func warm(ctx context.Context, cacheDir, root string) bool {
	if err := thumbnail.InitVips(); err != nil {
		logging.Warn("libvips unavailable: %v", err)
	}
	defer thumbnail.ShutdownVips()

	ffmpeg := envOr("FFMPEG_PATH", "ffmpeg")
	progress := newTermProgress(os.Stderr)
	coord, err := thumbnail.New(thumbnail.Options{
		CacheDir:        cacheDir,
		ImageWorkers:    workers.ForImages(0),
		MaxActiveVideos: workers.ForVideos(maxVideoSlots),
		NewPlayer:       thumbnail.NewFFmpegPlayer(ffmpeg, envOr("FFPROBE_PATH", "ffprobe")),
		Fallback:        thumbnail.NewFFmpegGrabber(ffmpeg),
		Progress:        progress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	config := scan.DefaultConfig()
	config.IsCached = coord.CachedPath
	walker := scan.NewWalker(root, config)
	sources, err := walker.Walk(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to scan %s: %v\n", root, err)
		return false
	}
	cached := walker.Stats().Cached
	if len(sources) == 0 {
		fmt.Printf("Nothing to do: %d thumbnails already cached.\n", cached)
		return true
	}

	counts := &warmCounts{}
	coord.Subscribe(counts)
	coord.Start()
	defer coord.Stop()

	paths := make([]string, len(sources))
	for i, s := range sources {
		paths[i] = s.Path
	}
	if coord.RequestBatch("Generating thumbnails", paths) == 0 {
		fmt.Println("Nothing to do: every scanned source disappeared.")
		return true
	}

	select {
	case <-progress.Done():
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "Cancelled.")
		return false
	}
	// Listeners are notified after Finish; stopping waits for the last one.
	coord.Stop()

	fmt.Printf("Thumbnails ready: %d, failed: %d, already cached: %d\n",
		counts.ready.Load(), counts.failed.Load(), cached)
	return counts.failed.Load() == 0
}

func showStats(cacheDir string) bool {
	store, err := thumbnail.NewStore(cacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	files, size, err := store.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to scan cache: %v\n", err)
		return false
	}
	fmt.Printf("Cache directory: %s\n", store.Dir())
	fmt.Printf("Thumbnails:      %d\n", files)
	fmt.Printf("Size:            %s\n", formatSize(size))
	return true
}

func clearCache(cacheDir string) bool {
	store, err := thumbnail.NewStore(cacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	removed, err := store.ClearAll()
	fmt.Printf("Removed %d thumbnails.\n", removed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	return true
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func formatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
