// Package thumbnail generates and caches 256x256 JPEG previews for images
// and videos without blocking the caller.
//
// A Coordinator is the single entry point. Request returns immediately:
// a fresh cache entry is reported synchronously, anything else is queued.
// Images are decoded on a bounded goroutine pool; each video holds one of
// a fixed number of slots while a Player seeks to a representative frame.
// Completions flow back over a channel to one owner goroutine, which
// updates the bookkeeping and notifies Listeners and the Progress
// aggregator.
//
// Thumbnails live in the Store as {dir}/{sha256(path)}.jpg and are valid
// while their modification time is not older than the source's.
//
// BeginNewSession invalidates in-flight work: results that complete after
// it are written to the cache but not reported.
package thumbnail
