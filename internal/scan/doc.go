// Package scan finds thumbnail sources under a directory tree.
//
// A single goroutine walks the tree and feeds regular files to a small pool
// of workers, which classify them and optionally drop files that already
// have a fresh thumbnail. Checking freshness costs two stat calls per file,
// which dominates on network filesystems, so it runs in parallel.
package scan
