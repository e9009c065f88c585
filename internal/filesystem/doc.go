/*
Package filesystem wraps the file operations the thumbnail service performs
on source media and on its cache directory.

Source libraries are often on network mounts, so Stat and Open retry on NFS
stale file handle errors (ESTALE) with capped exponential backoff. Every
other error is returned immediately.

	info, err := filesystem.Stat(path, filesystem.DefaultRetryConfig())

Cache files are written with WriteFileAtomic: data goes to a temporary file
in the destination directory, is synced, and is renamed over the target.
A reader therefore sees either the previous file or the complete new one,
never a prefix, and a failed write leaves nothing behind.

# Metrics

The package does not import the metrics package. Call SetObserver once at
startup with metrics.NewFilesystemObserver(); with no observer set, metric
recording is skipped.
*/
package filesystem
