// Command thumbwarm fills, inspects and clears the thumbnail cache from the
// command line.
//
// Usage:
//
//	thumbwarm <command> [args]
//
// Commands:
//
//	warm <dir>  Generate thumbnails for every supported file under dir.
//	            Progress is drawn on stderr; a summary is printed when
//	            every file has completed.
//
//	stats       Print the number and total size of cached thumbnails.
//
//	clear       Remove every cached thumbnail.
//
// Environment:
//
//	CACHE_DIR          - Application data directory (default: XDG data dir)
//	IMAGE_WORKERS      - Image decode workers (default: one per CPU)
//	MAX_ACTIVE_VIDEOS  - Concurrent video jobs (default: half the CPUs, max 4)
//	FFMPEG_PATH        - ffmpeg binary (default: ffmpeg)
//	FFPROBE_PATH       - ffprobe binary (default: ffprobe)
package main
