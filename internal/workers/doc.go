/*
Package workers sizes the two bounded pools of the thumbnail service.

Image thumbnails are decoded inside a fixed pool of goroutines; video
thumbnails each hold a slot while an ffmpeg process runs. Both sizes are
derived from runtime.GOMAXPROCS(0), which Go 1.19+ sets from the container
CPU limit, rather than runtime.NumCPU(), which reports the host.

	imageWorkers := workers.ForImages(workers.DefaultImageWorkers)
	videoSlots := workers.ForVideos(workers.DefaultVideoSlots)

# Environment Variable Override

IMAGE_WORKERS and MAX_ACTIVE_VIDEOS replace the calculation with a fixed
positive value. The override is still capped by the limit passed in, so an
operator cannot raise a pool beyond what the caller allows. Non-numeric,
zero or negative values are ignored.
*/
package workers
