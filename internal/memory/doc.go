// Package memory keeps image decoding within the process memory budget.
//
// ConfigureFromEnv derives GOMEMLIMIT from a container limit. Monitor samples
// the heap against that limit and pauses new image decodes (Wait blocks)
// once usage crosses the critical water mark, resuming below the high water
// mark. Video jobs are not gated: their decoding happens in ffmpeg child
// processes outside the Go heap.
package memory
