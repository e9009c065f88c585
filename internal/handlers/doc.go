// Package handlers exposes the thumbnail coordinator over HTTP.
//
// It includes handlers for:
//   - Fetching a thumbnail, waiting a bounded time for generation
//   - Cache-only lookups and clearing the cache
//   - Starting sessions and progress batches, and polling batch progress
//   - Health, version and Prometheus metrics
package handlers
