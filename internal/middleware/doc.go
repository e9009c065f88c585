// Package middleware provides HTTP middleware for the thumbnail server.
//
// It includes:
//   - Access logging through the leveled logger, with optional health-check filtering
//   - Prometheus request metrics labelled by mux route template
package middleware
