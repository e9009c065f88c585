// Package logging provides the leveled logger used throughout the thumbnail
// service.
//
// Levels, from most to least verbose:
//   - DEBUG: per-request cache and decode decisions
//   - INFO: lifecycle and configuration
//   - WARN: recoverable failures (a thumbnail could not be produced)
//   - ERROR: failures that leave a component degraded
//   - FATAL: startup errors that terminate the process
//
// The initial level comes from DEBUG or LOG_LEVEL and can be changed at
// runtime with SetLevel.
package logging
