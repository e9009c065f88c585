package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"asset-thumbnails/internal/filesystem"
	"asset-thumbnails/internal/logging"
	"asset-thumbnails/internal/thumbnail"
)

// maxBatchBody caps the JSON body accepted by StartBatch.
const maxBatchBody = 4 << 20

// BatchRequest is the body of POST /api/thumbnails/batch.
type BatchRequest struct {
	Message    string   `json:"message"`
	Paths      []string `json:"paths"`
	NewSession bool     `json:"newSession"`
}

// BatchResponse reports what StartBatch dispatched. Total counts the posted
// paths; Requested counts the distinct existing sources the progress batch
// covers.
type BatchResponse struct {
	Session   uint64 `json:"session,omitempty"`
	Total     int    `json:"total"`
	Requested int    `json:"requested"`
}

// sourcePath resolves the "path" query parameter to the absolute form the
// coordinator reports in its signals.
func sourcePath(r *http.Request) (string, error) {
	raw := r.URL.Query().Get("path")
	if raw == "" {
		return "", errors.New("path is required")
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	return abs, nil
}

// failureStatus maps a generation error to an HTTP status code.
func failureStatus(err error) int {
	switch {
	case errors.Is(err, thumbnail.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, thumbnail.ErrDecode),
		errors.Is(err, thumbnail.ErrVideoDecode),
		errors.Is(err, thumbnail.ErrVideoTimeout):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func serveThumbnail(w http.ResponseWriter, r *http.Request, cachePath string) {
	w.Header().Set("Content-Type", "image/jpeg")
	// Keys depend only on the source path, so clients must revalidate.
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, cachePath)
}

// GetThumbnail serves the thumbnail for ?path=, generating it if needed.
// It waits up to the configured request wait and answers 202 Accepted if
// generation is still running.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	src, err := sourcePath(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if cachePath := h.thumbs.CachedPath(src); cachePath != "" {
		serveThumbnail(w, r, cachePath)
		return
	}

	info, err := filesystem.Stat(src, filesystem.DefaultRetryConfig())
	if err != nil || info.IsDir() {
		writeJSONError(w, "File not found", http.StatusNotFound)
		return
	}

	// Register before requesting so a synchronous signal is not missed.
	ch, cancel := h.waiters.add(src)
	defer cancel()
	h.thumbs.Request(src)

	timer := time.NewTimer(h.requestWait)
	defer timer.Stop()

	select {
	case o := <-ch:
		if o.err != nil {
			logging.Debug("Thumbnail for %s failed: %v", src, o.err)
			writeJSONError(w, o.err.Error(), failureStatus(o.err))
			return
		}
		serveThumbnail(w, r, o.cachePath)

	case <-timer.C:
		w.Header().Set("Retry-After", "1")
		writeJSONStatus(w, http.StatusAccepted, map[string]interface{}{
			"status":  "pending",
			"pending": h.thumbs.IsPending(src),
		})

	case <-r.Context().Done():
	}
}

// GetCachedThumbnail serves a thumbnail only if it is already cached and
// fresh. It never starts generation.
func (h *Handlers) GetCachedThumbnail(w http.ResponseWriter, r *http.Request) {
	src, err := sourcePath(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	cachePath := h.thumbs.CachedPath(src)
	if cachePath == "" {
		writeJSONError(w, "Thumbnail not cached", http.StatusNotFound)
		return
	}
	serveThumbnail(w, r, cachePath)
}

// BeginSession supersedes all in-flight work.
func (h *Handlers) BeginSession(w http.ResponseWriter, _ *http.Request) {
	session := h.thumbs.BeginNewSession()
	writeJSONStatus(w, http.StatusOK, map[string]uint64{"session": session})
}

// StartBatch opens a progress batch over the posted paths and requests a
// thumbnail for each. Empty, duplicate and missing paths are not part of the
// batch.
func (h *Handlers) StartBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody)).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Paths) == 0 {
		writeJSONError(w, "paths must not be empty", http.StatusBadRequest)
		return
	}

	var resp BatchResponse
	if req.NewSession {
		resp.Session = h.thumbs.BeginNewSession()
	}

	message := req.Message
	if message == "" {
		message = "Generating thumbnails"
	}

	resp.Total = len(req.Paths)
	resp.Requested = h.thumbs.RequestBatch(message, req.Paths)

	logging.Debug("Thumbnail batch %q: %d paths requested", message, resp.Requested)
	writeJSONStatus(w, http.StatusAccepted, resp)
}

// GetProgress returns the current batch progress.
func (h *Handlers) GetProgress(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, h.progress.Snapshot())
}

// ClearCache removes every cached thumbnail.
func (h *Handlers) ClearCache(w http.ResponseWriter, _ *http.Request) {
	removed, err := h.thumbs.ClearCache()
	if err != nil {
		logging.Error("Failed to clear thumbnail cache: %v", err)
		writeJSONStatus(w, http.StatusInternalServerError, map[string]interface{}{
			"removed": removed,
			"error":   err.Error(),
		})
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]int{"removed": removed})
}
