package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/Wikifaq/internal/core"
)

// SnapshotHandler serves archived raw page HTML so a processed page can be
// inspected without refetching it from the encyclopedia API.
type SnapshotHandler struct {
	archive core.ObjectClient
	bucket  string
}

// NewSnapshotHandler accepts a nil archive; the endpoint then reports every
// snapshot as unavailable.
func NewSnapshotHandler(archive core.ObjectClient, bucket string) *SnapshotHandler {
	return &SnapshotHandler{archive: archive, bucket: bucket}
}

// GetPageSnapshot streams the archived raw HTML for one slug.
func (h *SnapshotHandler) GetPageSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		http.Error(w, "page archive not configured", http.StatusNotFound)
		return
	}

	slug := chi.URLParam(r, "slug")
	reader, err := h.archive.GetObjectReader(r.Context(), h.bucket, core.SnapshotKey(slug))
	if err != nil {
		http.Error(w, "snapshot not available", http.StatusNotFound)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := io.Copy(w, reader); err != nil {
		slog.Warn("snapshot stream interrupted", "slug", slug, "error", err)
	}
}
