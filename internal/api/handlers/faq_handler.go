package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/Wikifaq/internal/core"
)

type FaqHandler struct {
	dbclient core.DbClient
}

func NewFaqHandler(db core.DbClient) *FaqHandler {
	return &FaqHandler{dbclient: db}
}

// ListPages returns the most recently created faq files.
func (h *FaqHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	files, err := h.dbclient.ListFaqFiles(ctx, 100)
	if err != nil {
		http.Error(w, fmt.Sprintf("list pages failed: %v", err), 500)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"pages": files,
	})
}

// GetPageFaqs returns all FAQ records for one slug.
func (h *FaqHandler) GetPageFaqs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slug := chi.URLParam(r, "slug")
	file, err := h.dbclient.GetFaqFileBySlug(ctx, slug)
	if err != nil {
		http.Error(w, fmt.Sprintf("lookup failed: %v", err), 500)
		return
	}
	if file == nil {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}

	records, err := h.dbclient.GetFaqRecordsByFile(ctx, file.ID)
	if err != nil {
		http.Error(w, fmt.Sprintf("load faqs failed: %v", err), 500)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"page": file,
		"faqs": records,
	})
}

// QueueStats reports queue row counts by status.
func (h *FaqHandler) QueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dbclient.QueueStats(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("queue stats failed: %v", err), 500)
		return
	}
	json.NewEncoder(w).Encode(stats)
}
