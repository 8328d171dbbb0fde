package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/markdave123-py/Wikifaq/internal/core"
)

type SearchHandler struct {
	embedder core.EmbeddingProvider
	index    core.VectorIndex
}

func NewSearchHandler(emb core.EmbeddingProvider, index core.VectorIndex) *SearchHandler {
	return &SearchHandler{embedder: emb, index: index}
}

// Search embeds the query string and returns the nearest FAQs.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing q parameter", 400)
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	vecs, err := h.embedder.EmbedTexts(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		http.Error(w, fmt.Sprintf("embedding failed: %v", err), 500)
		return
	}

	items, err := h.index.Query(ctx, vecs[0], limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("search failed: %v", err), 500)
		return
	}

	results := make([]map[string]string, 0, len(items))
	for _, it := range items {
		results = append(results, it.Metadata)
	}
	json.NewEncoder(w).Encode(map[string]any{
		"results": results,
	})
}
