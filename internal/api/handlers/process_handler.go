package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Wikifaq/internal/core"
	"github.com/markdave123-py/Wikifaq/internal/models"
	"github.com/markdave123-py/Wikifaq/internal/pipeline"
)

type ProcessHandler struct {
	dbclient     core.DbClient
	orchestrator *pipeline.Orchestrator
	source       core.ContentSource
}

func NewProcessHandler(db core.DbClient, orch *pipeline.Orchestrator, source core.ContentSource) *ProcessHandler {
	return &ProcessHandler{dbclient: db, orchestrator: orch, source: source}
}

// TriggerRun starts one orchestrator batch in the background and returns
// immediately; progress is visible through /api/queue/stats.
func (h *ProcessHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := h.orchestrator.RunBatch(ctx); err != nil {
			slog.Error("triggered batch failed", "error", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}

type EnqueueRequest struct {
	Titles []string `json:"titles"`
}

// EnqueuePages adds explicit titles to the processing queue (origin seed).
func (h *ProcessHandler) EnqueuePages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", 400)
		return
	}
	if len(req.Titles) == 0 {
		http.Error(w, "titles required", 400)
		return
	}

	created := 0
	for _, title := range req.Titles {
		slug := pipeline.Slugify(title)
		if slug == "" {
			continue
		}
		ok, err := h.dbclient.EnqueuePage(ctx, &models.QueueEntry{
			ID:        uuid.New().String(),
			Title:     title,
			Slug:      slug,
			URL:       h.source.PageURL(title),
			Origin:    models.OriginSeed,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			http.Error(w, fmt.Sprintf("enqueue failed: %v", err), 500)
			return
		}
		if ok {
			created++
		}
	}

	json.NewEncoder(w).Encode(map[string]int{
		"requested": len(req.Titles),
		"enqueued":  created,
	})
}
