package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Wikifaq/internal/core"
	"github.com/markdave123-py/Wikifaq/internal/metrics"
	"github.com/markdave123-py/Wikifaq/internal/models"
)

// Resolver turns raw cross-link references from generated answers into
// canonical queue entries.
type Resolver struct {
	db      core.DbClient
	source  core.ContentSource
	metrics *metrics.Metrics
	logger  *slog.Logger

	// UseSearch re-resolves each reference against the source's search
	// endpoint to absorb case and spelling drift. Falls back to the literal
	// reference when search fails or returns nothing.
	UseSearch bool
}

func NewResolver(db core.DbClient, source core.ContentSource, m *metrics.Metrics) *Resolver {
	return &Resolver{
		db:        db,
		source:    source,
		metrics:   m,
		logger:    slog.Default().With("component", "crosslink"),
		UseSearch: true,
	}
}

// ResolveAndEnqueue normalizes each reference and enqueues the ones not
// already known. Unresolvable references are logged and skipped; they never
// fail the calling pipeline.
func (r *Resolver) ResolveAndEnqueue(ctx context.Context, refs []string) int {
	enqueued := 0
	for _, ref := range refs {
		title, ok := NormalizeReference(ref)
		if !ok {
			continue
		}

		if r.UseSearch {
			if resolved, err := r.source.SearchTitle(ctx, title); err != nil {
				r.logger.Debug("search resolution failed, using literal reference", "ref", title, "error", err)
			} else if resolved != "" {
				title = resolved
			}
		}

		slug := Slugify(title)
		if slug == "" {
			continue
		}

		created, err := r.db.EnqueuePage(ctx, &models.QueueEntry{
			ID:        uuid.New().String(),
			Title:     title,
			Slug:      slug,
			URL:       r.source.PageURL(title),
			Origin:    models.OriginCrossLink,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			r.logger.Warn("enqueue cross-link failed", "title", title, "error", err)
			continue
		}
		if created {
			enqueued++
			if r.metrics != nil {
				r.metrics.CrossLinksEnqueued.Inc()
			}
		}
	}
	return enqueued
}

// NormalizeReference strips encyclopedia path prefixes and separator noise
// from a raw cross-link reference. Returns ok=false for references that do
// not correspond to an independently processable page: same-page anchor
// fragments and "redirected from" annotations.
func NormalizeReference(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if strings.Contains(ref, "#") {
		return "", false
	}
	if strings.Contains(strings.ToLower(ref), "redirected from") {
		return "", false
	}

	// Drop any path prefix: "/wiki/Foo", "wiki/Foo", "./Foo".
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		ref = ref[idx+1:]
	}
	ref = strings.ReplaceAll(ref, "_", " ")
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	return ref, true
}
