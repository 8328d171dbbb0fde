package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/markdave123-py/Wikifaq/internal/core"
	"github.com/markdave123-py/Wikifaq/internal/metrics"
	"github.com/markdave123-py/Wikifaq/internal/models"
)

// Indexer embeds persisted FAQ records and mirrors them into the vector
// index, then flags the relational rows.
type Indexer struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
	index    core.VectorIndex
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewIndexer(db core.DbClient, embedder core.EmbeddingProvider, index core.VectorIndex, m *metrics.Metrics) *Indexer {
	return &Indexer{
		db:       db,
		embedder: embedder,
		index:    index,
		metrics:  m,
		logger:   slog.Default().With("component", "indexer"),
	}
}

// IndexRecords embeds and upserts the given records. The follow-up flag
// write to the relational store is best effort: if it fails, the vectors
// exist with the flag still false, which is exactly the drift the repair
// sweep fixes.
func (ix *Indexer) IndexRecords(ctx context.Context, slug string, records []models.FaqRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Question + "\n" + r.Answer
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %d records: %w", len(records), err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("embedding count mismatch: %d vectors for %d records", len(vectors), len(records))
	}

	items := make([]core.VectorUpsertItem, len(records))
	ids := make([]string, len(records))
	for i, r := range records {
		items[i] = core.VectorUpsertItem{
			ID:     r.ID,
			Vector: vectors[i],
			Metadata: map[string]string{
				"faq_file_id":         r.FaqFileID,
				"question":            r.Question,
				"answer":              r.Answer,
				"url":                 r.URL,
				"human_readable_name": r.DisplayName,
				"last_updated":        r.LastUpdated,
				"subheader":           r.Subheader,
				"cross_link":          r.CrossLink,
				"media_link":          r.MediaLink,
				"slug":                slug,
			},
		}
		ids[i] = r.ID
	}

	if err := ix.index.UpsertBatch(ctx, items); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	if ix.metrics != nil {
		ix.metrics.VectorUpsertsTotal.Add(float64(len(items)))
	}

	if err := ix.db.MarkVectorSuccess(ctx, ids); err != nil {
		ix.logger.Warn("vector success flag write failed, repair sweep will reconcile",
			"slug", slug, "records", len(ids), "error", err)
	}
	return nil
}
