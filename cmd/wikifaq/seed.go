package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Wikifaq/internal/app"
	"github.com/markdave123-py/Wikifaq/internal/models"
	"github.com/markdave123-py/Wikifaq/internal/pipeline"
)

// seedTitles enqueues the given titles with origin seed. Enqueue is
// idempotent by slug, so re-seeding known titles is a no-op.
func seedTitles(ctx context.Context, application *app.App, titles []string) (int, error) {
	created := 0
	for _, title := range titles {
		if title == "" {
			continue
		}
		slug := pipeline.Slugify(title)
		if slug == "" {
			continue
		}
		ok, err := application.DBClient.EnqueuePage(ctx, &models.QueueEntry{
			ID:        uuid.New().String(),
			Title:     title,
			Slug:      slug,
			URL:       application.Source.PageURL(title),
			Origin:    models.OriginSeed,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}
