package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/markdave123-py/Wikifaq/internal/core"
	"github.com/markdave123-py/Wikifaq/internal/metrics"
	"github.com/markdave123-py/Wikifaq/internal/models"
)

// PagePipeline runs the two-pass generation flow for a single claimed queue
// entry: fetch, generate, persist, discover cross-links, generate again,
// persist, index.
type PagePipeline struct {
	db        core.DbClient
	source    core.ContentSource
	generator core.FaqGenerator
	indexer   *Indexer
	resolver  *Resolver
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// Optional raw-page archive; nil disables it.
	archive       core.ObjectClient
	archiveBucket string
}

func NewPagePipeline(
	db core.DbClient,
	source core.ContentSource,
	generator core.FaqGenerator,
	indexer *Indexer,
	resolver *Resolver,
	m *metrics.Metrics,
) *PagePipeline {
	return &PagePipeline{
		db:        db,
		source:    source,
		generator: generator,
		indexer:   indexer,
		resolver:  resolver,
		metrics:   m,
		logger:    slog.Default().With("component", "pipeline"),
	}
}

// WithArchive enables best-effort raw HTML snapshots.
func (p *PagePipeline) WithArchive(client core.ObjectClient, bucket string) *PagePipeline {
	p.archive = client
	p.archiveBucket = bucket
	return p
}

// ProcessPage runs the full pipeline for one claimed entry. Any returned
// error is terminal for this entry; the orchestrator records it verbatim on
// the queue row. Strict in-page ordering: pass 1 persists before pass 2
// starts, and both persist before indexing.
func (p *PagePipeline) ProcessPage(ctx context.Context, entry *models.QueueEntry) error {
	if err := validateSourceURL(entry.URL); err != nil {
		return err
	}

	content, err := p.source.FetchPage(ctx, entry.Title)
	if err != nil {
		if errors.Is(err, core.ErrPageNotFound) {
			return fmt.Errorf("no content found for page %q", entry.Title)
		}
		return fmt.Errorf("fetch page %q: %w", entry.Title, err)
	}

	p.archivePage(ctx, entry.Slug, content.RawHTML)

	first, err := p.generator.GenerateFirstPass(ctx, entry.Title, content.RawHTML, content.LastUpdated, content.MediaURLs)
	if err != nil {
		return fmt.Errorf("first pass for %q: %w", entry.Title, err)
	}

	displayName := first.DisplayName
	if displayName == "" {
		displayName = content.DisplayName
	}
	if displayName == "" {
		return fmt.Errorf("no human-readable name resolvable for %q", entry.Title)
	}
	lastUpdated := first.LastUpdated
	if lastUpdated == "" {
		lastUpdated = content.LastUpdated
	}

	fileID, err := p.db.UpsertFaqFile(ctx, entry.Slug, displayName)
	if err != nil {
		return fmt.Errorf("upsert faq file for %q: %w", entry.Slug, err)
	}

	usedMedia := make(map[string]bool)
	firstRecords := p.buildRecords(first.Faqs, entry, fileID, displayName, lastUpdated, usedMedia)
	if err := p.db.InsertFaqRecords(ctx, firstRecords); err != nil {
		return fmt.Errorf("persist first-pass faqs for %q: %w", entry.Slug, err)
	}
	if p.metrics != nil {
		p.metrics.FaqsGeneratedTotal.WithLabelValues("first").Add(float64(len(firstRecords)))
	}

	p.resolver.ResolveAndEnqueue(ctx, collectCrossLinks(first.Faqs))

	second, err := p.generator.GenerateSecondPass(ctx, entry.Title, content.RawHTML, first.Faqs)
	if err != nil {
		return fmt.Errorf("second pass for %q: %w", entry.Title, err)
	}

	secondRecords := p.buildRecords(second, entry, fileID, displayName, lastUpdated, usedMedia)
	if err := p.db.InsertFaqRecords(ctx, secondRecords); err != nil {
		return fmt.Errorf("persist second-pass faqs for %q: %w", entry.Slug, err)
	}
	if p.metrics != nil {
		p.metrics.FaqsGeneratedTotal.WithLabelValues("second").Add(float64(len(secondRecords)))
	}

	p.resolver.ResolveAndEnqueue(ctx, collectCrossLinks(second))

	all := append(firstRecords, secondRecords...)
	if err := p.indexer.IndexRecords(ctx, entry.Slug, all); err != nil {
		return fmt.Errorf("index faqs for %q: %w", entry.Slug, err)
	}

	p.logger.Info("page processed",
		"slug", entry.Slug, "first_pass", len(firstRecords), "second_pass", len(secondRecords))
	return nil
}

// archivePage snapshots raw HTML to object storage. Best effort: a failed
// upload is logged and the page proceeds.
func (p *PagePipeline) archivePage(ctx context.Context, slug, rawHTML string) {
	if p.archive == nil {
		return
	}
	key := core.SnapshotKey(slug)
	if _, err := p.archive.UploadFile(ctx, p.archiveBucket, key, []byte(rawHTML), "text/html"); err != nil {
		p.logger.Warn("page archive upload failed", "slug", slug, "error", err)
	}
}

// buildRecords converts generated FAQs into persistable rows, consuming at
// most one media URL per FAQ and never reusing a URL across the combined
// first+second pass output.
func (p *PagePipeline) buildRecords(
	faqs []models.GeneratedFaq,
	entry *models.QueueEntry,
	fileID, displayName, lastUpdated string,
	usedMedia map[string]bool,
) []models.FaqRecord {
	records := make([]models.FaqRecord, 0, len(faqs))
	for _, f := range faqs {
		records = append(records, models.FaqRecord{
			ID:          uuid.New().String(),
			FaqFileID:   fileID,
			URL:         entry.URL,
			Title:       entry.Title,
			DisplayName: displayName,
			LastUpdated: lastUpdated,
			Subheader:   f.Subheader,
			Question:    f.Question,
			Answer:      f.Answer,
			CrossLink:   strings.Join(f.CrossLinks, ","),
			MediaLink:   takeUnusedMedia(f.MediaLinks, usedMedia),
		})
	}
	return records
}

// takeUnusedMedia picks the first media URL not yet consumed on this page
// and marks it used. Returns "" when every candidate is taken.
func takeUnusedMedia(candidates []string, used map[string]bool) string {
	for _, u := range candidates {
		if u == "" || used[u] {
			continue
		}
		used[u] = true
		return u
	}
	return ""
}

func collectCrossLinks(faqs []models.GeneratedFaq) []string {
	var out []string
	for _, f := range faqs {
		out = append(out, f.CrossLinks...)
	}
	return out
}

func validateSourceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("malformed source URL %q", raw)
	}
	return nil
}
