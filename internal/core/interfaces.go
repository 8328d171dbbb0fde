package core

import (
	"context"
	"io"

	"github.com/markdave123-py/Wikifaq/internal/models"
)

// DbClient defines all persistence operations the pipeline needs.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	EnqueuePage(ctx context.Context, entry *models.QueueEntry) (created bool, err error)
	ReadPendingQueue(ctx context.Context, limit int) ([]models.QueueEntry, error)
	ClaimQueueEntry(ctx context.Context, id string) (bool, error)
	TransitionQueue(ctx context.Context, id string, status string, errMsg string) error
	GetQueueEntryBySlug(ctx context.Context, slug string) (*models.QueueEntry, error)
	QueueStats(ctx context.Context) (*models.QueueStats, error)
	RequeueFailed(ctx context.Context) (int, error)

	UpsertFaqFile(ctx context.Context, slug, displayName string) (fileID string, err error)
	GetFaqFileBySlug(ctx context.Context, slug string) (*models.FaqFile, error)
	ListFaqFiles(ctx context.Context, limit int) ([]models.FaqFile, error)

	InsertFaqRecords(ctx context.Context, records []models.FaqRecord) error
	GetFaqRecordsByFile(ctx context.Context, fileID string) ([]models.FaqRecord, error)
	// ListUnflaggedFaqRecords pages by id keyset: rows with id > afterID,
	// id order. Pass "" to start from the beginning.
	ListUnflaggedFaqRecords(ctx context.Context, afterID string, limit int) ([]models.FaqRecord, error)
	MarkVectorSuccess(ctx context.Context, ids []string) error

	Close() error
}

// ContentSource retrieves raw page content and metadata for a canonical title.
type ContentSource interface {
	FetchPage(ctx context.Context, title string) (*models.PageContent, error)
	SearchTitle(ctx context.Context, query string) (string, error)
	PageURL(title string) string
}

// FaqGenerator produces structured FAQs from page content. mediaURLs is the
// candidate image set extracted from the page; generated media links must
// come from it.
type FaqGenerator interface {
	GenerateFirstPass(ctx context.Context, title, content, lastUpdated string, mediaURLs []string) (*models.GenerationResult, error)
	GenerateSecondPass(ctx context.Context, title, content string, existing []models.GeneratedFaq) ([]models.GeneratedFaq, error)
}

// EmbeddingProvider turns text into fixed-dimension vectors.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorUpsertItem is one record destined for the vector index.
type VectorUpsertItem struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// VectorIndex mirrors FaqRecords as embeddings keyed by record id.
type VectorIndex interface {
	UpsertBatch(ctx context.Context, items []VectorUpsertItem) error
	Exists(ctx context.Context, ids []string) (map[string]bool, error)
	Query(ctx context.Context, vector []float32, limit int) ([]VectorUpsertItem, error)
	UpdateSlugMetadata(ctx context.Context, oldSlug, newSlug string) (int, error)
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// SnapshotKey is the object key under which a page's raw HTML is archived.
func SnapshotKey(slug string) string {
	return "pages/" + slug + ".html"
}
