package models

import (
	"time"
)

// Queue lifecycle states. A row never leaves a terminal state except by
// explicit maintenance (see RequeueFailed).
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// How a page entered the queue.
const (
	OriginSeed      = "seed"
	OriginCrossLink = "cross_link"
)

// QueueEntry represents one Wikipedia page awaiting or undergoing processing.
type QueueEntry struct {
	ID           string     `db:"id" json:"id"`
	Title        string     `db:"title" json:"title"`
	Slug         string     `db:"slug" json:"slug"`
	URL          string     `db:"url" json:"url"`
	DisplayName  string     `db:"human_readable_name" json:"human_readable_name"`
	Status       string     `db:"status" json:"status"` // pending | processing | completed | failed
	Attempts     int        `db:"attempts" json:"attempts"`
	ErrorMessage string     `db:"error_message" json:"error_message,omitempty"`
	Origin       string     `db:"source" json:"source"` // "seed" or "cross_link"
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

// FaqFile is the metadata record for one page that has produced FAQs.
// Exactly one per slug; created lazily on first successful generation.
type FaqFile struct {
	ID          string    `db:"id" json:"id"`
	Slug        string    `db:"slug" json:"slug"`
	DisplayName string    `db:"human_readable_name" json:"human_readable_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FaqRecord is one generated Q&A pair. CrossLink and MediaLink are
// denormalized: CrossLink holds a comma-joined list, MediaLink a single URL.
type FaqRecord struct {
	ID                  string    `db:"id" json:"id"`
	FaqFileID           string    `db:"faq_file_id" json:"faq_file_id"`
	URL                 string    `db:"url" json:"url"`
	Title               string    `db:"title" json:"title"`
	DisplayName         string    `db:"human_readable_name" json:"human_readable_name"`
	LastUpdated         string    `db:"last_updated" json:"last_updated"`
	Subheader           string    `db:"subheader" json:"subheader,omitempty"`
	Question            string    `db:"question" json:"question"`
	Answer              string    `db:"answer" json:"answer"`
	CrossLink           string    `db:"cross_link" json:"cross_link,omitempty"`
	MediaLink           string    `db:"media_link" json:"media_link,omitempty"`
	VectorUpsertSuccess bool      `db:"vector_upsert_success" json:"vector_upsert_success"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// PageContent is what the content fetcher returns for one page.
type PageContent struct {
	RawHTML     string
	LastUpdated string
	DisplayName string
	MediaURLs   []string
}

// GeneratedFaq is one FAQ item as produced by the LLM, before persistence.
type GeneratedFaq struct {
	Subheader  string   `json:"subheader,omitempty"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	CrossLinks []string `json:"cross_links,omitempty"`
	MediaLinks []string `json:"media_links,omitempty"`
}

// GenerationResult is the structured output of a first-pass LLM call.
type GenerationResult struct {
	Faqs        []GeneratedFaq
	DisplayName string
	LastUpdated string
}

// QueueStats holds per-status row counts for operator visibility.
type QueueStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
