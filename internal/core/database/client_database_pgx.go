package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/Wikifaq/internal/config"
	"github.com/markdave123-py/Wikifaq/internal/core"
	"github.com/markdave123-py/Wikifaq/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for a long-running worker; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// DB exposes the underlying pool so sibling components (vector index) can
// share the connection without a second pool.
func (c *DatabaseClient) DB() *sql.DB {
	return c.db
}

// Queue operations

// EnqueuePage inserts a queue row unless the slug is already known.
// Returns true if a new row was created.
func (c *DatabaseClient) EnqueuePage(ctx context.Context, entry *models.QueueEntry) (bool, error) {
	if entry == nil {
		return false, errors.New("nil queue entry")
	}
	const q = `
		INSERT INTO processing_queue
			(id, title, slug, url, human_readable_name, status, attempts, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, COALESCE($8, now()))
		ON CONFLICT (slug) DO NOTHING
	`
	res, err := c.db.ExecContext(ctx, q,
		entry.ID, entry.Title, entry.Slug, entry.URL, entry.DisplayName, models.StatusPending, entry.Origin, entry.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *DatabaseClient) ReadPendingQueue(ctx context.Context, limit int) ([]models.QueueEntry, error) {
	const q = `
		SELECT id, title, slug, url, human_readable_name, status, attempts,
		       COALESCE(error_message, ''), source, created_at, processed_at
		FROM processing_queue
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := c.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.QueueEntry
	for rows.Next() {
		var e models.QueueEntry
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Slug, &e.URL, &e.DisplayName, &e.Status, &e.Attempts,
			&e.ErrorMessage, &e.Origin, &e.CreatedAt, &e.ProcessedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClaimQueueEntry marks a pending row as processing with a single conditional
// update. Returns false when another worker already claimed the row.
func (c *DatabaseClient) ClaimQueueEntry(ctx context.Context, id string) (bool, error) {
	const q = `
		UPDATE processing_queue
		SET status = 'processing', attempts = attempts + 1
		WHERE id = $1 AND status = 'pending'
	`
	res, err := c.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *DatabaseClient) TransitionQueue(ctx context.Context, id string, status string, errMsg string) error {
	const q = `
		UPDATE processing_queue
		SET status = $2,
		    error_message = NULLIF($3, ''),
		    processed_at = CASE WHEN $2 IN ('completed', 'failed') THEN now() ELSE processed_at END
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status, errMsg)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("queue entry not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) GetQueueEntryBySlug(ctx context.Context, slug string) (*models.QueueEntry, error) {
	const q = `
		SELECT id, title, slug, url, human_readable_name, status, attempts,
		       COALESCE(error_message, ''), source, created_at, processed_at
		FROM processing_queue WHERE slug = $1
	`
	var e models.QueueEntry
	err := c.db.QueryRowContext(ctx, q, slug).Scan(
		&e.ID, &e.Title, &e.Slug, &e.URL, &e.DisplayName, &e.Status, &e.Attempts,
		&e.ErrorMessage, &e.Origin, &e.CreatedAt, &e.ProcessedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *DatabaseClient) QueueStats(ctx context.Context) (*models.QueueStats, error) {
	const q = `SELECT status, COUNT(*) FROM processing_queue GROUP BY status`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats models.QueueStats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		switch status {
		case models.StatusPending:
			stats.Pending = count
		case models.StatusProcessing:
			stats.Processing = count
		case models.StatusCompleted:
			stats.Completed = count
		case models.StatusFailed:
			stats.Failed = count
		}
	}
	return &stats, rows.Err()
}

// RequeueFailed flips terminal-failed rows back to pending. Maintenance only.
func (c *DatabaseClient) RequeueFailed(ctx context.Context) (int, error) {
	const q = `
		UPDATE processing_queue
		SET status = 'pending', error_message = NULL, processed_at = NULL
		WHERE status = 'failed'
	`
	res, err := c.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// FaqFile operations

// UpsertFaqFile returns the existing file id for a known slug, creating the
// row on first call. The conflict clause keeps concurrent upserts to one row.
func (c *DatabaseClient) UpsertFaqFile(ctx context.Context, slug, displayName string) (string, error) {
	const q = `
		INSERT INTO faq_files (id, slug, human_readable_name, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (slug) DO UPDATE
		SET human_readable_name = COALESCE(NULLIF(EXCLUDED.human_readable_name, ''), faq_files.human_readable_name)
		RETURNING id
	`
	var id string
	if err := c.db.QueryRowContext(ctx, q, newID(), slug, displayName).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (c *DatabaseClient) GetFaqFileBySlug(ctx context.Context, slug string) (*models.FaqFile, error) {
	const q = `
		SELECT id, slug, human_readable_name, created_at
		FROM faq_files WHERE slug = $1
	`
	var f models.FaqFile
	err := c.db.QueryRowContext(ctx, q, slug).Scan(&f.ID, &f.Slug, &f.DisplayName, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *DatabaseClient) ListFaqFiles(ctx context.Context, limit int) ([]models.FaqFile, error) {
	const q = `
		SELECT id, slug, human_readable_name, created_at
		FROM faq_files
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := c.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FaqFile
	for rows.Next() {
		var f models.FaqFile
		if err := rows.Scan(&f.ID, &f.Slug, &f.DisplayName, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FaqRecord operations

// InsertFaqRecords inserts records in a single transaction.
func (c *DatabaseClient) InsertFaqRecords(ctx context.Context, records []models.FaqRecord) error {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if records[i].Question == "" || records[i].Answer == "" {
			return fmt.Errorf("faq record %d: question and answer are required", i)
		}
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO raw_faqs
			(id, faq_file_id, url, title, human_readable_name, last_updated,
			 subheader, question, answer, cross_link, media_link, vector_upsert_success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, NULLIF($10, ''), NULLIF($11, ''), FALSE, now())
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.FaqFileID, r.URL, r.Title, r.DisplayName, r.LastUpdated,
			r.Subheader, r.Question, r.Answer, r.CrossLink, r.MediaLink,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) GetFaqRecordsByFile(ctx context.Context, fileID string) ([]models.FaqRecord, error) {
	const q = `
		SELECT id, faq_file_id, url, title, human_readable_name, last_updated,
		       COALESCE(subheader, ''), question, answer, COALESCE(cross_link, ''),
		       COALESCE(media_link, ''), vector_upsert_success, created_at
		FROM raw_faqs
		WHERE faq_file_id = $1
		ORDER BY created_at ASC
	`
	return c.queryFaqRecords(ctx, q, fileID)
}

// ListUnflaggedFaqRecords returns records whose vector upsert has not been
// confirmed, as an id-ordered keyset page starting after afterID. Keyset
// paging lets the drift-repair sweep advance past rows it cannot fix.
func (c *DatabaseClient) ListUnflaggedFaqRecords(ctx context.Context, afterID string, limit int) ([]models.FaqRecord, error) {
	const q = `
		SELECT id, faq_file_id, url, title, human_readable_name, last_updated,
		       COALESCE(subheader, ''), question, answer, COALESCE(cross_link, ''),
		       COALESCE(media_link, ''), vector_upsert_success, created_at
		FROM raw_faqs
		WHERE vector_upsert_success = FALSE
		  AND id > COALESCE(NULLIF($1, '')::uuid, '00000000-0000-0000-0000-000000000000'::uuid)
		ORDER BY id ASC
		LIMIT $2
	`
	return c.queryFaqRecords(ctx, q, afterID, limit)
}

func (c *DatabaseClient) MarkVectorSuccess(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `UPDATE raw_faqs SET vector_upsert_success = TRUE WHERE id = ANY($1)`
	_, err := c.db.ExecContext(ctx, q, ids)
	return err
}

func (c *DatabaseClient) queryFaqRecords(ctx context.Context, q string, args ...any) ([]models.FaqRecord, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FaqRecord
	for rows.Next() {
		var r models.FaqRecord
		if err := rows.Scan(
			&r.ID, &r.FaqFileID, &r.URL, &r.Title, &r.DisplayName, &r.LastUpdated,
			&r.Subheader, &r.Question, &r.Answer, &r.CrossLink,
			&r.MediaLink, &r.VectorUpsertSuccess, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
