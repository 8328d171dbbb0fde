// Package vector adapts a pgvector table into the VectorIndex contract. The
// table is written only through this component; the relational rows in
// raw_faqs carry the success flag that the repair sweep reconciles.
package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/Wikifaq/internal/core"
)

// DefaultBatchSize bounds one upsert statement batch to respect payload limits.
const DefaultBatchSize = 50

type Index struct {
	db        *sql.DB
	batchSize int
}

func NewIndex(db *sql.DB, batchSize int) *Index {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Index{db: db, batchSize: batchSize}
}

// UpsertBatch writes items in fixed-size chunks. Each chunk is one
// transaction; a chunk failure aborts the remainder.
func (x *Index) UpsertBatch(ctx context.Context, items []core.VectorUpsertItem) error {
	for start := 0; start < len(items); start += x.batchSize {
		end := start + x.batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := x.upsertChunk(ctx, items[start:end]); err != nil {
			return fmt.Errorf("vector upsert chunk [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

func (x *Index) upsertChunk(ctx context.Context, items []core.VectorUpsertItem) error {
	tx, err := x.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO faq_vectors (id, embedding, metadata, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata, updated_at = now()
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, it := range items {
		meta, err := json.Marshal(it.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal metadata for %s: %w", it.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, it.ID, pgvector.NewVector(it.Vector), string(meta)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Exists reports which of the given record ids are present in the index.
func (x *Index) Exists(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	const q = `SELECT id FROM faq_vectors WHERE id = ANY($1)`
	rows, err := x.db.QueryContext(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// Query returns the nearest neighbors for a query vector, metadata included.
func (x *Index) Query(ctx context.Context, vec []float32, limit int) ([]core.VectorUpsertItem, error) {
	const q = `
		SELECT id, embedding, metadata
		FROM faq_vectors
		ORDER BY embedding <-> $1
		LIMIT $2
	`
	rows, err := x.db.QueryContext(ctx, q, pgvector.NewVector(vec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.VectorUpsertItem
	for rows.Next() {
		var (
			it   core.VectorUpsertItem
			emb  pgvector.Vector
			meta []byte
		)
		if err := rows.Scan(&it.ID, &emb, &meta); err != nil {
			return nil, err
		}
		it.Vector = emb.Slice()
		if err := json.Unmarshal(meta, &it.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", it.ID, err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateSlugMetadata rewrites the slug field of every vector tagged with
// oldSlug. A metadata patch, not a re-embed.
func (x *Index) UpdateSlugMetadata(ctx context.Context, oldSlug, newSlug string) (int, error) {
	const q = `
		UPDATE faq_vectors
		SET metadata = jsonb_set(metadata, '{slug}', to_jsonb($2::text)), updated_at = now()
		WHERE metadata ->> 'slug' = $1
	`
	res, err := x.db.ExecContext(ctx, q, oldSlug, newSlug)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

var _ core.VectorIndex = (*Index)(nil)
