// Package repair reconciles the relational store with the vector index.
// Drift appears when a vector upsert succeeds but the follow-up success-flag
// write does not; the sweep detects it and repairs the record, not the
// vector.
package repair

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/markdave123-py/Wikifaq/internal/core"
	"github.com/markdave123-py/Wikifaq/internal/metrics"
)

// DefaultPageSize bounds one sweep page.
const DefaultPageSize = 100

type Sweeper struct {
	db       core.DbClient
	index    core.VectorIndex
	metrics  *metrics.Metrics
	pageSize int
	logger   *slog.Logger
}

func NewSweeper(db core.DbClient, index core.VectorIndex, m *metrics.Metrics, pageSize int) *Sweeper {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Sweeper{
		db:       db,
		index:    index,
		metrics:  m,
		pageSize: pageSize,
		logger:   slog.Default().With("component", "repair"),
	}
}

// RepairDrift sweeps every unflagged record in fixed-size keyset pages,
// flipping the flag for each record whose vector already exists. Rows that
// genuinely lack a vector are skipped over, never blocking rows behind them
// (re-indexing those is the pipeline's job). Idempotent and restartable:
// re-running over a repaired store does nothing.
func (s *Sweeper) RepairDrift(ctx context.Context) (int, error) {
	repaired := 0
	cursor := ""
	for {
		if ctx.Err() != nil {
			return repaired, ctx.Err()
		}

		records, err := s.db.ListUnflaggedFaqRecords(ctx, cursor, s.pageSize)
		if err != nil {
			return repaired, fmt.Errorf("list unflagged records: %w", err)
		}
		if len(records) == 0 {
			break
		}
		cursor = records[len(records)-1].ID

		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}

		present, err := s.index.Exists(ctx, ids)
		if err != nil {
			return repaired, fmt.Errorf("check vector presence: %w", err)
		}

		var fixable []string
		for _, id := range ids {
			if present[id] {
				fixable = append(fixable, id)
			}
		}

		if len(fixable) > 0 {
			if err := s.db.MarkVectorSuccess(ctx, fixable); err != nil {
				return repaired, fmt.Errorf("repair flags: %w", err)
			}
			repaired += len(fixable)
			if s.metrics != nil {
				s.metrics.DriftRepairsTotal.Add(float64(len(fixable)))
			}
			s.logger.Info("repaired drifted records", "count", len(fixable))
		}

		if len(records) < s.pageSize {
			break
		}
	}
	return repaired, nil
}

// RenameSlug rewrites vector metadata after a slug's canonical form changes,
// for example when search re-resolution later finds a better canonical
// title. Metadata patch only; embeddings are untouched.
func (s *Sweeper) RenameSlug(ctx context.Context, oldSlug, newSlug string) (int, error) {
	if oldSlug == "" || newSlug == "" || oldSlug == newSlug {
		return 0, fmt.Errorf("invalid slug rename %q -> %q", oldSlug, newSlug)
	}
	n, err := s.index.UpdateSlugMetadata(ctx, oldSlug, newSlug)
	if err != nil {
		return 0, fmt.Errorf("rewrite slug metadata: %w", err)
	}
	s.logger.Info("rewrote slug metadata", "old", oldSlug, "new", newSlug, "vectors", n)
	return n, nil
}
